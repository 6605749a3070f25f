// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdeh0154d67

import (
	"github.com/GermanBionicSystems/epaper/epdif"
)

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	waitUntilIdle()
}

// profileConfig holds the register values that differ between profiles.
type profileConfig struct {
	entryMode      byte
	borderWaveform byte
}

var profiles = map[Profile]profileConfig{
	// Y decrement, X increment.
	Full: {entryMode: 0x01, borderWaveform: 0x01},
	// Y increment, X increment.
	Partial: {entryMode: 0x03, borderWaveform: 0x05},
}

// WriteResult reports what SetFrameMemory did.
type WriteResult int

const (
	// Written means the rectangle was streamed to the controller.
	Written WriteResult = iota
	// SkippedNilBuffer means nothing was sent because the buffer was nil.
	SkippedNilBuffer
	// SkippedNegativeGeometry means nothing was sent because a coordinate or
	// dimension was negative.
	SkippedNegativeGeometry
	// SkippedShortBuffer means nothing was sent because the buffer does not
	// cover the clipped rectangle.
	SkippedShortBuffer
)

func (r WriteResult) String() string {
	switch r {
	case Written:
		return "Written"
	case SkippedNilBuffer:
		return "SkippedNilBuffer"
	case SkippedNegativeGeometry:
		return "SkippedNegativeGeometry"
	case SkippedShortBuffer:
		return "SkippedShortBuffer"
	}
	return "WriteResult(?)"
}

func initDisplay(ctrl controller, opts *Opts, cfg profileConfig) {
	ctrl.waitUntilIdle()
	ctrl.sendCommand(swReset)
	ctrl.waitUntilIdle()

	ctrl.sendCommand(driverOutputControl)
	ctrl.sendData([]byte{
		byte((opts.Height - 1) & 0xFF),
		byte((opts.Height - 1) >> 8),
		0x00,
	})

	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendData([]byte{cfg.entryMode})

	// Both profiles start the Y window at the last row.
	setMemoryArea(ctrl, 0, opts.Height-1, opts.Width-1, 0)

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendData([]byte{cfg.borderWaveform})

	// Internal temperature sensor.
	ctrl.sendCommand(tempSensorControl)
	ctrl.sendData([]byte{0x80})

	setMemoryPointer(ctrl, 0, opts.Height-1)
}

// setMemoryArea configures the RAM window. X is in pixels and truncated to
// the enclosing byte, Y is in rows.
func setMemoryArea(ctrl controller, xStart, yStart, xEnd, yEnd int) {
	ctrl.sendCommand(setRAMXAddressStartEndPosition)
	ctrl.sendData([]byte{byte(xStart >> 3), byte(xEnd >> 3)})

	ctrl.sendCommand(setRAMYAddressStartEndPosition)
	ctrl.sendData([]byte{
		byte(yStart), byte(yStart >> 8),
		byte(yEnd), byte(yEnd >> 8),
	})
}

// setMemoryPointer moves the RAM address counter and waits for the
// controller to settle.
func setMemoryPointer(ctrl controller, x, y int) {
	ctrl.sendCommand(setRAMXAddressCounter)
	ctrl.sendData([]byte{byte(x >> 3)})

	ctrl.sendCommand(setRAMYAddressCounter)
	ctrl.sendData([]byte{byte(y), byte(y >> 8)})

	ctrl.waitUntilIdle()
}

func writeRAM(ctrl controller, cmd byte, data []byte) {
	ctrl.sendCommand(cmd)
	ctrl.sendData(data)
}

func turnOnDisplay(ctrl controller, update byte) {
	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendData([]byte{update})
	ctrl.sendCommand(masterActivation)
	ctrl.waitUntilIdle()
}

func clearDisplay(ctrl controller, opts *Opts) {
	writeRAM(ctrl, writeRAMBW, epdif.Fill(opts.Width, opts.Height, epdif.White))
	turnOnDisplay(ctrl, updateFull)
}

// displayFrame writes the frame unless it is nil and starts a full refresh.
func displayFrame(ctrl controller, frame []byte) {
	if frame != nil {
		writeRAM(ctrl, writeRAMBW, frame)
	}
	turnOnDisplay(ctrl, updateFull)
}

// displayPartBase writes the frame to both RAMs so that following partial
// refreshes compare against it.
func displayPartBase(ctrl controller, frame []byte) {
	if frame != nil {
		writeRAM(ctrl, writeRAMBW, frame)
		writeRAM(ctrl, writeRAMRed, frame)
	}
	turnOnDisplay(ctrl, updatePartial)
}

func displayPart(ctrl controller, frame []byte) {
	if frame != nil {
		writeRAM(ctrl, writeRAMBW, frame)
	}
	turnOnDisplay(ctrl, updatePartial)
}

// frameWindow is the clipped rectangle of a SetFrameMemory call.
type frameWindow struct {
	x, y       int
	xEnd, yEnd int
	// srcStride is the row length of the source buffer in bytes.
	srcStride int
}

func (w frameWindow) cols() int {
	return (w.xEnd - w.x + 1) / 8
}

func (w frameWindow) rows() int {
	return w.yEnd - w.y + 1
}

// need returns the minimum source length covering the window.
func (w frameWindow) need() int {
	cols, rows := w.cols(), w.rows()
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return (rows-1)*w.srcStride + cols
}

// clipFrame aligns x and the width to bytes and clips the rectangle to the
// panel. The >= comparison matches the vendor driver; at equality both
// branches yield the last column or row.
func clipFrame(opts *Opts, x, y, width, height int) frameWindow {
	x = epdif.AlignX(x)
	width = epdif.AlignX(width)

	w := frameWindow{x: x, y: y, srcStride: width / 8}

	if x+width >= opts.Width {
		w.xEnd = opts.Width - 1
	} else {
		w.xEnd = x + width - 1
	}

	if y+height >= opts.Height {
		w.yEnd = opts.Height - 1
	} else {
		w.yEnd = y + height - 1
	}

	return w
}

func setFrameMemory(ctrl controller, opts *Opts, buf []byte, x, y, width, height int) WriteResult {
	if buf == nil {
		return SkippedNilBuffer
	}
	if x < 0 || y < 0 || width < 0 || height < 0 {
		return SkippedNegativeGeometry
	}

	w := clipFrame(opts, x, y, width, height)

	if len(buf) < w.need() {
		return SkippedShortBuffer
	}

	setMemoryArea(ctrl, w.x, w.y, w.xEnd, w.yEnd)
	setMemoryPointer(ctrl, w.x, w.y)

	ctrl.sendCommand(writeRAMBW)

	cols := w.cols()
	if cols <= 0 {
		return Written
	}

	for j := 0; j < w.rows(); j++ {
		off := j * w.srcStride
		ctrl.sendData(buf[off : off+cols])
	}

	return Written
}

func sleep(ctrl controller) {
	ctrl.sendCommand(deepSleepMode)
	ctrl.sendData([]byte{0x01})
}
