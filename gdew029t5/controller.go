// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdew029t5

import (
	"time"

	"github.com/GermanBionicSystems/epaper/epdif"
)

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	waitUntilIdle()
	delay(time.Duration)
}

const (
	// transmitDelay follows each frame transmission.
	transmitDelay = 2 * time.Millisecond
	// refreshDelay must pass between the refresh command and polling the
	// status (at least 200µs).
	refreshDelay = 100 * time.Millisecond
)

// profileConfig holds the register values of an init profile. Nil slices
// skip the register.
type profileConfig struct {
	powerSetting []byte
	panelSetting []byte
	pll          []byte
	vcomDC       []byte
	// uploadLUT is set when the waveforms come from registers.
	uploadLUT bool
}

var profiles = map[Profile]profileConfig{
	Fast: {
		powerSetting: []byte{0x03, 0x00, 0x2B, 0x2B, 0x03},
		// Register LUT, 128x296, scan up, shift right, booster on.
		panelSetting: []byte{0xBF, 0x0D},
		// 100 Hz frame rate.
		pll:       []byte{0x3C},
		vcomDC:    []byte{0x12},
		uploadLUT: true,
	},
	OTP: {
		// LUT from OTP.
		panelSetting: []byte{0x1F, 0x0D},
	},
}

func initDisplay(ctrl controller, opts *Opts, cfg profileConfig) {
	if cfg.powerSetting != nil {
		ctrl.sendCommand(powerSetting)
		ctrl.sendData(cfg.powerSetting)
	}

	ctrl.sendCommand(boosterSoftStart)
	ctrl.sendData([]byte{0x17, 0x17, 0x17})

	ctrl.sendCommand(powerOn)
	ctrl.waitUntilIdle()

	ctrl.sendCommand(panelSetting)
	ctrl.sendData(cfg.panelSetting)

	if cfg.pll != nil {
		ctrl.sendCommand(pllControl)
		ctrl.sendData(cfg.pll)
	}

	ctrl.sendCommand(resolutionSetting)
	ctrl.sendData([]byte{
		byte(opts.Width),
		byte(opts.Height >> 8),
		byte(opts.Height),
	})

	if cfg.vcomDC != nil {
		ctrl.sendCommand(vcomDCSetting)
		ctrl.sendData(cfg.vcomDC)
	}

	ctrl.sendCommand(vcomAndDataInterval)
	ctrl.sendData([]byte{0x97})
}

func loadLUT(ctrl controller, lut *LUT) {
	for _, t := range lut.tables() {
		ctrl.sendCommand(t.cmd)
		ctrl.sendData(t.data)
	}
}

// transmit writes the old and the new frame.
func transmit(ctrl controller, prev, next []byte) {
	ctrl.sendCommand(dataStartTransmission1)
	ctrl.sendData(prev)
	ctrl.delay(transmitDelay)

	ctrl.sendCommand(dataStartTransmission2)
	ctrl.sendData(next)
	ctrl.delay(transmitDelay)
}

// refresh uploads the LUT when it is not nil and refreshes the panel.
func refresh(ctrl controller, lut *LUT) {
	if lut != nil {
		loadLUT(ctrl, lut)
	}

	ctrl.sendCommand(displayRefresh)
	ctrl.delay(refreshDelay)
	ctrl.waitUntilIdle()
}

// displayFrame shows next. A nil frame is sent as white.
func displayFrame(ctrl controller, opts *Opts, lut *LUT, prev, next []byte) {
	white := epdif.Fill(opts.Width, opts.Height, epdif.White)

	if prev == nil {
		prev = white
	}
	if next == nil {
		next = white
	}

	transmit(ctrl, prev, next)
	refresh(ctrl, lut)
}

// clearDisplay drives every pixel from black to white twice, which removes
// ghosting left after power-up.
func clearDisplay(ctrl controller, opts *Opts, lut *LUT) {
	if lut != nil {
		loadLUT(ctrl, lut)
	}

	black := epdif.Fill(opts.Width, opts.Height, epdif.Black)
	white := epdif.Fill(opts.Width, opts.Height, epdif.White)

	for i := 0; i < 2; i++ {
		transmit(ctrl, black, white)

		ctrl.sendCommand(displayRefresh)
		ctrl.delay(refreshDelay)
		ctrl.waitUntilIdle()
	}
}

// clean writes white to both frames and refreshes without a LUT upload.
func clean(ctrl controller, opts *Opts) {
	white := epdif.Fill(opts.Width, opts.Height, epdif.White)

	ctrl.sendCommand(dataStartTransmission1)
	ctrl.sendData(white)

	ctrl.sendCommand(dataStartTransmission2)
	ctrl.sendData(white)

	refresh(ctrl, nil)
}

func sleep(ctrl controller) {
	// Border floating.
	ctrl.sendCommand(vcomAndDataInterval)
	ctrl.sendData([]byte{0xF7})

	ctrl.sendCommand(powerOff)
	ctrl.waitUntilIdle()

	ctrl.sendCommand(deepSleep)
	ctrl.sendData([]byte{deepSleepCheck})
}
