// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdeh0154d67

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"

	"github.com/GermanBionicSystems/epaper/epdif"
)

// Commands
const (
	driverOutputControl            byte = 0x01
	deepSleepMode                  byte = 0x10
	dataEntryModeSetting           byte = 0x11
	swReset                        byte = 0x12
	tempSensorControl              byte = 0x18
	masterActivation               byte = 0x20
	displayUpdateControl2          byte = 0x22
	writeRAMBW                     byte = 0x24
	writeRAMRed                    byte = 0x26
	borderWaveformControl          byte = 0x3C
	setRAMXAddressStartEndPosition byte = 0x44
	setRAMYAddressStartEndPosition byte = 0x45
	setRAMXAddressCounter          byte = 0x4E
	setRAMYAddressCounter          byte = 0x4F
)

// Display update control 2 sequences.
const (
	updateFull    byte = 0xF7
	updatePartial byte = 0xFF
)

// Hold times of the reset pulse.
var resetPulse = epdif.ResetPulse{
	Low:  10 * time.Millisecond,
	High: 10 * time.Millisecond,
}

// sleepDelay is waited between the deep sleep command and pulling RST low.
const sleepDelay = 200 * time.Millisecond

// Profile selects the refresh mode programmed by Init.
type Profile int

const (
	// Full refreshes flash the whole panel and leave no ghosting.
	Full Profile = iota
	// Partial refreshes only drive pixels that changed since the base image.
	Partial
)

func (p Profile) String() string {
	switch p {
	case Full:
		return "Full"
	case Partial:
		return "Partial"
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// Opts defines the structure of the display configuration.
type Opts struct {
	Width  int
	Height int

	// MaxSpeed is the SPI clock. Zero selects epdif.DefaultMaxSpeed.
	MaxSpeed physic.Frequency

	// BusyTimeout bounds every wait for the busy line. Zero waits forever.
	BusyTimeout time.Duration
}

// GDEH0154D67 contains the display configuration for the Good Display
// GDEH0154D67.
var GDEH0154D67 = Opts{
	Width:  200,
	Height: 200,
}

// Dev defines the handler which is used to access the display.
type Dev struct {
	t    *epdif.Transport
	opts *Opts

	profile Profile
	state   epdif.State

	// buffer keeps the content drawn through Draw.
	buffer *image1bit.VerticalLSB
}

// New creates new handler which is used to access the display.
func New(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	t, err := epdif.New(p, epdif.Pins{DC: dc, CS: cs, RST: rst, Busy: busy}, &epdif.Opts{
		MaxSpeed: opts.MaxSpeed,
		Busy:     epdif.BusyOpts{Timeout: opts.BusyTimeout},
	})
	if err != nil {
		return nil, err
	}

	return NewTransport(t, opts), nil
}

// NewHat creates new handler which is used to access the display. Default
// Waveshare Hat configuration is used.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	dc := rpi.P1_22
	cs := rpi.P1_24
	rst := rpi.P1_11
	busy := rpi.P1_18
	return New(p, dc, cs, rst, busy, opts)
}

// NewTransport creates a handler on an already configured transport. The
// transport's busy options are used as is; the controller drives BUSY high
// while busy.
func NewTransport(t *epdif.Transport, opts *Opts) *Dev {
	buffer := image1bit.NewVerticalLSB(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Src.Draw(buffer, buffer.Bounds(), &image.Uniform{C: image1bit.On}, image.Point{})

	return &Dev{
		t:      t,
		opts:   opts,
		buffer: buffer,
	}
}

// Reset pulses the reset line. It wakes the controller from deep sleep; Init
// must follow.
func (d *Dev) Reset() error {
	if err := d.t.Pulse(resetPulse); err != nil {
		return err
	}
	d.state = epdif.Uninitialized
	return nil
}

// Init resets the controller and programs it for the given refresh profile.
func (d *Dev) Init(profile Profile) error {
	cfg, ok := profiles[profile]
	if !ok {
		return fmt.Errorf("gdeh0154d67: unknown profile %v", profile)
	}

	if err := d.Reset(); err != nil {
		return err
	}

	eh := errorHandler{t: d.t}
	initDisplay(&eh, d.opts, cfg)
	if eh.err != nil {
		return eh.err
	}

	d.profile = profile
	d.state = epdif.Ready

	return nil
}

// State returns the operating mode of the controller.
func (d *Dev) State() epdif.State {
	return d.state
}

// Profile returns the profile programmed by the last Init.
func (d *Dev) Profile() Profile {
	return d.profile
}

// frame validates buf and trims it to one frame. A nil buf stays nil.
func (d *Dev) frame(buf []byte) ([]byte, error) {
	if buf == nil {
		return nil, nil
	}
	if err := epdif.CheckFrame(buf, d.opts.Width, d.opts.Height); err != nil {
		return nil, err
	}
	return buf[:epdif.FrameSize(d.opts.Width, d.opts.Height)], nil
}

// run executes a sequence once the controller accepts display operations.
func (d *Dev) run(fn func(ctrl controller)) error {
	if err := d.state.CanDisplay(); err != nil {
		return err
	}

	eh := errorHandler{t: d.t}
	fn(&eh)

	return eh.err
}

// Clear writes a white frame and performs a full refresh.
func (d *Dev) Clear() error {
	return d.run(func(ctrl controller) {
		clearDisplay(ctrl, d.opts)
	})
}

// Display writes buf to the frame RAM and performs a full refresh. A nil buf
// refreshes the current RAM content.
func (d *Dev) Display(buf []byte) error {
	frame, err := d.frame(buf)
	if err != nil {
		return err
	}

	return d.run(func(ctrl controller) {
		displayFrame(ctrl, frame)
	})
}

// DisplayPartBaseImage writes buf to both the frame and the previous frame
// RAM and refreshes. It must precede a series of DisplayPart calls.
func (d *Dev) DisplayPartBaseImage(buf []byte) error {
	frame, err := d.frame(buf)
	if err != nil {
		return err
	}

	return d.run(func(ctrl controller) {
		displayPartBase(ctrl, frame)
	})
}

// DisplayPartBaseWhiteImage is DisplayPartBaseImage with a white frame.
func (d *Dev) DisplayPartBaseWhiteImage() error {
	return d.DisplayPartBaseImage(epdif.Fill(d.opts.Width, d.opts.Height, epdif.White))
}

// DisplayPart writes buf to the frame RAM only and performs a partial
// refresh against the previous frame RAM.
func (d *Dev) DisplayPart(buf []byte) error {
	frame, err := d.frame(buf)
	if err != nil {
		return err
	}

	return d.run(func(ctrl controller) {
		displayPart(ctrl, frame)
	})
}

// SetFrameMemory writes a width x height rectangle of buf at (x, y) into the
// frame RAM without refreshing. x and width are truncated to multiples of 8
// and the rectangle is clipped to the panel; rows of buf are width/8 bytes.
//
// Invalid arguments do not return an error. The WriteResult tells whether
// anything was sent.
func (d *Dev) SetFrameMemory(buf []byte, x, y, width, height int) (WriteResult, error) {
	var res WriteResult

	err := d.run(func(ctrl controller) {
		res = setFrameMemory(ctrl, d.opts, buf, x, y, width, height)
	})

	return res, err
}

// DisplayFrame performs a full refresh of the current RAM content.
func (d *Dev) DisplayFrame() error {
	return d.run(func(ctrl controller) {
		turnOnDisplay(ctrl, updateFull)
	})
}

// DisplayPartFrame performs a partial refresh of the current RAM content.
func (d *Dev) DisplayPartFrame() error {
	return d.run(func(ctrl controller) {
		turnOnDisplay(ctrl, updatePartial)
	})
}

// SetMemoryArea sets the RAM window. X coordinates are truncated to the
// enclosing byte.
func (d *Dev) SetMemoryArea(xStart, yStart, xEnd, yEnd int) error {
	return d.run(func(ctrl controller) {
		setMemoryArea(ctrl, xStart, yStart, xEnd, yEnd)
	})
}

// SetMemoryPointer sets the RAM address counter and waits until the
// controller is idle.
func (d *Dev) SetMemoryPointer(x, y int) error {
	return d.run(func(ctrl controller) {
		setMemoryPointer(ctrl, x, y)
	})
}

// Sleep enters deep sleep and pulls the reset line low. Only Init wakes the
// controller up again; calling Sleep on a sleeping panel does nothing.
func (d *Dev) Sleep() error {
	if d.state == epdif.DeepSleep {
		return nil
	}

	eh := errorHandler{t: d.t}
	sleep(&eh)
	if eh.err != nil {
		return eh.err
	}

	d.t.Delay(sleepDelay)

	if err := d.t.SetReset(gpio.Low); err != nil {
		return err
	}

	d.state = epdif.DeepSleep

	return nil
}

// ColorModel returns a 1Bit color model.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the bounds for the configured display.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.Width, d.opts.Height)
}

// Draw draws the given image to the display. Content outside dstRect is kept
// from previous calls. The refresh mode follows the profile given to Init.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	if err := d.state.CanDisplay(); err != nil {
		return err
	}

	draw.Src.Draw(d.buffer, dstRect, src, srcPts)
	frame := epdif.PackBits(d.buffer, d.opts.Width, d.opts.Height)

	if d.profile == Partial {
		return d.DisplayPart(frame)
	}

	return d.Display(frame)
}

// Halt clears the display.
func (d *Dev) Halt() error {
	return d.Clear()
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("epd.Dev{%s, Width: %d, Height: %d}", d.t, d.opts.Width, d.opts.Height)
}

var _ display.Drawer = &Dev{}
