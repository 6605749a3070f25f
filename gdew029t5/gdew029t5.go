// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdew029t5

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
	panelSetting           byte = 0x00
	powerSetting           byte = 0x01
	powerOff               byte = 0x02
	powerOn                byte = 0x04
	boosterSoftStart       byte = 0x06
	deepSleep              byte = 0x07
	dataStartTransmission1 byte = 0x10
	displayRefresh         byte = 0x12
	dataStartTransmission2 byte = 0x13
	lutVCOM                byte = 0x20
	lutWW                  byte = 0x21
	lutBW                  byte = 0x22
	lutWB                  byte = 0x23
	lutBB                  byte = 0x24
	pllControl             byte = 0x30
	vcomAndDataInterval    byte = 0x50
	resolutionSetting      byte = 0x61
	getStatus              byte = 0x71
	vcomDCSetting          byte = 0x82
)

// deepSleepCheck must follow the deep sleep command.
const deepSleepCheck byte = 0xA5

// Hold times of the reset pulse.
var resetPulse = epdif.ResetPulse{
	Low:  10 * time.Millisecond,
	High: 10 * time.Millisecond,
}

// Profile selects where the refresh waveforms come from.
type Profile int

const (
	// Fast uploads the LUT before every refresh.
	Fast Profile = iota
	// OTP uses the waveforms stored in the controller.
	OTP
)

func (p Profile) String() string {
	switch p {
	case Fast:
		return "Fast"
	case OTP:
		return "OTP"
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

	// LUT replaces DefaultLUT in the Fast profile.
	LUT *LUT
}

// GDEW029T5 contains the display configuration for the Good Display
// GDEW029T5.
var GDEW029T5 = Opts{
	Width:  128,
	Height: 296,
}

// TransportOpts returns the transport configuration for the controller. The
// busy line is low while busy and is only updated by a get-status command.
func TransportOpts(opts *Opts) *epdif.Opts {
	return &epdif.Opts{
		MaxSpeed: opts.MaxSpeed,
		Busy: epdif.BusyOpts{
			ActiveLow:     true,
			StatusCommand: getStatus,
			Poll:          epdif.DefaultPoll,
			Settle:        epdif.DefaultSettle,
			Timeout:       opts.BusyTimeout,
		},
	}
}

// Dev defines the handler which is used to access the display.
type Dev struct {
	t    *epdif.Transport
	opts *Opts

	profile Profile
	state   epdif.State

	// prev is the frame shown by the last refresh, nil when unknown.
	prev   []byte
	buffer *image1bit.VerticalLSB
}

// New creates new handler which is used to access the display.
func New(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	t, err := epdif.New(p, epdif.Pins{DC: dc, CS: cs, RST: rst, Busy: busy}, TransportOpts(opts))
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

// NewTransport creates a handler on a transport configured with
// TransportOpts.
func NewTransport(t *epdif.Transport, opts *Opts) *Dev {
	buffer := image1bit.NewVerticalLSB(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Src.Draw(buffer, buffer.Bounds(), &image.Uniform{C: image1bit.On}, image.Point{})

	return &Dev{
		t:      t,
		opts:   opts,
		buffer: buffer,
	}
}

func (d *Dev) lut() *LUT {
	if d.profile != Fast {
		return nil
	}
	if d.opts.LUT != nil {
		return d.opts.LUT
	}
	return &DefaultLUT
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

// Init resets the controller, powers it on and programs the profile.
func (d *Dev) Init(profile Profile) error {
	cfg, ok := profiles[profile]
	if !ok {
		return fmt.Errorf("gdew029t5: unknown profile %v", profile)
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

func (d *Dev) frame(buf []byte) ([]byte, error) {
	if buf == nil {
		return nil, nil
	}
	if err := epdif.CheckFrame(buf, d.opts.Width, d.opts.Height); err != nil {
		return nil, err
	}
	return buf[:epdif.FrameSize(d.opts.Width, d.opts.Height)], nil
}

func (d *Dev) run(fn func(ctrl controller)) error {
	if err := d.state.CanDisplay(); err != nil {
		return err
	}

	eh := errorHandler{t: d.t}
	fn(&eh)

	return eh.err
}

// LoadLUT uploads the waveforms without refreshing.
func (d *Dev) LoadLUT() error {
	lut := d.opts.LUT
	if lut == nil {
		lut = &DefaultLUT
	}

	return d.run(func(ctrl controller) {
		loadLUT(ctrl, lut)
	})
}

// Display sends the previous and the next frame and refreshes. A nil frame is
// sent as white: a nil prev shows next on a blank panel, a nil next clears
// the panel.
func (d *Dev) Display(prev, next []byte) error {
	prev, err := d.frame(prev)
	if err != nil {
		return err
	}
	next, err = d.frame(next)
	if err != nil {
		return err
	}

	err = d.run(func(ctrl controller) {
		displayFrame(ctrl, d.opts, d.lut(), prev, next)
	})
	if err != nil {
		return err
	}

	d.prev = append(d.prev[:0], next...)
	if next == nil {
		d.prev = nil
	}

	return nil
}

// Clear performs the power-up clear: two black to white refreshes.
func (d *Dev) Clear() error {
	err := d.run(func(ctrl controller) {
		clearDisplay(ctrl, d.opts, d.lut())
	})
	if err == nil {
		d.prev = nil
	}
	return err
}

// Clean writes white to both frames and refreshes without uploading a LUT.
// It is meant to follow fast refreshes before the panel is stored.
func (d *Dev) Clean() error {
	err := d.run(func(ctrl controller) {
		clean(ctrl, d.opts)
	})
	if err == nil {
		d.prev = nil
	}
	return err
}

// Refresh refreshes the panel from the frames already in RAM.
func (d *Dev) Refresh() error {
	return d.run(func(ctrl controller) {
		refresh(ctrl, d.lut())
	})
}

// Sleep powers the panel off and enters deep sleep. Only Init wakes the
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

// Draw draws the given image to the display. The previously drawn frame is
// sent as the old frame so that only changed pixels are driven.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	if err := d.state.CanDisplay(); err != nil {
		return err
	}

	draw.Src.Draw(d.buffer, dstRect, src, srcPts)
	next := epdif.PackBits(d.buffer, d.opts.Width, d.opts.Height)

	return d.Display(d.prev, next)
}

// Halt clears the display.
func (d *Dev) Halt() error {
	return d.Display(d.prev, nil)
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("epd.Dev{%s, Width: %d, Height: %d}", d.t, d.opts.Width, d.opts.Height)
}

var _ display.Drawer = &Dev{}
