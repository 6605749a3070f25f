// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/GermanBionicSystems/epaper/epdif"
	"github.com/GermanBionicSystems/epaper/epdtest"
	"github.com/GermanBionicSystems/epaper/gdeh0154d67"
	"github.com/GermanBionicSystems/epaper/gdew029t5"
	"github.com/GermanBionicSystems/epaper/internal/config"
	"github.com/GermanBionicSystems/epaper/internal/rpiopin"
)

// panel is the part of a driver the demo needs.
type panel interface {
	String() string
	Bounds() image.Rectangle
	// demo runs the vendor demo sequence over frames and leaves the panel
	// asleep.
	demo(frames [][]byte) error
	// show displays frame with a fast partial update or a full refresh.
	show(frame []byte, partial bool) error
	sleep() error
}

// preview mirrors every displayed frame, nil on hardware.
type preview interface {
	Write(frame []byte) (int, error)
}

// previews fans a frame out to several previews.
type previews []preview

func (ps previews) Write(frame []byte) (int, error) {
	for _, p := range ps {
		if _, err := p.Write(frame); err != nil {
			return 0, err
		}
	}
	return len(frame), nil
}

func mirror(p preview, frame []byte) error {
	if p == nil || frame == nil {
		return nil
	}
	_, err := p.Write(frame)
	return err
}

// gdehPanel drives the SSD1681 module through full and partial profiles.
type gdehPanel struct {
	dev     *gdeh0154d67.Dev
	preview preview
}

func (p *gdehPanel) String() string { return p.dev.String() }
func (p *gdehPanel) Bounds() image.Rectangle { return p.dev.Bounds() }

func (p *gdehPanel) sleep() error { return p.dev.Sleep() }

func (p *gdehPanel) demo(frames [][]byte) error {
	if err := p.dev.Init(gdeh0154d67.Full); err != nil {
		return err
	}
	if err := p.dev.Clear(); err != nil {
		return err
	}

	var last []byte
	for _, f := range frames {
		if err := p.dev.Display(f); err != nil {
			return err
		}
		if err := mirror(p.preview, f); err != nil {
			return err
		}
		last = f
	}

	// A black box written straight into the RAM window, then refreshed
	// partially on top of the last frame.
	if last != nil {
		if err := p.dev.Init(gdeh0154d67.Partial); err != nil {
			return err
		}
		if err := p.dev.DisplayPartBaseImage(last); err != nil {
			return err
		}
		box := make([]byte, 64/8*32)
		if _, err := p.dev.SetFrameMemory(box, 64, 84, 64, 32); err != nil {
			return err
		}
		if err := p.dev.DisplayPartFrame(); err != nil {
			return err
		}
	}

	return p.dev.Sleep()
}

func (p *gdehPanel) show(frame []byte, partial bool) error {
	want := gdeh0154d67.Full
	if partial {
		want = gdeh0154d67.Partial
	}

	switch {
	case p.dev.State() == epdif.Ready && p.dev.Profile() == want && partial:
		if err := p.dev.DisplayPart(frame); err != nil {
			return err
		}
	case partial:
		if err := p.dev.Init(want); err != nil {
			return err
		}
		if err := p.dev.DisplayPartBaseImage(frame); err != nil {
			return err
		}
	default:
		if err := p.dev.Init(want); err != nil {
			return err
		}
		if err := p.dev.Display(frame); err != nil {
			return err
		}
	}

	return mirror(p.preview, frame)
}

// gdewPanel drives the UC8151 module. Fast refreshes use the register LUT,
// full ones the OTP waveform. The controller sleeps between updates.
type gdewPanel struct {
	dev     *gdew029t5.Dev
	preview preview
	prev    []byte
}

func (p *gdewPanel) String() string { return p.dev.String() }
func (p *gdewPanel) Bounds() image.Rectangle { return p.dev.Bounds() }

func (p *gdewPanel) sleep() error { return p.dev.Sleep() }

func (p *gdewPanel) demo(frames [][]byte) error {
	if err := p.dev.Init(gdew029t5.Fast); err != nil {
		return err
	}
	if err := p.dev.Clear(); err != nil {
		return err
	}
	if err := p.dev.Sleep(); err != nil {
		return err
	}

	p.prev = nil
	for _, f := range frames {
		if err := p.dev.Init(gdew029t5.Fast); err != nil {
			return err
		}
		if err := p.dev.Display(p.prev, f); err != nil {
			return err
		}
		if err := mirror(p.preview, f); err != nil {
			return err
		}
		if err := p.dev.Sleep(); err != nil {
			return err
		}
		p.prev = f
	}

	if err := p.dev.Init(gdew029t5.Fast); err != nil {
		return err
	}
	if err := p.dev.Display(p.prev, nil); err != nil {
		return err
	}
	if err := p.dev.Sleep(); err != nil {
		return err
	}

	if err := p.dev.Init(gdew029t5.OTP); err != nil {
		return err
	}
	if err := p.dev.Clean(); err != nil {
		return err
	}
	p.prev = nil

	return p.dev.Sleep()
}

func (p *gdewPanel) show(frame []byte, partial bool) error {
	profile := gdew029t5.OTP
	if partial {
		profile = gdew029t5.Fast
	}

	if err := p.dev.Init(profile); err != nil {
		return err
	}
	if err := p.dev.Display(p.prev, frame); err != nil {
		return err
	}
	p.prev = frame

	if err := mirror(p.preview, frame); err != nil {
		return err
	}

	return p.dev.Sleep()
}

// wiring is the bus and control lines of the panel module.
type wiring struct {
	port        spi.Port
	dc, cs, rst gpio.PinOut
	busy        gpio.PinIn
	preview     preview
	hat         bool
}

// pinsByName resolves the configured pins, or selects the HAT wiring when no
// pin is named.
func pinsByName(w *wiring, pins config.PinsConfig) error {
	if pins == (config.PinsConfig{}) {
		w.hat = true
		return nil
	}

	lookup := func(name, role string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%s pin %q not found", role, name)
		}
		return p, nil
	}

	var err error
	if w.dc, err = lookup(pins.DC, "dc"); err != nil {
		return err
	}
	if pins.CS != "" {
		if w.cs, err = lookup(pins.CS, "cs"); err != nil {
			return err
		}
	}
	if w.rst, err = lookup(pins.RST, "rst"); err != nil {
		return err
	}
	if w.busy, err = lookup(pins.Busy, "busy"); err != nil {
		return err
	}
	return nil
}

// rpioPins resolves the configured pins as BCM numbers driven by go-rpio.
// No pin named selects the HAT numbers.
func rpioPins(w *wiring, pins config.PinsConfig) error {
	if pins == (config.PinsConfig{}) {
		w.dc = rpiopin.New(rpiopin.HAT.DC)
		w.cs = rpiopin.New(rpiopin.HAT.CS)
		w.rst = rpiopin.New(rpiopin.HAT.RST)
		w.busy = rpiopin.New(rpiopin.HAT.Busy)
		return nil
	}

	var err error
	if w.dc, err = rpiopin.ByName(pins.DC); err != nil {
		return err
	}
	if pins.CS != "" {
		if w.cs, err = rpiopin.ByName(pins.CS); err != nil {
			return err
		}
	}
	if w.rst, err = rpiopin.ByName(pins.RST); err != nil {
		return err
	}
	if w.busy, err = rpiopin.ByName(pins.Busy); err != nil {
		return err
	}
	return nil
}

// simulated returns the wiring of an in-memory module.
func simulated(name string, width, height int) *wiring {
	var m epdtest.Model
	if name == config.PanelGDEW029T5 {
		m = epdtest.NewUC8151(width, height)
	} else {
		m = epdtest.NewSSD1681(width, height)
	}

	sim := epdtest.NewPanel(m)
	return &wiring{
		port: sim.Bus,
		dc:   sim.Pins.DC,
		cs:   sim.Pins.CS,
		rst:  sim.Pins.RST,
		busy: sim.Pins.Busy,
	}
}

// panelSize returns the resolution of the named panel.
func panelSize(name string) (int, int) {
	if name == config.PanelGDEW029T5 {
		return gdew029t5.GDEW029T5.Width, gdew029t5.GDEW029T5.Height
	}
	return gdeh0154d67.GDEH0154D67.Width, gdeh0154d67.GDEH0154D67.Height
}

// openPanel builds the driver for cfg on w.
func openPanel(cfg *config.Config, w *wiring) (panel, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	speed := physic.Frequency(cfg.SpeedHz) * physic.Hertz

	switch cfg.Panel {
	case config.PanelGDEW029T5:
		opts := gdew029t5.GDEW029T5
		opts.MaxSpeed = speed
		opts.BusyTimeout = timeout

		var dev *gdew029t5.Dev
		if w.hat {
			dev, err = gdew029t5.NewHat(w.port, &opts)
		} else {
			dev, err = gdew029t5.New(w.port, w.dc, w.cs, w.rst, w.busy, &opts)
		}
		if err != nil {
			return nil, err
		}
		return &gdewPanel{dev: dev, preview: w.preview}, nil

	default:
		opts := gdeh0154d67.GDEH0154D67
		opts.MaxSpeed = speed
		opts.BusyTimeout = timeout

		var dev *gdeh0154d67.Dev
		if w.hat {
			dev, err = gdeh0154d67.NewHat(w.port, &opts)
		} else {
			dev, err = gdeh0154d67.New(w.port, w.dc, w.cs, w.rst, w.busy, &opts)
		}
		if err != nil {
			return nil, err
		}
		return &gdehPanel{dev: dev, preview: w.preview}, nil
	}
}

// clock counts partial updates and forces a full refresh periodically.
type clock struct {
	fullEvery int
	partials  int
}

// next reports whether the next update may be partial.
func (c *clock) next() bool {
	if c.partials >= c.fullEvery {
		c.partials = 0
		return false
	}
	c.partials++
	return true
}
