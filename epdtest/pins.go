// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdtest

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// BusyPin is a busy line that reports busy for a number of samples.
type BusyPin struct {
	gpiotest.Pin

	mu sync.Mutex
	// active is the level driven while busy.
	active  gpio.Level
	pending int
	stuck   bool
	samples int
}

// NewBusyPin returns an idle busy line driving active while busy.
func NewBusyPin(name string, active gpio.Level) *BusyPin {
	return &BusyPin{
		Pin:    gpiotest.Pin{N: name},
		active: active,
	}
}

// In implements gpio.PinIn. The line is driven by the simulated controller,
// pull and edge settings are ignored.
func (p *BusyPin) In(pull gpio.Pull, edge gpio.Edge) error {
	return nil
}

// Read implements gpio.PinIn.
func (p *BusyPin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.samples++

	if p.stuck {
		return p.active
	}
	if p.pending > 0 {
		p.pending--
		return p.active
	}
	return !p.active
}

// BusyFor makes the next n samples report busy.
func (p *BusyPin) BusyFor(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = n
}

// SetStuck makes the line report busy forever, like a disconnected or
// sleeping controller.
func (p *BusyPin) SetStuck(stuck bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stuck = stuck
}

// Samples returns the number of Read calls so far.
func (p *BusyPin) Samples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samples
}

// Pins are the control lines of a simulated module.
type Pins struct {
	DC   *gpiotest.Pin
	CS   *gpiotest.Pin
	RST  *gpiotest.Pin
	Busy *BusyPin
}

// NewPins returns a set of idle control lines. active is the busy level of
// the simulated controller.
func NewPins(active gpio.Level) *Pins {
	return &Pins{
		DC:   &gpiotest.Pin{N: "DC"},
		CS:   &gpiotest.Pin{N: "CS", L: gpio.High},
		RST:  &gpiotest.Pin{N: "RST", L: gpio.High},
		Busy: NewBusyPin("BUSY", active),
	}
}
