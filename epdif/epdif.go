// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdif

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DefaultMaxSpeed is the SPI clock used when Opts.MaxSpeed is zero.
const DefaultMaxSpeed = 4 * physic.MegaHertz

// defaultMaxTxSize matches the default spidev buffer size on Linux.
const defaultMaxTxSize = 4096

// Pins are the control lines of a panel module.
type Pins struct {
	// DC selects between command (low) and data (high) bytes.
	DC gpio.PinOut
	// CS is the chip select. It may be nil when the SPI port drives it.
	CS gpio.PinOut
	// RST is the active-low hardware reset.
	RST gpio.PinOut
	// Busy is driven by the controller while it is processing.
	Busy gpio.PinIn
}

// Opts configures a Transport.
type Opts struct {
	// MaxSpeed is the SPI clock. Zero selects DefaultMaxSpeed.
	MaxSpeed physic.Frequency
	// MaxTxSize splits data streams into transfers of at most this many
	// bytes. Zero selects the limit reported by the port, or 4096.
	MaxTxSize int
	// Busy configures the busy-wait synchronizer.
	Busy BusyOpts
	// Delay replaces time.Sleep for every fixed delay and poll interval.
	Delay func(time.Duration)
}

// ResetPulse describes the hold times of a hardware reset.
type ResetPulse struct {
	// Pre, when non-zero, holds RST high before pulling it low.
	Pre  time.Duration
	Low  time.Duration
	High time.Duration
}

// Transport frames commands and data for an e-paper controller.
type Transport struct {
	c conn.Conn

	dc   gpio.PinOut
	cs   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn

	busyOpts  BusyOpts
	maxTxSize int
	delay     func(time.Duration)
}

// New connects to the SPI port in mode 0 with 8 bit words and configures the
// control lines.
//
// This is the only fallible bring-up step; once it succeeds the panel
// protocol itself reports no errors.
func New(p spi.Port, pins Pins, opts *Opts) (*Transport, error) {
	if opts == nil {
		opts = &Opts{}
	}

	speed := opts.MaxSpeed
	if speed == 0 {
		speed = DefaultMaxSpeed
	}

	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("epdif: connecting to %s: %w", p, err)
	}

	return NewConn(c, pins, opts)
}

// NewConn is like New for an already connected bus.
func NewConn(c conn.Conn, pins Pins, opts *Opts) (*Transport, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if pins.DC == nil || pins.RST == nil || pins.Busy == nil {
		return nil, errors.New("epdif: DC, RST and Busy pins are required")
	}

	t := &Transport{
		c:         c,
		dc:        pins.DC,
		cs:        pins.CS,
		rst:       pins.RST,
		busy:      pins.Busy,
		busyOpts:  opts.Busy.withDefaults(),
		maxTxSize: opts.MaxTxSize,
		delay:     opts.Delay,
	}

	if t.maxTxSize <= 0 {
		if limits, ok := c.(conn.Limits); ok {
			t.maxTxSize = limits.MaxTxSize()
		}
	}
	if t.maxTxSize <= 0 {
		t.maxTxSize = defaultMaxTxSize
	}
	if t.delay == nil {
		t.delay = time.Sleep
	}

	if err := t.busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epdif: configuring busy pin: %w", err)
	}
	if err := t.csOut(gpio.High); err != nil {
		return nil, fmt.Errorf("epdif: configuring cs pin: %w", err)
	}
	if err := t.dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("epdif: configuring dc pin: %w", err)
	}
	if err := t.rst.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("epdif: configuring rst pin: %w", err)
	}

	return t, nil
}

// String returns the bus and DC pin names.
func (t *Transport) String() string {
	return fmt.Sprintf("%s, %s", t.c, t.dc)
}

// SendCommand sends a single command byte with DC low.
func (t *Transport) SendCommand(cmd byte) error {
	if err := t.dc.Out(gpio.Low); err != nil {
		return err
	}
	return t.tx([]byte{cmd})
}

// SendData sends data bytes with DC high. The meaning of the bytes depends on
// the command sent immediately before.
func (t *Transport) SendData(data ...byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := t.dc.Out(gpio.High); err != nil {
		return err
	}
	return t.tx(data)
}

// SetReset drives the reset line.
func (t *Transport) SetReset(l gpio.Level) error {
	return t.rst.Out(l)
}

// Pulse performs a hardware reset. It is also the only way to wake a
// controller from deep sleep.
func (t *Transport) Pulse(p ResetPulse) error {
	if p.Pre > 0 {
		if err := t.rst.Out(gpio.High); err != nil {
			return err
		}
		t.delay(p.Pre)
	}
	if err := t.rst.Out(gpio.Low); err != nil {
		return err
	}
	t.delay(p.Low)
	if err := t.rst.Out(gpio.High); err != nil {
		return err
	}
	t.delay(p.High)
	return nil
}

// Delay blocks for d using the configured delay function.
func (t *Transport) Delay(d time.Duration) {
	if d > 0 {
		t.delay(d)
	}
}

func (t *Transport) csOut(l gpio.Level) error {
	if t.cs == nil {
		return nil
	}
	return t.cs.Out(l)
}

// tx keeps CS asserted across all chunks of a single stream.
func (t *Transport) tx(w []byte) error {
	if err := t.csOut(gpio.Low); err != nil {
		return err
	}

	var err error
	for len(w) > 0 && err == nil {
		n := len(w)
		if n > t.maxTxSize {
			n = t.maxTxSize
		}
		err = t.c.Tx(w[:n], nil)
		w = w[n:]
	}

	if csErr := t.csOut(gpio.High); err == nil {
		err = csErr
	}
	return err
}
