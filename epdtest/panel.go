// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdtest

import (
	"periph.io/x/conn/v3/gpio"
)

// Model is a controller RAM model driven by the decoded bus stream.
type Model interface {
	Observer
	// RefreshCommand is the opcode starting a refresh.
	RefreshCommand() byte
	// BusyLevel is the level of the busy line while busy.
	BusyLevel() gpio.Level
}

// Panel wires a Bus, control lines and a controller model together.
type Panel struct {
	Bus   *Bus
	Pins  *Pins
	Model Model

	// RefreshSamples is the number of busy samples reported after every
	// refresh command.
	RefreshSamples int
}

// NewPanel returns a simulated module driving m.
func NewPanel(m Model) *Panel {
	pins := NewPins(m.BusyLevel())
	p := &Panel{
		Bus:            NewBus(pins.DC),
		Pins:           pins,
		Model:          m,
		RefreshSamples: 2,
	}
	p.Bus.Observe(m)
	p.Bus.Observe(p)
	return p
}

// Command implements Observer.
func (p *Panel) Command(cmd byte) {
	if cmd == p.Model.RefreshCommand() && p.RefreshSamples > 0 {
		p.Pins.Busy.BusyFor(p.RefreshSamples)
	}
}

// Data implements Observer.
func (p *Panel) Data([]byte) {}
