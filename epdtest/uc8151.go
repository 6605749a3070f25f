// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdtest

import (
	"bytes"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// UC8151 models the RAM of a UC8151/IL0373-family controller (old and new
// frame transmitted through 0x10 and 0x13, waveforms uploaded to 0x20-0x24).
type UC8151 struct {
	// OnRefresh is called on every display refresh with a copy of the new
	// frame.
	OnRefresh func(frame []byte)

	mu   sync.Mutex
	size int

	old []byte
	new []byte
	pos int

	cmd    byte
	args   []byte
	regs   map[byte][]byte
	luts   map[byte][]byte
	asleep bool

	refreshes int
}

// NewUC8151 returns a controller model with white RAM.
func NewUC8151(width, height int) *UC8151 {
	size := (width + 7) / 8 * height
	return &UC8151{
		size: size,
		old:  bytes.Repeat([]byte{0xFF}, size),
		new:  bytes.Repeat([]byte{0xFF}, size),
		regs: map[byte][]byte{},
		luts: map[byte][]byte{},
	}
}

// RefreshCommand returns the display refresh opcode.
func (m *UC8151) RefreshCommand() byte {
	return 0x12
}

// BusyLevel returns the level driven while busy.
func (m *UC8151) BusyLevel() gpio.Level {
	return gpio.Low
}

// Command implements Observer.
func (m *UC8151) Command(cmd byte) {
	m.mu.Lock()
	m.cmd = cmd
	m.args = nil
	m.pos = 0

	var (
		cb    func([]byte)
		frame []byte
	)

	switch cmd {
	case 0x04:
		// Power on is only accepted after a hardware reset.
		m.asleep = false
	case 0x12:
		m.refreshes++
		if m.OnRefresh != nil {
			cb = m.OnRefresh
			frame = append([]byte(nil), m.new...)
		}
	case 0x20, 0x21, 0x22, 0x23, 0x24:
		m.luts[cmd] = nil
	}
	m.mu.Unlock()

	if cb != nil {
		cb(frame)
	}
}

// Data implements Observer.
func (m *UC8151) Data(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.cmd {
	case 0x10:
		m.pos += copy(m.old[min(m.pos, m.size):], data)
		return
	case 0x13:
		m.pos += copy(m.new[min(m.pos, m.size):], data)
		return
	case 0x20, 0x21, 0x22, 0x23, 0x24:
		m.luts[m.cmd] = append(m.luts[m.cmd], data...)
		return
	}

	m.args = append(m.args, data...)
	m.regs[m.cmd] = append([]byte(nil), m.args...)

	if m.cmd == 0x07 && len(m.args) >= 1 && m.args[0] == 0xA5 {
		m.asleep = true
	}
}

// Old returns a copy of the old frame RAM.
func (m *UC8151) Old() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.old...)
}

// New returns a copy of the new frame RAM.
func (m *UC8151) New() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.new...)
}

// Register returns the last parameters written to a register command.
func (m *UC8151) Register(cmd byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.regs[cmd]...)
}

// LUT returns the last waveform uploaded to a LUT register.
func (m *UC8151) LUT(cmd byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.luts[cmd]...)
}

// Refreshes returns the number of display refreshes.
func (m *UC8151) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

// Asleep reports whether deep sleep was entered with the check code.
func (m *UC8151) Asleep() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asleep
}
