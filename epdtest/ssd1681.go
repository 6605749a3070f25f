// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdtest

import (
	"bytes"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// SSD1681 models the RAM of an SSD1681-family controller (two 1-bit planes
// written through 0x24 and 0x26, addressed by a byte-wide X and a row Y
// counter inside a window).
type SSD1681 struct {
	// OnRefresh is called on every master activation with a copy of the BW
	// plane and the display update control 2 value in effect.
	OnRefresh func(bw []byte, update byte)

	mu     sync.Mutex
	width  int
	height int
	stride int

	bw  []byte
	red []byte

	cmd    byte
	args   []byte
	entry  byte
	xStart int
	xEnd   int
	yStart int
	yEnd   int
	x      int
	y      int
	update byte
	border byte
	asleep bool

	refreshes []byte
}

// NewSSD1681 returns a controller model with white RAM.
func NewSSD1681(width, height int) *SSD1681 {
	stride := (width + 7) / 8
	m := &SSD1681{
		width:  width,
		height: height,
		stride: stride,
		bw:     bytes.Repeat([]byte{0xFF}, stride*height),
		red:    bytes.Repeat([]byte{0xFF}, stride*height),
		entry:  0x03,
		xEnd:   stride - 1,
		yEnd:   height - 1,
	}
	return m
}

// RefreshCommand returns the master activation opcode.
func (m *SSD1681) RefreshCommand() byte {
	return 0x20
}

// BusyLevel returns the level driven while busy.
func (m *SSD1681) BusyLevel() gpio.Level {
	return gpio.High
}

// Command implements Observer.
func (m *SSD1681) Command(cmd byte) {
	m.mu.Lock()
	m.cmd = cmd
	m.args = m.args[:0]

	var (
		cb     func([]byte, byte)
		frame  []byte
		update byte
	)

	switch cmd {
	case 0x12:
		m.asleep = false
		m.entry = 0x03
		m.xStart, m.xEnd = 0, m.stride-1
		m.yStart, m.yEnd = 0, m.height-1
		m.x, m.y = 0, 0
	case 0x20:
		m.refreshes = append(m.refreshes, m.update)
		if m.OnRefresh != nil {
			cb = m.OnRefresh
			frame = append([]byte(nil), m.bw...)
			update = m.update
		}
	}
	m.mu.Unlock()

	if cb != nil {
		cb(frame, update)
	}
}

// Data implements Observer.
func (m *SSD1681) Data(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.cmd {
	case 0x24:
		m.writeRAM(m.bw, data)
		return
	case 0x26:
		m.writeRAM(m.red, data)
		return
	}

	m.args = append(m.args, data...)
	a := m.args

	switch m.cmd {
	case 0x10:
		if len(a) >= 1 {
			m.asleep = a[0] != 0
		}
	case 0x11:
		if len(a) >= 1 {
			m.entry = a[0]
		}
	case 0x22:
		if len(a) >= 1 {
			m.update = a[0]
		}
	case 0x3C:
		if len(a) >= 1 {
			m.border = a[0]
		}
	case 0x44:
		if len(a) >= 2 {
			m.xStart, m.xEnd = int(a[0]), int(a[1])
		}
	case 0x45:
		if len(a) >= 4 {
			m.yStart = int(a[0]) | int(a[1])<<8
			m.yEnd = int(a[2]) | int(a[3])<<8
		}
	case 0x4E:
		if len(a) >= 1 {
			m.x = int(a[0])
		}
	case 0x4F:
		if len(a) >= 2 {
			m.y = int(a[0]) | int(a[1])<<8
		}
	}
}

// writeRAM stores bytes at the address counter and advances it according to
// the data entry mode. X wraps inside the window, Y wraps around the panel.
func (m *SSD1681) writeRAM(plane []byte, data []byte) {
	xInc := m.entry&0x01 != 0
	yInc := m.entry&0x02 != 0
	yFirst := m.entry&0x04 != 0

	lo, hi := m.xStart, m.xEnd
	if lo > hi {
		lo, hi = hi, lo
	}

	for _, b := range data {
		if m.x >= 0 && m.x < m.stride && m.y >= 0 && m.y < m.height {
			plane[m.y*m.stride+m.x] = b
		}

		if yFirst {
			m.y = m.stepY(yInc)
			continue
		}

		if xInc {
			m.x++
			if m.x > hi {
				m.x = lo
				m.y = m.stepY(yInc)
			}
		} else {
			m.x--
			if m.x < lo {
				m.x = hi
				m.y = m.stepY(yInc)
			}
		}
	}
}

func (m *SSD1681) stepY(inc bool) int {
	if inc {
		return (m.y + 1) % m.height
	}
	return (m.y - 1 + m.height) % m.height
}

// BW returns a copy of the black/white RAM plane.
func (m *SSD1681) BW() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.bw...)
}

// Red returns a copy of the second RAM plane (previous frame in partial mode).
func (m *SSD1681) Red() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.red...)
}

// EntryMode returns the last data entry mode.
func (m *SSD1681) EntryMode() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entry
}

// Border returns the last border waveform value.
func (m *SSD1681) Border() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.border
}

// Refreshes returns the display update control 2 value of every activation.
func (m *SSD1681) Refreshes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.refreshes...)
}

// Asleep reports whether deep sleep was requested.
func (m *SSD1681) Asleep() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asleep
}
