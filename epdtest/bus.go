// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdtest

import (
	"bytes"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Record is one command byte followed by the data bytes sent before the next
// command.
type Record struct {
	Cmd  byte
	Data []byte
}

// Observer receives the decoded stream as it is transferred.
type Observer interface {
	Command(cmd byte)
	Data(data []byte)
}

// Bus is a fake SPI port recording command/data framing.
type Bus struct {
	// Err, when set, is returned by every transfer.
	Err error

	// MaxTx is reported through conn.Limits. Zero means no limit.
	MaxTx int

	// Connection parameters of the last Connect call.
	Speed physic.Frequency
	Mode  spi.Mode
	Bits  int

	mu        sync.Mutex
	dc        gpio.PinIn
	records   []Record
	orphan    []byte
	observers []Observer
	transfers int
}

// NewBus returns a Bus that samples dc to tell commands from data.
func NewBus(dc gpio.PinIn) *Bus {
	return &Bus{dc: dc}
}

// Observe attaches o to the stream.
func (b *Bus) Observe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

var _ conn.Limits = &Bus{}

// String implements conn.Resource.
func (b *Bus) String() string {
	return "epdtest"
}

// Close implements spi.PortCloser.
func (b *Bus) Close() error {
	return nil
}

// LimitSpeed implements spi.Port.
func (b *Bus) LimitSpeed(f physic.Frequency) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Speed = f
	return nil
}

// Connect implements spi.Port.
func (b *Bus) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Speed, b.Mode, b.Bits = f, mode, bits
	return b, nil
}

// MaxTxSize implements conn.Limits.
func (b *Bus) MaxTxSize() int {
	return b.MaxTx
}

// Duplex implements conn.Conn.
func (b *Bus) Duplex() conn.Duplex {
	return conn.Half
}

// TxPackets implements spi.Conn.
func (b *Bus) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := b.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// Tx implements conn.Conn. With DC low every byte is a command, with DC high
// the bytes extend the data of the last command.
func (b *Bus) Tx(w, r []byte) error {
	if b.Err != nil {
		return b.Err
	}

	b.mu.Lock()
	b.transfers++
	isData := b.dc.Read() == gpio.High
	observers := b.observers

	if isData {
		data := append([]byte(nil), w...)
		if n := len(b.records); n > 0 {
			b.records[n-1].Data = append(b.records[n-1].Data, data...)
		} else {
			b.orphan = append(b.orphan, data...)
		}
		b.mu.Unlock()

		for _, o := range observers {
			o.Data(data)
		}
	} else {
		for _, c := range w {
			b.records = append(b.records, Record{Cmd: c})
		}
		b.mu.Unlock()

		for _, c := range w {
			for _, o := range observers {
				o.Command(c)
			}
		}
	}

	for i := range r {
		r[i] = 0
	}

	return nil
}

// Records returns a copy of the recorded stream.
func (b *Bus) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Record, len(b.records))
	for i, r := range b.records {
		out[i] = Record{Cmd: r.Cmd, Data: append([]byte(nil), r.Data...)}
	}
	return out
}

// Commands returns the recorded command bytes in order.
func (b *Bus) Commands() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, len(b.records))
	for i, r := range b.records {
		out[i] = r.Cmd
	}
	return out
}

// DataBytes returns the total number of data bytes recorded.
func (b *Bus) DataBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.orphan)
	for _, r := range b.records {
		n += len(r.Data)
	}
	return n
}

// Orphan returns data bytes sent before any command.
func (b *Bus) Orphan() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.orphan...)
}

// Transfers returns the number of Tx calls.
func (b *Bus) Transfers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transfers
}

// Clear drops all recorded records.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
	b.orphan = nil
	b.transfers = 0
}

// Find returns the records with the given command.
func Find(records []Record, cmd byte) []Record {
	var out []Record
	for _, r := range records {
		if r.Cmd == cmd {
			out = append(out, r)
		}
	}
	return out
}

// Equal reports whether two record streams are identical.
func Equal(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Cmd != b[i].Cmd || !bytes.Equal(a[i].Data, b[i].Data) {
			return false
		}
	}
	return true
}

var _ spi.PortCloser = (*Bus)(nil)
var _ spi.Conn = (*Bus)(nil)
