// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdtest

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
)

func send(t *testing.T, p *Panel, cmd byte, data ...byte) {
	t.Helper()

	if err := p.Pins.DC.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := p.Bus.Tx([]byte{cmd}, nil); err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		return
	}
	if err := p.Pins.DC.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if err := p.Bus.Tx(data, nil); err != nil {
		t.Fatal(err)
	}
}

func TestBusRecords(t *testing.T) {
	pins := NewPins(gpio.High)
	bus := NewBus(pins.DC)

	pins.DC.L = gpio.High
	_ = bus.Tx([]byte{0x01}, nil)
	pins.DC.L = gpio.Low
	_ = bus.Tx([]byte{0x12, 0x22}, nil)
	pins.DC.L = gpio.High
	_ = bus.Tx([]byte{0xF7}, nil)

	want := []Record{{Cmd: 0x12}, {Cmd: 0x22, Data: []byte{0xF7}}}
	if diff := cmp.Diff(bus.Records(), want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Records() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(bus.Orphan(), []byte{0x01}); diff != "" {
		t.Errorf("Orphan() difference (-got +want):\n%s", diff)
	}
	if got := bus.DataBytes(); got != 2 {
		t.Errorf("DataBytes() = %d, want 2", got)
	}
	if !Equal(Find(bus.Records(), 0x22), want[1:]) {
		t.Error("Find() did not return the 0x22 record")
	}

	bus.Clear()
	if len(bus.Records()) != 0 || bus.Transfers() != 0 {
		t.Error("Clear() kept records")
	}
}

func TestBusyPin(t *testing.T) {
	p := NewBusyPin("BUSY", gpio.Low)

	if p.Read() != gpio.High {
		t.Error("idle line should read high")
	}

	p.BusyFor(2)
	got := []gpio.Level{p.Read(), p.Read(), p.Read()}
	if diff := cmp.Diff(got, []gpio.Level{gpio.Low, gpio.Low, gpio.High}); diff != "" {
		t.Errorf("Read() difference (-got +want):\n%s", diff)
	}

	p.SetStuck(true)
	for i := 0; i < 5; i++ {
		if p.Read() != gpio.Low {
			t.Fatal("stuck line released")
		}
	}

	if p.Samples() != 9 {
		t.Errorf("Samples() = %d, want 9", p.Samples())
	}
}

func TestSSD1681Window(t *testing.T) {
	m := NewSSD1681(200, 200)
	p := NewPanel(m)

	// Window covering columns 2..3 and rows 10..11, X and Y increment.
	send(t, p, 0x11, 0x03)
	send(t, p, 0x44, 0x02, 0x03)
	send(t, p, 0x45, 10, 0, 11, 0)
	send(t, p, 0x4E, 0x02)
	send(t, p, 0x4F, 10, 0)
	send(t, p, 0x24, 0x01, 0x02, 0x03, 0x04)

	bw := m.BW()
	for _, tc := range []struct {
		x, y int
		want byte
	}{
		{2, 10, 0x01},
		{3, 10, 0x02},
		{2, 11, 0x03},
		{3, 11, 0x04},
		{4, 10, 0xFF},
	} {
		if got := bw[tc.y*25+tc.x]; got != tc.want {
			t.Errorf("RAM[%d,%d] = %#x, want %#x", tc.x, tc.y, got, tc.want)
		}
	}

	if !bytes.Equal(m.Red(), bytes.Repeat([]byte{0xFF}, 5000)) {
		t.Error("Red RAM modified by 0x24")
	}
}

func TestSSD1681YDecrement(t *testing.T) {
	m := NewSSD1681(16, 4)
	p := NewPanel(m)

	send(t, p, 0x11, 0x01)
	send(t, p, 0x44, 0x00, 0x01)
	send(t, p, 0x45, 3, 0, 0, 0)
	send(t, p, 0x4E, 0x00)
	send(t, p, 0x4F, 3, 0)
	send(t, p, 0x26, 1, 2, 3, 4, 5, 6, 7, 8)

	want := []byte{7, 8, 5, 6, 3, 4, 1, 2}
	if diff := cmp.Diff(m.Red(), want); diff != "" {
		t.Errorf("Red() difference (-got +want):\n%s", diff)
	}
	if m.EntryMode() != 0x01 {
		t.Errorf("EntryMode() = %#x", m.EntryMode())
	}
}

func TestSSD1681Refresh(t *testing.T) {
	m := NewSSD1681(8, 1)
	p := NewPanel(m)

	var updates []byte
	m.OnRefresh = func(bw []byte, update byte) {
		updates = append(updates, update)
	}

	send(t, p, 0x3C, 0x05)
	send(t, p, 0x22, 0xF7)
	send(t, p, 0x20)
	send(t, p, 0x22, 0xFF)
	send(t, p, 0x20)
	send(t, p, 0x10, 0x01)

	if diff := cmp.Diff(m.Refreshes(), []byte{0xF7, 0xFF}); diff != "" {
		t.Errorf("Refreshes() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(updates, []byte{0xF7, 0xFF}); diff != "" {
		t.Errorf("OnRefresh difference (-got +want):\n%s", diff)
	}
	if m.Border() != 0x05 {
		t.Errorf("Border() = %#x, want 0x05", m.Border())
	}
	if !m.Asleep() {
		t.Error("Asleep() = false")
	}

	// Each refresh leaves the busy line active for RefreshSamples reads.
	if p.Pins.Busy.Read() != gpio.High || p.Pins.Busy.Read() != gpio.High || p.Pins.Busy.Read() != gpio.Low {
		t.Error("busy line did not follow the refresh")
	}
}

func TestUC8151(t *testing.T) {
	m := NewUC8151(16, 2)
	p := NewPanel(m)

	var frames [][]byte
	m.OnRefresh = func(frame []byte) {
		frames = append(frames, frame)
	}

	send(t, p, 0x61, 0x10, 0x00, 0x02)
	send(t, p, 0x10, 0x00, 0x00, 0x00, 0x00)
	send(t, p, 0x13, 0x01, 0x02, 0x03, 0x04, 0x05)
	send(t, p, 0x20, 0x40, 0x08)
	send(t, p, 0x12)
	send(t, p, 0x07, 0xA5)

	if diff := cmp.Diff(m.Old(), []byte{0, 0, 0, 0}); diff != "" {
		t.Errorf("Old() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(m.New(), []byte{1, 2, 3, 4}); diff != "" {
		t.Errorf("New() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(m.Register(0x61), []byte{0x10, 0x00, 0x02}); diff != "" {
		t.Errorf("Register(0x61) difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(m.LUT(0x20), []byte{0x40, 0x08}); diff != "" {
		t.Errorf("LUT(0x20) difference (-got +want):\n%s", diff)
	}
	if m.Refreshes() != 1 || len(frames) != 1 {
		t.Errorf("Refreshes() = %d, callbacks = %d, want 1", m.Refreshes(), len(frames))
	}
	if !m.Asleep() {
		t.Error("Asleep() = false")
	}

	if p.Pins.Busy.Read() != gpio.Low {
		t.Error("busy line not active low after refresh")
	}
}

func TestWakeUp(t *testing.T) {
	uc := NewUC8151(8, 1)
	p := NewPanel(uc)
	send(t, p, 0x07, 0xA5)
	send(t, p, 0x04)
	if uc.Asleep() {
		t.Error("UC8151 asleep after power on")
	}

	ssd := NewSSD1681(8, 1)
	p = NewPanel(ssd)
	send(t, p, 0x10, 0x01)
	send(t, p, 0x12)
	if ssd.Asleep() {
		t.Error("SSD1681 asleep after software reset")
	}
}
