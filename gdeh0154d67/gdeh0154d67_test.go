// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdeh0154d67

import (
	"bytes"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/epaper/epdif"
	"github.com/GermanBionicSystems/epaper/epdtest"
)

type testDev struct {
	*Dev
	panel  *epdtest.Panel
	model  *epdtest.SSD1681
	delays []time.Duration
}

func newTestDev(t *testing.T) *testDev {
	t.Helper()

	model := epdtest.NewSSD1681(200, 200)
	panel := epdtest.NewPanel(model)

	td := &testDev{panel: panel, model: model}

	tr, err := epdif.New(panel.Bus, epdif.Pins{
		DC:   panel.Pins.DC,
		CS:   panel.Pins.CS,
		RST:  panel.Pins.RST,
		Busy: panel.Pins.Busy,
	}, &epdif.Opts{
		Delay: func(d time.Duration) {
			td.delays = append(td.delays, d)
		},
	})
	if err != nil {
		t.Fatalf("epdif.New() failed: %v", err)
	}

	opts := GDEH0154D67
	td.Dev = NewTransport(tr, &opts)

	return td
}

func TestNew(t *testing.T) {
	pins := epdtest.NewPins(gpio.High)
	bus := epdtest.NewBus(pins.DC)

	dev, err := New(bus, pins.DC, pins.CS, pins.RST, pins.Busy, &GDEH0154D67)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if got, want := dev.String(), "epd.Dev{epdtest, DC(0), Width: 200, Height: 200}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := dev.Bounds(), image.Rect(0, 0, 200, 200); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if dev.ColorModel() != image1bit.BitModel {
		t.Error("ColorModel() is not image1bit.BitModel")
	}
	if dev.State() != epdif.Uninitialized {
		t.Errorf("State() = %v, want Uninitialized", dev.State())
	}
}

func TestInit(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Partial); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	if d.State() != epdif.Ready || d.Profile() != Partial {
		t.Errorf("State() = %v, Profile() = %v", d.State(), d.Profile())
	}
	if d.model.EntryMode() != 0x03 || d.model.Border() != 0x05 {
		t.Errorf("entry mode %#x, border %#x", d.model.EntryMode(), d.model.Border())
	}

	// Reset pulse first.
	if d.delays[0] != 10*time.Millisecond || d.delays[1] != 10*time.Millisecond {
		t.Errorf("delays = %v, want reset pulse first", d.delays)
	}
	if d.panel.Pins.RST.L != gpio.High {
		t.Error("RST left low")
	}

	if err := d.Init(Profile(7)); err == nil {
		t.Error("Init() with unknown profile succeeded")
	}
}

func TestClearStream(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	d.panel.Bus.Clear()
	samples := d.panel.Pins.Busy.Samples()

	if err := d.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	want := []epdtest.Record{
		{Cmd: 0x24, Data: bytes.Repeat([]byte{0xFF}, 5000)},
		{Cmd: 0x22, Data: []byte{0xF7}},
		{Cmd: 0x20},
	}
	if diff := cmp.Diff(d.panel.Bus.Records(), want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Clear() difference (-got +want):\n%s", diff)
	}

	// Two busy samples after the activation, then idle.
	if got := d.panel.Pins.Busy.Samples() - samples; got != 3 {
		t.Errorf("busy sampled %d times, want 3", got)
	}
	if d.panel.Pins.Busy.Read() != gpio.Low {
		t.Error("Clear() returned while busy")
	}

	if diff := cmp.Diff(d.model.Refreshes(), []byte{0xF7}); diff != "" {
		t.Errorf("Refreshes() difference (-got +want):\n%s", diff)
	}
}

func TestDisplayFullRAM(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	frame := epdif.Fill(200, 200, epdif.White)
	frame[0] = 0x0F
	frame[25] = 0xF0

	if err := d.Display(frame); err != nil {
		t.Fatalf("Display() failed: %v", err)
	}

	// Y decrements from the last row.
	bw := d.model.BW()
	if bw[199*25] != 0x0F || bw[198*25] != 0xF0 {
		t.Errorf("RAM rows 199/198 start with %#x/%#x", bw[199*25], bw[198*25])
	}
}

func TestDisplayShortBuffer(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	d.panel.Bus.Clear()

	if err := d.Display(make([]byte, 100)); !errors.Is(err, epdif.ErrBufferSize) {
		t.Errorf("Display() error = %v, want %v", err, epdif.ErrBufferSize)
	}
	if len(d.panel.Bus.Records()) != 0 {
		t.Error("Display() sent data with a short buffer")
	}
}

func TestPartialSequence(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Partial); err != nil {
		t.Fatal(err)
	}
	if err := d.DisplayPartBaseWhiteImage(); err != nil {
		t.Fatalf("DisplayPartBaseWhiteImage() failed: %v", err)
	}

	white := bytes.Repeat([]byte{0xFF}, 5000)
	if !bytes.Equal(d.model.Red(), white) {
		t.Error("previous frame RAM not white")
	}

	buf := []byte{0x00, 0x00}
	res, err := d.SetFrameMemory(buf, 16, 20, 8, 2)
	if err != nil || res != Written {
		t.Fatalf("SetFrameMemory() = %v, %v", res, err)
	}
	if err := d.DisplayPartFrame(); err != nil {
		t.Fatal(err)
	}

	bw := d.model.BW()
	if bw[20*25+2] != 0x00 || bw[21*25+2] != 0x00 || bw[20*25+3] != 0xFF {
		t.Error("SetFrameMemory() did not land in the window")
	}
	if !bytes.Equal(d.model.Red(), white) {
		t.Error("partial write changed the previous frame RAM")
	}

	if diff := cmp.Diff(d.model.Refreshes(), []byte{0xFF, 0xFF}); diff != "" {
		t.Errorf("Refreshes() difference (-got +want):\n%s", diff)
	}
}

func TestSetFrameMemorySkippedDev(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Partial); err != nil {
		t.Fatal(err)
	}

	d.panel.Bus.Clear()

	res, err := d.SetFrameMemory(nil, 0, 0, 200, 200)
	if err != nil || res != SkippedNilBuffer {
		t.Errorf("SetFrameMemory(nil) = %v, %v", res, err)
	}

	res, err = d.SetFrameMemory(make([]byte, 5000), 0, 0, -8, 200)
	if err != nil || res != SkippedNegativeGeometry {
		t.Errorf("SetFrameMemory(-8) = %v, %v", res, err)
	}

	if n := d.panel.Bus.DataBytes(); n != 0 {
		t.Errorf("skipped writes sent %d bytes", n)
	}
}

func TestSleepDev(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	d.panel.Bus.Clear()
	d.delays = nil

	if err := d.Sleep(); err != nil {
		t.Fatalf("Sleep() failed: %v", err)
	}

	want := []epdtest.Record{{Cmd: 0x10, Data: []byte{0x01}}}
	if diff := cmp.Diff(d.panel.Bus.Records(), want); diff != "" {
		t.Errorf("Sleep() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(d.delays, []time.Duration{200 * time.Millisecond}); diff != "" {
		t.Errorf("delays difference (-got +want):\n%s", diff)
	}
	if d.panel.Pins.RST.L != gpio.Low {
		t.Error("RST not pulled low")
	}
	if d.State() != epdif.DeepSleep || !d.model.Asleep() {
		t.Errorf("State() = %v", d.State())
	}
}

func TestSleepTwice(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}

	d.panel.Pins.Busy.SetStuck(true)
	d.panel.Bus.Clear()
	d.delays = nil

	if err := d.Sleep(); err != nil {
		t.Errorf("second Sleep() = %v, want nil", err)
	}
	if n := len(d.panel.Bus.Records()); n != 0 {
		t.Errorf("second Sleep() sent %d records", n)
	}
	if len(d.delays) != 0 {
		t.Errorf("second Sleep() delays = %v", d.delays)
	}
	if d.State() != epdif.DeepSleep {
		t.Errorf("State() = %v, want DeepSleep", d.State())
	}
}

func TestStateErrors(t *testing.T) {
	d := newTestDev(t)

	if err := d.Clear(); !errors.Is(err, epdif.ErrNotInitialized) {
		t.Errorf("Clear() before Init = %v, want %v", err, epdif.ErrNotInitialized)
	}
	if _, err := d.SetFrameMemory(nil, 0, 0, 0, 0); !errors.Is(err, epdif.ErrNotInitialized) {
		t.Errorf("SetFrameMemory() before Init = %v, want %v", err, epdif.ErrNotInitialized)
	}

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}

	for name, fn := range map[string]func() error{
		"Clear":            d.Clear,
		"DisplayFrame":     d.DisplayFrame,
		"DisplayPartFrame": d.DisplayPartFrame,
		"Display":          func() error { return d.Display(nil) },
		"DisplayPart":      func() error { return d.DisplayPart(nil) },
		"SetMemoryArea":    func() error { return d.SetMemoryArea(0, 0, 199, 199) },
		"SetMemoryPointer": func() error { return d.SetMemoryPointer(0, 0) },
		"Draw":             func() error { return d.Draw(d.Bounds(), image.White, image.Point{}) },
	} {
		if err := fn(); !errors.Is(err, epdif.ErrAsleep) {
			t.Errorf("%s() in deep sleep = %v, want %v", name, err, epdif.ErrAsleep)
		}
	}

	// Init wakes the panel up.
	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(); err != nil {
		t.Errorf("Clear() after wake up = %v", err)
	}
}

func TestBusError(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	d.panel.Bus.Err = errors.New("spi gone")

	if err := d.Clear(); !errors.Is(err, d.panel.Bus.Err) {
		t.Errorf("Clear() = %v, want %v", err, d.panel.Bus.Err)
	}
}

func TestDraw(t *testing.T) {
	d := newTestDev(t)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 8, 1))

	if err := d.Draw(image.Rect(0, 0, 8, 1), img, image.Point{}); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}

	records := epdtest.Find(d.panel.Bus.Records(), 0x24)
	last := records[len(records)-1].Data

	if last[0] != 0x00 || last[1] != 0xFF {
		t.Errorf("Draw() sent %#x %#x, want 0x00 0xff", last[0], last[1])
	}
}
