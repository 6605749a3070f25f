// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdif

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/epaper/epdtest"
)

func TestWaitUntilIdle(t *testing.T) {
	tr, _, pins, delays := newTestTransport(t, nil)

	pins.Busy.BusyFor(3)

	if err := tr.WaitUntilIdle(context.Background()); err != nil {
		t.Fatalf("WaitUntilIdle() failed: %v", err)
	}

	if got := pins.Busy.Samples(); got != 4 {
		t.Errorf("Samples() = %d, want 4", got)
	}

	want := []time.Duration{DefaultPoll, DefaultPoll, DefaultPoll, DefaultSettle}
	if diff := cmp.Diff(*delays, want); diff != "" {
		t.Errorf("delays difference (-got +want):\n%s", diff)
	}
}

func TestWaitUntilIdleAlreadyIdle(t *testing.T) {
	tr, _, pins, delays := newTestTransport(t, &Opts{Busy: BusyOpts{Settle: time.Millisecond}})

	if err := tr.WaitUntilIdle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if pins.Busy.Samples() != 1 {
		t.Errorf("Samples() = %d, want 1", pins.Busy.Samples())
	}
	if diff := cmp.Diff(*delays, []time.Duration{time.Millisecond}); diff != "" {
		t.Errorf("delays difference (-got +want):\n%s", diff)
	}
}

func TestWaitUntilIdleStatusCommand(t *testing.T) {
	pins := epdtest.NewPins(gpio.Low)
	bus := epdtest.NewBus(pins.DC)

	tr, err := New(bus, Pins{DC: pins.DC, CS: pins.CS, RST: pins.RST, Busy: pins.Busy}, &Opts{
		Busy:  BusyOpts{ActiveLow: true, StatusCommand: 0x71},
		Delay: func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}

	pins.Busy.BusyFor(2)

	if err := tr.WaitUntilIdle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(bus.Commands(), []byte{0x71, 0x71, 0x71}); diff != "" {
		t.Errorf("Commands() difference (-got +want):\n%s", diff)
	}
}

func TestWaitUntilIdleTimeout(t *testing.T) {
	pins := epdtest.NewPins(gpio.High)
	bus := epdtest.NewBus(pins.DC)

	tr, err := New(bus, Pins{DC: pins.DC, RST: pins.RST, Busy: pins.Busy}, &Opts{
		Busy: BusyOpts{Poll: time.Millisecond, Timeout: 20 * time.Millisecond},
	})
	if err != nil {
		t.Fatal(err)
	}

	pins.Busy.SetStuck(true)

	err = tr.WaitUntilIdle(context.Background())
	if !errors.Is(err, ErrBusyTimeout) {
		t.Errorf("WaitUntilIdle() error = %v, want %v", err, ErrBusyTimeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitUntilIdle() error = %v, want wrapped %v", err, context.DeadlineExceeded)
	}
}

func TestWaitUntilIdleCancel(t *testing.T) {
	tr, _, pins, _ := newTestTransport(t, nil)

	pins.Busy.SetStuck(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tr.WaitUntilIdle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitUntilIdle() error = %v, want %v", err, context.Canceled)
	}
}

func TestBusyPolarity(t *testing.T) {
	for _, tc := range []struct {
		name      string
		activeLow bool
		level     gpio.Level
		want      bool
	}{
		{name: "high active, high", level: gpio.High, want: true},
		{name: "high active, low", level: gpio.Low, want: false},
		{name: "low active, low", activeLow: true, level: gpio.Low, want: true},
		{name: "low active, high", activeLow: true, level: gpio.High, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pins := epdtest.NewPins(tc.level)
			bus := epdtest.NewBus(pins.DC)

			tr, err := New(bus, Pins{DC: pins.DC, RST: pins.RST, Busy: pins.Busy}, &Opts{
				Busy: BusyOpts{ActiveLow: tc.activeLow},
			})
			if err != nil {
				t.Fatal(err)
			}

			pins.Busy.SetStuck(true)

			if got := tr.Busy(); got != tc.want {
				t.Errorf("Busy() = %v, want %v", got, tc.want)
			}
		})
	}
}
