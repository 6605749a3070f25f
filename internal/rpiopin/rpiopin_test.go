// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpiopin

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
)

func TestByName(t *testing.T) {
	for _, tc := range []struct {
		name string
		want int
		ok   bool
	}{
		{"GPIO25", 25, true},
		{"gpio8", 8, true},
		{" 17 ", 17, true},
		{"GPIO54", 0, false},
		{"P1_22", 0, false},
		{"", 0, false},
	} {
		p, err := ByName(tc.name)
		if (err == nil) != tc.ok {
			t.Errorf("ByName(%q) error = %v", tc.name, err)
			continue
		}
		if tc.ok && p.Number() != tc.want {
			t.Errorf("ByName(%q).Number() = %d, want %d", tc.name, p.Number(), tc.want)
		}
	}
}

func TestPin(t *testing.T) {
	p := New(HAT.Busy)

	if got, want := p.String(), "GPIO24"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if err := p.In(gpio.Float, gpio.RisingEdge); err == nil {
		t.Error("In() accepted edge detection")
	}
	// Unsupported operations fail instead of panicking.
	if err := p.PWM(gpio.DutyHalf, 0); err == nil {
		t.Error("PWM() succeeded")
	}
}
