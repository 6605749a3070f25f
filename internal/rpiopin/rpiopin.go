// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rpiopin exposes Raspberry Pi GPIOs driven through /dev/gpiomem by
// go-rpio as periph gpio pins.
//
// It is an alternative to the periph host drivers on systems where the
// sysfs and character device GPIO interfaces are unavailable. Only output,
// input and pull configuration are supported.
package rpiopin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
)

// HAT is the Waveshare e-paper HAT wiring as BCM numbers.
var HAT = struct {
	DC, CS, RST, Busy uint8
}{DC: 25, CS: 8, RST: 17, Busy: 24}

// Open maps the GPIO registers. Close must be called when done.
func Open() error {
	return rpio.Open()
}

// Close unmaps the GPIO registers.
func Close() error {
	return rpio.Close()
}

// Pin is a BCM numbered GPIO.
//
// Methods not listed here are forwarded to gpio.INVALID and fail.
type Pin struct {
	gpio.PinIO
	p rpio.Pin
}

// New returns the GPIO with the BCM number n.
func New(n uint8) *Pin {
	return &Pin{PinIO: gpio.INVALID, p: rpio.Pin(n)}
}

// ByName parses "GPIO25" or "25".
func ByName(name string) (*Pin, error) {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "GPIO")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > 53 {
		return nil, fmt.Errorf("rpiopin: invalid pin %q", name)
	}
	return New(uint8(n)), nil
}

func (p *Pin) String() string {
	return p.Name()
}

// Name returns "GPIO" followed by the BCM number.
func (p *Pin) Name() string {
	return fmt.Sprintf("GPIO%d", uint8(p.p))
}

// Number returns the BCM number.
func (p *Pin) Number() int {
	return int(p.p)
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return "rpio"
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// In configures the pin as an input. Edge detection is not supported.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("rpiopin: %s: edge detection is not supported", p)
	}
	p.p.Input()
	switch pull {
	case gpio.PullUp:
		p.p.PullUp()
	case gpio.PullDown:
		p.p.PullDown()
	case gpio.Float:
		p.p.PullOff()
	}
	return nil
}

// Read returns the current level.
func (p *Pin) Read() gpio.Level {
	return p.p.Read() == rpio.High
}

// Out configures the pin as an output and drives l.
func (p *Pin) Out(l gpio.Level) error {
	p.p.Output()
	if l {
		p.p.High()
	} else {
		p.p.Low()
	}
	return nil
}

var _ gpio.PinIO = &Pin{}
