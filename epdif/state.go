// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdif

import "errors"

var (
	// ErrNotInitialized is returned by display operations issued before Init.
	ErrNotInitialized = errors.New("epd: panel not initialized")

	// ErrAsleep is returned by display operations issued in deep sleep. A
	// sleeping controller never releases its busy line; Init wakes it up.
	ErrAsleep = errors.New("epd: panel in deep sleep")

	// ErrBufferSize is returned when a frame buffer is shorter than the
	// panel frame.
	ErrBufferSize = errors.New("epd: frame buffer too short")
)

// State is the operating mode of a panel controller.
type State uint8

const (
	// Uninitialized follows power-up and every hardware reset.
	Uninitialized State = iota
	// Ready is entered by a successful Init.
	Ready
	// DeepSleep is entered by Sleep. Only a reset followed by Init leaves it.
	DeepSleep
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case DeepSleep:
		return "DeepSleep"
	}
	return "State(?)"
}

// CanDisplay returns nil if display operations are accepted in state s.
func (s State) CanDisplay() error {
	switch s {
	case Ready:
		return nil
	case DeepSleep:
		return ErrAsleep
	}
	return ErrNotInitialized
}
