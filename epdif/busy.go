// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdif

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ErrBusyTimeout is returned by WaitUntilIdle when BusyOpts.Timeout elapses
// before the controller reports idle.
var ErrBusyTimeout = errors.New("epdif: panel still busy")

// Defaults applied to zero BusyOpts fields.
const (
	DefaultPoll   = 100 * time.Millisecond
	DefaultSettle = 200 * time.Millisecond
)

// BusyOpts configures how the busy line is polled.
type BusyOpts struct {
	// ActiveLow is set for controllers that pull BUSY low while busy
	// (UC81xx). SSD16xx controllers drive it high.
	ActiveLow bool

	// StatusCommand, when non-zero, is sent before every sample of the busy
	// line. UC81xx controllers only refresh BUSY on a get-status command.
	StatusCommand byte

	// Poll is the interval between samples.
	Poll time.Duration

	// Settle is waited once the controller reports idle.
	Settle time.Duration

	// Timeout bounds the wait. Zero waits forever; the
	// hardware protocol has no timeout of its own.
	Timeout time.Duration
}

func (o BusyOpts) withDefaults() BusyOpts {
	if o.Poll <= 0 {
		o.Poll = DefaultPoll
	}
	if o.Settle <= 0 {
		o.Settle = DefaultSettle
	}
	return o
}

// Busy samples the busy line once.
func (t *Transport) Busy() bool {
	l := t.busy.Read()
	if t.busyOpts.ActiveLow {
		return l == gpio.Low
	}
	return l == gpio.High
}

// WaitUntilIdle blocks until the busy line reads idle, then waits the settle
// time.
//
// Without a Timeout and with a context that is never cancelled, an
// unresponsive panel blocks the caller forever.
func (t *Transport) WaitUntilIdle(ctx context.Context) error {
	if t.busyOpts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.busyOpts.Timeout)
		defer cancel()
	}

	for {
		if t.busyOpts.StatusCommand != 0 {
			if err := t.SendCommand(t.busyOpts.StatusCommand); err != nil {
				return err
			}
		}

		if !t.Busy() {
			break
		}

		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrBusyTimeout, err)
			}
			return err
		}

		t.delay(t.busyOpts.Poll)
	}

	t.delay(t.busyOpts.Settle)

	return nil
}
