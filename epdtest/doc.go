// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdtest simulates an e-paper panel module for tests and host-side
// previews.
//
// A Bus implements spi.Port and spi.Conn. It samples the DC line on every
// transfer and records the resulting command/data stream. Attached models
// (SSD1681, UC8151) decode the stream into controller RAM contents, and a
// BusyPin reports the controller as busy for a configurable number of
// samples after every refresh.
package epdtest
