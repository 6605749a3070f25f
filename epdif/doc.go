// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdif is the hardware interface shared by the e-paper drivers in
// this module.
//
// A Transport wraps an SPI connection and the four control lines of a panel
// module (DC, CS, RST and BUSY). It frames single command bytes and data
// streams by toggling the DC line, pulses the reset line and blocks on the
// busy line until the controller reports idle.
//
// The panel protocol has no acknowledgment. Bytes are sent strictly in call
// order and a Transport must not be shared between goroutines.
//
// Frame buffers used by the drivers are 1 bit per pixel, MSB first,
// row-major with a stride of ceil(width/8) bytes. A set bit is white.
package epdif
