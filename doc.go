// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for Good Display e-paper panel drivers.
//
// The drivers live in sub packages named after the panel: gdeh0154d67 for the
// 1.54" SSD1681 module and gdew029t5 for the 2.9" UC8151 module with
// fast-refresh waveforms. Both sit on the command/data transport and busy-wait
// synchronizer in epdif. epdtest simulates the modules for tests, screen2d and
// epdview show frames on a terminal or over HTTP.
package epaper
