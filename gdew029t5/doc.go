// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gdew029t5 controls the Good Display GDEW029T5 2.9" 128x296
// black/white e-paper panel (UC8151/IL0373 class controller).
//
// The controller keeps an old and a new frame and computes the waveform for
// each pixel from the pair. In the Fast profile the waveforms are uploaded
// from a LUT before every refresh; in the OTP profile the controller uses its
// built-in waveforms, which are slower but need no upload.
//
// Datasheets
//
// https://www.good-display.com/product/214.html
package gdew029t5
