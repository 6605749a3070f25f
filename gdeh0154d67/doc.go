// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gdeh0154d67 controls the Good Display GDEH0154D67 1.54" 200x200
// black/white e-paper panel (SSD1681 controller).
//
// The panel supports a full refresh, which flashes the whole panel, and a
// partial refresh that only drives pixels changed relative to the previous
// frame RAM. The refresh mode is chosen when calling Init; switching mode
// requires another Init.
//
// Datasheets
//
// https://www.good-display.com/product/388.html
//
// https://www.good-display.com/companyfile/101.html (SSD1681)
package gdeh0154d67
