// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdew029t5

// LUT contains the waveforms uploaded in the Fast profile. Each group of six
// bytes is one phase: level selection followed by four frame counts and a
// repeat count.
type LUT struct {
	// VCOM is the common electrode waveform.
	VCOM [44]byte
	// WW, BW, WB and BB drive pixels by their old and new colour.
	WW [42]byte
	BW [42]byte
	WB [42]byte
	BB [42]byte
}

// DefaultLUT is a fast full-refresh waveform for the GDEW029T5.
var DefaultLUT = LUT{
	VCOM: [44]byte{
		0x00, 0x08, 0x00, 0x00, 0x00, 0x02,
		0x60, 0x28, 0x28, 0x00, 0x00, 0x01,
		0x00, 0x14, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x12, 0x12, 0x00, 0x00, 0x01,
	},
	WW: [42]byte{
		0x40, 0x08, 0x00, 0x00, 0x00, 0x02,
		0x90, 0x28, 0x28, 0x00, 0x00, 0x01,
		0x40, 0x14, 0x00, 0x00, 0x00, 0x01,
		0xA0, 0x12, 0x12, 0x00, 0x00, 0x01,
	},
	BW: [42]byte{
		0x40, 0x08, 0x00, 0x00, 0x00, 0x02,
		0x90, 0x28, 0x28, 0x00, 0x00, 0x01,
		0x40, 0x14, 0x00, 0x00, 0x00, 0x01,
		0xA0, 0x12, 0x12, 0x00, 0x00, 0x01,
	},
	WB: [42]byte{
		0x80, 0x08, 0x00, 0x00, 0x00, 0x02,
		0x90, 0x28, 0x28, 0x00, 0x00, 0x01,
		0x80, 0x14, 0x00, 0x00, 0x00, 0x01,
		0x50, 0x12, 0x12, 0x00, 0x00, 0x01,
	},
	BB: [42]byte{
		0x80, 0x08, 0x00, 0x00, 0x00, 0x02,
		0x90, 0x28, 0x28, 0x00, 0x00, 0x01,
		0x80, 0x14, 0x00, 0x00, 0x00, 0x01,
		0x50, 0x12, 0x12, 0x00, 0x00, 0x01,
	},
}

type lutTable struct {
	cmd  byte
	data []byte
}

// tables returns the LUT registers in upload order.
func (l *LUT) tables() []lutTable {
	return []lutTable{
		{lutVCOM, l.VCOM[:]},
		{lutWW, l.WW[:]},
		{lutBW, l.BW[:]},
		{lutWB, l.WB[:]},
		{lutBB, l.BB[:]},
	}
}
