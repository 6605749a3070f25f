// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdif

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Pixel values of a packed frame byte.
const (
	White byte = 0xFF
	Black byte = 0x00
)

// Stride returns the number of bytes per row; the controllers address columns
// in groups of 8 pixels.
func Stride(width int) int {
	return (width + 7) / 8
}

// FrameSize returns the length in bytes of a full frame.
func FrameSize(width, height int) int {
	return Stride(width) * height
}

// Fill returns a full frame with every byte set to b.
func Fill(width, height int, b byte) []byte {
	return bytes.Repeat([]byte{b}, FrameSize(width, height))
}

// CheckFrame verifies that buf holds at least one full frame.
func CheckFrame(buf []byte, width, height int) error {
	if want := FrameSize(width, height); len(buf) < want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), want)
	}
	return nil
}

// Pack converts src into a packed frame of the given size. src is drawn with
// its bounds' origin at (0, 0); pixels outside src and the padding bits of
// the last byte in a row are white.
func Pack(src image.Image, width, height int) []byte {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	draw.Src.Draw(img, img.Bounds(), &image.Uniform{C: image1bit.On}, image.Point{})
	draw.Src.Draw(img, img.Bounds(), src, src.Bounds().Min)

	return PackBits(img, width, height)
}

// PackBits packs an already converted 1-bit image.
func PackBits(img *image1bit.VerticalLSB, width, height int) []byte {
	stride := Stride(width)
	buf := Fill(width, height, White)

	for y := 0; y < height; y++ {
		row := buf[y*stride : (y+1)*stride]

		for x := 0; x < width; x++ {
			if !img.BitAt(x, y) {
				row[x/8] &^= 0x80 >> (x % 8)
			}
		}
	}

	return buf
}

// AlignX truncates x to the enclosing byte boundary.
func AlignX(x int) int {
	return x &^ 7
}
