// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdif

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStride(t *testing.T) {
	for _, tc := range []struct {
		width, height int
		stride, size  int
	}{
		{200, 200, 25, 5000},
		{128, 296, 16, 4736},
		{122, 250, 16, 4000},
		{1, 1, 1, 1},
		{0, 10, 0, 0},
	} {
		if got := Stride(tc.width); got != tc.stride {
			t.Errorf("Stride(%d) = %d, want %d", tc.width, got, tc.stride)
		}
		if got := FrameSize(tc.width, tc.height); got != tc.size {
			t.Errorf("FrameSize(%d, %d) = %d, want %d", tc.width, tc.height, got, tc.size)
		}
	}
}

func TestCheckFrame(t *testing.T) {
	if err := CheckFrame(make([]byte, 5000), 200, 200); err != nil {
		t.Errorf("CheckFrame() = %v", err)
	}
	if err := CheckFrame(make([]byte, 4999), 200, 200); !errors.Is(err, ErrBufferSize) {
		t.Errorf("CheckFrame() = %v, want %v", err, ErrBufferSize)
	}
}

func TestPack(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 2))
	for x := 0; x < 10; x++ {
		src.SetGray(x, 0, color.Gray{Y: 0xFF})
		src.SetGray(x, 1, color.Gray{Y: 0xFF})
	}
	src.SetGray(0, 0, color.Gray{})
	src.SetGray(9, 1, color.Gray{})

	got := Pack(src, 10, 3)

	want := []byte{
		0x7F, 0xFF,
		0xFF, 0xBF,
		0xFF, 0xFF,
	}

	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Pack() difference (-got +want):\n%s", diff)
	}
}

func TestAlignX(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{0, 0}, {7, 0}, {8, 8}, {15, 8}, {199, 192}, {300, 296},
	} {
		if got := AlignX(tc.in); got != tc.want {
			t.Errorf("AlignX(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestState(t *testing.T) {
	for _, tc := range []struct {
		s    State
		name string
		err  error
	}{
		{Uninitialized, "Uninitialized", ErrNotInitialized},
		{Ready, "Ready", nil},
		{DeepSleep, "DeepSleep", ErrAsleep},
	} {
		if got := tc.s.String(); got != tc.name {
			t.Errorf("String() = %q, want %q", got, tc.name)
		}
		if err := tc.s.CanDisplay(); !errors.Is(err, tc.err) {
			t.Errorf("%v.CanDisplay() = %v, want %v", tc.s, err, tc.err)
		}
	}
}
