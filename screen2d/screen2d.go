// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen2d implements a 1 bit display.Drawer that outputs to a
// terminal with half block characters, using ANSI color codes when stdout is
// a terminal.
//
// Useful to preview e-paper layouts without a panel.
package screen2d

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/epaper/epdif"
)

// Opts represents the options available for this display.
type Opts struct {
	Width  int
	Height int

	// Step samples every Step-th column and row. Each terminal line shows
	// two sampled rows with half block characters. Zero means 1.
	Step int

	Palette *ansi256.Palette

	// W receives the output. Nil selects stdout, with colors enabled when it
	// is a terminal.
	W io.Writer
	// Color enables ANSI colors on W.
	Color bool

	_ struct{}
}

// Dev is an e-paper panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	color   bool
	step    int
	palette ansi256.Palette

	img *image1bit.VerticalLSB
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}

	w, useColor := opts.W, opts.Color
	if w == nil {
		w = colorable.NewColorableStdout()
		fd := os.Stdout.Fd()
		useColor = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}

	step := opts.Step
	if step <= 0 {
		step = 1
	}

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Src.Draw(img, img.Bounds(), &image.Uniform{C: image1bit.On}, image.Point{})

	return &Dev{
		w:       w,
		color:   useColor,
		step:    step,
		palette: *p,
		img:     img,
	}
}

func (d *Dev) String() string {
	return "Screen2D"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	if !d.color {
		return nil
	}
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Write accepts a packed frame (1 bit per pixel, MSB first, 0 is black) and
// writes it to the console.
func (d *Dev) Write(frame []byte) (int, error) {
	b := d.img.Bounds()
	if err := epdif.CheckFrame(frame, b.Dx(), b.Dy()); err != nil {
		return 0, err
	}

	stride := epdif.Stride(b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			on := frame[y*stride+x/8]&(0x80>>(x%8)) != 0
			d.img.SetBit(x, y, image1bit.Bit(on))
		}
	}

	if err := d.refresh(); err != nil {
		return 0, err
	}
	return epdif.FrameSize(b.Dx(), b.Dy()), nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Bounds()
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Src.Draw(d.img, r, src, sp)
	return d.refresh()
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()

	b := d.img.Bounds()
	white := d.palette.ANSI(color.NRGBA{255, 255, 255, 255})
	black := d.palette.ANSI(color.NRGBA{0, 0, 0, 255})

	// Each line holds two sampled rows: the upper half block is the top row,
	// the rest of the cell is the bottom row.
	for y := b.Min.Y; y < b.Max.Y; y += 2 * d.step {
		if d.color {
			_, _ = d.buf.WriteString("\033[0m")
		}
		for x := b.Min.X; x < b.Max.X; x += d.step {
			top := !bool(d.img.BitAt(x, y))
			bottom := y+d.step < b.Max.Y && !bool(d.img.BitAt(x, y+d.step))
			if d.color {
				fg, bg := white, white
				if top {
					fg = black
				}
				if bottom {
					bg = black
				}
				_, _ = fmt.Fprintf(&d.buf, "\033[38;5;%dm\033[48;5;%dm▀", fg, bg)
				continue
			}
			switch {
			case top && bottom:
				_, _ = d.buf.WriteRune('█')
			case top:
				_, _ = d.buf.WriteRune('▀')
			case bottom:
				_, _ = d.buf.WriteRune('▄')
			default:
				_ = d.buf.WriteByte(' ')
			}
		}
		if d.color {
			_, _ = d.buf.WriteString("\033[0m")
		}
		_ = d.buf.WriteByte('\n')
	}

	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
