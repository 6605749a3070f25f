// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render draws the epddemo screens and converts them to packed
// 1-bit frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/epaper/epdif"
)

// Dither selects how gray levels are reduced to black and white.
type Dither string

const (
	FloydSteinberg Dither = "floyd-steinberg"
	Threshold      Dither = "threshold"
)

var (
	regularOnce sync.Once
	regular     *truetype.Font
	regularErr  error
)

// Face returns Go Regular at the given point size.
func Face(size float64) (font.Face, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(goregular.TTF)
	})
	if regularErr != nil {
		return nil, fmt.Errorf("render: parsing font: %w", regularErr)
	}
	return truetype.NewFace(regular, &truetype.Options{Size: size}), nil
}

func newContext(w, h int) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	return dc
}

// Title draws title centered inside a border, with subtitle below it.
func Title(w, h int, title, subtitle string) (image.Image, error) {
	dc := newContext(w, h)

	dc.SetLineWidth(2)
	dc.DrawRectangle(3, 3, float64(w-6), float64(h-6))
	dc.Stroke()

	face, err := Face(float64(min(w, h)) / 10)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.DrawStringWrapped(title, float64(w)/2, float64(h)/2, 0.5, 1, float64(w-16), 1.2, gg.AlignCenter)

	if subtitle != "" {
		small, err := Face(float64(min(w, h)) / 16)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(small)
		dc.DrawStringAnchored(subtitle, float64(w)/2, float64(h)/2+8, 0.5, 1)
	}

	return dc.Image(), nil
}

// Clock draws the time of day of t in large digits with the date below.
func Clock(w, h int, t time.Time) (image.Image, error) {
	dc := newContext(w, h)

	face, err := Face(float64(min(w, h)) / 4)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.DrawStringAnchored(t.Format("15:04"), float64(w)/2, float64(h)/2, 0.5, 0.5)

	small, err := Face(float64(min(w, h)) / 12)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(small)
	dc.DrawStringAnchored(t.Format("Mon 2 Jan"), float64(w)/2, float64(h)*0.8, 0.5, 0.5)

	return dc.Image(), nil
}

// LoadImage decodes the image at path, fits it into w x h centered on a
// white background and dithers it.
func LoadImage(path string, w, h int, d Dither) (image.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return Fit(src, w, h, d), nil
}

// Fit scales src to fit inside w x h keeping its aspect ratio, centers it on
// a white canvas and dithers the result.
func Fit(src image.Image, w, h int, d Dither) *image.Gray {
	scaled := resize.Thumbnail(uint(w), uint(h), src, resize.Bicubic)
	canvas := imaging.PasteCenter(imaging.New(w, h, color.White), scaled)
	return Dithered(canvas, d)
}

// Dithered converts img to gray and reduces it to pure black and white.
func Dithered(img image.Image, d Dither) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	switch d {
	case Threshold:
		return halfgone.ThresholdDitherer{Threshold: 127}.Apply(gray)
	default:
		return halfgone.FloydSteinbergDitherer{}.Apply(gray)
	}
}

// Frame packs img into a frame for a w x h panel.
func Frame(img image.Image, w, h int) []byte {
	return epdif.Pack(img, w, h)
}
