// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdview

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// Format is the image format sent to clients.
type Format int

const (
	PNG Format = iota
	JPEG
	// PBM is the binary portable bitmap (P4): the packed frame inverted,
	// since PBM uses 1 for black.
	PBM

	// DefaultFormat is used when not set explicitly in options or as a URL
	// parameter.
	DefaultFormat = PNG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case PBM:
		return "PBM"
	default:
		return fmt.Sprint(int(f))
	}
}

func (f Format) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case PBM:
		return "image/x-portable-bitmap"
	}
	return "application/octet-stream"
}

// ParseFormat returns the Format for the given abbreviation.
func ParseFormat(value string) (Format, error) {
	switch value {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "pbm":
		return PBM, nil
	}
	return DefaultFormat, fmt.Errorf("unrecognized image format %q", value)
}

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// encode writes img in format f. frame is the packed source of img, used
// as is by PBM.
func encode(buf *bytes.Buffer, f Format, img image.Image, frame []byte, width, height int) error {
	switch f {
	case PNG:
		return pngEncoder.Encode(buf, img)
	case JPEG:
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	case PBM:
		fmt.Fprintf(buf, "P4\n%d %d\n", width, height)
		for _, b := range frame {
			buf.WriteByte(^b)
		}
		return nil
	}
	return fmt.Errorf("unhandled image format %s", f)
}
