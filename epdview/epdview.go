// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdview mirrors the frames sent to an e-paper panel over HTTP.
//
// Clients get the current frame and then a new image every time the panel
// is updated, as a "MJPEG" style multipart/x-mixed-replace stream that
// browsers display in place. A "once" URL parameter returns a single image
// instead. The format defaults to PNG and can be selected with the "format"
// parameter ("?format=jpeg", "?format=pbm").
package epdview

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"mime"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"

	"github.com/nfnt/resize"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/epaper/epdif"
)

// Options for a Mirror.
type Options struct {
	// Width and Height are the panel resolution.
	Width, Height int

	// Scale enlarges served images by an integer factor. Zero means 1.
	Scale int

	// Format is the default image format.
	Format Format

	// Logger receives request errors. Nil selects slog.Default().
	Logger *slog.Logger
}

// Mirror holds the last frame shown on a panel.
type Mirror struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	frame   []byte
	seq     int
	clients map[chan struct{}]struct{}
	cache   map[Format][]byte
}

var _ display.Drawer = (*Mirror)(nil)
var _ http.Handler = (*Mirror)(nil)

// New returns a Mirror showing a white panel.
func New(opts *Options) *Mirror {
	o := *opts
	if o.Scale <= 0 {
		o.Scale = 1
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Mirror{
		opts:    o,
		logger:  logger,
		frame:   epdif.Fill(o.Width, o.Height, epdif.White),
		clients: map[chan struct{}]struct{}{},
		cache:   map[Format][]byte{},
	}
}

// String returns the name of the device.
func (m *Mirror) String() string {
	return "epdview"
}

// Halt implements conn.Resource. It ends all running streams.
func (m *Mirror) Halt() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for c := range m.clients {
		close(c)
		delete(m.clients, c)
	}
	return nil
}

// Write replaces the frame with a packed panel frame and notifies clients.
func (m *Mirror) Write(frame []byte) (int, error) {
	if err := epdif.CheckFrame(frame, m.opts.Width, m.opts.Height); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := copy(m.frame, frame)
	m.changedLocked()
	return n, nil
}

// Frames returns the number of frames written so far.
func (m *Mirror) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

// ColorModel implements display.Drawer.
func (m *Mirror) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (m *Mirror) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.opts.Width, m.opts.Height)
}

// Draw implements display.Drawer.
func (m *Mirror) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	img := m.imageLocked()
	draw.Src.Draw(img, r, src, sp)
	m.frame = epdif.PackBits(img, m.opts.Width, m.opts.Height)
	m.changedLocked()
	return nil
}

func (m *Mirror) changedLocked() {
	m.seq++
	clear(m.cache)
	for c := range m.clients {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// imageLocked unpacks the frame.
func (m *Mirror) imageLocked() *image1bit.VerticalLSB {
	w, h := m.opts.Width, m.opts.Height
	stride := epdif.Stride(w)
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetBit(x, y, image1bit.Bit(m.frame[y*stride+x/8]&(0x80>>(x%8)) != 0))
		}
	}
	return img
}

// snapshot returns the encoded frame and its sequence number.
func (m *Mirror) snapshot(f Format) ([]byte, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.cache[f]; ok {
		return b, m.seq, nil
	}

	var img image.Image = m.imageLocked()
	if s := m.opts.Scale; s > 1 && f != PBM {
		img = resize.Resize(uint(m.opts.Width*s), uint(m.opts.Height*s), img, resize.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := encode(&buf, f, img, m.frame, m.opts.Width, m.opts.Height); err != nil {
		return nil, 0, err
	}
	m.cache[f] = buf.Bytes()
	return buf.Bytes(), m.seq, nil
}

func (m *Mirror) subscribe() chan struct{} {
	c := make(chan struct{}, 1)
	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()
	return c
}

func (m *Mirror) unsubscribe(c chan struct{}) {
	m.mu.Lock()
	if _, ok := m.clients[c]; ok {
		delete(m.clients, c)
		close(c)
	}
	m.mu.Unlock()
}

// ServeHTTP handles GET requests.
func (m *Mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	format := m.opts.Format
	if v := q.Get("format"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	if q.Has("once") {
		body, seq, err := m.snapshot(format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", format.mimeType())
		w.Header().Set("X-Frame", strconv.Itoa(seq))
		w.Write(body)
		return
	}

	c := m.subscribe()
	defer m.unsubscribe(c)

	pw := newPartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	for {
		body, seq, err := m.snapshot(format)
		if err != nil {
			m.logger.Error("epdview: encoding frame", "format", format, "err", err)
			return
		}

		h := textproto.MIMEHeader{}
		h.Set("Content-Type", format.mimeType())
		h.Set("X-Frame", strconv.Itoa(seq))
		if err := pw.writePart(h, body); err != nil {
			// The client went away; there is no way to report errors inside
			// an image stream.
			m.logger.Debug("epdview: client disconnected", "remote", r.RemoteAddr, "err", err)
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case _, ok := <-c:
			if !ok {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
