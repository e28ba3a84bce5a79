// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package caption rasterizes single-line text labels for overlay textures.
//
// The display uses it to show the active source name over the video. It is
// independent of the stream state machine: it takes a string and returns
// pixels.
package caption

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrEmpty is returned when rendering blank text.
var ErrEmpty = errors.New("caption: empty text")

// DefaultSize is the default font size in pixels.
const DefaultSize = 48

// Options configures a Renderer.
type Options struct {
	// Size is the font size in pixels. Zero selects DefaultSize.
	Size float64

	// Padding around the text in pixels. Zero selects Size/3.
	Padding int
}

// Renderer draws captions with the Go Regular face: white text on a
// translucent dark rounded box.
//
// Renderer is safe for concurrent use.
type Renderer struct {
	mu      sync.Mutex
	source  *text.FontSource
	face    text.Face
	size    float64
	padding int
}

// New parses the embedded font and returns a renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Padding <= 0 {
		opts.Padding = int(math.Ceil(opts.Size / 3))
	}
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("caption: load font: %w", err)
	}
	return &Renderer{
		source:  src,
		face:    src.Face(opts.Size),
		size:    opts.Size,
		padding: opts.Padding,
	}, nil
}

// Size returns the font size in pixels.
func (r *Renderer) Size() float64 { return r.size }

// Render rasterizes s into an image tightly sized to the measured text plus
// padding. Leading and trailing space is trimmed.
func (r *Renderer) Render(s string) (*image.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, _ := text.Measure(s, r.face)
	m := r.face.Metrics()
	textH := m.Ascent + m.Descent
	width := int(math.Ceil(w)) + 2*r.padding
	height := int(math.Ceil(textH)) + 2*r.padding

	dc := gg.NewContext(width, height)
	defer func() { _ = dc.Close() }()

	dc.Clear()
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRoundedRectangle(0, 0, float64(width), float64(height), float64(r.padding)/2)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("caption: fill box: %w", err)
	}

	dc.SetFont(r.face)
	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawString(s, float64(r.padding), float64(r.padding)+m.Ascent)

	src := dc.Image()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, xdraw.Src)
	return dst, nil
}

// Close releases the font.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source.Close()
}
