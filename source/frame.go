// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package source

import (
	"sync"
	"sync/atomic"
	"time"
)

// PixelFormat is the byte layout of a frame's pixels.
type PixelFormat uint8

const (
	// PixelRGBA is R, G, B, A bytes with meaningful alpha.
	PixelRGBA PixelFormat = iota

	// PixelRGBX is R, G, B bytes and an unused fourth byte.
	PixelRGBX
)

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case PixelRGBA:
		return "RGBA"
	case PixelRGBX:
		return "RGBX"
	default:
		return "unknown"
	}
}

// Frame is one captured video frame. Its pixels are borrowed from the
// transport and returned by Release.
type Frame struct {
	Width     int
	Height    int
	Stride    int
	Format    PixelFormat
	Seq       uint64
	Timestamp time.Time

	pix      []byte
	release  func()
	released atomic.Bool
}

// NewFrame wraps pix. release runs exactly once, on the first Release; it
// may be nil.
func NewFrame(width, height, stride int, format PixelFormat, pix []byte, release func()) *Frame {
	if stride == 0 {
		stride = width * 4
	}
	return &Frame{
		Width:     width,
		Height:    height,
		Stride:    stride,
		Format:    format,
		Timestamp: time.Now(),
		pix:       pix,
		release:   release,
	}
}

// Bytes returns the pixel data. It returns nil after Release.
func (f *Frame) Bytes() []byte {
	if f.released.Load() {
		return nil
	}
	return f.pix
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool { return f.released.Load() }

// Release returns the frame to its transport. It is idempotent and safe to
// call on a nil frame.
func (f *Frame) Release() {
	if f == nil || !f.released.CompareAndSwap(false, true) {
		return
	}
	f.pix = nil
	if f.release != nil {
		f.release()
	}
}

// BufferPool recycles pixel buffers between frames.
type BufferPool struct {
	pool sync.Pool
}

// Get returns a buffer of length n, reusing a pooled one when it is large
// enough.
func (p *BufferPool) Get(n int) []byte {
	if v, ok := p.pool.Get().(*[]byte); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]byte, n)
}

// Put returns a buffer to the pool.
func (p *BufferPool) Put(b []byte) {
	if cap(b) == 0 {
		return
	}
	p.pool.Put(&b)
}
