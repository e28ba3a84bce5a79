// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package source

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/ndimon"
)

// PatternPrefix marks synthetic source names: pattern:<W>x<H>[@<fps>].
const PatternPrefix = "pattern:"

const (
	defaultPatternFPS = 30
	maxPatternSize    = 8192
	maxPatternFPS     = 240
)

// PatternSpec is a parsed pattern source name.
type PatternSpec struct {
	Width  int
	Height int
	FPS    int
}

// ParsePattern parses "pattern:1280x720" or "pattern:1280x720@60".
func ParsePattern(name string) (PatternSpec, error) {
	rest, ok := strings.CutPrefix(name, PatternPrefix)
	if !ok {
		return PatternSpec{}, fmt.Errorf("%w: %q", ErrBadPattern, name)
	}
	spec := PatternSpec{FPS: defaultPatternFPS}
	size, fps, hasFPS := strings.Cut(rest, "@")
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return PatternSpec{}, fmt.Errorf("%w: %q", ErrBadPattern, name)
	}
	var err error
	if spec.Width, err = strconv.Atoi(w); err != nil || spec.Width <= 0 || spec.Width > maxPatternSize {
		return PatternSpec{}, fmt.Errorf("%w: width in %q", ErrBadPattern, name)
	}
	if spec.Height, err = strconv.Atoi(h); err != nil || spec.Height <= 0 || spec.Height > maxPatternSize {
		return PatternSpec{}, fmt.Errorf("%w: height in %q", ErrBadPattern, name)
	}
	if hasFPS {
		if spec.FPS, err = strconv.Atoi(fps); err != nil || spec.FPS <= 0 || spec.FPS > maxPatternFPS {
			return PatternSpec{}, fmt.Errorf("%w: fps in %q", ErrBadPattern, name)
		}
	}
	return spec, nil
}

// barColors are the classic eight color bars.
var barColors = [8][3]byte{
	{192, 192, 192},
	{192, 192, 0},
	{0, 192, 192},
	{0, 192, 0},
	{192, 0, 192},
	{192, 0, 0},
	{0, 0, 192},
	{16, 16, 16},
}

// DrawPattern fills an RGBA buffer with eight vertical color bars shifted
// left by seq pixels. Alpha is always opaque.
func DrawPattern(pix []byte, width, height, stride int, seq uint64) {
	if width <= 0 || height <= 0 {
		return
	}
	shift := int(seq % uint64(width))
	row := pix[:width*4]
	for x := 0; x < width; x++ {
		bar := ((x + shift) % width) * len(barColors) / width
		c := barColors[bar]
		i := x * 4
		row[i], row[i+1], row[i+2], row[i+3] = c[0], c[1], c[2], 0xff
	}
	for y := 1; y < height; y++ {
		copy(pix[y*stride:y*stride+width*4], row)
	}
}

// PatternConnector is a synthetic transport. Each receiver runs a goroutine
// that publishes color bars at the requested rate.
type PatternConnector struct{}

// NewPatternConnector returns a pattern connector.
func NewPatternConnector() *PatternConnector { return &PatternConnector{} }

// OpenReceiver implements Connector.
func (c *PatternConnector) OpenReceiver(name string) (Receiver, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	spec, err := ParsePattern(name)
	if err != nil {
		return nil, err
	}
	r := &patternReceiver{
		name: name,
		id:   uuid.NewString(),
		spec: spec,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.run()
	ndimon.Logger().Info("source: pattern receiver opened",
		"name", name, "id", r.id, "width", spec.Width, "height", spec.Height, "fps", spec.FPS)
	return r, nil
}

// OpenFrameSync implements Connector.
func (c *PatternConnector) OpenFrameSync(r Receiver) (FrameSync, error) {
	pr, ok := r.(*patternReceiver)
	if !ok {
		return nil, ErrForeignReceiver
	}
	return pr.attach()
}

type patternReceiver struct {
	name string
	id   string
	spec PatternSpec

	sink   atomic.Pointer[Slot]
	pool   BufferPool
	closed atomic.Bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (r *patternReceiver) Name() string { return r.name }
func (r *patternReceiver) ID() string   { return r.id }

func (r *patternReceiver) attach() (FrameSync, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	slot := &Slot{}
	if prev := r.sink.Swap(slot); prev != nil {
		prev.Close()
	}
	return NewSlotSync(slot, func() { r.sink.CompareAndSwap(slot, nil) }), nil
}

func (r *patternReceiver) run() {
	defer close(r.done)
	ticker := time.NewTicker(time.Second / time.Duration(r.spec.FPS))
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			slot := r.sink.Load()
			if slot == nil {
				continue
			}
			seq++
			w, h := r.spec.Width, r.spec.Height
			buf := r.pool.Get(w * h * 4)
			DrawPattern(buf, w, h, w*4, seq)
			slot.Put(NewFrame(w, h, w*4, PixelRGBA, buf, func() { r.pool.Put(buf) }))
		}
	}
}

func (r *patternReceiver) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.stop)
		<-r.done
		if slot := r.sink.Swap(nil); slot != nil {
			slot.Close()
		}
		ndimon.Logger().Info("source: pattern receiver closed", "name", r.name, "id", r.id)
	})
}
