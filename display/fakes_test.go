// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/gogpu/ndimon/render"
	"github.com/gogpu/ndimon/source"
)

var errRefused = errors.New("refused")

// fakeConnector opens scripted receivers and records every open and close.
type fakeConnector struct {
	mu        sync.Mutex
	opened    []string
	events    []string
	fail      map[string]bool
	failSync  map[string]bool
	frames    map[string][]*source.Frame
	receivers []*fakeReceiver
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		fail:     make(map[string]bool),
		failSync: make(map[string]bool),
		frames:   make(map[string][]*source.Frame),
	}
}

func (c *fakeConnector) log(ev string) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *fakeConnector) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func (c *fakeConnector) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

// queue adds frames the next receiver opened for name will deliver.
func (c *fakeConnector) queue(name string, frames ...*source.Frame) {
	c.mu.Lock()
	c.frames[name] = append(c.frames[name], frames...)
	c.mu.Unlock()
}

func (c *fakeConnector) OpenReceiver(name string) (source.Receiver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, name)
	if c.fail[name] {
		return nil, errRefused
	}
	r := &fakeReceiver{conn: c, name: name, id: name + "-" + strconv.Itoa(len(c.opened))}
	c.receivers = append(c.receivers, r)
	return r, nil
}

func (c *fakeConnector) OpenFrameSync(r source.Receiver) (source.FrameSync, error) {
	fr, ok := r.(*fakeReceiver)
	if !ok {
		return nil, source.ErrForeignReceiver
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSync[fr.name] {
		return nil, errRefused
	}
	fs := &fakeSync{conn: c, name: fr.name, frames: c.frames[fr.name]}
	delete(c.frames, fr.name)
	return fs, nil
}

// slotConnector opens fake receivers whose frame sync reads from slot.
type slotConnector struct {
	*fakeConnector
	slot *source.Slot
}

func (c *slotConnector) OpenFrameSync(source.Receiver) (source.FrameSync, error) {
	return source.NewSlotSync(c.slot, nil), nil
}

type fakeReceiver struct {
	conn   *fakeConnector
	name   string
	id     string
	closed bool
}

func (r *fakeReceiver) Name() string { return r.name }
func (r *fakeReceiver) ID() string   { return r.id }
func (r *fakeReceiver) Close() {
	r.closed = true
	r.conn.log("receiver:" + r.name)
}

type fakeSync struct {
	conn   *fakeConnector
	name   string
	frames []*source.Frame
	closed bool
}

func (s *fakeSync) CaptureVideo(source.FieldMode) (*source.Frame, bool) {
	if s.closed || len(s.frames) == 0 {
		return nil, false
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, true
}

func (s *fakeSync) Close() {
	s.closed = true
	s.conn.log("sync:" + s.name)
}

// solidFrame returns a frame filled with c and a counter of its releases.
func solidFrame(w, h int, c color.RGBA, format source.PixelFormat) (*source.Frame, *int) {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	released := new(int)
	return source.NewFrame(w, h, 0, format, pix, func() { *released++ }), released
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

// testAssets has a red no-source and a green connecting placeholder.
func testAssets(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"nosource.png":   {Data: solidPNG(t, 16, 9, red)},
		"connecting.png": {Data: solidPNG(t, 16, 9, green)},
	}
}

func screenAt(dev *render.SoftwareDevice, x, y int) color.RGBA {
	return dev.Screen().RGBAAt(x, y)
}
