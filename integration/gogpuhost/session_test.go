// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/ndimon/display"
	"github.com/gogpu/ndimon/render"
	"github.com/gogpu/ndimon/source"
)

type fakeWindow struct {
	gpucontext.NullWindowChrome

	mu         sync.Mutex
	fullscreen bool
	closes     int
	redraws    atomic.Int32
}

func (w *fakeWindow) SetFullscreen(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fullscreen = on
}

func (w *fakeWindow) IsFullscreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

func (w *fakeWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
}

func (w *fakeWindow) RequestRedraw() { w.redraws.Add(1) }

// refusingConnector fails every open, so sources stall in connecting.
type refusingConnector struct{ opened []string }

func (c *refusingConnector) OpenReceiver(name string) (source.Receiver, error) {
	c.opened = append(c.opened, name)
	return nil, errors.New("unreachable")
}

func (c *refusingConnector) OpenFrameSync(source.Receiver) (source.FrameSync, error) {
	return nil, source.ErrForeignReceiver
}

func testFactory(conn source.Connector) EngineFactory {
	return func(m *render.Manager) *display.Engine {
		return display.New(m, conn, display.Options{Width: 32, Height: 18})
	}
}

func attached(t *testing.T, conn source.Connector) (*session, *fakeWindow, *render.SoftwareDevice) {
	t.Helper()
	w := &fakeWindow{}
	s := newSession(testFactory(conn), w)
	dev := render.NewSoftwareDevice(32, 18)
	if err := s.attach(render.NewManager(dev)); err != nil {
		t.Fatalf("attach: %v", err)
	}
	t.Cleanup(s.close)
	return s, w, dev
}

func TestSessionBeforeEngine(t *testing.T) {
	s := newSession(testFactory(&refusingConnector{}), &fakeWindow{})
	if got := s.Status(); got.State != "idle" || got.Title != display.AwaitingTitle {
		t.Errorf("Status() = %+v", got)
	}
	if err := s.render(32, 18); err != nil {
		t.Errorf("render without engine: %v", err)
	}
}

func TestSessionReplaysEarlyRequest(t *testing.T) {
	conn := &refusingConnector{}
	w := &fakeWindow{}
	s := newSession(testFactory(conn), w)
	s.RequestSource("EARLY1")
	s.RequestSource("EARLY2")
	s.RequestSource("")

	if err := s.attach(render.NewManager(render.NewSoftwareDevice(32, 18))); err != nil {
		t.Fatal(err)
	}
	defer s.close()
	if err := s.render(32, 18); err != nil {
		t.Fatal(err)
	}
	if len(conn.opened) != 1 || conn.opened[0] != "EARLY2" {
		t.Errorf("opened %v, want [EARLY2]", conn.opened)
	}
	if got := s.Status(); got.State != "connecting" || got.Source != "EARLY2" {
		t.Errorf("Status() = %+v", got)
	}
}

func TestSessionStatusTracksTitle(t *testing.T) {
	s, _, _ := attached(t, &refusingConnector{})
	if err := s.render(32, 18); err != nil {
		t.Fatal(err)
	}
	if got := s.Status().Title; got != display.AwaitingTitle {
		t.Errorf("Status().Title = %q", got)
	}

	s.RequestSource("CAM1")
	if err := s.render(32, 18); err != nil {
		t.Fatal(err)
	}
	if got := s.Status().Title; got != "CAM1 - NDI Source Monitor" {
		t.Errorf("Status().Title = %q", got)
	}
}

func TestSessionRenderDrawsScreen(t *testing.T) {
	s, _, dev := attached(t, &refusingConnector{})
	if err := s.render(32, 18); err != nil {
		t.Fatal(err)
	}
	if passes, draws := dev.Stats(); passes != 2 || draws != 2 {
		t.Errorf("Stats() = %d passes, %d draws, want 2, 2", passes, draws)
	}
}

func TestRightClickTogglesFullscreen(t *testing.T) {
	w := &fakeWindow{}
	s := newSession(testFactory(&refusingConnector{}), w)

	s.onMousePress(gpucontext.MouseButtonLeft, 10, 10)
	if w.IsFullscreen() {
		t.Fatal("left click toggled fullscreen")
	}
	s.onMousePress(gpucontext.MouseButtonRight, 10, 10)
	if !w.IsFullscreen() {
		t.Fatal("right click did not enter fullscreen")
	}
	s.onMousePress(gpucontext.MouseButtonRight, 10, 10)
	if w.IsFullscreen() {
		t.Fatal("second right click did not leave fullscreen")
	}
}

func TestFailClosesWindowOnce(t *testing.T) {
	w := &fakeWindow{}
	s := newSession(testFactory(&refusingConnector{}), w)
	first := errors.New("first")
	s.fail(first)
	s.fail(errors.New("second"))

	if !errors.Is(s.Err(), first) {
		t.Errorf("Err() = %v, want first", s.Err())
	}
	if w.closes != 1 {
		t.Errorf("window closed %d times, want 1", w.closes)
	}
}

func TestAttachNilEngine(t *testing.T) {
	s := newSession(func(*render.Manager) *display.Engine { return nil }, &fakeWindow{})
	dev := render.NewSoftwareDevice(4, 4)
	if err := s.attach(render.NewManager(dev)); !errors.Is(err, ErrNoEngine) {
		t.Errorf("attach() = %v, want ErrNoEngine", err)
	}
}

func TestPacerRequestsRedraws(t *testing.T) {
	w := &fakeWindow{}
	s := newSession(testFactory(&refusingConnector{}), w)
	if !s.startPacer(200) {
		t.Fatal("startPacer() = false for a redrawing window")
	}
	if s.startPacer(200) {
		t.Error("second startPacer() = true")
	}
	deadline := time.Now().Add(2 * time.Second)
	for w.redraws.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.stopPacer()
	n := w.redraws.Load()
	if n < 3 {
		t.Fatalf("redraws = %d, want >= 3", n)
	}
	time.Sleep(20 * time.Millisecond)
	if w.redraws.Load() != n {
		t.Error("pacer kept running after stop")
	}
}

func TestPacerNeedsRedrawer(t *testing.T) {
	s := newSession(testFactory(&refusingConnector{}), struct{}{})
	if s.startPacer(60) {
		t.Error("startPacer() = true without RequestRedraw")
	}
	s.stopPacer()
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _, dev := attached(t, &refusingConnector{})
	s.close()
	s.close()
	if n := dev.TextureCount(); n != 0 {
		t.Errorf("%d textures left after close", n)
	}
}
