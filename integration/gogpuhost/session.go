// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"errors"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/display"
	"github.com/gogpu/ndimon/render"
)

// ErrNoEngine is returned when the engine factory returns nil.
var ErrNoEngine = errors.New("gogpuhost: engine factory returned nil")

// EngineFactory builds the engine once the window device exists.
type EngineFactory func(m *render.Manager) *display.Engine

// redrawer is implemented by hosts that render on demand.
type redrawer interface {
	RequestRedraw()
}

// session is the window-independent part of the host: the engine proxy,
// fullscreen toggling and frame pacing.
type session struct {
	factory EngineFactory
	window  any

	mu      sync.Mutex
	eng     *display.Engine
	pending string
	err     error
	closed  bool

	pacerStop chan struct{}
	pacerDone chan struct{}
}

func newSession(factory EngineFactory, window any) *session {
	return &session{factory: factory, window: window}
}

// attach builds and loads the engine over m. It runs on the render
// goroutine.
func (s *session) attach(m *render.Manager) error {
	eng := s.factory(m)
	if eng == nil {
		m.Close()
		return ErrNoEngine
	}
	if err := eng.Load(); err != nil {
		eng.Close()
		return err
	}
	s.mu.Lock()
	s.eng = eng
	pending := s.pending
	s.pending = ""
	s.mu.Unlock()

	if pending != "" {
		eng.RequestSource(pending)
	}
	return nil
}

func (s *session) engine() *display.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng
}

// RequestSource forwards to the engine, or keeps the latest name until the
// engine exists. Safe for concurrent use.
func (s *session) RequestSource(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	eng := s.eng
	if eng == nil {
		s.pending = name
	}
	s.mu.Unlock()
	if eng != nil {
		eng.RequestSource(name)
	}
}

// Status returns the engine snapshot, idle before the engine exists. Safe
// for concurrent use.
func (s *session) Status() display.Status {
	if eng := s.engine(); eng != nil {
		return eng.Status()
	}
	return display.Status{State: display.Idle.String(), Title: display.AwaitingTitle}
}

// render runs one engine tick and reports a fatal failure.
func (s *session) render(width, height int) error {
	eng := s.engine()
	if eng == nil {
		return nil
	}
	return eng.Render(width, height)
}

// onMousePress toggles fullscreen on a right click.
func (s *session) onMousePress(button gpucontext.MouseButton, _, _ float64) {
	if button != gpucontext.MouseButtonRight {
		return
	}
	wc, ok := s.window.(gpucontext.WindowChrome)
	if !ok {
		return
	}
	fullscreen := !wc.IsFullscreen()
	wc.SetFullscreen(fullscreen)
	ndimon.Logger().Info("gogpuhost: fullscreen toggled", "fullscreen", fullscreen)
}

// fail records the first fatal error and asks the window to close.
func (s *session) fail(err error) {
	s.mu.Lock()
	first := s.err == nil
	if first {
		s.err = err
	}
	s.mu.Unlock()
	if !first {
		return
	}
	ndimon.Logger().Error("gogpuhost: render failed", "err", err)
	if wc, ok := s.window.(gpucontext.WindowChrome); ok {
		wc.Close()
	}
}

// Err returns the fatal error that closed the window, if any.
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// startPacer requests a redraw fps times per second. It reports false when
// the window cannot redraw on demand.
func (s *session) startPacer(fps int) bool {
	rd, ok := s.window.(redrawer)
	if !ok || fps <= 0 || s.pacerStop != nil {
		return false
	}
	s.pacerStop = make(chan struct{})
	s.pacerDone = make(chan struct{})
	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rd.RequestRedraw()
			}
		}
	}(s.pacerStop, s.pacerDone)
	return true
}

func (s *session) stopPacer() {
	if s.pacerStop == nil {
		return
	}
	close(s.pacerStop)
	<-s.pacerDone
	s.pacerStop, s.pacerDone = nil, nil
}

// close stops pacing and releases the engine. It is idempotent.
func (s *session) close() {
	s.stopPacer()
	s.mu.Lock()
	eng := s.eng
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if eng != nil && !already {
		eng.Close()
	}
}
