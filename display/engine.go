// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/assets"
	"github.com/gogpu/ndimon/caption"
	"github.com/gogpu/ndimon/render"
	"github.com/gogpu/ndimon/source"
)

// ErrNotLoaded is returned by Render before Load succeeded.
var ErrNotLoaded = errors.New("display: engine not loaded")

// Window title parts.
const (
	TitleSuffix   = " - NDI Source Monitor"
	AwaitingTitle = "(Awaiting Source)" + TitleSuffix
)

// TitleFor returns the window title for source name.
func TitleFor(name string) string {
	if name == "" {
		return AwaitingTitle
	}
	return name + TitleSuffix
}

// Caption position in working-canvas pixels from the top-left corner.
const (
	captionX = 100
	captionY = 100
)

// Options configures an Engine.
type Options struct {
	// Width and Height are the working canvas size. Default 1920x1080.
	Width, Height int

	// Assets holds the placeholder images. Nil selects assets.Default().
	Assets fs.FS

	// InitialSource, when set, is requested during Load.
	InitialSource string

	// Caption draws the active source name over the video. Nil disables
	// the overlay. The engine does not close it.
	Caption *caption.Renderer
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 1920, 1080
	}
	if o.Assets == nil {
		o.Assets = assets.Default()
	}
	return o
}

// Status is a point-in-time view of the engine, safe to read from any
// goroutine.
type Status struct {
	State          string `json:"state"`
	Source         string `json:"source"`
	Title          string `json:"title"`
	ConnectionID   string `json:"connection_id,omitempty"`
	Stalled        bool   `json:"stalled,omitempty"`
	LiveWidth      int    `json:"live_width"`
	LiveHeight     int    `json:"live_height"`
	FramesReceived uint64 `json:"frames_received"`
	FramesDropped  uint64 `json:"frames_dropped"`
	FramesUploaded uint64 `json:"frames_uploaded"`
	Resizes        uint64 `json:"resizes"`
	Switches       uint64 `json:"switches"`
	WindowWidth    int    `json:"window_width"`
	WindowHeight   int    `json:"window_height"`
	Backend        string `json:"backend"`
}

// Engine renders one tick per Render call: switch, acquire, compose,
// present.
type Engine struct {
	m    *render.Manager
	ctrl *Controller
	acq  *Acquirer
	comp *Compositor
	opts Options

	loaded bool
	closed bool

	noSource   render.TextureInfo
	connecting render.TextureInfo
	canvas     ndimon.Matrix

	captionText  string
	captionLayer Layer
	hasCaption   bool

	windowW, windowH int

	status atomic.Pointer[Status]
}

// New returns an engine drawing through m and opening sources through
// conn. Nothing is allocated until Load.
func New(m *render.Manager, conn source.Connector, opts Options) *Engine {
	opts = opts.withDefaults()
	ctrl := NewController(conn, m.Live())
	e := &Engine{
		m:      m,
		ctrl:   ctrl,
		acq:    NewAcquirer(ctrl, opts.Width, opts.Height),
		opts:   opts,
		canvas: ndimon.FullCanvas(opts.Width, opts.Height),
	}
	e.publish()
	return e
}

// Load creates the compositor and the placeholder textures and requests the
// initial source. Calls after the first success do nothing.
func (e *Engine) Load() error {
	if e.loaded {
		return nil
	}
	comp, err := NewCompositor(e.m, e.opts.Width, e.opts.Height)
	if err != nil {
		return err
	}
	set, err := assets.LoadSet(e.opts.Assets)
	if err != nil {
		return fmt.Errorf("display: placeholders: %w", err)
	}
	static := e.m.Static()
	if e.noSource, err = static.CreateFromRGBA(set.NoSource.RGBA()); err != nil {
		return fmt.Errorf("display: no-source placeholder: %w", err)
	}
	if e.connecting, err = static.CreateFromRGBA(set.Connecting.RGBA()); err != nil {
		return fmt.Errorf("display: connecting placeholder: %w", err)
	}
	e.comp = comp
	e.loaded = true

	ndimon.Logger().Info("display: engine loaded",
		"width", e.opts.Width, "height", e.opts.Height, "backend", e.m.Device().Backend())
	if e.opts.InitialSource != "" {
		e.ctrl.RequestSource(e.opts.InitialSource)
	}
	e.publish()
	return nil
}

// Render runs one tick against a windowW x windowH window.
//
// Failures to open a source or upload a frame are logged and rendering
// continues with a placeholder; only compositing failures are returned.
func (e *Engine) Render(windowW, windowH int) error {
	if !e.loaded || e.closed {
		return ErrNotLoaded
	}
	e.windowW, e.windowH = windowW, windowH

	if e.ctrl.ApplyPendingSwitch() {
		e.updateCaption()
	}
	if _, err := e.acq.Acquire(); err != nil {
		ndimon.Logger().Warn("display: frame dropped", "source", e.ctrl.Source(), "err", err)
	}

	layers := make([]Layer, 0, 2)
	layers = append(layers, e.visual())
	if e.hasCaption {
		layers = append(layers, e.captionLayer)
	}
	if err := e.comp.Compose(layers...); err != nil {
		return err
	}
	if err := e.comp.Present(windowW, windowH); err != nil {
		return err
	}
	e.publish()
	return nil
}

// visual selects the layer for the current state.
func (e *Engine) visual() Layer {
	switch e.ctrl.State() {
	case Live:
		if tex, m, ok := e.ctrl.LiveTexture(); ok {
			return Layer{Texture: tex.ID, Transform: m}
		}
		return Layer{Texture: e.connecting.ID, Transform: e.canvas}
	case Connecting:
		return Layer{Texture: e.connecting.ID, Transform: e.canvas}
	default:
		return Layer{Texture: e.noSource.ID, Transform: e.canvas}
	}
}

// updateCaption re-renders the overlay for the active source name.
func (e *Engine) updateCaption() {
	if e.opts.Caption == nil {
		return
	}
	name := e.ctrl.Source()
	if name == e.captionText && e.hasCaption {
		return
	}
	overlay := e.m.Overlay()
	overlay.Release()
	e.hasCaption, e.captionText = false, ""
	if name == "" {
		return
	}
	img, err := e.opts.Caption.Render(name)
	if err != nil {
		ndimon.Logger().Warn("display: caption", "source", name, "err", err)
		return
	}
	info, err := overlay.CreateFromRGBA(img)
	if err != nil {
		ndimon.Logger().Warn("display: caption texture", "source", name, "err", err)
		return
	}
	e.captionLayer = Layer{
		Texture: info.ID,
		Transform: ndimon.PlacementTransform(e.opts.Width, e.opts.Height,
			info.Width, info.Height, captionX, captionY),
	}
	e.captionText, e.hasCaption = name, true
}

// RequestSource schedules a switch to name. Safe for concurrent use.
func (e *Engine) RequestSource(name string) { e.ctrl.RequestSource(name) }

// Controller returns the stream lifecycle controller.
func (e *Engine) Controller() *Controller { return e.ctrl }

// Compositor returns the compositor, nil before Load.
func (e *Engine) Compositor() *Compositor { return e.comp }

// Status returns the last published snapshot. Safe for concurrent use.
func (e *Engine) Status() Status {
	if s := e.status.Load(); s != nil {
		return *s
	}
	return Status{State: Idle.String(), Title: AwaitingTitle}
}

func (e *Engine) publish() {
	name := e.ctrl.Source()
	s := &Status{
		State:          e.ctrl.State().String(),
		Source:         name,
		Title:          TitleFor(name),
		ConnectionID:   e.ctrl.ConnectionID(),
		Stalled:        source.IsStalled(e.ctrl.Receiver()),
		FramesUploaded: e.acq.FramesUploaded(),
		Resizes:        e.acq.Resizes(),
		Switches:       e.ctrl.Switches(),
		WindowWidth:    e.windowW,
		WindowHeight:   e.windowH,
		Backend:        e.m.Device().Backend(),
	}
	if tex, _, ok := e.ctrl.LiveTexture(); ok {
		s.LiveWidth, s.LiveHeight = tex.Width, tex.Height
	}
	if sr, ok := e.ctrl.FrameSync().(source.StatsReporter); ok {
		s.FramesReceived, s.FramesDropped = sr.Stats()
	}
	e.status.Store(s)
}

// Close tears down the connection and releases every GPU object. Close is
// idempotent; Render fails afterwards.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.ctrl.Teardown()
	e.hasCaption = false
	e.m.Close()
	e.publish()
	ndimon.Logger().Info("display: engine closed")
}
