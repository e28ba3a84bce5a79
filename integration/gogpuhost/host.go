// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"github.com/gogpu/gogpu"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/display"
	"github.com/gogpu/ndimon/render"
)

// Options configures the window.
type Options struct {
	// Width and Height are the initial client size. Default 1280x720.
	Width, Height int

	// FPS paces rendering when the window redraws on demand. Zero renders
	// at the display refresh rate.
	FPS int

	// Title is the window title. Empty selects display.AwaitingTitle.
	Title string
}

// Host is a gogpu window driving one engine.
type Host struct {
	*session

	opts Options
	app  *gogpu.App
	dev  *render.WGPUDevice
	anim *gogpu.AnimationToken
}

// New creates the window. The engine is built by factory on the first
// frame that has a device.
func New(opts Options, factory EngineFactory) *Host {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	if opts.Title == "" {
		opts.Title = display.AwaitingTitle
	}
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(opts.Title).
		WithSize(opts.Width, opts.Height).
		WithContinuousRender(false))

	h := &Host{
		session: newSession(factory, app),
		opts:    opts,
		app:     app,
	}
	app.OnDraw(h.draw)
	app.EventSource().OnMousePress(h.onMousePress)
	app.OnClose(h.onClose)
	return h
}

// Run shows the window and blocks until it closes. It returns the fatal
// error that closed the window, if any.
func (h *Host) Run() error {
	if err := h.app.Run(); err != nil {
		return err
	}
	return h.Err()
}

func (h *Host) draw(dc *gogpu.Context) {
	if h.Err() != nil {
		return
	}
	if w, ht := dc.Width(), dc.Height(); w <= 0 || ht <= 0 {
		return
	}
	if h.dev == nil {
		if err := h.start(); err != nil {
			h.fail(err)
			return
		}
		if h.dev == nil {
			return
		}
	}

	sv := dc.SurfaceView()
	if sv == nil {
		return
	}
	sw, sh := dc.SurfaceSize()
	h.dev.SetSurface(sv, int(sw), int(sh))
	if err := h.render(int(sw), int(sh)); err != nil {
		h.fail(err)
	}
}

// start wraps the window device and attaches the engine. A missing
// provider means the device is not ready yet.
func (h *Host) start() error {
	provider := h.app.GPUContextProvider()
	if provider == nil {
		return nil
	}
	dev, err := render.NewWGPUDeviceFromHandle(provider)
	if err != nil {
		return err
	}
	if err := h.attach(render.NewManager(dev)); err != nil {
		return err
	}
	h.dev = dev
	ndimon.Logger().Info("gogpuhost: engine started", "backend", dev.Backend(),
		"format", provider.SurfaceFormat())

	if !h.startPacer(h.opts.FPS) {
		h.anim = h.app.StartAnimation()
	}
	return nil
}

func (h *Host) onClose() {
	if h.anim != nil {
		h.anim.Stop()
		h.anim = nil
	}
	h.close()
}
