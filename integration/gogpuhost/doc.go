// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuhost runs a display.Engine inside a gogpu window.
//
// The window owns the GPU device; the engine receives it on the first
// frame. The data flow per frame is:
//
//	gogpu.App OnDraw -> surface view -> render.WGPUDevice -> display.Engine.Render
//
// # Usage
//
//	host := gogpuhost.New(gogpuhost.Options{Width: 1280, Height: 720},
//	    func(m *render.Manager) *display.Engine {
//	        return display.New(m, connector, display.Options{Width: 1280, Height: 720})
//	    })
//	go srv.Start() // srv forwards to host.RequestSource / host.Status
//	err := host.Run()
//
// Source requests and status reads are accepted before the window has a
// device; the first request is replayed when the engine starts.
//
// # Window Integration Without Hard Dependencies
//
// Fullscreen and redraw control are reached through optional interfaces on
// the app (gpucontext.WindowChrome and a local redrawer), so hosts lacking
// one of them still run. The window title is fixed when the window is
// created; the title for the active source is published in
// display.Status.
package gogpuhost
