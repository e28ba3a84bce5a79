// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the GPU Resource Manager of ndimon.
//
// It owns every GPU object the display creates: placeholder and live
// textures, offscreen render targets, the quad program and its uniforms.
// Nothing outside this package holds a raw GPU handle.
//
// # Key Principle
//
// ndimon RECEIVES a GPU device from the host application, it does NOT create
// its own. The window host (integration/gogpuhost) hands the gogpu device to
// NewWGPUDevice; headless runs and tests use NewSoftwareDevice instead.
//
// # Core Types
//
//   - Device: the backend contract (textures, targets, programs, passes)
//   - Manager: owns a Device and tracks everything created through it
//   - Arena: the textures of one lifetime Category, released in one call
//
// # Device Implementations
//
//   - WGPUDevice: gogpu/wgpu, shaders validated with naga
//   - SoftwareDevice: CPU, image.RGBA, nearest-neighbour sampling
//
// # Usage
//
//	m := render.NewManager(render.NewSoftwareDevice(1280, 720))
//	defer m.Close()
//
//	prog, _ := m.CompileProgram(render.QuadVertexShader, render.QuadFragmentShader)
//	rt, _ := m.CreateRenderTarget(1920, 1080)
//	tex, _ := m.Static().CreateFromRGBA(img)
//
//	dev := m.Device()
//	_ = dev.BeginPass(rt.Framebuffer, render.Viewport{Width: 1920, Height: 1080}, render.Transparent)
//	_ = dev.DrawQuad(prog, tex.ID, ndimon.Identity(), false)
//	_ = dev.EndPass()
//
// # Architecture
//
//	             display.Engine
//	                   │
//	      ┌────────────┼────────────┐
//	      │            │            │
//	      ▼            ▼            ▼
//	 Static arena  Live arena  Overlay arena
//	      │            │            │
//	      └────────────┼────────────┘
//	                   │
//	                   ▼
//	            render.Manager
//	                   │
//	         ┌─────────┴─────────┐
//	         ▼                   ▼
//	    WGPUDevice        SoftwareDevice
//	   (gogpu/wgpu)        (image.RGBA)
//
// # Thread Safety
//
// Devices, managers and arenas are NOT thread-safe. They are used from the
// render goroutine only.
package render
