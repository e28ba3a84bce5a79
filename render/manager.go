// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/ndimon"
)

// RenderTarget is an offscreen framebuffer and the texture it renders into.
type RenderTarget struct {
	Framebuffer FramebufferID
	Texture     TextureID
	Width       int
	Height      int
}

// Manager owns a Device and every GPU object created through it, grouped by
// lifetime: one Arena per texture category plus render targets and
// programs. Close tears all of it down in a fixed order.
type Manager struct {
	dev      Device
	static   *Arena
	live     *Arena
	overlay  *Arena
	targets  []RenderTarget
	programs []ProgramID
	closed   bool
}

// NewManager wraps dev.
func NewManager(dev Device) *Manager {
	return &Manager{
		dev:     dev,
		static:  newArena(dev, CategoryStatic),
		live:    newArena(dev, CategoryDynamicLive),
		overlay: newArena(dev, CategoryOverlay),
	}
}

// Device returns the underlying device.
func (m *Manager) Device() Device { return m.dev }

// Static returns the arena for placeholder textures.
func (m *Manager) Static() *Arena { return m.static }

// Live returns the arena for the texture bound to the current source.
func (m *Manager) Live() *Arena { return m.live }

// Overlay returns the arena for text overlays.
func (m *Manager) Overlay() *Arena { return m.overlay }

// CreateRenderTarget allocates an offscreen target. Failure wraps
// ErrFramebufferIncomplete.
func (m *Manager) CreateRenderTarget(width, height int) (RenderTarget, error) {
	fb, tex, err := m.dev.CreateRenderTarget(width, height)
	if err != nil {
		return RenderTarget{}, fmt.Errorf("render target %dx%d: %w", width, height, err)
	}
	rt := RenderTarget{Framebuffer: fb, Texture: tex, Width: width, Height: height}
	m.targets = append(m.targets, rt)
	ndimon.Logger().Debug("render: target created", "width", width, "height", height, "backend", m.dev.Backend())
	return rt, nil
}

// CompileProgram compiles and tracks a program.
func (m *Manager) CompileProgram(vertexSource, fragmentSource string) (ProgramID, error) {
	p, err := m.dev.CompileProgram(vertexSource, fragmentSource)
	if err != nil {
		return 0, err
	}
	m.programs = append(m.programs, p)
	return p, nil
}

// RenderTargets returns the live render targets.
func (m *Manager) RenderTargets() []RenderTarget { return m.targets }

// Close releases everything: overlays, the live texture, placeholders,
// render targets and programs, in that order. Close is idempotent.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.overlay.Release()
	m.live.Release()
	m.static.Release()
	for i := len(m.targets) - 1; i >= 0; i-- {
		m.dev.DestroyRenderTarget(m.targets[i].Framebuffer)
	}
	m.targets = nil
	for _, p := range m.programs {
		m.dev.DestroyProgram(p)
	}
	m.programs = nil
	if c, ok := m.dev.(interface{ Close() }); ok {
		c.Close()
	}
}
