// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"fmt"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/render"
)

// Layer is one textured quad of the composed image.
type Layer struct {
	Texture   render.TextureID
	Transform ndimon.Matrix
}

// presentClear fills the letterbox bars.
var presentClear = render.Color{A: 1}

// Compositor draws layers into an offscreen target at the working
// resolution, then presents the target letterboxed to the window.
type Compositor struct {
	dev     render.Device
	program render.ProgramID
	target  render.RenderTarget
}

// NewCompositor compiles the quad program and allocates the width x height
// render target. Both failures are fatal to the engine.
func NewCompositor(m *render.Manager, width, height int) (*Compositor, error) {
	program, err := m.CompileProgram(render.QuadVertexShader, render.QuadFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("display: quad program: %w", err)
	}
	target, err := m.CreateRenderTarget(width, height)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	return &Compositor{dev: m.Device(), program: program, target: target}, nil
}

// Target returns the offscreen render target.
func (c *Compositor) Target() render.RenderTarget { return c.target }

// Compose clears the render target to transparent black and draws layers
// in order.
func (c *Compositor) Compose(layers ...Layer) error {
	vp := render.Viewport{Width: c.target.Width, Height: c.target.Height}
	if err := c.dev.BeginPass(c.target.Framebuffer, vp, render.Transparent); err != nil {
		return fmt.Errorf("display: compose: %w", err)
	}
	var errs []error
	for _, l := range layers {
		if err := c.dev.DrawQuad(c.program, l.Texture, l.Transform, false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.dev.EndPass(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("display: compose: %w", err)
	}
	return nil
}

// Present draws the render target to the window, scaled to fit without
// distortion. A zero-sized window is skipped.
func (c *Compositor) Present(windowW, windowH int) error {
	if windowW <= 0 || windowH <= 0 {
		return nil
	}
	vp := render.Viewport{Width: windowW, Height: windowH}
	if err := c.dev.BeginPass(render.ScreenFramebuffer, vp, presentClear); err != nil {
		return fmt.Errorf("display: present: %w", err)
	}
	drawErr := c.dev.DrawQuad(c.program, c.target.Texture, ndimon.LetterboxTransform(windowW, windowH), true)
	if err := errors.Join(drawErr, c.dev.EndPass()); err != nil {
		return fmt.Errorf("display: present: %w", err)
	}
	return nil
}
