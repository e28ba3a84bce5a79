// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/ndimon"
)

// SoftwareDevice is a CPU implementation of Device backed by image.RGBA.
//
// It follows the same conventions as the GPU device (bottom-origin offscreen
// targets, top-origin screen, source-alpha blending) with nearest-neighbour
// sampling, which makes composited output exactly predictable. It backs
// headless runs and the engine's tests.
//
// Example:
//
//	dev := render.NewSoftwareDevice(1280, 720)
//	m := render.NewManager(dev)
//	// ... compose and present ...
//	img := dev.Screen()
type SoftwareDevice struct {
	textures     map[TextureID]*softTexture
	framebuffers map[FramebufferID]TextureID
	programs     map[ProgramID]struct{}

	nextTexture     TextureID
	nextFramebuffer FramebufferID
	nextProgram     ProgramID

	screen *image.RGBA
	pass   *softPass

	draws  int
	passes int
}

type softTexture struct {
	img    *image.RGBA
	format Format
}

type softPass struct {
	img          *image.RGBA
	bottomOrigin bool
	vp           Viewport
}

// NewSoftwareDevice creates a device whose screen is width x height.
func NewSoftwareDevice(width, height int) *SoftwareDevice {
	return &SoftwareDevice{
		textures:     make(map[TextureID]*softTexture),
		framebuffers: make(map[FramebufferID]TextureID),
		programs:     make(map[ProgramID]struct{}),
		screen:       image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
	}
}

// Backend returns "software".
func (d *SoftwareDevice) Backend() string { return "software" }

// ResizeScreen reallocates the presentation surface, as a window resize would.
func (d *SoftwareDevice) ResizeScreen(width, height int) {
	b := d.screen.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return
	}
	d.screen = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

// Screen returns the presentation surface, top row first.
func (d *SoftwareDevice) Screen() *image.RGBA { return d.screen }

// Snapshot returns a copy of a texture's storage, row 0 first.
func (d *SoftwareDevice) Snapshot(id TextureID) (*image.RGBA, bool) {
	t, ok := d.textures[id]
	if !ok {
		return nil, false
	}
	cp := image.NewRGBA(t.img.Bounds())
	copy(cp.Pix, t.img.Pix)
	return cp, true
}

// TextureSize reports the size of a live texture.
func (d *SoftwareDevice) TextureSize(id TextureID) (int, int, bool) {
	t, ok := d.textures[id]
	if !ok {
		return 0, 0, false
	}
	b := t.img.Bounds()
	return b.Dx(), b.Dy(), true
}

// TextureCount returns the number of live textures, render target textures
// included.
func (d *SoftwareDevice) TextureCount() int { return len(d.textures) }

// Stats returns the number of passes and draws executed so far.
func (d *SoftwareDevice) Stats() (passes, draws int) { return d.passes, d.draws }

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(width, height int, format Format) (TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, ErrInvalidSize
	}
	d.nextTexture++
	d.textures[d.nextTexture] = &softTexture{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		format: format,
	}
	return d.nextTexture, nil
}

// UploadSubImage implements Device.
func (d *SoftwareDevice) UploadSubImage(id TextureID, width, height, stride int, pix []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("texture %d: %w", id, ErrUnknownTexture)
	}
	b := t.img.Bounds()
	stride, err := checkUpload(b.Dx(), b.Dy(), width, height, stride, pix)
	if err != nil {
		return fmt.Errorf("texture %d: %w", id, err)
	}
	row := width * 4
	for y := 0; y < height; y++ {
		dst := t.img.Pix[y*t.img.Stride : y*t.img.Stride+row]
		copy(dst, pix[y*stride:y*stride+row])
		if t.format == FormatRGBX8 {
			for i := 3; i < row; i += 4 {
				dst[i] = 0xff
			}
		}
	}
	return nil
}

// DestroyTexture implements Device.
func (d *SoftwareDevice) DestroyTexture(id TextureID) {
	delete(d.textures, id)
}

// CreateRenderTarget implements Device.
func (d *SoftwareDevice) CreateRenderTarget(width, height int) (FramebufferID, TextureID, error) {
	tex, err := d.CreateTexture(width, height, FormatRGBA8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrFramebufferIncomplete, err)
	}
	d.nextFramebuffer++
	d.framebuffers[d.nextFramebuffer] = tex
	return d.nextFramebuffer, tex, nil
}

// DestroyRenderTarget implements Device.
func (d *SoftwareDevice) DestroyRenderTarget(fb FramebufferID) {
	if tex, ok := d.framebuffers[fb]; ok {
		delete(d.textures, tex)
		delete(d.framebuffers, fb)
	}
}

// CompileProgram implements Device. The sources are checked with the same
// WGSL front end the GPU device uses.
func (d *SoftwareDevice) CompileProgram(vertexSource, fragmentSource string) (ProgramID, error) {
	if err := checkProgram(vertexSource, fragmentSource); err != nil {
		return 0, err
	}
	d.nextProgram++
	d.programs[d.nextProgram] = struct{}{}
	return d.nextProgram, nil
}

// DestroyProgram implements Device.
func (d *SoftwareDevice) DestroyProgram(p ProgramID) {
	delete(d.programs, p)
}

// BeginPass implements Device.
func (d *SoftwareDevice) BeginPass(fb FramebufferID, vp Viewport, clear Color) error {
	if d.pass != nil {
		return ErrPassActive
	}
	pass := &softPass{vp: vp}
	if fb == ScreenFramebuffer {
		pass.img = d.screen
	} else {
		tex, ok := d.framebuffers[fb]
		if !ok {
			return fmt.Errorf("framebuffer %d: %w", fb, ErrFramebufferIncomplete)
		}
		pass.img = d.textures[tex].img
		pass.bottomOrigin = true
	}
	c := [4]byte{unit(clear.R), unit(clear.G), unit(clear.B), unit(clear.A)}
	for i := 0; i < len(pass.img.Pix); i += 4 {
		copy(pass.img.Pix[i:i+4], c[:])
	}
	d.pass = pass
	d.passes++
	return nil
}

// DrawQuad implements Device.
func (d *SoftwareDevice) DrawQuad(p ProgramID, tex TextureID, transform ndimon.Matrix, flipY bool) error {
	if d.pass == nil {
		return ErrNoPass
	}
	if _, ok := d.programs[p]; !ok {
		return fmt.Errorf("program %d: %w", p, ErrUnknownProgram)
	}
	src, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("texture %d: %w", tex, ErrUnknownTexture)
	}
	d.draws++

	inv, ok := transform.Invert2D()
	if !ok {
		return nil
	}

	dst := d.pass.img
	vp := d.pass.vp
	bounds := dst.Bounds()
	sw, sh := src.img.Bounds().Dx(), src.img.Bounds().Dy()
	if vp.Width <= 0 || vp.Height <= 0 || sw == 0 || sh == 0 {
		return nil
	}

	for row := max(vp.Y, 0); row < min(vp.Y+vp.Height, bounds.Dy()); row++ {
		fy := (float32(row-vp.Y) + 0.5) / float32(vp.Height)
		ndcY := 1 - 2*fy
		if d.pass.bottomOrigin {
			ndcY = -ndcY
		}
		for col := max(vp.X, 0); col < min(vp.X+vp.Width, bounds.Dx()); col++ {
			ndcX := 2*(float32(col-vp.X)+0.5)/float32(vp.Width) - 1
			qx, qy := inv.Apply(ndcX, ndcY)
			if qx < -1 || qx > 1 || qy < -1 || qy > 1 {
				continue
			}
			u := (qx + 1) / 2
			v := (qy + 1) / 2
			if flipY {
				v = 1 - v
			}
			tx := clampIndex(int(u*float32(sw)), sw)
			ty := clampIndex(int(v*float32(sh)), sh)

			si := ty*src.img.Stride + tx*4
			di := row*dst.Stride + col*4
			a := uint32(src.img.Pix[si+3])
			if src.format == FormatRGBX8 {
				a = 0xff
			}
			blendOver(dst.Pix[di:di+4], src.img.Pix[si:si+3], a)
		}
	}
	return nil
}

// EndPass implements Device.
func (d *SoftwareDevice) EndPass() error {
	if d.pass == nil {
		return ErrNoPass
	}
	d.pass = nil
	return nil
}

// blendOver applies src-alpha blending: color = src*a + dst*(1-a),
// alpha = a + dstA*(1-a).
func blendOver(dst []byte, rgb []byte, a uint32) {
	if a == 0xff {
		dst[0], dst[1], dst[2], dst[3] = rgb[0], rgb[1], rgb[2], 0xff
		return
	}
	if a == 0 {
		return
	}
	ia := 0xff - a
	for i := 0; i < 3; i++ {
		dst[i] = byte((uint32(rgb[i])*a + uint32(dst[i])*ia + 127) / 0xff)
	}
	dst[3] = byte((a*0xff + uint32(dst[3])*ia + 127) / 0xff)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func unit(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	default:
		return byte(v*0xff + 0.5)
	}
}

var _ Device = (*SoftwareDevice)(nil)
