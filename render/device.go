// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/ndimon"
)

// DeviceHandle provides GPU device access from the host application.
// The window host receives it from gogpu and hands the underlying device to
// NewWGPUDevice; ndimon never creates a device of its own when a host exists.
type DeviceHandle = gpucontext.DeviceProvider

// Sentinel errors returned by Device implementations.
var (
	// ErrShaderCompile is returned when a program fails to compile or link.
	// There is no fallback rendering path, so callers treat it as fatal.
	ErrShaderCompile = errors.New("render: shader compilation failed")

	// ErrFramebufferIncomplete is returned when a render target cannot be
	// created or attached.
	ErrFramebufferIncomplete = errors.New("render: framebuffer incomplete")

	// ErrUnknownTexture is returned for a texture id the device does not hold.
	ErrUnknownTexture = errors.New("render: unknown texture")

	// ErrUnknownProgram is returned for a program id the device does not hold.
	ErrUnknownProgram = errors.New("render: unknown program")

	// ErrRegionTooLarge is returned when an upload region exceeds the texture.
	ErrRegionTooLarge = errors.New("render: upload region exceeds texture")

	// ErrShortBuffer is returned when the pixel slice is smaller than the region.
	ErrShortBuffer = errors.New("render: pixel buffer too small")

	// ErrNoSurface is returned when presenting without a bound window surface.
	ErrNoSurface = errors.New("render: no surface bound")

	// ErrPassActive is returned by BeginPass while another pass is open.
	ErrPassActive = errors.New("render: pass already active")

	// ErrNoPass is returned by DrawQuad and EndPass outside a pass.
	ErrNoPass = errors.New("render: no active pass")

	// ErrNotOwned is returned by an Arena for a texture it did not create.
	ErrNotOwned = errors.New("render: texture not owned by arena")

	// ErrNoDevice is returned when a host handle carries no wgpu device.
	ErrNoDevice = errors.New("render: host provides no wgpu device")

	// ErrInvalidSize is returned for non-positive texture dimensions.
	ErrInvalidSize = errors.New("render: invalid texture size")
)

// TextureID identifies a texture held by a Device. Zero is never valid.
type TextureID uint32

// FramebufferID identifies a render target. ScreenFramebuffer names the
// window surface.
type FramebufferID uint32

// ProgramID identifies a compiled shader program. Zero is never valid.
type ProgramID uint32

// ScreenFramebuffer is the framebuffer id of the presentation surface.
const ScreenFramebuffer FramebufferID = 0

// Format is the pixel layout of a texture.
type Format uint8

const (
	// FormatRGBA8 is 8-bit RGBA with a meaningful alpha channel.
	FormatRGBA8 Format = iota

	// FormatRGBX8 is 8-bit RGB with an unused fourth byte. Sampling treats it
	// as fully opaque.
	FormatRGBX8
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBX8:
		return "RGBX8"
	default:
		return "unknown"
	}
}

// gpuFormat maps a Format to the WebGPU texture format backing it.
// Both layouts are stored as RGBA8; RGBX differs only when sampled.
func (f Format) gpuFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Color is a clear color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Transparent is the clear color used by both compositing passes.
var Transparent = Color{}

// Viewport is a pixel rectangle of the bound framebuffer.
type Viewport struct {
	X, Y, Width, Height int
}

// Device is the GPU Resource Manager contract. It owns every GPU object:
// textures, render targets, programs, the shared quad geometry and its
// uniforms.
//
// All methods are called from the render goroutine only.
//
// Conventions shared by every implementation:
//   - the quad is a 4-vertex triangle strip covering [-1, 1] with texture
//     coordinates (0,0) at (-1,-1) and (1,1) at (1,1);
//   - texture coordinate v = 0 addresses the first uploaded row;
//   - offscreen targets store NDC y = -1 in row 0, the window surface shows
//     NDC y = +1 at its top edge, so an offscreen image must be drawn with
//     flipY to appear upright when presented;
//   - draws blend source-alpha over the destination;
//   - BeginPass clears the whole framebuffer, then restricts drawing to the
//     viewport.
type Device interface {
	// CreateTexture allocates an uninitialized width x height texture.
	CreateTexture(width, height int, format Format) (TextureID, error)

	// UploadSubImage copies a width x height region starting at the texture
	// origin. stride is the byte distance between rows of pix (0 means
	// width*4). The pixel slice is only borrowed for the duration of the call.
	UploadSubImage(id TextureID, width, height, stride int, pix []byte) error

	// DestroyTexture releases a texture. Unknown ids are ignored.
	DestroyTexture(id TextureID)

	// CreateRenderTarget allocates an offscreen framebuffer with an RGBA8
	// color texture that can later be sampled.
	CreateRenderTarget(width, height int) (FramebufferID, TextureID, error)

	// DestroyRenderTarget releases a framebuffer and its color texture.
	DestroyRenderTarget(fb FramebufferID)

	// CompileProgram builds the quad program from WGSL sources. Failure is
	// reported as ErrShaderCompile.
	CompileProgram(vertexSource, fragmentSource string) (ProgramID, error)

	// DestroyProgram releases a program. Unknown ids are ignored.
	DestroyProgram(p ProgramID)

	// BeginPass binds a framebuffer, clears it and sets the viewport.
	BeginPass(fb FramebufferID, vp Viewport, clear Color) error

	// DrawQuad draws the unit quad sampling tex, placed by transform.
	DrawQuad(p ProgramID, tex TextureID, transform ndimon.Matrix, flipY bool) error

	// EndPass finishes the pass and submits its work.
	EndPass() error

	// Backend names the implementation for diagnostics.
	Backend() string
}

// TextureInfo describes a texture held by a Device.
type TextureInfo struct {
	ID     TextureID
	Width  int
	Height int
	Format Format
}

// quadVertices is the shared triangle strip: position xyz, then uv.
var quadVertices = [20]float32{
	-1, -1, 0, 0, 0,
	1, -1, 0, 1, 0,
	-1, 1, 0, 0, 1,
	1, 1, 0, 1, 1,
}

// checkUpload validates an upload region against a texture and returns the
// effective stride.
func checkUpload(texW, texH, width, height, stride int, pix []byte) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, ErrInvalidSize
	}
	if width > texW || height > texH {
		return 0, ErrRegionTooLarge
	}
	if stride == 0 {
		stride = width * 4
	}
	if stride < width*4 || len(pix) < stride*(height-1)+width*4 {
		return 0, ErrShortBuffer
	}
	return stride, nil
}
