// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/ndimon"
)

// rowsImage returns a w x h image whose rows are solid, distinct colors.
func rowsImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(40 * (y + 1)), G: uint8(10 * x), B: 7, A: 255})
		}
	}
	return img
}

func newTestProgram(t *testing.T, dev Device) ProgramID {
	t.Helper()
	p, err := dev.CompileProgram(QuadVertexShader, QuadFragmentShader)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	return p
}

func uploadImage(t *testing.T, dev Device, img *image.RGBA, format Format) TextureID {
	t.Helper()
	b := img.Bounds()
	id, err := dev.CreateTexture(b.Dx(), b.Dy(), format)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := dev.UploadSubImage(id, b.Dx(), b.Dy(), img.Stride, img.Pix); err != nil {
		t.Fatalf("UploadSubImage: %v", err)
	}
	return id
}

func draw(t *testing.T, dev Device, fb FramebufferID, vp Viewport, p ProgramID, tex TextureID, m ndimon.Matrix, flipY bool) {
	t.Helper()
	if err := dev.BeginPass(fb, vp, Transparent); err != nil {
		t.Fatalf("BeginPass: %v", err)
	}
	if err := dev.DrawQuad(p, tex, m, flipY); err != nil {
		t.Fatalf("DrawQuad: %v", err)
	}
	if err := dev.EndPass(); err != nil {
		t.Fatalf("EndPass: %v", err)
	}
}

func samePixels(t *testing.T, got, want *image.RGBA) {
	t.Helper()
	if got.Bounds().Size() != want.Bounds().Size() {
		t.Fatalf("size = %v, want %v", got.Bounds().Size(), want.Bounds().Size())
	}
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			if g, w := got.RGBAAt(x, y), want.RGBAAt(x, y); g != w {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func TestSoftwareDeviceOffscreenKeepsRows(t *testing.T) {
	dev := NewSoftwareDevice(4, 4)
	p := newTestProgram(t, dev)
	src := rowsImage(4, 4)
	tex := uploadImage(t, dev, src, FormatRGBA8)

	fb, rtTex, err := dev.CreateRenderTarget(4, 4)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	draw(t, dev, fb, Viewport{Width: 4, Height: 4}, p, tex, ndimon.Identity(), false)

	got, ok := dev.Snapshot(rtTex)
	if !ok {
		t.Fatal("Snapshot: render target texture missing")
	}
	samePixels(t, got, src)
}

func TestSoftwareDeviceScreenFlip(t *testing.T) {
	dev := NewSoftwareDevice(3, 3)
	p := newTestProgram(t, dev)
	src := rowsImage(3, 3)
	tex := uploadImage(t, dev, src, FormatRGBA8)

	draw(t, dev, ScreenFramebuffer, Viewport{Width: 3, Height: 3}, p, tex, ndimon.Identity(), true)
	samePixels(t, dev.Screen(), src)

	draw(t, dev, ScreenFramebuffer, Viewport{Width: 3, Height: 3}, p, tex, ndimon.Identity(), false)
	if got, want := dev.Screen().RGBAAt(0, 0), src.RGBAAt(0, 2); got != want {
		t.Errorf("unflipped top row = %v, want last source row %v", got, want)
	}
}

func TestSoftwareDeviceOffscreenThenPresentIsUpright(t *testing.T) {
	dev := NewSoftwareDevice(4, 4)
	p := newTestProgram(t, dev)
	src := rowsImage(4, 4)
	tex := uploadImage(t, dev, src, FormatRGBA8)
	fb, rtTex, err := dev.CreateRenderTarget(4, 4)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}

	draw(t, dev, fb, Viewport{Width: 4, Height: 4}, p, tex, ndimon.Identity(), false)
	draw(t, dev, ScreenFramebuffer, Viewport{Width: 4, Height: 4}, p, rtTex, ndimon.Identity(), true)
	samePixels(t, dev.Screen(), src)
}

func TestSoftwareDevicePlacement(t *testing.T) {
	dev := NewSoftwareDevice(4, 4)
	p := newTestProgram(t, dev)
	red := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(red.Pix); i += 4 {
		copy(red.Pix[i:], []byte{255, 0, 0, 255})
	}
	tex := uploadImage(t, dev, red, FormatRGBA8)
	fb, rtTex, err := dev.CreateRenderTarget(4, 4)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}

	m := ndimon.PlacementTransform(4, 4, 2, 2, 0, 0)
	draw(t, dev, fb, Viewport{Width: 4, Height: 4}, p, tex, m, false)
	draw(t, dev, ScreenFramebuffer, Viewport{Width: 4, Height: 4}, p, rtTex, ndimon.Identity(), true)

	screen := dev.Screen()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := screen.RGBAAt(x, y)
			inside := x < 2 && y < 2
			if inside && got != (color.RGBA{R: 255, A: 255}) {
				t.Errorf("pixel (%d,%d) = %v, want red", x, y, got)
			}
			if !inside && got != (color.RGBA{}) {
				t.Errorf("pixel (%d,%d) = %v, want transparent", x, y, got)
			}
		}
	}
}

func TestSoftwareDeviceBlend(t *testing.T) {
	dev := NewSoftwareDevice(1, 1)
	p := newTestProgram(t, dev)
	half := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(half.Pix, []byte{255, 0, 0, 128})
	tex := uploadImage(t, dev, half, FormatRGBA8)

	draw(t, dev, ScreenFramebuffer, Viewport{Width: 1, Height: 1}, p, tex, ndimon.Identity(), false)
	if got, want := dev.Screen().RGBAAt(0, 0), (color.RGBA{R: 128, A: 128}); got != want {
		t.Errorf("blended pixel = %v, want %v", got, want)
	}
}

func TestSoftwareDeviceRGBXIsOpaque(t *testing.T) {
	dev := NewSoftwareDevice(1, 1)
	p := newTestProgram(t, dev)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, []byte{10, 20, 30, 0})
	tex := uploadImage(t, dev, img, FormatRGBX8)

	draw(t, dev, ScreenFramebuffer, Viewport{Width: 1, Height: 1}, p, tex, ndimon.Identity(), false)
	if got, want := dev.Screen().RGBAAt(0, 0), (color.RGBA{R: 10, G: 20, B: 30, A: 255}); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestSoftwareDeviceViewport(t *testing.T) {
	dev := NewSoftwareDevice(4, 2)
	p := newTestProgram(t, dev)
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(white.Pix, []byte{255, 255, 255, 255})
	tex := uploadImage(t, dev, white, FormatRGBA8)

	draw(t, dev, ScreenFramebuffer, Viewport{X: 1, Y: 0, Width: 2, Height: 2}, p, tex, ndimon.Identity(), false)
	screen := dev.Screen()
	for x := 0; x < 4; x++ {
		got := screen.RGBAAt(x, 0)
		want := color.RGBA{}
		if x == 1 || x == 2 {
			want = color.RGBA{255, 255, 255, 255}
		}
		if got != want {
			t.Errorf("pixel (%d,0) = %v, want %v", x, got, want)
		}
	}
}

func TestSoftwareDevicePassErrors(t *testing.T) {
	dev := NewSoftwareDevice(2, 2)
	p := newTestProgram(t, dev)
	tex, err := dev.CreateTexture(1, 1, FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}

	if err := dev.DrawQuad(p, tex, ndimon.Identity(), false); !errors.Is(err, ErrNoPass) {
		t.Errorf("DrawQuad outside pass: err = %v, want ErrNoPass", err)
	}
	if err := dev.EndPass(); !errors.Is(err, ErrNoPass) {
		t.Errorf("EndPass outside pass: err = %v, want ErrNoPass", err)
	}
	if err := dev.BeginPass(ScreenFramebuffer, Viewport{Width: 2, Height: 2}, Transparent); err != nil {
		t.Fatal(err)
	}
	if err := dev.BeginPass(ScreenFramebuffer, Viewport{Width: 2, Height: 2}, Transparent); !errors.Is(err, ErrPassActive) {
		t.Errorf("nested BeginPass: err = %v, want ErrPassActive", err)
	}
	if err := dev.DrawQuad(p, 99, ndimon.Identity(), false); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("DrawQuad unknown texture: err = %v, want ErrUnknownTexture", err)
	}
	if err := dev.DrawQuad(99, tex, ndimon.Identity(), false); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("DrawQuad unknown program: err = %v, want ErrUnknownProgram", err)
	}
	if err := dev.EndPass(); err != nil {
		t.Errorf("EndPass: %v", err)
	}
	if err := dev.BeginPass(42, Viewport{Width: 2, Height: 2}, Transparent); !errors.Is(err, ErrFramebufferIncomplete) {
		t.Errorf("BeginPass unknown framebuffer: err = %v, want ErrFramebufferIncomplete", err)
	}
}

func TestSoftwareDeviceUploadErrors(t *testing.T) {
	dev := NewSoftwareDevice(1, 1)
	tex, err := dev.CreateTexture(2, 2, FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   TextureID
		w, h int
		pix  []byte
		want error
	}{
		{"unknown", 7, 1, 1, make([]byte, 4), ErrUnknownTexture},
		{"too wide", tex, 3, 1, make([]byte, 12), ErrRegionTooLarge},
		{"short", tex, 2, 2, make([]byte, 12), ErrShortBuffer},
		{"empty region", tex, 0, 1, nil, ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dev.UploadSubImage(tt.id, tt.w, tt.h, 0, tt.pix)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := dev.CreateTexture(0, 4, FormatRGBA8); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateTexture(0, 4): err = %v, want ErrInvalidSize", err)
	}
}

func TestSoftwareDeviceResizeScreen(t *testing.T) {
	dev := NewSoftwareDevice(2, 2)
	before := dev.Screen()
	dev.ResizeScreen(2, 2)
	if dev.Screen() != before {
		t.Error("ResizeScreen with same size reallocated")
	}
	dev.ResizeScreen(5, 3)
	if got := dev.Screen().Bounds().Size(); got != image.Pt(5, 3) {
		t.Errorf("screen size = %v, want (5,3)", got)
	}
}

func TestSoftwareDeviceStats(t *testing.T) {
	dev := NewSoftwareDevice(1, 1)
	p := newTestProgram(t, dev)
	tex, _ := dev.CreateTexture(1, 1, FormatRGBA8)
	draw(t, dev, ScreenFramebuffer, Viewport{Width: 1, Height: 1}, p, tex, ndimon.Identity(), false)

	passes, draws := dev.Stats()
	if passes != 1 || draws != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", passes, draws)
	}
	if dev.Backend() != "software" {
		t.Errorf("Backend() = %q", dev.Backend())
	}
}
