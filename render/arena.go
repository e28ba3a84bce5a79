// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
)

// Category groups textures by lifetime.
type Category uint8

const (
	// CategoryStatic holds placeholders: created once at load, never resized.
	CategoryStatic Category = iota

	// CategoryDynamicLive holds the texture bound to the current video
	// source. It is emptied on every source switch and on resolution change.
	CategoryDynamicLive

	// CategoryRenderTarget holds offscreen compositing surfaces. Their
	// textures are owned through Manager.CreateRenderTarget.
	CategoryRenderTarget

	// CategoryOverlay holds text-to-texture output such as captions.
	CategoryOverlay
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStatic:
		return "static"
	case CategoryDynamicLive:
		return "dynamic-live"
	case CategoryRenderTarget:
		return "render-target"
	case CategoryOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Arena owns every texture of one category. Destroying the arena's
// contents in one call is what keeps teardown from skipping a texture.
//
// An Arena is used from the render goroutine only.
type Arena struct {
	dev      Device
	category Category
	owned    map[TextureID]TextureInfo
	order    []TextureID
}

func newArena(dev Device, category Category) *Arena {
	return &Arena{
		dev:      dev,
		category: category,
		owned:    make(map[TextureID]TextureInfo),
	}
}

// Category returns the arena's category.
func (a *Arena) Category() Category { return a.category }

// Create allocates a texture owned by the arena.
func (a *Arena) Create(width, height int, format Format) (TextureInfo, error) {
	if width <= 0 || height <= 0 {
		return TextureInfo{}, fmt.Errorf("%s texture %dx%d: %w", a.category, width, height, ErrInvalidSize)
	}
	id, err := a.dev.CreateTexture(width, height, format)
	if err != nil {
		return TextureInfo{}, fmt.Errorf("%s texture %dx%d: %w", a.category, width, height, err)
	}
	info := TextureInfo{ID: id, Width: width, Height: height, Format: format}
	a.owned[id] = info
	a.order = append(a.order, id)
	return info, nil
}

// CreateFromRGBA allocates a texture sized to img and uploads its pixels.
func (a *Arena) CreateFromRGBA(img *image.RGBA) (TextureInfo, error) {
	b := img.Bounds()
	info, err := a.Create(b.Dx(), b.Dy(), FormatRGBA8)
	if err != nil {
		return TextureInfo{}, err
	}
	pix := img.Pix[img.PixOffset(b.Min.X, b.Min.Y):]
	if err := a.Upload(info.ID, b.Dx(), b.Dy(), img.Stride, pix); err != nil {
		a.Destroy(info.ID)
		return TextureInfo{}, err
	}
	return info, nil
}

// Upload copies pixels into a texture owned by the arena.
func (a *Arena) Upload(id TextureID, width, height, stride int, pix []byte) error {
	if _, ok := a.owned[id]; !ok {
		return fmt.Errorf("%s texture %d: %w", a.category, id, ErrNotOwned)
	}
	return a.dev.UploadSubImage(id, width, height, stride, pix)
}

// Info reports the size and format of an owned texture.
func (a *Arena) Info(id TextureID) (TextureInfo, bool) {
	info, ok := a.owned[id]
	return info, ok
}

// Destroy releases one owned texture. It reports whether id was owned.
func (a *Arena) Destroy(id TextureID) bool {
	if _, ok := a.owned[id]; !ok {
		return false
	}
	a.dev.DestroyTexture(id)
	delete(a.owned, id)
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Release destroys every owned texture, newest first, and returns how many
// were destroyed.
func (a *Arena) Release() int {
	n := len(a.order)
	for i := n - 1; i >= 0; i-- {
		a.dev.DestroyTexture(a.order[i])
	}
	clear(a.owned)
	a.order = a.order[:0]
	return n
}

// Len returns the number of owned textures.
func (a *Arena) Len() int { return len(a.order) }
