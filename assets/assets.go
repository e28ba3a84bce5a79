// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package assets loads the placeholder images shown while no live video is
// available.
//
// Images are decoded into tightly packed RGBA with the first row first,
// ready for render.Arena uploads. A built-in set is embedded; a directory
// with files of the same names overrides it.
package assets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Asset names.
const (
	NoSource   = "nosource.png"
	Connecting = "connecting.png"
)

// Errors.
var (
	// ErrMissing is returned when an asset file does not exist.
	ErrMissing = errors.New("assets: missing")

	// ErrMalformed is returned when an asset is not a decodable PNG.
	ErrMalformed = errors.New("assets: malformed image")
)

//go:embed images/*.png
var embedded embed.FS

// Image is a decoded RGBA image, rows top to bottom, stride Width*4.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// RGBA returns the image as *image.RGBA sharing Pix.
func (img Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// Decode reads a PNG and converts it to tightly packed RGBA.
func Decode(r io.Reader) (Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	b := src.Bounds()
	if b.Empty() {
		return Image{}, fmt.Errorf("%w: empty image", ErrMalformed)
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}, nil
}

// Load decodes name from fsys.
func Load(fsys fs.FS, name string) (Image, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Image{}, fmt.Errorf("%w: %s", ErrMissing, name)
		}
		return Image{}, fmt.Errorf("assets: read %s: %w", name, err)
	}
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

// Default returns the embedded placeholder set.
func Default() fs.FS {
	sub, err := fs.Sub(embedded, "images")
	if err != nil {
		panic(err)
	}
	return sub
}

// Dir returns the placeholder set in directory path. An empty path selects
// Default.
func Dir(path string) fs.FS {
	if path == "" {
		return Default()
	}
	return os.DirFS(path)
}

// Set is the decoded placeholder set.
type Set struct {
	NoSource   Image
	Connecting Image
}

// LoadSet decodes both placeholders from fsys. Either one missing is an
// error.
func LoadSet(fsys fs.FS) (Set, error) {
	var (
		s   Set
		err error
	)
	if s.NoSource, err = Load(fsys, NoSource); err != nil {
		return Set{}, err
	}
	if s.Connecting, err = Load(fsys, Connecting); err != nil {
		return Set{}, err
	}
	return s, nil
}
