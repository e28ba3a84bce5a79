// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"fmt"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/render"
	"github.com/gogpu/ndimon/source"
)

// Acquirer moves at most one frame per tick from the controller's frame
// sync into the live texture.
type Acquirer struct {
	ctrl    *Controller
	canvasW int
	canvasH int

	uploaded uint64
	resizes  uint64
}

// NewAcquirer returns an Acquirer filling the live texture of ctrl. The
// live texture covers the whole canvasW x canvasH working canvas.
func NewAcquirer(ctrl *Controller, canvasW, canvasH int) *Acquirer {
	return &Acquirer{ctrl: ctrl, canvasW: canvasW, canvasH: canvasH}
}

// Acquire captures one progressive frame and uploads it. It reports whether
// a frame was uploaded. A captured frame is always released before Acquire
// returns.
func (a *Acquirer) Acquire() (bool, error) {
	fs := a.ctrl.FrameSync()
	if fs == nil {
		return false, nil
	}
	frame, ok := fs.CaptureVideo(source.Progressive)
	if !ok || frame == nil {
		return false, nil
	}
	defer frame.Release()

	live := a.ctrl.live
	format := textureFormat(frame.Format)
	old, _, has := a.ctrl.LiveTexture()
	if has && old.Width == frame.Width && old.Height == frame.Height && old.Format == format {
		if err := live.Upload(old.ID, frame.Width, frame.Height, frame.Stride, frame.Bytes()); err != nil {
			return false, fmt.Errorf("display: upload frame %d: %w", frame.Seq, err)
		}
		a.uploaded++
		a.ctrl.markLive()
		return true, nil
	}

	// A new size replaces the live texture once a frame of that size has
	// uploaded.
	tex, err := live.Create(frame.Width, frame.Height, format)
	if err != nil {
		return false, fmt.Errorf("display: live texture: %w", err)
	}
	if err := live.Upload(tex.ID, frame.Width, frame.Height, frame.Stride, frame.Bytes()); err != nil {
		live.Destroy(tex.ID)
		return false, fmt.Errorf("display: upload frame %d: %w", frame.Seq, err)
	}
	if has {
		ndimon.Logger().Info("display: source resolution changed",
			"source", a.ctrl.Source(),
			"from", fmt.Sprintf("%dx%d", old.Width, old.Height),
			"to", fmt.Sprintf("%dx%d", frame.Width, frame.Height))
		live.Destroy(old.ID)
		a.resizes++
	}
	a.ctrl.setLive(tex, ndimon.FullCanvas(a.canvasW, a.canvasH))
	a.uploaded++
	a.ctrl.markLive()
	return true, nil
}

// FramesUploaded returns the number of frames uploaded so far.
func (a *Acquirer) FramesUploaded() uint64 { return a.uploaded }

// Resizes returns how many times the live texture was recreated for a new
// resolution.
func (a *Acquirer) Resizes() uint64 { return a.resizes }

func textureFormat(f source.PixelFormat) render.Format {
	if f == source.PixelRGBX {
		return render.FormatRGBX8
	}
	return render.FormatRGBA8
}
