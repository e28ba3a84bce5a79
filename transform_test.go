// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ndimon

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestFullCanvasIsIdentity(t *testing.T) {
	for _, size := range [][2]int{{1920, 1080}, {1280, 720}, {64, 36}, {1, 1}} {
		got := FullCanvas(size[0], size[1])
		if got != Identity() {
			t.Errorf("FullCanvas(%d, %d) = %v, want identity", size[0], size[1], got)
		}
	}
}

func TestPlacementTransform(t *testing.T) {
	tests := []struct {
		name                   string
		cw, ch, sw, sh, px, py int
		wantSX, wantSY         float32
		wantTX, wantTY         float32
	}{
		{"full", 1920, 1080, 1920, 1080, 0, 0, 1, 1, 0, 0},
		{"quarter top-left", 1920, 1080, 960, 540, 0, 0, 0.5, 0.5, -0.5, -0.5},
		{"quarter bottom-right", 1920, 1080, 960, 540, 960, 540, 0.5, 0.5, 0.5, 0.5},
		{"zero container", 0, 0, 100, 100, 0, 0, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := PlacementTransform(tt.cw, tt.ch, tt.sw, tt.sh, tt.px, tt.py)
			sx, sy := m.ScaleXY()
			tx, ty := m.Translation()
			if !near(sx, tt.wantSX) || !near(sy, tt.wantSY) {
				t.Errorf("scale = (%v, %v), want (%v, %v)", sx, sy, tt.wantSX, tt.wantSY)
			}
			if !near(tx, tt.wantTX) || !near(ty, tt.wantTY) {
				t.Errorf("translation = (%v, %v), want (%v, %v)", tx, ty, tt.wantTX, tt.wantTY)
			}
		})
	}
}

func TestPlacementTransformCorners(t *testing.T) {
	m := PlacementTransform(1920, 1080, 960, 540, 0, 0)
	x, y := m.Apply(-1, -1)
	if !near(x, -1) || !near(y, -1) {
		t.Errorf("Apply(-1,-1) = (%v, %v), want (-1, -1)", x, y)
	}
	x, y = m.Apply(1, 1)
	if !near(x, 0) || !near(y, 0) {
		t.Errorf("Apply(1,1) = (%v, %v), want (0, 0)", x, y)
	}
}

func TestTransformIdempotent(t *testing.T) {
	a := PlacementTransform(1280, 720, 300, 120, 48, 48)
	b := PlacementTransform(1280, 720, 300, 120, 48, 48)
	if a != b {
		t.Errorf("PlacementTransform not deterministic: %v != %v", a, b)
	}
	if LetterboxTransform(1000, 300) != LetterboxTransform(1000, 300) {
		t.Error("LetterboxTransform not deterministic")
	}
}

func TestLetterboxTransform(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		sx, sy float32
	}{
		{"exact 16:9", 1280, 720, 1, 1},
		{"exact 16:9 large", 1920, 1080, 1, 1},
		{"wider", 2560, 720, 0.5, 1},
		{"taller", 1280, 1440, 1, 0.5},
		{"square", 900, 900, 1, 0.5625},
		{"degenerate", 0, 720, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := LetterboxTransform(tt.w, tt.h).ScaleXY()
			if !near(sx, tt.sx) || !near(sy, tt.sy) {
				t.Errorf("LetterboxTransform(%d, %d) scale = (%v, %v), want (%v, %v)", tt.w, tt.h, sx, sy, tt.sx, tt.sy)
			}
		})
	}
}

func TestLetterboxNeverStretches(t *testing.T) {
	for _, size := range [][2]int{{640, 480}, {3440, 1440}, {720, 1280}, {1366, 768}} {
		sx, sy := LetterboxTransform(size[0], size[1]).ScaleXY()
		if sx > 1 || sy > 1 {
			t.Errorf("LetterboxTransform(%d, %d) = (%v, %v), scale exceeds 1", size[0], size[1], sx, sy)
		}
		if sx < 1 && sy < 1 {
			t.Errorf("LetterboxTransform(%d, %d) = (%v, %v), both axes shrunk", size[0], size[1], sx, sy)
		}
		// Displayed aspect stays at the target.
		aspect := float64(size[0]) * float64(sx) / (float64(size[1]) * float64(sy))
		if math.Abs(aspect-TargetAspect) > 1e-3 {
			t.Errorf("LetterboxTransform(%d, %d) displayed aspect = %v, want %v", size[0], size[1], aspect, TargetAspect)
		}
	}
}

func TestMatrixInvert2D(t *testing.T) {
	m := PlacementTransform(1920, 1080, 640, 360, 100, 200)
	inv, ok := m.Invert2D()
	if !ok {
		t.Fatal("Invert2D() reported singular matrix")
	}
	x, y := m.Apply(0.25, -0.75)
	bx, by := inv.Apply(x, y)
	if !near(bx, 0.25) || !near(by, -0.75) {
		t.Errorf("round trip = (%v, %v), want (0.25, -0.75)", bx, by)
	}
	if _, ok := Scale(0, 1).Invert2D(); ok {
		t.Error("Invert2D() of singular matrix reported ok")
	}
}
