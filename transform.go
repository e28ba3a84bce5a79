// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ndimon

// TargetAspect is the aspect ratio the presented image is fitted to.
const TargetAspect = 16.0 / 9.0

// Matrix is a 4x4 transformation matrix stored in column-major order,
// m[col*4+row], so it can be copied directly into a WGSL mat4x4<f32>.
//
// Only the 2D scale/translate subset is produced by this package, but the
// full matrix is kept so Apply and Mul stay general.
type Matrix [16]float32

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Scale returns a matrix scaling x and y.
func Scale(sx, sy float32) Matrix {
	m := Identity()
	m[0] = sx
	m[5] = sy
	return m
}

// Translate returns a matrix translating by (tx, ty).
func Translate(tx, ty float32) Matrix {
	m := Identity()
	m[12] = tx
	m[13] = ty
	return m
}

// Mul returns m*n: applying the result applies n first, then m.
func (m Matrix) Mul(n Matrix) Matrix {
	var r Matrix
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * n[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// Apply transforms the point (x, y, 0, 1) and returns its x and y.
func (m Matrix) Apply(x, y float32) (float32, float32) {
	return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
}

// ScaleXY returns the x and y scale factors.
func (m Matrix) ScaleXY() (float32, float32) { return m[0], m[5] }

// Translation returns the x and y translation.
func (m Matrix) Translation() (float32, float32) { return m[12], m[13] }

// Invert2D returns the inverse of the 2D affine part of m.
// ok is false when the matrix is singular.
func (m Matrix) Invert2D() (inv Matrix, ok bool) {
	a, b, c, d := m[0], m[4], m[1], m[5]
	det := a*d - b*c
	if det == 0 {
		return Identity(), false
	}
	tx, ty := m[12], m[13]
	inv = Identity()
	inv[0] = d / det
	inv[4] = -b / det
	inv[1] = -c / det
	inv[5] = a / det
	inv[12] = -(inv[0]*tx + inv[4]*ty)
	inv[13] = -(inv[1]*tx + inv[5]*ty)
	return inv, true
}

// PlacementTransform maps the unit quad onto a content rectangle of
// contentW x contentH pixels whose top-left corner sits at (posX, posY)
// inside a container of containerW x containerH pixels.
//
// Pixel space has y growing downwards; device space has y growing upwards,
// so the vertical offset is measured from the container's bottom edge.
// A zero-sized container yields the identity.
func PlacementTransform(containerW, containerH, contentW, contentH, posX, posY int) Matrix {
	if containerW <= 0 || containerH <= 0 {
		return Identity()
	}
	fw, fh := float64(containerW), float64(containerH)
	scaleX := float64(contentW) / fw
	scaleY := float64(contentH) / fh

	adjustedY := fh - float64(posY) - float64(contentH)

	ndcX := 2*float64(posX)/fw - 1 + scaleX
	ndcY := 1 - 2*adjustedY/fh - scaleY

	return Translate(float32(ndcX), float32(ndcY)).Mul(Scale(float32(scaleX), float32(scaleY)))
}

// FullCanvas returns the transform of content covering the whole container.
// It is the identity for any container size.
func FullCanvas(width, height int) Matrix {
	return PlacementTransform(width, height, width, height, 0, 0)
}

// LetterboxTransform fits a TargetAspect image into a window of the given
// pixel size without stretching: the longer axis is scaled down. A window
// with exactly the target aspect yields scale (1, 1).
func LetterboxTransform(windowW, windowH int) Matrix {
	if windowW <= 0 || windowH <= 0 {
		return Identity()
	}
	window := float64(windowW) / float64(windowH)
	scaleX, scaleY := 1.0, 1.0
	if window > TargetAspect {
		scaleX = TargetAspect / window
	} else {
		scaleY = window / TargetAspect
	}
	return Scale(float32(scaleX), float32(scaleY))
}
