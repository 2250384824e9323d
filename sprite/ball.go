// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sprite implements moving shapes for the differential renderer.
package sprite

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
)

// Ball is a filled circle bouncing on the edges of the display.
//
// Position and velocity are in pixels and pixels per second.
type Ball struct {
	X, Y    float64
	R       float64
	VX, VY  float64
	Fill    color.Color
	Outline color.Color
}

func (b *Ball) String() string {
	return fmt.Sprintf("Ball{(%.1f,%.1f) r=%.0f v=(%.1f,%.1f)}", b.X, b.Y, b.R, b.VX, b.VY)
}

// Update advances the ball by dt and reflects it on the edges of bounds.
//
// The ball never leaves bounds as long as it fits in it.
func (b *Ball) Update(dt time.Duration, bounds image.Rectangle) {
	s := dt.Seconds()
	b.X += b.VX * s
	b.Y += b.VY * s
	b.X, b.VX = bounce(b.X, b.VX, b.R, float64(bounds.Min.X), float64(bounds.Max.X))
	b.Y, b.VY = bounce(b.Y, b.VY, b.R, float64(bounds.Min.Y), float64(bounds.Max.Y))
}

func bounce(p, v, r, lo, hi float64) (float64, float64) {
	if p-r < lo {
		return lo + r, -v
	}
	if p+r >= hi {
		return hi - r - 1, -v
	}
	return p, v
}

// Bounds returns the pixels covered by the ball.
func (b *Ball) Bounds() image.Rectangle {
	return image.Rect(int(b.X-b.R), int(b.Y-b.R), int(b.X+b.R)+1, int(b.Y+b.R)+1)
}

// Paint draws the ball on dst with the top left corner of Bounds() at at.
//
// dst.Rect.Min must be {0, 0}.
func (b *Ball) Paint(dst *image.RGBA, at image.Point) {
	off := at.Sub(b.Bounds().Min)
	dc := gg.NewContextForRGBA(dst)
	dc.DrawCircle(b.X+float64(off.X), b.Y+float64(off.Y), b.R)
	if b.Fill != nil {
		dc.SetColor(b.Fill)
		dc.FillPreserve()
	}
	if b.Outline != nil {
		dc.SetColor(b.Outline)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
	dc.ClearPath()
}
