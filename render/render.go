// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render redraws only the part of a panel that changed between two
// frames.
//
// Each update crops the static background to the dirty region, paints the
// moving content over it, encodes the crop to RGB565 and streams it inside an
// address window. Nothing else of the panel is touched.
package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/GermanBionicSystems/tft/dirtyrect"
	"github.com/GermanBionicSystems/tft/st7789v/rgb565"
	"golang.org/x/image/draw"
)

var (
	// ErrOutOfBounds is returned when a region is not inside the panel.
	ErrOutOfBounds = errors.New("render: region outside the panel")
	// ErrBackgroundSize is returned when the panel was rotated after the
	// background was set.
	ErrBackgroundSize = errors.New("render: background does not match the panel")
)

// Panel is a display accepting RGB565 pixels in an address window.
//
// *st7789v.Dev implements it.
type Panel interface {
	Bounds() image.Rectangle
	// SetWindow selects the inclusive region [x0, x1] x [y0, y1].
	SetWindow(x0, y0, x1, y1 int) error
	WritePixels(b []byte) error
}

// Painter draws content on a crop of the background.
//
// at is where the content's own top left corner lies in dst.
type Painter interface {
	Paint(dst *image.RGBA, at image.Point)
}

// PainterFunc adapts a function to a Painter.
type PainterFunc func(dst *image.RGBA, at image.Point)

// Paint implements Painter.
func (f PainterFunc) Paint(dst *image.RGBA, at image.Point) {
	f(dst, at)
}

// Entity is content that moves on the panel.
type Entity interface {
	Painter
	// Bounds returns the pixels currently covered, in panel coordinates.
	Bounds() image.Rectangle
}

// Stats counts what was sent to the panel.
type Stats struct {
	Flushes int
	Pixels  int
	Bytes   int
	// Last is the last region written.
	Last image.Rectangle
}

// Renderer draws on a Panel over a static background.
type Renderer struct {
	p     Panel
	bg    *image.RGBA
	crop  *image.RGBA
	buf   []byte
	stats Stats
}

// New returns a Renderer for p. bg is scaled to the panel size if needed. A
// nil bg is black.
func New(p Panel, bg image.Image) *Renderer {
	r := &Renderer{p: p, crop: &image.RGBA{}}
	r.SetBackground(bg)
	return r
}

func (r *Renderer) String() string {
	return fmt.Sprintf("Renderer{%v}", r.bg.Rect.Max)
}

// SetBackground replaces the background. Nothing is sent to the panel, see
// DrawBackground.
func (r *Renderer) SetBackground(bg image.Image) {
	img := image.NewRGBA(image.Rectangle{Max: r.p.Bounds().Size()})
	switch {
	case bg == nil:
	case bg.Bounds().Size() == img.Rect.Size():
		draw.Draw(img, img.Rect, bg, bg.Bounds().Min, draw.Src)
	default:
		draw.ApproxBiLinear.Scale(img, img.Rect, bg, bg.Bounds(), draw.Src, nil)
	}
	r.bg = img
}

// Bounds returns the bounds of the panel.
func (r *Renderer) Bounds() image.Rectangle {
	return r.p.Bounds()
}

// Background returns the background as drawn on the panel.
func (r *Renderer) Background() *image.RGBA {
	return r.bg
}

// Stats returns the counters since the Renderer was created.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// DrawBackground sends the whole background.
func (r *Renderer) DrawBackground() error {
	return r.Flush(r.p.Bounds(), nil, image.Point{})
}

// DrawRegion redraws region with p painted over the background, p's origin
// at the top left corner of the region.
//
// It is meant for content that stays at a fixed place, like a status line.
func (r *Renderer) DrawRegion(region image.Rectangle, p Painter) error {
	return r.Flush(region, p, image.Point{})
}

// Flush redraws region: the background crop, then p painted at offset at.
// p can be nil.
//
// region must be inside the panel. An empty region is a no-op.
func (r *Renderer) Flush(region image.Rectangle, p Painter, at image.Point) error {
	bounds := r.p.Bounds()
	if r.bg.Rect.Size() != bounds.Size() {
		return fmt.Errorf("%w: %v vs %v", ErrBackgroundSize, r.bg.Rect, bounds)
	}
	if region.Empty() {
		return nil
	}
	if !region.In(bounds) {
		return fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, region, bounds)
	}
	crop := r.scratch(region.Size())
	draw.Draw(crop, crop.Rect, r.bg, region.Min, draw.Src)
	if p != nil {
		p.Paint(crop, at)
	}
	r.buf = rgb565.Encode(r.buf, crop, crop.Rect)
	if err := r.p.SetWindow(region.Min.X, region.Min.Y, region.Max.X-1, region.Max.Y-1); err != nil {
		return err
	}
	if err := r.p.WritePixels(r.buf); err != nil {
		return err
	}
	r.stats.Flushes++
	r.stats.Pixels += region.Dx() * region.Dy()
	r.stats.Bytes += len(r.buf)
	r.stats.Last = region
	return nil
}

// Sprite tracks an Entity drawn by a Renderer.
type Sprite struct {
	e Entity
	t *dirtyrect.Tracker
}

// Sprite returns a handle to draw e incrementally.
func (r *Renderer) Sprite(e Entity) *Sprite {
	return &Sprite{e: e, t: dirtyrect.New(r.p.Bounds())}
}

// Entity returns the tracked entity.
func (s *Sprite) Entity() Entity {
	return s.e
}

// Region returns the area the next DrawSprite call would redraw.
func (s *Sprite) Region() image.Rectangle {
	return s.t.Next(s.e.Bounds())
}

// DrawSprite redraws the union of the area previously covered by the entity
// and the area it covers now.
//
// The previous area is only updated when the write succeeded, so a failed
// frame is erased by the next one.
func (r *Renderer) DrawSprite(s *Sprite) error {
	s.t.Bounds = r.p.Bounds()
	cur := s.e.Bounds()
	region := s.t.Next(cur)
	if err := r.Flush(region, s.e, cur.Min.Sub(region.Min)); err != nil {
		return err
	}
	s.t.Commit(cur)
	return nil
}

// scratch returns an image of the given size with Min at {0, 0}, reusing the
// previous allocation when large enough.
func (r *Renderer) scratch(size image.Point) *image.RGBA {
	n := 4 * size.X * size.Y
	if cap(r.crop.Pix) < n {
		r.crop.Pix = make([]byte, n)
	}
	r.crop.Pix = r.crop.Pix[:n]
	r.crop.Stride = 4 * size.X
	r.crop.Rect = image.Rectangle{Max: size}
	return r.crop
}
