// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dirtyrect computes the smallest region of a display that must be
// redrawn when an object moves.
//
// Rectangles are half open, as in package image. An empty rectangle stands
// for "nothing drawn yet".
package dirtyrect

import "image"

// Merge returns the smallest rectangle containing both prev and cur.
//
// An empty prev is ignored.
func Merge(prev, cur image.Rectangle) image.Rectangle {
	if prev.Empty() {
		return cur
	}
	if cur.Empty() {
		return prev
	}
	return prev.Union(cur)
}

// Expand grows r by pad pixels on every side and clips the result to bounds.
func Expand(r image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return r.Inset(-pad).Intersect(bounds)
}

// Region returns the area to redraw when an object moves from prev to cur.
//
// One pixel of padding covers the anti-aliased edge of the shape.
func Region(prev, cur, bounds image.Rectangle) image.Rectangle {
	return Expand(Merge(prev, cur), 1, bounds)
}

// Tracker keeps the bounds last drawn for one object.
type Tracker struct {
	// Bounds is the area of the display.
	Bounds image.Rectangle
	// Pad is the padding added around the merged rectangle.
	Pad int

	prev image.Rectangle
}

// New returns a Tracker with a one pixel padding.
func New(bounds image.Rectangle) *Tracker {
	return &Tracker{Bounds: bounds, Pad: 1}
}

// Next returns the region to redraw for an object now at cur.
func (t *Tracker) Next(cur image.Rectangle) image.Rectangle {
	return Expand(Merge(t.prev, cur), t.Pad, t.Bounds)
}

// Commit records cur as drawn. Call it once the region returned by Next has
// been written.
func (t *Tracker) Commit(cur image.Rectangle) {
	t.prev = cur
}

// Prev returns the bounds last committed.
func (t *Tracker) Prev() image.Rectangle {
	return t.prev
}

// Reset forgets the previous bounds, for example after a full redraw.
func (t *Tracker) Reset() {
	t.prev = image.Rectangle{}
}
