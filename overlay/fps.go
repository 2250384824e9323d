// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package overlay implements status content drawn at a fixed place over an
// animation.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Opts represents the options of the FPS counter.
type Opts struct {
	// Origin is the top left corner of the counter on the panel.
	Origin image.Point
	// Face defaults to basicfont.Face7x13.
	Face  font.Face
	Color color.Color
	// Padding around the text, in pixels.
	Padding int
	// Interval between two updates of the rate.
	Interval time.Duration
	// Template is the widest text expected. It sizes the counter.
	Template string
}

// DefaultOpts is a white counter in the top left corner, updated 5 times per
// second.
var DefaultOpts = Opts{
	Color:    color.White,
	Padding:  5,
	Interval: 200 * time.Millisecond,
	Template: "FPS: 999.9",
}

// FPS measures and shows the frame rate.
type FPS struct {
	face     font.Face
	src      image.Image
	interval time.Duration
	rect     image.Rectangle
	dot      fixed.Point26_6

	frames int
	start  time.Time
	rate   float64
	text   string
}

// NewFPS returns a counter measuring from now.
//
// Its bounds are fixed by the size of the template text.
func NewFPS(opts *Opts, now time.Time) *FPS {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Face == nil {
		o.Face = basicfont.Face7x13
	}
	if o.Color == nil {
		o.Color = color.White
	}
	if o.Interval <= 0 {
		o.Interval = DefaultOpts.Interval
	}
	if o.Template == "" {
		o.Template = DefaultOpts.Template
	}
	b, _ := font.BoundString(o.Face, o.Template)
	size := image.Pt((b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil())
	pad := image.Pt(o.Padding, o.Padding)
	return &FPS{
		face:     o.Face,
		src:      image.NewUniform(o.Color),
		interval: o.Interval,
		rect:     image.Rectangle{o.Origin, o.Origin.Add(size).Add(pad.Mul(2))},
		// The glyph box may start left of or above the dot.
		dot:   fixed.Point26_6{X: fixed.I(o.Padding) - b.Min.X, Y: fixed.I(o.Padding) - b.Min.Y},
		start: now,
	}
}

func (f *FPS) String() string {
	return fmt.Sprintf("FPS{%.1f}", f.rate)
}

// Bounds returns the area of the counter on the panel.
func (f *FPS) Bounds() image.Rectangle {
	return f.rect
}

// Rate returns the last measured frame rate.
func (f *FPS) Rate() float64 {
	return f.rate
}

// Text returns the text currently shown.
func (f *FPS) Text() string {
	return f.text
}

// Tick counts one frame. It returns true when the rate was updated and the
// counter must be redrawn.
func (f *FPS) Tick(now time.Time) bool {
	f.frames++
	elapsed := now.Sub(f.start)
	if elapsed < f.interval {
		return false
	}
	f.rate = float64(f.frames) / elapsed.Seconds()
	f.frames = 0
	f.start = now
	f.text = fmt.Sprintf("FPS: %.1f", f.rate)
	return true
}

// Paint draws the text on dst with the top left corner of Bounds() at at.
func (f *FPS) Paint(dst *image.RGBA, at image.Point) {
	d := font.Drawer{
		Dst:  dst,
		Src:  f.src,
		Face: f.face,
		Dot:  f.dot.Add(fixed.P(at.X, at.Y)),
	}
	d.DrawString(f.text)
}

// LoadFace loads a TrueType font at the given size in points.
//
// On failure it returns basicfont.Face7x13 along with the error, so the
// caller may log it and go on.
func LoadFace(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return basicfont.Face7x13, fmt.Errorf("overlay: %w", err)
	}
	f, err := truetype.Parse(b)
	if err != nil {
		return basicfont.Face7x13, fmt.Errorf("overlay: %s: %w", path, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull}), nil
}
