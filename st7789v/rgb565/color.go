// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rgb565

import (
	"fmt"
	"image/color"
)

// Color is a pixel as stored in the controller memory.
type Color uint16

// RGBA implements color.Color.
//
// The channels are expanded by bit replication so that full intensity maps
// back to 0xFFFF.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2
	return r8 | r8<<8, g8 | g8<<8, b8 | b8<<8, 0xFFFF
}

func (c Color) String() string {
	return fmt.Sprintf("rgb565(%#04x)", uint16(c))
}

// Model converts any color to its RGB565 representation.
var Model = color.ModelFunc(convert)

func convert(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	return Color(Pack(channels(c)))
}
