// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rgb565

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Pack returns the RGB565 value for an 8 bit per channel color.
func Pack(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// Size returns the number of bytes needed to encode r.
func Size(r image.Rectangle) int {
	return 2 * r.Dx() * r.Dy()
}

// Encode writes the pixels of src inside r to dst as big-endian RGB565, row
// major, and returns the written prefix of dst.
//
// dst is reallocated when it is too small. r is clipped to src.Bounds().
func Encode(dst []byte, src image.Image, r image.Rectangle) []byte {
	r = r.Intersect(src.Bounds())
	dst = grow(dst, Size(r))
	if r.Empty() {
		return dst
	}
	switch img := src.(type) {
	case *image.RGBA:
		encodeRGBA(dst, img.Pix, img.Stride, img.PixOffset(r.Min.X, r.Min.Y), r.Dx(), r.Dy())
	case *image.NRGBA:
		// Alpha is ignored so the non-premultiplied layout is encoded as is.
		encodeRGBA(dst, img.Pix, img.Stride, img.PixOffset(r.Min.X, r.Min.Y), r.Dx(), r.Dy())
	default:
		encodeScalar(dst, src, r)
	}
	return dst
}

// EncodeScalar is equivalent to Encode but converts one pixel at a time
// through src.At.
func EncodeScalar(dst []byte, src image.Image, r image.Rectangle) []byte {
	r = r.Intersect(src.Bounds())
	dst = grow(dst, Size(r))
	encodeScalar(dst, src, r)
	return dst
}

//

func grow(dst []byte, n int) []byte {
	if cap(dst) < n {
		return make([]byte, n)
	}
	return dst[:n]
}

func encodeScalar(dst []byte, src image.Image, r image.Rectangle) {
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			r, g, b := channels(src.At(x, y))
			binary.BigEndian.PutUint16(dst[i:], Pack(r, g, b))
			i += 2
		}
	}
}

// channels returns the 8 bit channels of c. Alpha is ignored, so the stored
// channels of RGBA and NRGBA colors are used as is.
func channels(c color.Color) (uint8, uint8, uint8) {
	switch v := c.(type) {
	case color.RGBA:
		return v.R, v.G, v.B
	case color.NRGBA:
		return v.R, v.G, v.B
	}
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

// encodeRGBA converts w×h pixels laid out as 4 bytes per pixel starting at
// pix[off], with stride bytes between rows.
func encodeRGBA(dst, pix []byte, stride, off, w, h int) {
	if stride == 4*w {
		// Contiguous rows; handle the block as a single row.
		encodeRow(dst, pix[off:off+4*w*h])
		return
	}
	for y := 0; y < h; y++ {
		encodeRow(dst[2*w*y:], pix[off+stride*y:off+stride*y+4*w])
	}
}

// encodeRow converts len(src)/4 pixels, two at a time.
func encodeRow(dst, src []byte) {
	n := len(src) / 4
	i := 0
	for ; i+1 < n; i += 2 {
		s := src[4*i : 4*i+8 : 4*i+8]
		v := uint32(Pack(s[0], s[1], s[2]))<<16 | uint32(Pack(s[4], s[5], s[6]))
		binary.BigEndian.PutUint32(dst[2*i:], v)
	}
	if i < n {
		s := src[4*i : 4*i+4 : 4*i+4]
		binary.BigEndian.PutUint16(dst[2*i:], Pack(s[0], s[1], s[2]))
	}
}
