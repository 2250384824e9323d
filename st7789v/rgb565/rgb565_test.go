// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rgb565

import (
	"encoding/binary"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPack(t *testing.T) {
	for _, tc := range []struct {
		r, g, b uint8
		want    uint16
	}{
		{0, 0, 0, 0x0000},
		{255, 255, 255, 0xFFFF},
		{255, 0, 0, 0xF800},
		{0, 255, 0, 0x07E0},
		{0, 0, 255, 0x001F},
		{7, 3, 7, 0x0000},
		{8, 4, 8, 0x0821},
		{255, 255, 0, 0xFFE0},
	} {
		if got := Pack(tc.r, tc.g, tc.b); got != tc.want {
			t.Errorf("Pack(%d, %d, %d) = %#04x; want %#04x", tc.r, tc.g, tc.b, got, tc.want)
		}
	}
}

func TestPackAll(t *testing.T) {
	for r := 0; r < 256; r++ {
		for g := 0; g < 256; g++ {
			for b := 0; b < 256; b++ {
				want := uint16((r&0xF8)<<8 | (g&0xFC)<<3 | b>>3)
				if got := Pack(uint8(r), uint8(g), uint8(b)); got != want {
					t.Fatalf("Pack(%d, %d, %d) = %#04x; want %#04x", r, g, b, got, want)
				}
			}
		}
	}
}

func TestEncode_BigEndian(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(2, 0, color.RGBA{0, 0, 255, 255})
	want := []byte{0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F}
	if diff := cmp.Diff(Encode(nil, img, img.Bounds()), want); diff != "" {
		t.Errorf("Encode() difference (-got +want):\n%s", diff)
	}
}

func TestEncode_MatchesScalar(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	full := image.NewRGBA(image.Rect(0, 0, 33, 17))
	rnd.Read(full.Pix)
	nrgba := image.NewNRGBA(image.Rect(-4, -2, 15, 9))
	rnd.Read(nrgba.Pix)
	gray := image.NewGray(image.Rect(0, 0, 5, 5))
	rnd.Read(gray.Pix)
	for _, tc := range []struct {
		name string
		img  image.Image
		r    image.Rectangle
	}{
		{"rgba full", full, full.Bounds()},
		{"rgba odd width crop", full, image.Rect(3, 2, 10, 9)},
		{"rgba single pixel", full, image.Rect(32, 16, 33, 17)},
		{"rgba sub image", full.SubImage(image.Rect(5, 5, 20, 12)), image.Rect(5, 5, 20, 12)},
		{"rgba clipped", full, image.Rect(-10, -10, 4, 4)},
		{"nrgba negative origin", nrgba, image.Rect(-3, -1, 8, 6)},
		{"gray fallback", gray, gray.Bounds()},
		{"empty", full, image.Rect(4, 4, 4, 9)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Encode(nil, tc.img, tc.r)
			want := EncodeScalar(nil, tc.img, tc.r)
			if len(got) != Size(tc.r.Intersect(tc.img.Bounds())) {
				t.Fatalf("len(Encode()) = %d; want %d", len(got), Size(tc.r.Intersect(tc.img.Bounds())))
			}
			if diff := cmp.Diff(got, want); diff != "" {
				t.Errorf("Encode() vs EncodeScalar() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestEncode_ReusesBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	buf := make([]byte, 0, 64)
	got := Encode(buf, img, image.Rect(0, 0, 2, 2))
	if len(got) != 8 {
		t.Fatalf("len = %d; want 8", len(got))
	}
	if &got[0] != &buf[:1][0] {
		t.Error("Encode() reallocated a large enough buffer")
	}
}

func TestEncode_Pixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 7; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 37), uint8(y * 91), uint8(x * y * 13), 255})
		}
	}
	got := Encode(nil, img, img.Bounds())
	for y := 0; y < 3; y++ {
		for x := 0; x < 7; x++ {
			c := img.RGBAAt(x, y)
			i := 2 * (y*7 + x)
			if v := binary.BigEndian.Uint16(got[i:]); v != Pack(c.R, c.G, c.B) {
				t.Errorf("pixel (%d, %d) = %#04x; want %#04x", x, y, v, Pack(c.R, c.G, c.B))
			}
		}
	}
}

func TestModel(t *testing.T) {
	for _, tc := range []struct {
		in   color.Color
		want Color
	}{
		{color.White, 0xFFFF},
		{color.Black, 0},
		{color.RGBA{255, 255, 0, 255}, 0xFFE0},
		{color.NRGBA{0, 0, 255, 128}, 0x001F},
		{Color(0x1234), 0x1234},
	} {
		if got := Model.Convert(tc.in); got != tc.want {
			t.Errorf("Model.Convert(%v) = %v; want %v", tc.in, got, tc.want)
		}
	}
	r, g, b, a := Color(0xFFFF).RGBA()
	if r != 0xFFFF || g != 0xFFFF || b != 0xFFFF || a != 0xFFFF {
		t.Errorf("Color(0xFFFF).RGBA() = %x %x %x %x", r, g, b, a)
	}
	// Round trip through the model is stable.
	for _, v := range []Color{0, 0x0821, 0xF800, 0x07E0, 0x001F, 0xABCD} {
		if got := Model.Convert(color.RGBA64Model.Convert(v)); got != v {
			t.Errorf("round trip of %v = %v", v, got)
		}
	}
}
