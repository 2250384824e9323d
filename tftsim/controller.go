// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tftsim

import (
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/tft/st7789v/rgb565"
)

// Commands decoded by the simulator.
const (
	swReset = 0x01
	slpIn   = 0x10
	slpOut  = 0x11
	invOff  = 0x20
	invOn   = 0x21
	dispOff = 0x28
	dispOn  = 0x29
	caSet   = 0x2A
	raSet   = 0x2B
	ramWr   = 0x2C
	madCtl  = 0x36
	colMod  = 0x3A
)

// madctlMV swaps rows and columns.
const madctlMV = 0x20

// reset puts the controller in its power on state. The panel memory is
// kept.
func (p *Panel) reset() {
	p.sleeping = true
	p.on = false
	p.inverted = false
	p.madctl = 0
	p.colmod = 0x66
	p.cmd = 0
	p.args = p.args[:0]
	p.half = p.half[:0]
	p.resize()
	p.col = [2]int{0, p.frame.Rect.Dx() - 1}
	p.row = [2]int{0, p.frame.Rect.Dy() - 1}
}

// resize adapts the frame to the orientation selected by MADCTL.
func (p *Panel) resize() {
	size := image.Point{p.opts.W, p.opts.H}
	if p.madctl&madctlMV != 0 {
		size.X, size.Y = size.Y, size.X
	}
	if p.frame == nil || p.frame.Rect.Size() != size {
		p.frame = image.NewRGBA(image.Rectangle{Max: size})
	}
}

func (p *Panel) command(b byte) {
	if p.opts.Trace {
		p.records = append(p.records, Record{Cmd: b})
	}
	p.cmd = b
	p.args = p.args[:0]
	p.half = p.half[:0]
	switch b {
	case swReset:
		p.reset()
		p.cmd = b
	case slpIn:
		p.sleeping = true
	case slpOut:
		p.sleeping = false
	case invOff:
		p.inverted = false
	case invOn:
		p.inverted = true
	case dispOff:
		p.on = false
	case dispOn:
		p.on = true
	case ramWr:
		p.cursor = image.Point{p.col[0], p.row[0]}
	}
}

func (p *Panel) data(w []byte) error {
	if p.opts.Trace && len(p.records) != 0 {
		r := &p.records[len(p.records)-1]
		r.Data = append(r.Data, w...)
	}
	if p.cmd == ramWr {
		return p.write(w)
	}
	p.args = append(p.args, w...)
	switch p.cmd {
	case madCtl:
		if len(p.args) >= 1 {
			p.madctl = p.args[0]
			p.resize()
		}
	case colMod:
		if len(p.args) >= 1 {
			p.colmod = p.args[0]
		}
	case caSet:
		if len(p.args) >= 4 {
			p.col = [2]int{int(binary.BigEndian.Uint16(p.args)), int(binary.BigEndian.Uint16(p.args[2:]))}
		}
	case raSet:
		if len(p.args) >= 4 {
			p.row = [2]int{int(binary.BigEndian.Uint16(p.args)), int(binary.BigEndian.Uint16(p.args[2:]))}
		}
	}
	return nil
}

// write stores RGB565 pixels at the cursor. A byte left over is kept for the
// next transfer. Pixels past the end of the window are dropped.
func (p *Panel) write(w []byte) error {
	if len(p.half) != 0 && len(w) != 0 {
		p.put(rgb565.Color(uint16(p.half[0])<<8 | uint16(w[0])))
		p.half = p.half[:0]
		w = w[1:]
	}
	for ; len(w) >= 2; w = w[2:] {
		p.put(rgb565.Color(binary.BigEndian.Uint16(w)))
	}
	if len(w) == 1 {
		p.half = append(p.half, w[0])
	}
	if p.opts.Preview && p.cursor.Y > p.row[1] {
		return p.refresh()
	}
	return nil
}

func (p *Panel) put(c rgb565.Color) {
	if p.cursor.Y > p.row[1] {
		return
	}
	p.pixels++
	if image.Pt(p.cursor.X, p.cursor.Y).In(p.frame.Rect) {
		r, g, b, _ := c.RGBA()
		p.frame.SetRGBA(p.cursor.X, p.cursor.Y, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255})
	}
	if p.cursor.X++; p.cursor.X > p.col[1] {
		p.cursor.X = p.col[0]
		p.cursor.Y++
	}
}

// refresh prints a downscaled frame, one ANSI block per cell.
func (p *Panel) refresh() error {
	s := p.opts.Scale
	p.buf.Reset()
	_, _ = p.buf.WriteString("\033[H\033[0m")
	r := p.frame.Rect
	for y := r.Min.Y + s/2; y < r.Max.Y; y += s {
		for x := r.Min.X + s/2; x < r.Max.X; x += s {
			c := p.frame.RGBAAt(x, y)
			_, _ = io.WriteString(&p.buf, p.palette.Block(color.NRGBA{c.R, c.G, c.B, 255}))
		}
		_, _ = p.buf.WriteString("\033[0m\n")
	}
	_, err := p.buf.WriteTo(p.opts.Out)
	return err
}
