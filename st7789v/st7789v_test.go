// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/tft/tftsim"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

// fakeSleep records the delays instead of waiting.
func fakeSleep(t *testing.T) *[]time.Duration {
	var got []time.Duration
	old := sleep
	sleep = func(d time.Duration) { got = append(got, d) }
	t.Cleanup(func() { sleep = old })
	return &got
}

func newDev(t *testing.T, sim *tftsim.Opts, opts *Opts) (*Dev, *tftsim.Panel) {
	fakeSleep(t)
	p := tftsim.New(sim)
	d, err := New(p, p.RST, p.DC, p.BL, opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, p
}

func TestNew(t *testing.T) {
	delays := fakeSleep(t)
	p := tftsim.New(&tftsim.Opts{Trace: true})
	d, err := New(p, p.RST, p.DC, p.BL, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}

	want := []tftsim.Record{
		{Cmd: swReset},
		{Cmd: slpOut},
		{Cmd: colMod, Data: []byte{0x55}},
		{Cmd: porCtrl, Data: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
		{Cmd: gCtrl, Data: []byte{0x35}},
		{Cmd: vcomS, Data: []byte{0x19}},
		{Cmd: lcmCtrl, Data: []byte{0x2C}},
		{Cmd: vdvVrhEn, Data: []byte{0x01, 0xFF}},
		{Cmd: vrhS, Data: []byte{0x11}},
		{Cmd: vdvS, Data: []byte{0x20}},
		{Cmd: frCtrl2, Data: []byte{0x0F}},
		{Cmd: pwCtrl1, Data: []byte{0xA4, 0xA1}},
		{Cmd: pvGamCtrl, Data: []byte{0xD0, 0x00, 0x02, 0x07, 0x0A, 0x28, 0x32, 0x44, 0x42, 0x06, 0x0E, 0x12, 0x14, 0x17, 0x00}},
		{Cmd: nvGamCtrl, Data: []byte{0xD0, 0x00, 0x02, 0x07, 0x0A, 0x28, 0x31, 0x54, 0x47, 0x0E, 0x1C, 0x17, 0x1B, 0x1B, 0x00}},
		{Cmd: invOn},
		{Cmd: dispOn},
		{Cmd: madCtl, Data: []byte{0x60}},
	}
	if diff := cmp.Diff(p.Records(), want); diff != "" {
		t.Errorf("Records() difference (-got +want):\n%s", diff)
	}
	// Each command byte is sent with D/C low, each parameter block with D/C
	// high.
	i := 0
	for _, op := range p.Ops() {
		if op.DC == gpio.Low {
			if op.W[0] != want[i].Cmd {
				t.Fatalf("op %d: command %#x; want %#x", i, op.W[0], want[i].Cmd)
			}
			i++
			continue
		}
		if diff := cmp.Diff(op.W, want[i-1].Data); diff != "" {
			t.Errorf("data of %#x difference (-got +want):\n%s", want[i-1].Cmd, diff)
		}
	}
	wantDelays := []time.Duration{
		10 * time.Millisecond, 10 * time.Millisecond, 150 * time.Millisecond,
		150 * time.Millisecond, 500 * time.Millisecond, 100 * time.Millisecond,
	}
	if diff := cmp.Diff(*delays, wantDelays); diff != "" {
		t.Errorf("delays difference (-got +want):\n%s", diff)
	}

	if got := d.Bounds(); got != image.Rect(0, 0, 320, 240) {
		t.Errorf("Bounds() = %v", got)
	}
	if !d.Backlight() || !p.Backlight() {
		t.Error("backlight is off")
	}
	if !p.DisplayOn() || !p.Inverted() || p.PixelFormat() != 0x55 {
		t.Error("panel not initialized")
	}
	if p.Freq() != 40*physic.MegaHertz {
		t.Errorf("Freq() = %s", p.Freq())
	}
	if got := d.String(); !strings.HasPrefix(got, "st7789v.Dev{tftsim(240x320), DC(18), (320,240), 90}") {
		t.Errorf("String() = %q", got)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if p.Backlight() || !p.Closed() {
		t.Error("Close() did not release the panel")
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	boom := errors.New("boom")
	for _, tc := range []struct {
		name  string
		opts  Opts
		setup func(p *tftsim.Panel) (rst, dc, bl gpio.PinOut)
		want  error
		noIO  bool
	}{
		{
			name: "rotation",
			opts: Opts{W: 240, H: 320, Rotation: 45},
			want: ErrInvalidArgument,
			noIO: true,
		},
		{
			name: "size",
			opts: Opts{W: 0, H: 320},
			want: ErrInvalidArgument,
			noIO: true,
		},
		{
			name: "missing pin",
			opts: DefaultOpts,
			setup: func(p *tftsim.Panel) (gpio.PinOut, gpio.PinOut, gpio.PinOut) {
				return p.RST, nil, p.BL
			},
			want: ErrConnection,
			noIO: true,
		},
		{
			name: "invalid pin",
			opts: DefaultOpts,
			setup: func(p *tftsim.Panel) (gpio.PinOut, gpio.PinOut, gpio.PinOut) {
				return p.RST, p.DC, gpio.INVALID
			},
			want: ErrConnection,
			noIO: true,
		},
		{
			name: "pin failure",
			opts: DefaultOpts,
			setup: func(p *tftsim.Panel) (gpio.PinOut, gpio.PinOut, gpio.PinOut) {
				p.RST.Err = boom
				return p.RST, p.DC, p.BL
			},
			want: ErrConnection,
			noIO: true,
		},
		{
			name: "connect",
			opts: DefaultOpts,
			setup: func(p *tftsim.Panel) (gpio.PinOut, gpio.PinOut, gpio.PinOut) {
				p.FailConnect(boom)
				return p.RST, p.DC, p.BL
			},
			want: ErrConnection,
			noIO: true,
		},
		{
			name: "init",
			opts: DefaultOpts,
			setup: func(p *tftsim.Panel) (gpio.PinOut, gpio.PinOut, gpio.PinOut) {
				p.FailTx(1)
				return p.RST, p.DC, p.BL
			},
			want: ErrInitialization,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fakeSleep(t)
			p := tftsim.New(&tftsim.Opts{Trace: true})
			rst, dc, bl := gpio.PinOut(p.RST), gpio.PinOut(p.DC), gpio.PinOut(p.BL)
			if tc.setup != nil {
				rst, dc, bl = tc.setup(p)
			}
			d, err := New(p, rst, dc, bl, &tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("New() = %v; want %v", err, tc.want)
			}
			if d != nil {
				t.Fatal("New() returned a device on failure")
			}
			if tc.noIO && len(p.Ops()) != 0 {
				t.Errorf("New() sent %d transfers", len(p.Ops()))
			}
			if !p.Closed() {
				t.Error("port left open")
			}
			if p.Backlight() {
				t.Error("backlight left on")
			}
			if err := d.Close(); err != nil {
				t.Errorf("Close() on failed open = %v", err)
			}
		})
	}
}

func TestSetWindow(t *testing.T) {
	fakeSleep(t)
	p := tftsim.New(nil)
	rec := &spitest.Record{Port: p}
	d, err := New(rec, p.RST, p.DC, p.BL, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	rec.Ops = nil

	if err := d.SetWindow(0, 0, 9, 9); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{caSet}, {0, 0, 0, 9}, {raSet}, {0, 0, 0, 9}, {ramWr}}
	var got [][]byte
	for _, op := range rec.Ops {
		got = append(got, op.W)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("SetWindow() difference (-got +want):\n%s", diff)
	}
	if got := d.Window(); got != image.Rect(0, 0, 10, 10) {
		t.Errorf("Window() = %v", got)
	}
}

func TestSetRotation(t *testing.T) {
	d, p := newDev(t, nil, &Opts{W: 240, H: 320, Rotation: Rotate0})
	for _, tc := range []struct {
		r      Rotation
		madctl byte
		bounds image.Rectangle
	}{
		{Rotate90, 0x60, image.Rect(0, 0, 320, 240)},
		{Rotate180, 0xC0, image.Rect(0, 0, 240, 320)},
		{Rotate270, 0xA0, image.Rect(0, 0, 320, 240)},
		{Rotate0, 0x00, image.Rect(0, 0, 240, 320)},
	} {
		if err := d.SetRotation(tc.r); err != nil {
			t.Fatal(err)
		}
		if got := d.Bounds(); got != tc.bounds {
			t.Errorf("SetRotation(%d): Bounds() = %v; want %v", tc.r, got, tc.bounds)
		}
		if got := p.MADCTL(); got != tc.madctl {
			t.Errorf("SetRotation(%d): MADCTL = %#x; want %#x", tc.r, got, tc.madctl)
		}
		if got := len(d.buffer); got != 2*240*320 {
			t.Errorf("SetRotation(%d): buffer of %d bytes", tc.r, got)
		}
	}

	n := p.Pixels()
	if err := d.SetRotation(Rotation(45)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetRotation(45) = %v", err)
	}
	if d.Rotation() != Rotate0 || d.Bounds() != image.Rect(0, 0, 240, 320) || p.MADCTL() != 0 || p.Pixels() != n {
		t.Error("invalid rotation changed the state")
	}

	p.FailTx(1)
	if err := d.SetRotation(Rotate90); !errors.Is(err, ErrTransfer) {
		t.Errorf("SetRotation() = %v; want ErrTransfer", err)
	}
	if d.Rotation() != Rotate0 {
		t.Error("failed rotation changed the state")
	}
}

func TestWritePixels(t *testing.T) {
	d, p := newDev(t, &tftsim.Opts{W: 50, H: 50, MaxTxSize: 1000}, &Opts{W: 50, H: 50})
	buf := make([]byte, 2500)
	for i := range buf {
		buf[i] = 0xFF
	}
	if err := d.SetWindow(0, 0, 49, 24); err != nil {
		t.Fatal(err)
	}
	p.ClearTrace()
	if err := d.WritePixels(buf); err != nil {
		t.Fatal(err)
	}
	if got := p.Pixels(); got != 1250 {
		t.Errorf("Pixels() = %d; want 1250", got)
	}
	if got := p.Frame().RGBAAt(49, 24); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("last pixel = %v", got)
	}

	t.Run("retry", func(t *testing.T) {
		if err := d.SetWindow(0, 0, 49, 24); err != nil {
			t.Fatal(err)
		}
		p.FailTx(1)
		if err := d.WritePixels(buf); err != nil {
			t.Fatalf("WritePixels() = %v", err)
		}
		if got := p.Pixels(); got != 2500 {
			t.Errorf("Pixels() = %d; want 2500", got)
		}
	})

	t.Run("fail", func(t *testing.T) {
		if err := d.SetWindow(0, 0, 49, 24); err != nil {
			t.Fatal(err)
		}
		p.FailTx(2)
		err := d.WritePixels(buf)
		if !errors.Is(err, ErrTransfer) {
			t.Fatalf("WritePixels() = %v; want ErrTransfer", err)
		}
		if !strings.Contains(err.Error(), "offset 0") {
			t.Errorf("error does not name the offset: %v", err)
		}
	})
}

func TestWritePixels_Chunks(t *testing.T) {
	d, p := newDev(t, &tftsim.Opts{Trace: true, MaxTxSize: 1000}, nil)
	p.ClearTrace()
	if err := d.WritePixels(make([]byte, 2500)); err != nil {
		t.Fatal(err)
	}
	var sizes []int
	for _, op := range p.Ops() {
		if op.DC != gpio.High {
			t.Errorf("pixel transfer with D/C low")
		}
		sizes = append(sizes, len(op.W))
	}
	if diff := cmp.Diff(sizes, []int{1000, 1000, 500}); diff != "" {
		t.Errorf("transfer sizes difference (-got +want):\n%s", diff)
	}
	if err := d.WritePixels(nil); err != nil {
		t.Errorf("WritePixels(nil) = %v", err)
	}
}

func TestDraw(t *testing.T) {
	d, p := newDev(t, nil, nil)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	if err := d.Draw(image.Rect(10, 20, 14, 24), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	f := p.Frame()
	white := color.RGBA{255, 255, 255, 255}
	if got := f.RGBAAt(13, 23); got != white {
		t.Errorf("pixel (13, 23) = %v", got)
	}
	if got := f.RGBAAt(14, 23); got == white {
		t.Error("pixel outside the region drawn")
	}
	// Source smaller than the region: the rest is black.
	if err := d.Draw(image.Rect(0, 0, 8, 8), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if got := p.Frame().RGBAAt(7, 7); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixel (7, 7) = %v", got)
	}
	if err := d.Draw(image.Rect(310, 230, 330, 250), img, image.Point{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Draw() out of bounds = %v", err)
	}
	if d.ColorModel().Convert(color.White) == nil {
		t.Error("ColorModel() is nil")
	}
}

func TestHalt(t *testing.T) {
	d, p := newDev(t, nil, nil)
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	if p.Inverted() {
		t.Error("Invert(false) ignored")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if p.DisplayOn() || p.Backlight() || d.Backlight() {
		t.Error("Halt() left the display on")
	}
}

func TestClose_Nil(t *testing.T) {
	var d *Dev
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
}
