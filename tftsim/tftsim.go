// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tftsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Opts represents the options of the simulated panel.
type Opts struct {
	// W and H are the native size of the panel. Defaults to 240x320.
	W, H int
	// Trace records every transfer and decoded command, see Ops and Records.
	Trace bool
	// MaxTxSize is reported through conn.Limits and enforced by Tx. 0 means
	// no limit.
	MaxTxSize int

	// Preview prints the frame on the terminal each time an address window
	// has been completely filled.
	Preview bool
	// Out is where the preview is printed. Defaults to stdout.
	Out io.Writer
	// Scale is the number of panel pixels per terminal cell. Defaults to 8.
	Scale   int
	Palette *ansi256.Palette
}

// Op is one SPI transfer along with the level of the D/C line.
type Op struct {
	DC gpio.Level
	W  []byte
}

// Record is a decoded command and all the data bytes that followed it.
type Record struct {
	Cmd  byte
	Data []byte
}

// Panel is a simulated ST7789V controller.
type Panel struct {
	// RST, DC and BL are the reset, data/command and backlight lines.
	RST *Line
	DC  *Line
	BL  *Line

	mu         sync.Mutex
	opts       Opts
	palette    ansi256.Palette
	connectErr error
	failTx     int
	connected  bool
	closed     bool
	freq       physic.Frequency
	ops        []Op
	records    []Record

	// Controller state.
	sleeping bool
	on       bool
	inverted bool
	madctl   byte
	colmod   byte
	cmd      byte
	args     []byte
	col, row [2]int
	cursor   image.Point
	half     []byte
	pixels   int
	frame    *image.RGBA
	buf      bytes.Buffer
}

// New returns a Panel in its power on state: asleep, display off.
func New(opts *Opts) *Panel {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.W == 0 {
		o.W = 240
	}
	if o.H == 0 {
		o.H = 320
	}
	if o.Scale <= 0 {
		o.Scale = 8
	}
	if o.Preview && o.Out == nil {
		o.Out = colorable.NewColorableStdout()
	}
	pal := o.Palette
	if pal == nil {
		pal = ansi256.Default
	}
	p := &Panel{
		RST:     &Line{Pin: gpiotest.Pin{N: "RST", Num: 19}},
		DC:      &Line{Pin: gpiotest.Pin{N: "DC", Num: 18}},
		BL:      &Line{Pin: gpiotest.Pin{N: "BL", Num: 20}},
		opts:    o,
		palette: *pal,
	}
	p.RST.onOut = func(l gpio.Level) {
		if l == gpio.Low {
			p.mu.Lock()
			p.reset()
			p.mu.Unlock()
		}
	}
	p.reset()
	return p
}

func (p *Panel) String() string {
	return fmt.Sprintf("tftsim(%dx%d)", p.opts.W, p.opts.H)
}

// FailConnect makes the next Connect call return err.
func (p *Panel) FailConnect(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectErr = err
}

// FailTx makes the next n transfers fail without reaching the controller.
func (p *Panel) FailTx(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failTx = n
}

// Connect implements spi.Port.
func (p *Panel) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectErr; err != nil {
		p.connectErr = nil
		return nil, err
	}
	if p.closed {
		return nil, errors.New("tftsim: port closed")
	}
	if p.connected {
		return nil, errors.New("tftsim: Connect cannot be called twice")
	}
	if mode&^spi.NoCS != spi.Mode0 && mode&^spi.NoCS != spi.Mode3 {
		return nil, fmt.Errorf("tftsim: unsupported mode %v", mode)
	}
	if bits != 8 {
		return nil, fmt.Errorf("tftsim: unsupported %d bits per word", bits)
	}
	p.connected = true
	p.freq = f
	return &simConn{p: p}, nil
}

// LimitSpeed implements spi.PortCloser.
func (p *Panel) LimitSpeed(f physic.Frequency) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freq = f
	return nil
}

// Close implements spi.PortCloser.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("tftsim: already closed")
	}
	p.closed = true
	if p.opts.Preview {
		_, err := io.WriteString(p.opts.Out, "\033[0m\n")
		return err
	}
	return nil
}

// Closed reports whether Close was called.
func (p *Panel) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Freq returns the clock requested by Connect or LimitSpeed.
func (p *Panel) Freq() physic.Frequency {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq
}

// Ops returns the recorded transfers. Opts.Trace must be set.
func (p *Panel) Ops() []Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Op(nil), p.ops...)
}

// Records returns the decoded commands. Opts.Trace must be set.
func (p *Panel) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Record(nil), p.records...)
}

// ClearTrace discards the recorded transfers and commands.
func (p *Panel) ClearTrace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = nil
	p.records = nil
}

// DisplayOn reports whether the controller is awake and the display is on.
func (p *Panel) DisplayOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on && !p.sleeping
}

// Inverted reports whether color inversion is on.
func (p *Panel) Inverted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inverted
}

// Backlight reports the level of the backlight line.
func (p *Panel) Backlight() bool {
	return p.BL.Read() == gpio.High
}

// MADCTL returns the memory access control register.
func (p *Panel) MADCTL() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.madctl
}

// PixelFormat returns the interface pixel format register.
func (p *Panel) PixelFormat() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.colmod
}

// Pixels returns the number of pixels written since power on.
func (p *Panel) Pixels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pixels
}

// Frame returns a copy of the panel memory as seen in the current
// orientation.
func (p *Panel) Frame() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewRGBA(p.frame.Rect)
	copy(img.Pix, p.frame.Pix)
	return img
}

// Refresh prints the frame on Opts.Out.
func (p *Panel) Refresh() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh()
}

//

type simConn struct {
	p *Panel
}

func (c *simConn) String() string {
	return c.p.String()
}

func (c *simConn) Duplex() conn.Duplex {
	return conn.Half
}

// MaxTxSize implements conn.Limits.
func (c *simConn) MaxTxSize() int {
	return c.p.opts.MaxTxSize
}

func (c *simConn) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("tftsim: read is not supported")
	}
	p := c.p
	// The D/C level is sampled before taking the panel lock.
	dc := p.DC.Read()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("tftsim: port closed")
	}
	if p.failTx > 0 {
		p.failTx--
		return errors.New("tftsim: injected transfer failure")
	}
	if m := p.opts.MaxTxSize; m > 0 && len(w) > m {
		return fmt.Errorf("tftsim: transfer of %d bytes exceeds limit of %d", len(w), m)
	}
	if p.opts.Trace {
		p.ops = append(p.ops, Op{DC: dc, W: append([]byte(nil), w...)})
	}
	if dc == gpio.Low {
		for _, b := range w {
			p.command(b)
		}
		return nil
	}
	return p.data(w)
}

func (c *simConn) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := c.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

var _ spi.PortCloser = &Panel{}
var _ conn.Limits = &simConn{}
