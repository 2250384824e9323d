// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"time"

	"github.com/GermanBionicSystems/tft/st7789v/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Rotation is the clockwise rotation of the image on the panel, in degrees.
type Rotation int

// Supported rotations.
const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// madctl returns the memory access control value for the rotation.
func (r Rotation) madctl() (byte, bool) {
	switch r {
	case Rotate0:
		return 0x00, true
	case Rotate90:
		return 0x60, true
	case Rotate180:
		return 0xC0, true
	case Rotate270:
		return 0xA0, true
	}
	return 0, false
}

// swapped reports whether the rotation exchanges width and height.
func (r Rotation) swapped() bool {
	return r == Rotate90 || r == Rotate270
}

// Opts defines the options for the device.
type Opts struct {
	// W and H are the native width and height of the panel, in portrait.
	W int
	H int
	// Rotation is applied at the end of the initialization.
	Rotation Rotation
	// Freq is the SPI clock.
	Freq physic.Frequency
	// MaxTxSize caps the size of each SPI transfer when streaming pixels.
	// When 0, the limit of the SPI port is used, or 4096 bytes if the port
	// does not report one.
	MaxTxSize int
}

// DefaultOpts is the common 240x320 module in landscape.
var DefaultOpts = Opts{
	W:        240,
	H:        320,
	Rotation: Rotate90,
	Freq:     40 * physic.MegaHertz,
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.H <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidArgument, o.W, o.H)
	}
	if _, ok := o.Rotation.madctl(); !ok {
		return fmt.Errorf("%w: rotation %d", ErrInvalidArgument, o.Rotation)
	}
	return nil
}

// Pins names the GPIO lines used by Open.
type Pins struct {
	Reset     string
	DC        string
	Backlight string
}

// DefaultPins matches the common Raspberry Pi wiring.
var DefaultPins = Pins{Reset: "GPIO19", DC: "GPIO18", Backlight: "GPIO20"}

// Dev is an open handle to the display controller.
type Dev struct {
	// Communication
	c    spi.Conn
	port spi.Port
	rst  gpio.PinOut
	dc   gpio.PinOut
	bl   gpio.PinOut

	// Display size controlled by the ST7789V.
	native image.Point
	rect   image.Rectangle

	rotation  Rotation
	window    image.Rectangle
	backlight bool
	maxTxSize int
	closed    bool

	// Full frame buffer used by Draw.
	buffer []byte
}

var _ display.Drawer = &Dev{}

// Open is a shorthand to open the SPI port and the pins by name, and pass
// them to New.
//
// host.Init() must have been called before.
func Open(port string, pins Pins, opts *Opts) (*Dev, error) {
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	var lines [3]gpio.PinIO
	for i, name := range []string{pins.Reset, pins.DC, pins.Backlight} {
		if lines[i] = gpioreg.ByName(name); lines[i] == nil {
			_ = p.Close()
			return nil, fmt.Errorf("%w: pin %q not found", ErrConnection, name)
		}
	}
	return New(p, lines[0], lines[1], lines[2], opts)
}

// New opens a handle to a ST7789V display controller. DefaultOpts is used
// when opts is nil.
//
// The panel is reset, initialized, rotated and then the backlight is turned
// on. On failure everything acquired is released, the returned Dev is nil
// and p is closed if it implements io.Closer. On success the Dev owns p and
// the pins; Close releases them.
func New(p spi.Port, rst, dc, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		closePort(p)
		return nil, err
	}
	d := &Dev{
		port:     p,
		rst:      rst,
		dc:       dc,
		bl:       bl,
		native:   image.Point{opts.W, opts.H},
		rotation: opts.Rotation,
	}
	if err := d.connect(opts); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if err := d.init(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := d.bl.Out(gpio.High); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%w: backlight: %w", ErrInitialization, err)
	}
	d.backlight = true
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7789v.Dev{%s, %s, %s, %d}", d.c, d.dc, d.rect.Max, d.rotation)
}

// ColorModel implements display.Drawer.
//
// It is RGB565.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Rotation returns the rotation last applied.
func (d *Dev) Rotation() Rotation {
	return d.rotation
}

// Window returns the last address window set, as a half open rectangle.
func (d *Dev) Window() image.Rectangle {
	return d.window
}

// Backlight reports whether the backlight is on.
func (d *Dev) Backlight() bool {
	return d.backlight
}

// SetRotation changes the orientation of the memory access.
//
// Bounds() is swapped for 90° and 270°. The content already on the panel is
// not redrawn.
func (d *Dev) SetRotation(r Rotation) error {
	code, ok := r.madctl()
	if !ok {
		return fmt.Errorf("%w: rotation %d", ErrInvalidArgument, r)
	}
	eh := errorHandler{d: d}
	eh.sendCommand(madCtl)
	eh.sendData([]byte{code})
	if eh.err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, eh.err)
	}
	d.rotation = r
	size := d.native
	if r.swapped() {
		size.X, size.Y = size.Y, size.X
	}
	d.rect = image.Rectangle{Max: size}
	d.buffer = make([]byte, rgb565.Size(d.rect))
	return nil
}

// SetWindow sets the address window to the inclusive region [x0, x1] x
// [y0, y1] and starts a memory write.
//
// The coordinates are not validated. Pixels written afterward with
// WritePixels fill the window row by row.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	eh := errorHandler{d: d}
	setWindow(&eh, x0, y0, x1, y1)
	if eh.err != nil {
		return fmt.Errorf("%w: window: %w", ErrTransfer, eh.err)
	}
	d.window = image.Rect(x0, y0, x1+1, y1+1)
	return nil
}

// WritePixels streams RGB565 big-endian pixel data into the current window.
//
// The data is split in transfers no larger than the port limit. A failed
// transfer is retried once before giving up.
func (d *Dev) WritePixels(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	for off := 0; off < len(b); {
		end := min(off+d.maxTxSize, len(b))
		if err := d.c.Tx(b[off:end], nil); err != nil {
			if err = d.c.Tx(b[off:end], nil); err != nil {
				return fmt.Errorf("%w: %d bytes at offset %d: %w", ErrTransfer, end-off, off, err)
			}
		}
		off = end
	}
	return nil
}

// Draw implements display.Drawer.
//
// r must be inside Bounds(). src is read starting at sp; pixels not covered
// by src are sent as black.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if !r.In(d.rect) {
		return fmt.Errorf("%w: %v outside %v", ErrInvalidArgument, r, d.rect)
	}
	if r.Empty() {
		return nil
	}
	srcR := image.Rectangle{sp, sp.Add(r.Size())}
	if !srcR.In(src.Bounds()) {
		img := image.NewRGBA(image.Rectangle{Max: r.Size()})
		draw.Draw(img, img.Bounds(), src, sp, draw.Src)
		src, srcR = img, img.Bounds()
	}
	d.buffer = rgb565.Encode(d.buffer, src, srcR)
	if err := d.SetWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1); err != nil {
		return err
	}
	return d.WritePixels(d.buffer)
}

// Invert turns color inversion on or off.
//
// The init sequence turns it on; most modules need it to display true colors.
func (d *Dev) Invert(on bool) error {
	cmd := invOff
	if on {
		cmd = invOn
	}
	eh := errorHandler{d: d}
	eh.sendCommand(cmd)
	if eh.err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, eh.err)
	}
	return nil
}

// Halt implements conn.Resource.
//
// It turns the display and the backlight off.
func (d *Dev) Halt() error {
	eh := errorHandler{d: d}
	eh.sendCommand(dispOff)
	eh.out(d.bl, gpio.Low)
	if eh.err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, eh.err)
	}
	d.backlight = false
	return nil
}

// Close turns the backlight off, closes the SPI port if it implements
// io.Closer and halts the pins.
//
// It is safe to call more than once and on a nil Dev.
func (d *Dev) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	if d.bl != nil && d.bl != gpio.INVALID {
		errs = append(errs, d.bl.Out(gpio.Low))
		d.backlight = false
	}
	if c, ok := d.port.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	for _, p := range []gpio.PinOut{d.rst, d.dc, d.bl} {
		if p != nil {
			errs = append(errs, p.Halt())
		}
	}
	return errors.Join(errs...)
}

//

// sleep is replaced in tests.
var sleep = time.Sleep

func closePort(p spi.Port) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}

// connect drives the lines to their idle level and connects to the port.
func (d *Dev) connect(opts *Opts) error {
	for _, l := range []struct {
		name string
		p    gpio.PinOut
		lvl  gpio.Level
	}{
		{"dc", d.dc, gpio.Low},
		{"reset", d.rst, gpio.High},
		{"backlight", d.bl, gpio.Low},
	} {
		if l.p == nil || l.p == gpio.INVALID {
			return fmt.Errorf("%s pin is not set", l.name)
		}
		if err := l.p.Out(l.lvl); err != nil {
			return fmt.Errorf("%s pin: %w", l.name, err)
		}
	}
	if d.port == nil {
		return errors.New("spi port is not set")
	}
	c, err := d.port.Connect(opts.Freq, spi.Mode0, 8)
	if err != nil {
		return err
	}
	d.c = c
	d.maxTxSize = 4096
	if l, ok := c.(conn.Limits); ok {
		if n := l.MaxTxSize(); n > 0 {
			d.maxTxSize = n
		}
	}
	if opts.MaxTxSize > 0 {
		d.maxTxSize = min(d.maxTxSize, opts.MaxTxSize)
	}
	return nil
}

// init resets the panel, runs the init sequence and applies the rotation.
func (d *Dev) init() error {
	eh := errorHandler{d: d}
	eh.reset()
	runSequence(&eh, initSequence)
	if eh.err != nil {
		return eh.err
	}
	return d.SetRotation(d.rotation)
}
