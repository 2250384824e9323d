// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tftsim

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Line is a GPIO output connected to the simulated panel.
type Line struct {
	gpiotest.Pin
	// Err, when set, is returned by Out and the level is left unchanged.
	Err error

	onOut func(gpio.Level)
}

// Out implements gpio.PinOut.
func (l *Line) Out(lvl gpio.Level) error {
	if l.Err != nil {
		return l.Err
	}
	if err := l.Pin.Out(lvl); err != nil {
		return err
	}
	if l.onOut != nil {
		l.onOut(lvl)
	}
	return nil
}

var _ gpio.PinIO = &Line{}
