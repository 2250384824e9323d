// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler implements controller on top of a Dev and keeps the first
// error. Every operation after a failure is a no-op.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = p.Out(l)
}

func (eh *errorHandler) tx(w []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.c.Tx(w, nil)
}

func (eh *errorHandler) sendCommand(cmd byte) {
	eh.out(eh.d.dc, gpio.Low)
	eh.tx([]byte{cmd})
}

func (eh *errorHandler) sendData(data []byte) {
	eh.out(eh.d.dc, gpio.High)
	eh.tx(data)
}

func (eh *errorHandler) delay(d time.Duration) {
	if eh.err != nil {
		return
	}
	sleep(d)
}

// reset pulses the reset line.
func (eh *errorHandler) reset() {
	eh.out(eh.d.rst, gpio.High)
	eh.delay(10 * time.Millisecond)
	eh.out(eh.d.rst, gpio.Low)
	eh.delay(10 * time.Millisecond)
	eh.out(eh.d.rst, gpio.High)
	eh.delay(150 * time.Millisecond)
}
