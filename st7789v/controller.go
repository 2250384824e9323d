// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import "time"

// Commands.
const (
	swReset   byte = 0x01
	slpOut    byte = 0x11
	norOn     byte = 0x13
	invOff    byte = 0x20
	invOn     byte = 0x21
	dispOff   byte = 0x28
	dispOn    byte = 0x29
	caSet     byte = 0x2A
	raSet     byte = 0x2B
	ramWr     byte = 0x2C
	madCtl    byte = 0x36
	colMod    byte = 0x3A
	porCtrl   byte = 0xB2
	gCtrl     byte = 0xB7
	vcomS     byte = 0xBB
	lcmCtrl   byte = 0xC0
	vdvVrhEn  byte = 0xC2
	vrhS      byte = 0xC3
	vdvS      byte = 0xC4
	frCtrl2   byte = 0xC6
	pwCtrl1   byte = 0xD0
	pvGamCtrl byte = 0xE0
	nvGamCtrl byte = 0xE1
)

// colMod16 selects 65k colors with 16 bits per pixel.
const colMod16 = 0x55

// step is one entry of the init sequence. The panel needs delay to settle
// after the command.
type step struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

var initSequence = []step{
	{cmd: swReset, delay: 150 * time.Millisecond},
	{cmd: slpOut, delay: 500 * time.Millisecond},
	{cmd: colMod, data: []byte{colMod16}},
	{cmd: porCtrl, data: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
	{cmd: gCtrl, data: []byte{0x35}},
	{cmd: vcomS, data: []byte{0x19}},
	{cmd: lcmCtrl, data: []byte{0x2C}},
	{cmd: vdvVrhEn, data: []byte{0x01, 0xFF}},
	{cmd: vrhS, data: []byte{0x11}},
	{cmd: vdvS, data: []byte{0x20}},
	{cmd: frCtrl2, data: []byte{0x0F}},
	{cmd: pwCtrl1, data: []byte{0xA4, 0xA1}},
	{cmd: pvGamCtrl, data: []byte{0xD0, 0x00, 0x02, 0x07, 0x0A, 0x28, 0x32, 0x44, 0x42, 0x06, 0x0E, 0x12, 0x14, 0x17, 0x00}},
	{cmd: nvGamCtrl, data: []byte{0xD0, 0x00, 0x02, 0x07, 0x0A, 0x28, 0x31, 0x54, 0x47, 0x0E, 0x1C, 0x17, 0x1B, 0x1B, 0x00}},
	{cmd: invOn},
	{cmd: dispOn, delay: 100 * time.Millisecond},
}

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	delay(time.Duration)
}

func runSequence(ctrl controller, seq []step) {
	for _, s := range seq {
		ctrl.sendCommand(s.cmd)
		if len(s.data) != 0 {
			ctrl.sendData(s.data)
		}
		if s.delay != 0 {
			ctrl.delay(s.delay)
		}
	}
}

func setWindow(ctrl controller, x0, y0, x1, y1 int) {
	ctrl.sendCommand(caSet)
	ctrl.sendData([]byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)})
	ctrl.sendCommand(raSet)
	ctrl.sendData([]byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)})
	ctrl.sendCommand(ramWr)
}
