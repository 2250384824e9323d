// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tftsim simulates an ST7789V panel wired to an SPI port and three
// GPIO lines.
//
// The Panel implements spi.PortCloser and exposes the reset, D/C and
// backlight lines as gpio.PinIO. It decodes the byte stream the way the
// controller does: bytes sent while D/C is low are commands, bytes sent
// while it is high are their parameters or pixel data. The resulting image is
// kept in memory and can optionally be printed on the terminal with ANSI
// colors.
//
// Useful to run the animation code without hardware and to verify the exact
// command stream in tests.
package tftsim
