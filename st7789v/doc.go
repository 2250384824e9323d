// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7789v controls a 240x320 TFT panel driven by a Sitronix ST7789V
// controller over SPI.
//
// The controller needs three GPIO lines besides the SPI bus: reset, D/C
// (data/command select) and the backlight enable. Pixels are sent in RGB565,
// see package rgb565.
//
// Dev implements display.Drawer so any image.Image can be pushed to a region
// of the panel. Animations should rather use SetWindow and WritePixels
// directly with an already encoded buffer.
//
// # Datasheet
//
// https://www.newhavendisplay.com/appnotes/datasheets/LCDs/ST7789V.pdf
package st7789v
