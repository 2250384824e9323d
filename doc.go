// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tft is a container for the ST7789V TFT panel driver and the
// differential rendering stack built on top of it.
//
// The driver lives in st7789v, the frame loop in scheduler. cmd/bounce ties
// them together.
package tft
