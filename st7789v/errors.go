// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import "errors"

var (
	// ErrConnection is returned when the SPI port or one of the GPIO lines
	// cannot be opened or configured.
	ErrConnection = errors.New("st7789v: connection failed")
	// ErrInitialization is returned when the reset or init sequence fails.
	ErrInitialization = errors.New("st7789v: initialization failed")
	// ErrInvalidArgument is returned for an unsupported rotation, size or
	// drawing region. Nothing is sent to the panel in that case.
	ErrInvalidArgument = errors.New("st7789v: invalid argument")
	// ErrTransfer is returned when a write to an initialized panel fails.
	ErrTransfer = errors.New("st7789v: transfer failed")
)
