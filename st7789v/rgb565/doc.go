// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 converts 8-bit-per-channel images into the big-endian 16-bit
// pixel stream accepted by RGB565 display controllers.
//
// Each pixel is packed as RRRRRGGG GGGBBBBB with the high byte first. The low
// bits of every channel are truncated, never rounded.
//
// Encode is the bulk path used for every frame. EncodeScalar converts one
// pixel at a time and produces identical bytes; it exists for image types
// without a fast path and to cross check the bulk path.
package rgb565
