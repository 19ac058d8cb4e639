// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rimage implements the image model of spec.md section 4.3: an
// aligned pixel buffer with a fixed row stride and, for 32-bit color
// images, a byte-level pack order matching the display. It is grounded
// on original_source/Source/DFPSR/implementation/image/Texture.h's
// layout description and on the general shape of
// cogentcore.org/core/colors, which also keeps pixel channel order as a
// small closed enum rather than dispatching through image/color.Model.
package rimage

// PackOrder is the byte order of the four channels within a 32-bit RGBA
// pixel as stored in memory (spec.md section 6, GLOSSARY "Pack order").
type PackOrder int

const (
	RGBA PackOrder = iota
	BGRA
	ARGB
	ABGR
)

// shiftTable[order] gives the bit shift for each of the R,G,B,A channels
// within a native-endian uint32 pixel word.
var shiftTable = [4][4]uint{
	RGBA: {0, 8, 16, 24},
	BGRA: {16, 8, 0, 24},
	ARGB: {8, 16, 24, 0},
	ABGR: {24, 16, 8, 0},
}

// Pack assembles a 32-bit pixel word from 8-bit channels in the given order.
func (o PackOrder) Pack(r, g, b, a uint8) uint32 {
	sh := shiftTable[o]
	return uint32(r)<<sh[0] | uint32(g)<<sh[1] | uint32(b)<<sh[2] | uint32(a)<<sh[3]
}

// Unpack splits a 32-bit pixel word into 8-bit channels for the given order.
func (o PackOrder) Unpack(px uint32) (r, g, b, a uint8) {
	sh := shiftTable[o]
	r = uint8(px >> sh[0])
	g = uint8(px >> sh[1])
	b = uint8(px >> sh[2])
	a = uint8(px >> sh[3])
	return
}
