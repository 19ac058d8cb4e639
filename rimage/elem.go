// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rimage

import (
	"github.com/dfpsr-go/dfpsr/internal/derr"
	"github.com/dfpsr-go/dfpsr/safeptr"
)

// readElem and writeElem dispatch Pointer[T]'s word-sized accessors by T's
// concrete type, since Go generics give no sizeof-style specialization.
// Pixel is a closed set so the switch is exhaustive.
func readElem[T Pixel](row safeptr.Pointer[byte], byteOffset int) (T, error) {
	var zero T
	switch any(zero).(type) {
	case uint8:
		v, err := row.ReadUint8(byteOffset)
		return any(v).(T), err
	case uint16:
		v, err := row.ReadUint16(byteOffset)
		return any(v).(T), err
	case uint32:
		v, err := row.ReadUint32(byteOffset)
		return any(v).(T), err
	case float32:
		v, err := row.ReadFloat32(byteOffset)
		return any(v).(T), err
	default:
		return zero, derr.New(derr.UnsupportedFormat, "unsupported pixel element type").WithRegion("rimage.readElem")
	}
}

func writeElem[T Pixel](row safeptr.Pointer[byte], byteOffset int, v T) error {
	switch x := any(v).(type) {
	case uint8:
		return row.WriteUint8(byteOffset, x)
	case uint16:
		return row.WriteUint16(byteOffset, x)
	case uint32:
		return row.WriteUint32(byteOffset, x)
	case float32:
		return row.WriteFloat32(byteOffset, x)
	default:
		return derr.New(derr.UnsupportedFormat, "unsupported pixel element type").WithRegion("rimage.writeElem")
	}
}
