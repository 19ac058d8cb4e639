// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buffer implements the plain byte-owning allocation that
// images and models are built from (spec.md section 3, L3 "Buffer owns
// bytes"). It is the thinnest possible wrapper around heap.Arena +
// safeptr.Handle, existing mainly so Image[T] has something uniform to
// hold regardless of element type.
package buffer

import (
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/safeptr"
)

// Buffer owns a byte allocation and exposes a bound-checked view over it.
type Buffer struct {
	handle safeptr.Handle
	size   int
}

// Create allocates a zeroed buffer of exactly size bytes from arena.
// size == 0 is legal and returns an empty, non-null buffer (spec.md:
// "empty files using buffers").
func Create(arena *heap.Arena, size int) (Buffer, error) {
	alloc, err := arena.Allocate(uintptr(size), true)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{handle: safeptr.NewHandle(arena, alloc), size: size}, nil
}

// IsNull reports whether the buffer owns no allocation.
func (b Buffer) IsNull() bool { return b.handle.IsNull() }

// Size returns the buffer's logical byte length.
func (b Buffer) Size() int { return b.size }

// Pointer returns a bound-checked view over the whole buffer.
func (b Buffer) Pointer() safeptr.Pointer[byte] {
	if b.handle.IsNull() {
		return safeptr.Pointer[byte]{}
	}
	return safeptr.New[byte](b.handle.Allocation(), "buffer", 1)
}

// Clone returns a new Buffer sharing the same allocation (ref-counted).
func (b Buffer) Clone() Buffer {
	return Buffer{handle: b.handle.Clone(), size: b.size}
}

// Release drops this buffer's reference to its allocation.
func (b Buffer) Release() {
	b.handle.Release()
}
