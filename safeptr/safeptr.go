// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package safeptr implements the bound- and identity-checked typed view
// described in spec.md section 4.2, grounded on
// original_source/Source/DFPSR/base/SafePointer.h. Go has no raw
// pointer arithmetic to degrade to in a release build, so Pointer[T]
// always carries its permitted byte range. There is no release-mode
// variant: the bound and identity checks run in every build.
package safeptr

import (
	"encoding/binary"
	"math"

	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/internal/derr"
)

// Pointer[T] is a typed, bound-checked view into a heap.Allocation's
// byte slice. permittedStart/permittedEnd are byte offsets into
// allocation.Data; header/expectedIdentity/ownerThread replicate the
// source's debug-mode identity and thread checks.
type Pointer[T any] struct {
	allocation *heap.Allocation
	data       []byte // data[offset:] is this pointer's current position
	offset     int
	elemSize   int

	permittedStart int
	permittedEnd   int

	header           *heap.Header
	expectedIdentity uint64
	ownerThread      uint64 // 0 means shared among all threads
	name             string
}

// New creates a Pointer over allocation's full used region, named for
// diagnostics the way the source names every SafePointer.
func New[T any](allocation *heap.Allocation, name string, elemSize int) Pointer[T] {
	if allocation == nil {
		return Pointer[T]{name: name, elemSize: elemSize}
	}
	end := int(allocation.Header.UsedSize)
	if end == 0 {
		end = len(allocation.Data)
	}
	return Pointer[T]{
		allocation:       allocation,
		data:             allocation.Data,
		offset:           0,
		elemSize:         elemSize,
		permittedStart:   0,
		permittedEnd:     end,
		header:           allocation.Header,
		expectedIdentity: allocation.Header.Identity,
		name:             name,
	}
}

// IsNull reports whether the pointer has no backing allocation.
func (p Pointer[T]) IsNull() bool { return p.allocation == nil }

// Slice returns a new Pointer into byteOffset..byteOffset+size of the
// current position, asserting the sub-range stays within the permitted
// region (spec.md: "Sub-images share the allocation; startOffset
// moves, stride never changes").
func (p Pointer[T]) Slice(name string, byteOffset, size int) (Pointer[T], error) {
	newOffset := p.offset + byteOffset
	if err := p.assertInside("Slice", newOffset, size); err != nil {
		return Pointer[T]{}, err
	}
	q := p
	q.offset = newOffset
	q.permittedStart = newOffset
	q.permittedEnd = newOffset + size
	q.name = name
	return q, nil
}

// checkIdentity verifies the backing allocation has not been freed and
// recycled for something else since this pointer was created.
func (p Pointer[T]) checkIdentity() error {
	if p.header == nil {
		return nil
	}
	if p.header.Identity != p.expectedIdentity {
		return derr.New(derr.StaleIdentity, "allocation identity no longer matches; memory was freed and recycled").WithRegion(p.name)
	}
	return nil
}

// checkThread is a no-op for the automatic bound-check path: Go
// goroutines have no stable OS-thread identity the way the source's
// thread-local hash does, so thread ownership is opt-in. Callers that
// need it call WithOwnerThread/CheckThread explicitly instead.
func (p Pointer[T]) checkThread() error {
	return nil
}

// WithOwnerThread returns a copy of p that CheckThread will reject
// accesses to from any token other than the given one, matching
// spec.md's "header thread hash is either shared or equals the current
// thread" for pointers that a single worker goroutine owns exclusively.
func (p Pointer[T]) WithOwnerThread(token uint64) Pointer[T] {
	p.ownerThread = token
	return p
}

// CheckThread verifies token is permitted to access p. A pointer with
// no owner thread (the zero value) is shared and always permitted.
func (p Pointer[T]) CheckThread(token uint64) error {
	if p.ownerThread == 0 || p.ownerThread == token {
		return nil
	}
	return derr.Newf(derr.WrongThread, "accessed from thread %d, owned by thread %d", token, p.ownerThread).WithRegion(p.name)
}

func (p Pointer[T]) assertInside(method string, offset, size int) error {
	if size < 0 {
		return derr.Newf(derr.OutOfBounds, "%s: negative size %d", method, size).WithRegion(p.name)
	}
	if p.allocation == nil {
		return derr.New(derr.NullHandle, method+": dereferencing a null safe pointer").WithRegion(p.name)
	}
	if offset < p.permittedStart || offset+size > p.permittedEnd {
		return derr.Newf(derr.OutOfBounds, "%s: [%d,%d) outside permitted [%d,%d)", method, offset, offset+size, p.permittedStart, p.permittedEnd).WithRegion(p.name)
	}
	if err := p.checkIdentity(); err != nil {
		return err
	}
	return p.checkThread()
}

// Bytes returns a read-write slice over size bytes at the pointer's
// current position, after the full suite of bound/identity/thread
// checks. This is the only way to reach raw memory; there is no pointer
// arithmetic beyond Slice's += count equivalent.
func (p Pointer[T]) Bytes(size int) ([]byte, error) {
	if err := p.assertInside("Bytes", p.offset, size); err != nil {
		return nil, err
	}
	return p.data[p.offset : p.offset+size], nil
}

// PermittedLen returns how many bytes remain between the pointer's
// current position and the end of its permitted region.
func (p Pointer[T]) PermittedLen() int {
	return p.permittedEnd - p.offset
}

// ReadUint8 / WriteUint8 and friends give word-sized typed access
// without requiring T reflection; image and texture sampling use these
// directly since pixels are always fixed-width integers.

func (p Pointer[T]) ReadUint8(byteOffset int) (uint8, error) {
	b, err := p.sliceAt(byteOffset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p Pointer[T]) WriteUint8(byteOffset int, v uint8) error {
	b, err := p.sliceAt(byteOffset, 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (p Pointer[T]) ReadUint16(byteOffset int) (uint16, error) {
	b, err := p.sliceAt(byteOffset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p Pointer[T]) WriteUint16(byteOffset int, v uint16) error {
	b, err := p.sliceAt(byteOffset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

func (p Pointer[T]) ReadUint32(byteOffset int) (uint32, error) {
	b, err := p.sliceAt(byteOffset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p Pointer[T]) WriteUint32(byteOffset int, v uint32) error {
	b, err := p.sliceAt(byteOffset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (p Pointer[T]) ReadFloat32(byteOffset int) (float32, error) {
	u, err := p.ReadUint32(byteOffset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (p Pointer[T]) WriteFloat32(byteOffset int, v float32) error {
	return p.WriteUint32(byteOffset, math.Float32bits(v))
}

func (p Pointer[T]) sliceAt(byteOffset, size int) ([]byte, error) {
	off := p.offset + byteOffset
	if err := p.assertInside("access", off, size); err != nil {
		return nil, err
	}
	return p.data[off : off+size], nil
}
