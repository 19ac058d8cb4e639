// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safeptr

import "github.com/dfpsr-go/dfpsr/heap"

// Handle owns a heap.Allocation: Clone bumps the arena use count,
// Release drops it. Handle is the public type spec.md says is returned
// by image_create_*, buffer_create, model_create, and renderer_create.
// There are no cyclic lifetimes in the core (spec.md section 9), so a
// plain ref-counted strong handle is sufficient — no weak references,
// no GC-assisted cycle breaking.
type Handle struct {
	arena      *heap.Arena
	allocation *heap.Allocation
}

// NewHandle wraps a freshly allocated allocation, taking ownership of
// the single reference Arena.Allocate already created.
func NewHandle(arena *heap.Arena, allocation *heap.Allocation) Handle {
	return Handle{arena: arena, allocation: allocation}
}

// IsNull reports whether the handle owns no allocation, matching
// spec.md's NullHandle error condition.
func (h Handle) IsNull() bool {
	return h.allocation == nil
}

// Allocation returns the underlying allocation for building Pointer[T]
// views. Returns nil for a null handle.
func (h Handle) Allocation() *heap.Allocation {
	return h.allocation
}

// Clone returns a new Handle sharing the same allocation, incrementing
// its use count.
func (h Handle) Clone() Handle {
	if h.allocation != nil && h.arena != nil {
		h.arena.IncreaseUseCount(h.allocation)
	}
	return h
}

// Release drops this handle's reference. After Release, the handle must
// not be used again; any SafePointer still referencing the allocation
// will fail its next identity check if the allocation gets recycled.
func (h Handle) Release() {
	if h.allocation != nil && h.arena != nil {
		h.arena.DecreaseUseCount(h.allocation)
	}
}
