// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateZeroSizeIsLegal(t *testing.T) {
	a := &Arena{}
	alloc, err := a.Allocate(0, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(alloc.Data), 0)
	assert.Equal(t, uintptr(0), alloc.Header.UsedSize)
}

func TestAllocateRoundsUpToPowerOfTwo(t *testing.T) {
	a := &Arena{}
	alloc, err := a.Allocate(20, true)
	require.NoError(t, err)
	assert.Equal(t, uintptr(32), alloc.Header.TotalSize)
}

func TestUseCountLifecycle(t *testing.T) {
	a := &Arena{}
	alloc, err := a.Allocate(8, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), alloc.Header.UseCount())

	a.IncreaseUseCount(alloc)
	assert.Equal(t, int64(2), alloc.Header.UseCount())

	destructed := false
	a.SetDestructor(alloc, func() { destructed = true })

	a.DecreaseUseCount(alloc)
	assert.False(t, destructed)
	assert.Equal(t, int64(1), alloc.Header.UseCount())

	a.DecreaseUseCount(alloc)
	assert.True(t, destructed)
	assert.Equal(t, uint64(0), alloc.Header.Identity)
}

func TestRecyclingReassignsIdentity(t *testing.T) {
	a := &Arena{}
	first, err := a.Allocate(64, true)
	require.NoError(t, err)
	firstIdentity := first.Header.Identity
	a.DecreaseUseCount(first)

	second, err := a.Allocate(64, true)
	require.NoError(t, err)
	assert.NotEqual(t, firstIdentity, second.Header.Identity)
	assert.Same(t, first, second, "same bin slot should be reused")
}

func TestDecreaseUseCountOnNilIsNoop(t *testing.T) {
	a := &Arena{}
	assert.NotPanics(t, func() { a.DecreaseUseCount(nil) })
	assert.NotPanics(t, func() { a.IncreaseUseCount(nil) })
}

func TestLiveCountTracksOutstandingAllocations(t *testing.T) {
	a := &Arena{}
	assert.Equal(t, int64(0), a.LiveCount())
	alloc, err := a.Allocate(16, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.LiveCount())
	a.DecreaseUseCount(alloc)
	assert.Equal(t, int64(0), a.LiveCount())
}

func TestDestructorMayReallocate(t *testing.T) {
	a := &Arena{}
	first, err := a.Allocate(32, true)
	require.NoError(t, err)

	var reentrant *Allocation
	a.SetDestructor(first, func() {
		var rerr error
		reentrant, rerr = a.Allocate(32, true)
		require.NoError(t, rerr)
	})
	a.DecreaseUseCount(first)
	require.NotNil(t, reentrant)
	a.DecreaseUseCount(reentrant)
}
