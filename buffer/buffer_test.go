// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfpsr-go/dfpsr/heap"
)

func TestCreateZeroesAllocation(t *testing.T) {
	b, err := Create(heap.Global(), 16)
	require.NoError(t, err)
	assert.False(t, b.IsNull())
	assert.Equal(t, 16, b.Size())

	ptr := b.Pointer()
	for i := 0; i < 16; i++ {
		v, err := ptr.ReadUint8(i)
		require.NoError(t, err)
		assert.Equal(t, uint8(0), v)
	}
	b.Release()
}

func TestCreateEmptyBufferIsLegal(t *testing.T) {
	b, err := Create(heap.Global(), 0)
	require.NoError(t, err)
	assert.False(t, b.IsNull())
	assert.Equal(t, 0, b.Size())
	b.Release()
}

func TestCloneSharesAllocation(t *testing.T) {
	b, err := Create(heap.Global(), 4)
	require.NoError(t, err)
	defer b.Release()

	clone := b.Clone()
	defer clone.Release()
	assert.False(t, clone.IsNull())
	assert.Equal(t, b.Size(), clone.Size())
}

func TestZeroValueBufferReleaseIsSafe(t *testing.T) {
	var b Buffer
	assert.True(t, b.IsNull())
	b.Release() // must not panic on a never-allocated buffer
}
