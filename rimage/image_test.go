// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rimage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfpsr-go/dfpsr/heap"
)

func TestPackOrderRoundTrip(t *testing.T) {
	for _, order := range []PackOrder{RGBA, BGRA, ARGB, ABGR} {
		px := order.Pack(10, 20, 30, 40)
		r, g, b, a := order.Unpack(px)
		assert.Equal(t, uint8(10), r)
		assert.Equal(t, uint8(20), g)
		assert.Equal(t, uint8(30), b)
		assert.Equal(t, uint8(40), a)
	}
}

func TestImageCreateStrideAlignment(t *testing.T) {
	arena := heap.Global()
	img, err := Create[uint8](arena, 3, 4, RGBA)
	require.NoError(t, err)
	assert.Equal(t, int32(16), img.Stride, "3 bytes rounds up to 16-byte SIMD alignment")
	assert.False(t, img.IsNull())
}

func TestImageZeroDimensionIsNullNotError(t *testing.T) {
	img, err := Create[float32](heap.Global(), 0, 5, RGBA)
	require.NoError(t, err)
	assert.True(t, img.IsNull())
}

func TestImageSetAndAt(t *testing.T) {
	img, err := Create[uint32](heap.Global(), 4, 4, RGBA)
	require.NoError(t, err)
	require.NoError(t, img.Set(2, 1, 0xDEADBEEF))
	v, err := img.At(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestImageOutOfBoundsRejected(t *testing.T) {
	img, err := Create[uint8](heap.Global(), 4, 4, RGBA)
	require.NoError(t, err)
	_, err = img.At(4, 0)
	assert.Error(t, err)
	_, err = img.At(0, 4)
	assert.Error(t, err)
}

func TestImageIsTexture(t *testing.T) {
	pow2, err := Create[uint8](heap.Global(), 64, 32, RGBA)
	require.NoError(t, err)
	assert.True(t, pow2.IsTexture())

	notPow2, err := Create[uint8](heap.Global(), 64, 30, RGBA)
	require.NoError(t, err)
	assert.False(t, notPow2.IsTexture())
}

func TestSubImageSharesAllocationAndKeepsStride(t *testing.T) {
	parent, err := Create[uint32](heap.Global(), 8, 8, RGBA)
	require.NoError(t, err)
	require.NoError(t, parent.Set(5, 5, 0x11223344))

	sub, err := parent.SubImage(4, 4, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, parent.Stride, sub.Stride, "sub-image stride never changes")

	v, err := sub.At(1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11223344), v, "sub-image views the same backing bytes")
}

func TestSubImageOutOfParentBoundsRejected(t *testing.T) {
	parent, err := Create[uint8](heap.Global(), 8, 8, RGBA)
	require.NoError(t, err)
	_, err = parent.SubImage(6, 6, 4, 4)
	assert.Error(t, err)
}
