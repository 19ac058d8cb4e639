// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/rimage"
)

func solidSource(t *testing.T, w, h int32, r, g, b, a uint8) rimage.Image[uint32] {
	img, err := rimage.Create[uint32](heap.Global(), w, h, rimage.RGBA)
	require.NoError(t, err)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			require.NoError(t, img.Set(x, y, rimage.RGBA.Pack(r, g, b, a)))
		}
	}
	return img
}

func TestFromImageRejectsNonPowerOfTwo(t *testing.T) {
	src := solidSource(t, 6, 8, 255, 0, 0, 255)
	_, err := FromImage(heap.Global(), src, MaxMipLevelCount-1)
	assert.Error(t, err)
}

func TestFromImageSolidColorStaysSolidAcrossMips(t *testing.T) {
	src := solidSource(t, 8, 8, 200, 100, 50, 255)
	tex, err := FromImage(heap.Global(), src, MaxMipLevelCount-1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), tex.MaxMipLevel(), "8x8 fully mips down to a 1x1 level")

	for level := uint32(0); level <= tex.MaxMipLevel(); level++ {
		px, err := tex.SampleNearest(level, 0, 0)
		require.NoError(t, err)
		r, g, b, a := rimage.RGBA.Unpack(px)
		assert.Equal(t, uint8(200), r)
		assert.Equal(t, uint8(100), g)
		assert.Equal(t, uint8(50), b)
		assert.Equal(t, uint8(255), a)
	}
}

func TestSampleNearestTilesWithMask(t *testing.T) {
	src := solidSource(t, 4, 4, 1, 2, 3, 255)
	tex, err := FromImage(heap.Global(), src, 0)
	require.NoError(t, err)

	inBounds, err := tex.SampleNearest(0, 1, 1)
	require.NoError(t, err)
	wrapped, err := tex.SampleNearest(0, 1+4, 1+4)
	require.NoError(t, err)
	assert.Equal(t, inBounds, wrapped, "integer coordinates tile by bitmask")
}

func TestRequestingMipBeyondMaxClamps(t *testing.T) {
	src := solidSource(t, 4, 4, 9, 9, 9, 255)
	tex, err := FromImage(heap.Global(), src, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tex.MaxMipLevel())

	atMax, err := tex.SampleNearest(1, 0, 0)
	require.NoError(t, err)
	beyond, err := tex.SampleNearest(50, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, atMax, beyond)
}

func TestBilinearOfSolidColorReturnsThatColor(t *testing.T) {
	src := solidSource(t, 8, 8, 50, 60, 70, 255)
	tex, err := FromImage(heap.Global(), src, MaxMipLevelCount-1)
	require.NoError(t, err)

	r, g, b, a, err := tex.SampleBilinear(0, 3.5, 3.5)
	require.NoError(t, err)
	assert.InDelta(t, 50, r, 0.01)
	assert.InDelta(t, 60, g, 0.01)
	assert.InDelta(t, 70, b, 0.01)
	assert.InDelta(t, 255, a, 0.01)
}

func TestAlphaWeightedMipAvoidsDarkHalo(t *testing.T) {
	img, err := rimage.Create[uint32](heap.Global(), 2, 2, rimage.RGBA)
	require.NoError(t, err)
	require.NoError(t, img.Set(0, 0, rimage.RGBA.Pack(200, 0, 0, 255)))
	require.NoError(t, img.Set(1, 0, rimage.RGBA.Pack(200, 0, 0, 0)))
	require.NoError(t, img.Set(0, 1, rimage.RGBA.Pack(200, 0, 0, 255)))
	require.NoError(t, img.Set(1, 1, rimage.RGBA.Pack(200, 0, 0, 0)))

	tex, err := FromImage(heap.Global(), img, 1)
	require.NoError(t, err)
	px, err := tex.SampleNearest(1, 0, 0)
	require.NoError(t, err)
	r, _, _, _ := rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(200), r, "fully transparent texels must not darken the averaged color")
}
