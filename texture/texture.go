// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texture implements the mip-mapped RGBA-U8 pyramid of spec.md
// section 4.3, grounded on
// original_source/Source/DFPSR/implementation/image/Texture.h's layout
// (log2 dimensions, packed-from-smallest-level start offset, bitwise
// tiling masks) with mip generation and bilinear sampling filled in from
// spec.md's prose description, since Texture.h only declares the
// layout and defers pyramid construction to a translation unit not in
// the filtered source set.
package texture

import (
	"github.com/chewxy/math32"

	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/internal/derr"
	"github.com/dfpsr-go/dfpsr/rimage"
)

// MaxMipLevelCount mirrors DSR_MIP_LEVEL_COUNT: the ceiling on how many
// mip levels a single texture may hold, independent of its size.
const MaxMipLevelCount = 16

// Texture is a power-of-two RGBA-U8 image plus all of its mip levels,
// packed back-to-back from smallest level to largest (spec.md section 3).
type Texture struct {
	buf rimage.Image[uint32] // a 1-D buffer addressed as a single row of pixels

	log2Width    uint32
	log2Height   uint32
	maxMipLevel  uint32
	startOffset  uint32
	maxLevelMask uint32

	minWidthOrMask   uint32
	minHeightOrMask  uint32
	maxWidthAndMask  uint32
	maxHeightAndMask uint32

	order rimage.PackOrder
}

func ilog2(v int32) (uint32, bool) {
	if v <= 0 || v&(v-1) != 0 {
		return 0, false
	}
	n := uint32(0)
	for v > 1 {
		v >>= 1
		n++
	}
	return n, true
}

// FromImage builds a full mip pyramid from a power-of-two RGBA source
// image: the source is copied into the largest mip level, and each
// smaller level is a 2x2 box filter of the level above, alpha-weighted
// so premultiplied color does not darken toward transparent edges
// (spec.md section 4.3).
func FromImage(arena *heap.Arena, source rimage.Image[uint32], maxMipLevel uint32) (Texture, error) {
	log2w, ok := ilog2(source.Width)
	if !ok {
		return Texture{}, derr.Newf(derr.UnsupportedFormat, "texture width %d is not a power of two", source.Width).WithRegion("texture.FromImage")
	}
	log2h, ok := ilog2(source.Height)
	if !ok {
		return Texture{}, derr.Newf(derr.UnsupportedFormat, "texture height %d is not a power of two", source.Height).WithRegion("texture.FromImage")
	}
	if maxMipLevel >= MaxMipLevelCount {
		maxMipLevel = MaxMipLevelCount - 1
	}
	if uint32(log2w) < maxMipLevel || uint32(log2h) < maxMipLevel {
		maxMipLevel = min32u(log2w, log2h)
	}

	highestLevelPixels := uint32(1) << (log2w + log2h)
	var pixelCount uint64
	levelPixels := highestLevelPixels
	for level := int32(maxMipLevel); level >= 0; level-- {
		pixelCount |= uint64(levelPixels)
		levelPixels >>= 2
	}

	startOffset := uint32(pixelCount) &^ highestLevelPixels
	tex := Texture{
		log2Width:        log2w,
		log2Height:       log2h,
		maxMipLevel:      maxMipLevel,
		startOffset:      startOffset,
		maxLevelMask:     highestLevelPixels - 1,
		minWidthOrMask:   (uint32(1) << (log2w - maxMipLevel)) - 1,
		minHeightOrMask:  (uint32(1) << (log2h - maxMipLevel)) - 1,
		maxWidthAndMask:  (uint32(1) << log2w) - 1,
		maxHeightAndMask: (uint32(1) << log2h) - 1,
		order:            source.PackOrder,
	}

	buf, err := rimage.Create[uint32](arena, int32(pixelCount), 1, source.PackOrder)
	if err != nil {
		return Texture{}, err
	}
	tex.buf = buf

	if err := tex.copyBaseLevel(source); err != nil {
		return Texture{}, err
	}
	if err := tex.buildMips(); err != nil {
		return Texture{}, err
	}
	return tex, nil
}

func min32u(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func (t Texture) levelDims(level uint32) (w, h int32) {
	return int32(uint32(1) << (t.log2Width - level)), int32(uint32(1) << (t.log2Height - level))
}

// levelOffset returns the pixel index of level's first texel within the
// flat buffer. Levels are packed from smallest to largest, so a level
// starts right after the texels of every smaller level and the largest
// level (0) sits at startOffset.
func (t Texture) levelOffset(level uint32) uint32 {
	var offset uint32
	for l := level + 1; l <= t.maxMipLevel; l++ {
		offset += uint32(1) << (t.log2Width + t.log2Height - 2*l)
	}
	return offset
}

func (t Texture) copyBaseLevel(source rimage.Image[uint32]) error {
	offset := t.levelOffset(0)
	for y := int32(0); y < source.Height; y++ {
		for x := int32(0); x < source.Width; x++ {
			px, err := source.At(x, y)
			if err != nil {
				return err
			}
			if err := t.buf.Set(int32(offset)+y*source.Width+x, 0, px); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t Texture) buildMips() error {
	for level := uint32(1); level <= t.maxMipLevel; level++ {
		srcW, srcH := t.levelDims(level - 1)
		dstW, dstH := t.levelDims(level)
		srcOffset := int32(t.levelOffset(level - 1))
		dstOffset := int32(t.levelOffset(level))
		for y := int32(0); y < dstH; y++ {
			for x := int32(0); x < dstW; x++ {
				px, err := t.boxFilter2x2(srcOffset, srcW, srcH, x*2, y*2)
				if err != nil {
					return err
				}
				if err := t.buf.Set(dstOffset+y*dstW+x, 0, px); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// boxFilter2x2 averages the four texels at (x,y)..(x+1,y+1) within the
// source level, weighting color by alpha so a fully transparent texel
// never darkens the color of its opaque neighbors (spec.md section 4.3:
// "color channels are mean over alpha-weight to avoid dark halos").
func (t Texture) boxFilter2x2(srcOffset, srcW, srcH, x, y int32) (uint32, error) {
	var rSum, gSum, bSum, aSum float32
	for dy := int32(0); dy < 2; dy++ {
		for dx := int32(0); dx < 2; dx++ {
			sx, sy := x+dx, y+dy
			if sx >= srcW {
				sx = srcW - 1
			}
			if sy >= srcH {
				sy = srcH - 1
			}
			px, err := t.buf.At(srcOffset+sy*srcW+sx, 0)
			if err != nil {
				return 0, err
			}
			r, g, b, a := t.order.Unpack(px)
			weight := float32(a)
			rSum += float32(r) * weight
			gSum += float32(g) * weight
			bSum += float32(b) * weight
			aSum += weight
		}
	}
	var r, g, b uint8
	if aSum > 0 {
		r = uint8(rSum/aSum + 0.5)
		g = uint8(gSum/aSum + 0.5)
		b = uint8(bSum/aSum + 0.5)
	}
	a := uint8(aSum/4 + 0.5)
	return t.order.Pack(r, g, b, a), nil
}

// MaxMipLevel returns the highest valid mip index for this texture.
func (t Texture) MaxMipLevel() uint32 { return t.maxMipLevel }

// clampLevel enforces spec.md section 8: "requesting a mip level
// greater than maxMipLevel clamps to maxMipLevel".
func (t Texture) clampLevel(level uint32) uint32 {
	if level > t.maxMipLevel {
		return t.maxMipLevel
	}
	return level
}

// texelCoord tiles an integer pixel coordinate into the given level's
// own width/height, repeating past the edge (spec.md section 4.3:
// "Integer coordinates are tiled ... repeat by bitmask"). The stored
// maxWidthAndMask/minWidthOrMask pair only bounds the two pyramid
// extremes in the source layout (Texture.h declares no per-level
// derivation), so tiling here works directly in the request level's own
// power-of-two space, which is equivalent for every level actually
// present in the pyramid.
func (t Texture) texelCoord(level uint32, ix, iy int32) (int32, int32) {
	w, h := t.levelDims(level)
	return wrapPow2(ix, w), wrapPow2(iy, h)
}

func wrapPow2(v, size int32) int32 {
	m := v % size
	if m < 0 {
		m += size
	}
	return m
}

// SampleNearest reads the nearest texel at the given mip level for
// tiled integer coordinates.
func (t Texture) SampleNearest(level uint32, ix, iy int32) (uint32, error) {
	level = t.clampLevel(level)
	w, _ := t.levelDims(level)
	tx, ty := t.texelCoord(level, ix, iy)
	offset := int32(t.levelOffset(level))
	return t.buf.At(offset+ty*w+tx, 0)
}

// SampleBilinear reads four neighboring texels at floating UV (in pixel
// units of the given level) and blends them, matching spec.md's
// "optionally bilinear between the two nearest mip levels" for the
// within-level component of that blend.
func (t Texture) SampleBilinear(level uint32, u, v float32) (r, g, b, a float32, err error) {
	level = t.clampLevel(level)
	fx := math32.Floor(u - 0.5)
	fy := math32.Floor(v - 0.5)
	tx0, ty0 := int32(fx), int32(fy)
	wx := (u - 0.5) - fx
	wy := (v - 0.5) - fy

	p00, err := t.SampleNearest(level, tx0, ty0)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	p10, err := t.SampleNearest(level, tx0+1, ty0)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	p01, err := t.SampleNearest(level, tx0, ty0+1)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	p11, err := t.SampleNearest(level, tx0+1, ty0+1)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	blend := func(p uint32) (float32, float32, float32, float32) {
		cr, cg, cb, ca := t.order.Unpack(p)
		return float32(cr), float32(cg), float32(cb), float32(ca)
	}
	r00, g00, b00, a00 := blend(p00)
	r10, g10, b10, a10 := blend(p10)
	r01, g01, b01, a01 := blend(p01)
	r11, g11, b11, a11 := blend(p11)

	lerp := func(a0, a1, t float32) float32 { return a0 + (a1-a0)*t }
	top := func(a, b float32) float32 { return lerp(a, b, wx) }

	r = lerp(top(r00, r10), top(r01, r11), wy)
	g = lerp(top(g00, g10), top(g01, g11), wy)
	b = lerp(top(b00, b10), top(b01, b11), wy)
	a = lerp(top(a00, a10), top(a01, a11), wy)
	return r, g, b, a, nil
}

// Release drops this texture's reference to its backing allocation.
func (t Texture) Release() { t.buf.Release() }
