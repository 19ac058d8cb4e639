// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/rimage"
)

func newTarget(t *testing.T, w, h int32) (rimage.Image[uint32], rimage.Image[float32]) {
	color, err := rimage.Create[uint32](heap.Global(), w, h, rimage.RGBA)
	require.NoError(t, err)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			require.NoError(t, color.Set(x, y, rimage.RGBA.Pack(0, 0, 0, 255)))
		}
	}
	depth, err := rimage.Create[float32](heap.Global(), w, h, rimage.RGBA)
	require.NoError(t, err)
	posInf := float32(math.Inf(1)) // matches "+Inf means no pixel written"
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			require.NoError(t, depth.Set(x, y, posInf))
		}
	}
	return color, depth
}

func flat(x, y float32) geom.FlatPoint {
	return geom.FlatFromVec2(geom.V2(x, y))
}

func solidRedTriangle() Triangle {
	red := geom.Vec4{X: 255, Y: 0, Z: 0, W: 255}
	return Triangle{V: [3]Vertex{
		{Flat: flat(10, 10), Depth: 1, InvW: 1, Color: red},
		{Flat: flat(90, 10), Depth: 1, InvW: 1, Color: red},
		{Flat: flat(50, 90), Depth: 1, InvW: 1, Color: red},
	}}
}

func TestSolidTriangleFillsInteriorPixel(t *testing.T) {
	color, depth := newTarget(t, 100, 100)
	bound := geom.RectFromSize(100, 100)
	require.NoError(t, Rasterize(solidRedTriangle(), Solid, color, depth, bound, nil))

	px, err := color.At(50, 50)
	require.NoError(t, err)
	r, g, b, a := rimage.RGBA.Unpack(px)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, [4]uint8{r, g, b, a})

	d, err := depth.At(50, 50)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-4)
}

func TestSolidTriangleLeavesOutsidePixelUntouched(t *testing.T) {
	color, depth := newTarget(t, 100, 100)
	bound := geom.RectFromSize(100, 100)
	require.NoError(t, Rasterize(solidRedTriangle(), Solid, color, depth, bound, nil))

	px, err := color.At(5, 5)
	require.NoError(t, err)
	r, g, b, a := rimage.RGBA.Unpack(px)
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, [4]uint8{r, g, b, a})
}

func TestDepthTestRejectsFartherTriangle(t *testing.T) {
	color, depth := newTarget(t, 100, 100)
	bound := geom.RectFromSize(100, 100)
	require.NoError(t, depth.Set(50, 50, 0.5)) // something nearer already there

	require.NoError(t, Rasterize(solidRedTriangle(), Solid, color, depth, bound, nil))
	px, err := color.At(50, 50)
	require.NoError(t, err)
	r, _, _, _ := rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(0), r, "the existing nearer depth must reject the new fragment")
}

func TestDegenerateTriangleIsSkipped(t *testing.T) {
	color, depth := newTarget(t, 20, 20)
	bound := geom.RectFromSize(20, 20)
	tri := Triangle{V: [3]Vertex{
		{Flat: flat(5, 5), Depth: 1, InvW: 1},
		{Flat: flat(5, 5), Depth: 1, InvW: 1},
		{Flat: flat(15, 15), Depth: 1, InvW: 1},
	}}
	assert.NoError(t, Rasterize(tri, Solid, color, depth, bound, nil))
}

func TestAlphaBlendMixesWithExistingColor(t *testing.T) {
	color, depth := newTarget(t, 20, 20)
	bound := geom.RectFromSize(20, 20)
	require.NoError(t, color.Set(10, 10, rimage.RGBA.Pack(0, 0, 255, 255)))

	halfWhite := geom.Vec4{X: 255, Y: 255, Z: 255, W: 128}
	tri := Triangle{V: [3]Vertex{
		{Flat: flat(0, 0), Depth: 1, InvW: 1, Color: halfWhite},
		{Flat: flat(19, 0), Depth: 1, InvW: 1, Color: halfWhite},
		{Flat: flat(0, 19), Depth: 1, InvW: 1, Color: halfWhite},
	}}
	require.NoError(t, Rasterize(tri, Alpha, color, depth, bound, nil))

	px, err := color.At(3, 3)
	require.NoError(t, err)
	r, _, b, _ := rimage.RGBA.Unpack(px)
	assert.Greater(t, r, uint8(0))
	assert.Less(t, b, uint8(255), "blue channel should mix with the black background, not take the source's full 255")
}

func TestPerspectiveDepthTestPrefersLargerInvZ(t *testing.T) {
	color, depth := newTarget(t, 20, 20)
	bound := geom.RectFromSize(20, 20)
	require.NoError(t, depth.Set(5, 5, 0.5)) // a nearer perspective fragment (larger invW) already there

	farther := Triangle{
		Perspective: true,
		V: [3]Vertex{
			{Flat: flat(0, 0), Depth: 0.2, InvW: 0.2, Color: geom.Vec4{X: 255, W: 255}},
			{Flat: flat(19, 0), Depth: 0.2, InvW: 0.2, Color: geom.Vec4{X: 255, W: 255}},
			{Flat: flat(0, 19), Depth: 0.2, InvW: 0.2, Color: geom.Vec4{X: 255, W: 255}},
		},
	}
	require.NoError(t, Rasterize(farther, Solid, color, depth, bound, nil))
	px, err := color.At(5, 5)
	require.NoError(t, err)
	r, _, _, _ := rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(0), r, "a smaller 1/z (farther under the perspective convention) must lose the depth test")

	nearer := Triangle{
		Perspective: true,
		V: [3]Vertex{
			{Flat: flat(0, 0), Depth: 0.8, InvW: 0.8, Color: geom.Vec4{X: 255, W: 255}},
			{Flat: flat(19, 0), Depth: 0.8, InvW: 0.8, Color: geom.Vec4{X: 255, W: 255}},
			{Flat: flat(0, 19), Depth: 0.8, InvW: 0.8, Color: geom.Vec4{X: 255, W: 255}},
		},
	}
	require.NoError(t, Rasterize(nearer, Solid, color, depth, bound, nil))
	px, err = color.At(5, 5)
	require.NoError(t, err)
	r, _, _, _ = rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(255), r, "a larger 1/z (nearer under the perspective convention) must win the depth test")
}

func TestAdjacentTrianglesShareEdgeWithoutGap(t *testing.T) {
	color, depth := newTarget(t, 20, 20)
	bound := geom.RectFromSize(20, 20)

	left := Triangle{V: [3]Vertex{
		{Flat: flat(0, 0), Depth: 1, InvW: 1, Color: geom.Vec4{X: 255, W: 255}},
		{Flat: flat(10, 0), Depth: 1, InvW: 1, Color: geom.Vec4{X: 255, W: 255}},
		{Flat: flat(0, 10), Depth: 1, InvW: 1, Color: geom.Vec4{X: 255, W: 255}},
	}}
	right := Triangle{V: [3]Vertex{
		{Flat: flat(10, 0), Depth: 1, InvW: 1, Color: geom.Vec4{Y: 255, W: 255}},
		{Flat: flat(10, 10), Depth: 1, InvW: 1, Color: geom.Vec4{Y: 255, W: 255}},
		{Flat: flat(0, 10), Depth: 1, InvW: 1, Color: geom.Vec4{Y: 255, W: 255}},
	}}
	require.NoError(t, Rasterize(left, Solid, color, depth, bound, nil))
	require.NoError(t, Rasterize(right, Solid, color, depth, bound, nil))

	total := 0
	for y := int32(0); y < 10; y++ {
		for x := int32(0); x < 10; x++ {
			px, err := color.At(x, y)
			require.NoError(t, err)
			r, g, _, _ := rimage.RGBA.Unpack(px)
			if r > 0 || g > 0 {
				total++
			}
		}
	}
	assert.Equal(t, 100, total, "every pixel in the shared square must be covered by one of the two triangles")
}
