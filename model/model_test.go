// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfpsr-go/dfpsr/camera"
	"github.com/dfpsr-go/dfpsr/cmdqueue"
	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/raster"
	"github.com/dfpsr-go/dfpsr/rimage"
)

func TestAddPointGrowsBounds(t *testing.T) {
	m := New()
	m.AddPoint(geom.V3(1, 2, 3))
	m.AddPoint(geom.V3(-1, 5, 0))
	min, max, has := m.Bounds()
	require.True(t, has)
	assert.Equal(t, geom.V3(-1, 2, 0), min)
	assert.Equal(t, geom.V3(1, 5, 3), max)
}

func TestAddPointDeduplicatedReturnsEarliestMatch(t *testing.T) {
	m := New()
	first := m.AddPoint(geom.V3(0, 0, 0))
	dup := m.AddPointDeduplicated(geom.V3(0.001, 0, 0), 0.01)
	assert.Equal(t, first, dup)
	assert.Equal(t, 1, m.PointCount(), "a near-duplicate point must not grow the position array")
}

func TestAddPointDeduplicatedAppendsWhenFarEnough(t *testing.T) {
	m := New()
	m.AddPoint(geom.V3(0, 0, 0))
	second := m.AddPointDeduplicated(geom.V3(10, 0, 0), 0.01)
	assert.Equal(t, 1, second)
	assert.Equal(t, 2, m.PointCount())
}

func TestPartAddQuadSplitsIntoTwoTrianglesOnRender(t *testing.T) {
	m := New()
	i0 := m.AddPoint(geom.V3(-1, -1, 0))
	i1 := m.AddPoint(geom.V3(1, -1, 0))
	i2 := m.AddPoint(geom.V3(1, 1, 0))
	i3 := m.AddPoint(geom.V3(-1, 1, 0))

	part := m.AddPart("quad")
	part.Filter = raster.Solid
	white := geom.Vec4{X: 255, Y: 255, Z: 255, W: 255}
	part.AddQuad([4]int{i0, i1, i2, i3},
		[4]geom.Vec2{}, [4]geom.Vec2{},
		[4]geom.Vec4{white, white, white, white})

	cam := camera.NewOrthogonal(geom.IdentityTransform3D(), 64, 64, 2)
	var queue cmdqueue.Queue
	Render(m, cam, geom.IdentityTransform3D(), geom.RectFromSize(64, 64), &queue)

	assert.Equal(t, 2, queue.Len(), "a quad must render as exactly two triangle commands")
}

func TestRenderFillsOrthogonalTriangle(t *testing.T) {
	m := New()
	i0 := m.AddPoint(geom.V3(-1, -1, 0))
	i1 := m.AddPoint(geom.V3(1, -1, 0))
	i2 := m.AddPoint(geom.V3(0, 1, 0))

	part := m.AddPart("tri")
	part.Filter = raster.Solid
	red := geom.Vec4{X: 255, Y: 0, Z: 0, W: 255}
	part.AddTriangle([3]int{i0, i1, i2}, [3]geom.Vec2{}, [3]geom.Vec2{}, [3]geom.Vec4{red, red, red})

	cam := camera.NewOrthogonal(geom.IdentityTransform3D(), 64, 64, 2)
	var queue cmdqueue.Queue
	Render(m, cam, geom.IdentityTransform3D(), geom.RectFromSize(64, 64), &queue)
	require.Equal(t, 1, queue.Len())

	color, err := rimage.Create[uint32](heap.Global(), 64, 64, rimage.RGBA)
	require.NoError(t, err)
	depth, err := rimage.Create[float32](heap.Global(), 64, 64, rimage.RGBA)
	require.NoError(t, err)
	for y := int32(0); y < 64; y++ {
		for x := int32(0); x < 64; x++ {
			require.NoError(t, depth.Set(x, y, 1e30))
		}
	}
	require.NoError(t, queue.Execute(color, depth, geom.RectFromSize(64, 64), 1))

	px, err := color.At(32, 40)
	require.NoError(t, err)
	r, _, _, _ := rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(255), r, "the triangle's interior must be filled with the part's solid red")
}

func TestRenderClipsTriangleCrossingFrustum(t *testing.T) {
	m := New()
	i0 := m.AddPoint(geom.V3(-5, 0, 2))
	i1 := m.AddPoint(geom.V3(5, 0, 2))
	i2 := m.AddPoint(geom.V3(0, 0, -2))

	part := m.AddPart("spanning")
	part.Filter = raster.Solid
	white := geom.Vec4{X: 255, Y: 255, Z: 255, W: 255}
	part.AddTriangle([3]int{i0, i1, i2}, [3]geom.Vec2{}, [3]geom.Vec2{}, [3]geom.Vec4{white, white, white})

	cam := camera.NewPerspective(geom.IdentityTransform3D(), 64, 64, 1, 0.1, 100)
	var queue cmdqueue.Queue
	Render(m, cam, geom.IdentityTransform3D(), geom.RectFromSize(64, 64), &queue)

	assert.Greater(t, queue.Len(), 0, "a triangle crossing the near plane must still produce clipped sub-triangle commands")
}
