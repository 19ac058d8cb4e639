// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfpsr-go/dfpsr/camera"
	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/internal/derr"
	"github.com/dfpsr-go/dfpsr/internal/engineconfig"
	"github.com/dfpsr-go/dfpsr/model"
	"github.com/dfpsr-go/dfpsr/raster"
	"github.com/dfpsr-go/dfpsr/rimage"
)

func newBuffers(t *testing.T, w, h int32) (rimage.Image[uint32], rimage.Image[float32]) {
	color, err := rimage.Create[uint32](heap.Global(), w, h, rimage.RGBA)
	require.NoError(t, err)
	depth, err := rimage.Create[float32](heap.Global(), w, h, rimage.RGBA)
	require.NoError(t, err)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			require.NoError(t, depth.Set(x, y, 1e30))
		}
	}
	return color, depth
}

func TestReceivingMethodsFailInIdleState(t *testing.T) {
	r := New(1)
	cam := camera.NewOrthogonal(geom.IdentityTransform3D(), 10, 10, 1)
	_, err := r.IsBoxVisible(geom.V3(0, 0, 0), geom.V3(1, 1, 1), geom.IdentityTransform3D(), cam)
	require.Error(t, err)
	de, ok := err.(*derr.Error)
	require.True(t, ok)
	assert.Equal(t, derr.WrongState, de.Kind)

	err = r.OccludeFromBox(geom.V3(0, 0, 0), geom.V3(1, 1, 1), geom.IdentityTransform3D(), cam)
	require.Error(t, err)

	err = r.End(false)
	require.Error(t, err)
}

func TestNewFromSettingsHonorsDisableMultiThreading(t *testing.T) {
	r := NewFromSettings(engineconfig.Settings{JobCount: 8, DisableMultiThreading: true})
	assert.Equal(t, 1, r.jobCount)
}

func TestBeginRejectsMismatchedBufferSizes(t *testing.T) {
	r := New(1)
	color, _ := newBuffers(t, 40, 40)
	_, depth := newBuffers(t, 20, 20)
	err := r.Begin(color, depth)
	require.Error(t, err)
	de, ok := err.(*derr.Error)
	require.True(t, ok)
	assert.Equal(t, derr.SizeMismatch, de.Kind)
}

func TestBeginEndRoundTripReturnsToIdleWithEmptyQueue(t *testing.T) {
	r := New(1)
	color, depth := newBuffers(t, 32, 32)
	require.NoError(t, r.Begin(color, depth))
	assert.Equal(t, Receiving, r.State())
	require.NoError(t, r.End(false))
	assert.Equal(t, Idle, r.State())
	assert.Equal(t, 0, r.queue.Len(), "end must leave the command buffer empty")
}

func TestGiveTaskWithNilModelIsSilentlyIgnored(t *testing.T) {
	r := New(1)
	color, depth := newBuffers(t, 32, 32)
	require.NoError(t, r.Begin(color, depth))
	require.NoError(t, r.GiveTask(nil, camera.NewOrthogonal(geom.IdentityTransform3D(), 32, 32, 1), geom.IdentityTransform3D()))
	assert.Equal(t, 0, r.queue.Len())
	require.NoError(t, r.End(false))
}

func TestGiveTaskThenEndRastersSolidTriangle(t *testing.T) {
	r := New(1)
	color, depth := newBuffers(t, 64, 64)
	require.NoError(t, r.Begin(color, depth))

	m := model.New()
	i0 := m.AddPoint(geom.V3(-1, -1, 0))
	i1 := m.AddPoint(geom.V3(1, -1, 0))
	i2 := m.AddPoint(geom.V3(0, 1, 0))
	part := m.AddPart("tri")
	part.Filter = raster.Solid
	blue := geom.Vec4{Z: 255, W: 255}
	part.AddTriangle([3]int{i0, i1, i2}, [3]geom.Vec2{}, [3]geom.Vec2{}, [3]geom.Vec4{blue, blue, blue})

	cam := camera.NewOrthogonal(geom.IdentityTransform3D(), 64, 64, 2)
	require.NoError(t, r.GiveTask(m, cam, geom.IdentityTransform3D()))
	require.Greater(t, r.queue.Len(), 0)
	require.NoError(t, r.End(false))

	px, err := color.At(32, 40)
	require.NoError(t, err)
	_, _, b, _ := rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(255), b)

	_, calls := r.DispatchStats()
	assert.Equal(t, 1, calls, "End must record exactly one dispatch interval")
}

func TestOccludeFromBoxHidesLaterIsBoxVisibleQuery(t *testing.T) {
	r := New(1)
	color, depth := newBuffers(t, 64, 64)
	require.NoError(t, r.Begin(color, depth))

	cam := camera.NewOrthogonal(geom.IdentityTransform3D(), 64, 64, 32)
	identity := geom.IdentityTransform3D()

	require.NoError(t, r.OccludeFromBox(geom.V3(-32, -32, 1), geom.V3(32, 32, 5), identity, cam))
	assert.Len(t, r.DebugOverlay(), 1)

	visible, err := r.IsBoxVisible(geom.V3(-32, -32, 10), geom.V3(32, 32, 12), identity, cam)
	require.NoError(t, err)
	assert.False(t, visible, "a box entirely behind a covering occluder box must read as not visible")

	nearer, err := r.IsBoxVisible(geom.V3(-32, -32, -5), geom.V3(32, 32, -1), identity, cam)
	require.NoError(t, err)
	assert.True(t, nearer, "a box entirely in front of the occluder box must still read as visible")

	require.NoError(t, r.End(false))
}

func TestOccludeFromExistingTrianglesHidesLaterTriangle(t *testing.T) {
	r := New(1)
	color, depth := newBuffers(t, 64, 64)
	require.NoError(t, r.Begin(color, depth))

	m := model.New()
	i0 := m.AddPoint(geom.V3(-2, -2, 0))
	i1 := m.AddPoint(geom.V3(2, -2, 0))
	i2 := m.AddPoint(geom.V3(2, 2, 0))
	i3 := m.AddPoint(geom.V3(-2, 2, 0))
	coveringPart := m.AddPart("covering")
	coveringPart.Filter = raster.Solid
	white := geom.Vec4{X: 255, Y: 255, Z: 255, W: 255}
	coveringPart.AddQuad([4]int{i0, i1, i2, i3}, [4]geom.Vec2{}, [4]geom.Vec2{}, [4]geom.Vec4{white, white, white, white})

	cam := camera.NewOrthogonal(geom.IdentityTransform3D(), 64, 64, 4)
	require.NoError(t, r.GiveTask(m, cam, geom.IdentityTransform3D()))
	require.NoError(t, r.OccludeFromExistingTriangles())

	behind := model.New()
	j0 := behind.AddPoint(geom.V3(-1, -1, 5))
	j1 := behind.AddPoint(geom.V3(1, -1, 5))
	j2 := behind.AddPoint(geom.V3(0, 1, 5))
	behindPart := behind.AddPart("behind")
	behindPart.Filter = raster.Solid
	red := geom.Vec4{X: 255, W: 255}
	behindPart.AddTriangle([3]int{j0, j1, j2}, [3]geom.Vec2{}, [3]geom.Vec2{}, [3]geom.Vec4{red, red, red})
	require.NoError(t, r.GiveTask(behind, cam, geom.IdentityTransform3D()))

	require.NoError(t, r.End(false))

	px, err := color.At(32, 38)
	require.NoError(t, err)
	red8, _, _, _ := rimage.RGBA.Unpack(px)
	assert.Equal(t, uint8(255), red8, "the covering white quad must still be visible")
}
