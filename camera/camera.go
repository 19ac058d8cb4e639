// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"math"

	"github.com/dfpsr-go/dfpsr/geom"
)

// CullRatio magnifies the cull frustum slightly so rounding error near
// the image border never drops a pixel that should be kept (Camera.h: cullRatio).
const CullRatio = 1.0001

// ClipRatio magnifies the clip frustum so fewer triangles need splitting.
const ClipRatio = 2.0

// DefaultNearClip keeps perspective division away from zero.
const DefaultNearClip = 0.01

// DefaultFarClip is the default perspective far plane distance.
const DefaultFarClip = 1000.0

// ProjectedPoint is spec.md section 3's "Projected Point": camera space
// (needed to re-clip sub-triangles), floating image space (for weight
// computation), and sub-pixel integer coordinates for exact edge tests.
type ProjectedPoint struct {
	CameraSpace geom.Vec3
	ImageSpace  geom.Vec2
	Flat        geom.FlatPoint
}

// Camera is a rigid-body view plus a perspective or orthogonal
// projection (spec.md section 4.4), grounded on Camera.h's Camera class.
type Camera struct {
	Perspective bool
	Location    geom.Transform3D

	WidthSlope, HeightSlope       float32
	invWidthSlope, invHeightSlope float32
	ImageWidth, ImageHeight       float32
	NearClip, FarClip             float32

	CullFrustum ViewFrustum
	ClipFrustum ViewFrustum
}

// NewPerspective builds a perspective camera with the given horizontal
// field-of-view slope (Camera.h: createPerspective).
func NewPerspective(location geom.Transform3D, imageWidth, imageHeight, widthSlope, nearClip, farClip float32) Camera {
	heightSlope := widthSlope * imageHeight / imageWidth
	return Camera{
		Perspective:   true,
		Location:      location,
		WidthSlope:    widthSlope,
		HeightSlope:   heightSlope,
		invWidthSlope: 0.5 / widthSlope,
		invHeightSlope: 0.5 / heightSlope,
		ImageWidth:    imageWidth,
		ImageHeight:   imageHeight,
		NearClip:      nearClip,
		FarClip:       farClip,
		CullFrustum:   NewPerspectiveFrustum(nearClip, farClip, widthSlope*CullRatio, heightSlope*CullRatio),
		ClipFrustum:   NewPerspectiveFrustum(nearClip, farClip, widthSlope*ClipRatio, heightSlope*ClipRatio),
	}
}

// NewOrthogonal builds an orthogonal camera with no near/far clip
// (Camera.h: createOrthogonal).
func NewOrthogonal(location geom.Transform3D, imageWidth, imageHeight, halfWidth float32) Camera {
	halfHeight := halfWidth * imageHeight / imageWidth
	return Camera{
		Perspective:    false,
		Location:       location,
		WidthSlope:     halfWidth,
		HeightSlope:    halfHeight,
		invWidthSlope:  0.5 / halfWidth,
		invHeightSlope: 0.5 / halfHeight,
		ImageWidth:     imageWidth,
		ImageHeight:    imageHeight,
		NearClip:       float32(-math.MaxFloat32),
		FarClip:        float32(math.MaxFloat32),
		CullFrustum:    NewOrthogonalFrustum(halfWidth*CullRatio, halfHeight*CullRatio),
		ClipFrustum:    NewOrthogonalFrustum(halfWidth*ClipRatio, halfHeight*ClipRatio),
	}
}

// WorldToCamera converts a world-space point into camera space, using
// the inverse of the camera's rigid-body transform.
func (c Camera) WorldToCamera(worldSpace geom.Vec3) geom.Vec3 {
	return c.Location.TransformPointTransposedInverse(worldSpace)
}

// CameraToScreen projects a camera-space point to a ProjectedPoint: for
// perspective cameras x/y are divided by z with 1/z folded into the
// screen position's derivation; orthogonal cameras just scale
// (Camera.h: cameraToScreen).
func (c Camera) CameraToScreen(cameraSpace geom.Vec3) ProjectedPoint {
	if c.Perspective {
		var invDepth float32
		if cameraSpace.Z > 0 {
			invDepth = 1.0 / cameraSpace.Z
		}
		centerShear := cameraSpace.Z * 0.5
		preProjection := geom.V2(
			(cameraSpace.X*c.invWidthSlope+centerShear)*c.ImageWidth,
			(-cameraSpace.Y*c.invHeightSlope+centerShear)*c.ImageHeight,
		)
		imageSpace := preProjection.Scale(invDepth)
		return ProjectedPoint{
			CameraSpace: cameraSpace,
			ImageSpace:  imageSpace,
			Flat:        geom.FlatFromVec2(imageSpace),
		}
	}
	imageSpace := geom.V2(
		(cameraSpace.X*c.invWidthSlope+0.5)*c.ImageWidth,
		(-cameraSpace.Y*c.invHeightSlope+0.5)*c.ImageHeight,
	)
	return ProjectedPoint{
		CameraSpace: cameraSpace,
		ImageSpace:  imageSpace,
		Flat:        geom.FlatFromVec2(imageSpace),
	}
}

// WorldToScreen composes WorldToCamera and CameraToScreen.
func (c Camera) WorldToScreen(worldSpace geom.Vec3) ProjectedPoint {
	return c.CameraToScreen(c.WorldToCamera(worldSpace))
}

// FrustumPlaneCount returns the active plane count of the clip or cull frustum.
func (c Camera) FrustumPlaneCount(clipping bool) int32 {
	if clipping {
		return c.ClipFrustum.PlaneCount()
	}
	return c.CullFrustum.PlaneCount()
}

// FrustumPlane returns one plane of the clip or cull frustum, in camera space.
func (c Camera) FrustumPlane(sideIndex int32, clipping bool) geom.Plane3D {
	if clipping {
		return c.ClipFrustum.Plane(sideIndex)
	}
	return c.CullFrustum.Plane(sideIndex)
}

// IsBoxSeen conservatively tests an axis-aligned model-space bounding
// box against the cull frustum by projecting its 8 corners into camera
// space (Camera.h: isBoxSeen).
func (c Camera) IsBoxSeen(minBound, maxBound geom.Vec3, modelToWorld geom.Transform3D) Visibility {
	corners := [8]geom.Vec3{
		{X: minBound.X, Y: minBound.Y, Z: minBound.Z},
		{X: maxBound.X, Y: minBound.Y, Z: minBound.Z},
		{X: minBound.X, Y: maxBound.Y, Z: minBound.Z},
		{X: maxBound.X, Y: maxBound.Y, Z: minBound.Z},
		{X: minBound.X, Y: minBound.Y, Z: maxBound.Z},
		{X: maxBound.X, Y: minBound.Y, Z: maxBound.Z},
		{X: minBound.X, Y: maxBound.Y, Z: maxBound.Z},
		{X: maxBound.X, Y: maxBound.Y, Z: maxBound.Z},
	}
	cameraSpace := make([]geom.Vec3, 8)
	for i, corner := range corners {
		cameraSpace[i] = c.WorldToCamera(modelToWorld.TransformPoint(corner))
	}
	return c.CullFrustum.IsConvexHullSeen(cameraSpace)
}
