// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package camera implements spec.md section 4.4: world-to-camera and
// camera-to-screen projection plus the cull/clip view frustums, grounded
// directly on
// original_source/Source/DFPSR/implementation/render/Camera.h.
package camera

import "github.com/dfpsr-go/dfpsr/geom"

// Named plane indices within a ViewFrustum, matching Camera.h's
// view_left..view_far constants.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneTop
	PlaneBottom
	PlaneNear
	PlaneFar
)

// Visibility is the three-valued result of a conservative hull test.
type Visibility int

const (
	// NotVisible means every tested point fell outside the same plane.
	NotVisible Visibility = iota
	// PartiallyVisible means the hull straddles at least one plane.
	PartiallyVisible
	// FullyVisible means every tested point is inside every plane.
	FullyVisible
)

// ViewFrustum is a convex set of up to 6 half-spaces in camera space.
type ViewFrustum struct {
	planes     [6]geom.Plane3D
	planeCount int32
}

// NewOrthogonalFrustum builds the 4-plane side frustum orthogonal
// cameras use (no near/far clip).
func NewOrthogonalFrustum(halfWidth, halfHeight float32) ViewFrustum {
	var f ViewFrustum
	f.planeCount = 4
	f.planes[PlaneLeft] = geom.Plane3D{Normal: geom.V3(-1, 0, 0), Offset: halfWidth}
	f.planes[PlaneRight] = geom.Plane3D{Normal: geom.V3(1, 0, 0), Offset: halfWidth}
	f.planes[PlaneTop] = geom.Plane3D{Normal: geom.V3(0, 1, 0), Offset: halfHeight}
	f.planes[PlaneBottom] = geom.Plane3D{Normal: geom.V3(0, -1, 0), Offset: halfHeight}
	return f
}

// NewPerspectiveFrustum builds the 5- or 6-plane frustum perspective
// cameras use, skipping the far plane when farClip is +Inf.
func NewPerspectiveFrustum(nearClip, farClip, widthSlope, heightSlope float32) ViewFrustum {
	var f ViewFrustum
	f.planes[PlaneLeft] = geom.Plane3D{Normal: geom.V3(-1, 0, -widthSlope), Offset: 0}
	f.planes[PlaneRight] = geom.Plane3D{Normal: geom.V3(1, 0, -widthSlope), Offset: 0}
	f.planes[PlaneTop] = geom.Plane3D{Normal: geom.V3(0, 1, -heightSlope), Offset: 0}
	f.planes[PlaneBottom] = geom.Plane3D{Normal: geom.V3(0, -1, -heightSlope), Offset: 0}
	f.planes[PlaneNear] = geom.Plane3D{Normal: geom.V3(0, 0, -1), Offset: -nearClip}
	if isInf(farClip) {
		f.planeCount = 5
	} else {
		f.planes[PlaneFar] = geom.Plane3D{Normal: geom.V3(0, 0, 1), Offset: farClip}
		f.planeCount = 6
	}
	return f
}

func isInf(v float32) bool {
	return v > 3.4e38 // the sentinel createOrthogonal/createPerspective's infinite far clip uses
}

// PlaneCount returns how many planes are active in this frustum.
func (f ViewFrustum) PlaneCount() int32 { return f.planeCount }

// Plane returns the sideIndex'th active plane.
func (f ViewFrustum) Plane(sideIndex int32) geom.Plane3D { return f.planes[sideIndex] }

// IsConvexHullSeen is the conservative point-cloud test from Camera.h:
// 0 if every point falls outside one common plane (hull cannot be
// visible), 2 if every plane has every point inside (certainly
// visible), 1 otherwise (ambiguous — may or may not be visible).
func (f ViewFrustum) IsConvexHullSeen(points []geom.Vec3) Visibility {
	anyOutside := false
	for s := int32(0); s < f.planeCount; s++ {
		plane := f.planes[s]
		anyInside := false
		for _, p := range points {
			if plane.Inside(p) {
				anyInside = true
			} else {
				anyOutside = true
			}
		}
		if !anyInside {
			return NotVisible
		}
	}
	if anyOutside {
		return PartiallyVisible
	}
	return FullyVisible
}
