// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clip implements the floating-point view-frustum clipper of
// spec.md section 4.6: triangles with a vertex outside the clip
// frustum are split, in camera space, against each violated plane
// before projection and rasterization. The filtered original source
// only carries the frustum planes themselves
// (original_source/Source/DFPSR/implementation/render/Camera.h); the
// clipping algorithm here is Sutherland-Hodgman polygon clipping
// fan-triangulated back into triangles, the standard technique the
// spec's prose describes ("progressively split against each violated
// plane").
package clip

import (
	"github.com/dfpsr-go/dfpsr/camera"
	"github.com/dfpsr-go/dfpsr/geom"
)

// vertex is a clip-space point carrying the barycentric weight (in the
// original triangle's A,B,C basis) that produced it, so attributes can
// still be recovered after splitting without per-sub-triangle duplication.
type vertex struct {
	cs   geom.Vec3
	bary geom.Vec3
}

// SubTriangle is one post-clip triangle ready for projection and
// rasterization. SubB[i]/SubC[i] is how much of the original triangle's
// B and C corners contribute to this sub-triangle's i'th corner; the
// shader recovers the original vertex weights at any rasterized pixel
// by taking the same combination of the rasterizer's own barycentric
// weights (spec.md section 3, "Triangle Draw Command").
type SubTriangle struct {
	Points [3]camera.ProjectedPoint
	SubB   geom.Vec3
	SubC   geom.Vec3
}

// NeedsClipping reports whether a, b, c must be split before
// rasterization: true iff any corner lies outside the camera's clip
// frustum (spec.md: "Triangles outside the clip frustum are
// floating-point-subdivided before rasterization").
func NeedsClipping(frustum camera.ViewFrustum, a, b, c geom.Vec3) bool {
	for _, p := range [3]geom.Vec3{a, b, c} {
		for s := int32(0); s < frustum.PlaneCount(); s++ {
			if !frustum.Plane(s).Inside(p) {
				return true
			}
		}
	}
	return false
}

// ClipTriangle splits a, b, c (in camera space) against every plane of
// frustum and projects the resulting sub-triangles with cam. Returns
// nil if the triangle is clipped away entirely.
func ClipTriangle(cam camera.Camera, frustum camera.ViewFrustum, a, b, c geom.Vec3) []SubTriangle {
	poly := []vertex{
		{cs: a, bary: geom.V3(1, 0, 0)},
		{cs: b, bary: geom.V3(0, 1, 0)},
		{cs: c, bary: geom.V3(0, 0, 1)},
	}
	for s := int32(0); s < frustum.PlaneCount(); s++ {
		poly = clipAgainstPlane(poly, frustum.Plane(s))
		if len(poly) == 0 {
			return nil
		}
	}
	if len(poly) < 3 {
		return nil
	}

	triangles := make([]SubTriangle, 0, len(poly)-2)
	for i := 1; i < len(poly)-1; i++ {
		v0, v1, v2 := poly[0], poly[i], poly[i+1]
		triangles = append(triangles, SubTriangle{
			Points: [3]camera.ProjectedPoint{
				cam.CameraToScreen(v0.cs),
				cam.CameraToScreen(v1.cs),
				cam.CameraToScreen(v2.cs),
			},
			SubB: geom.V3(v0.bary.Y, v1.bary.Y, v2.bary.Y),
			SubC: geom.V3(v0.bary.Z, v1.bary.Z, v2.bary.Z),
		})
	}
	return triangles
}

// clipAgainstPlane is one Sutherland-Hodgman pass: it walks poly's
// edges and keeps the portion on the inside of plane, inserting an
// interpolated vertex at every edge that crosses it.
func clipAgainstPlane(poly []vertex, plane geom.Plane3D) []vertex {
	if len(poly) == 0 {
		return nil
	}
	out := make([]vertex, 0, len(poly)+1)
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		next := poly[(i+1)%n]
		curIn := plane.Inside(cur.cs)
		nextIn := plane.Inside(next.cs)
		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := intersectParam(plane, cur.cs, next.cs)
			out = append(out, vertex{
				cs:   lerpVec3(cur.cs, next.cs, t),
				bary: lerpVec3(cur.bary, next.bary, t),
			})
		}
	}
	return out
}

// intersectParam finds t in [0,1] where the segment from a to b crosses plane.
func intersectParam(plane geom.Plane3D, a, b geom.Vec3) float32 {
	da := plane.SignedDistance(a)
	db := plane.SignedDistance(b)
	denom := da - db
	if denom == 0 {
		return 0
	}
	return da / denom
}

func lerpVec3(a, b geom.Vec3, t float32) geom.Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}
