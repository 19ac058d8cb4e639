// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import "github.com/dfpsr-go/dfpsr/geom"

// ConvexHull is a 2D screen-space convex polygon, produced by
// JarvisMarch, used to conservatively test which occlusion-grid cells a
// projected 3D box (or other occluder) fully covers (rendererAPI.cpp:
// jarvisConvexHullAlgorithm).
type ConvexHull struct {
	Corners []ProjectedPoint
}

func counterClockwise(p, q, r ProjectedPoint) bool {
	return (q.Flat.Y-p.Flat.Y)*(r.Flat.X-q.Flat.X)-(q.Flat.X-p.Flat.X)*(r.Flat.Y-q.Flat.Y) < 0
}

// JarvisMarch gift-wraps points into their 2D convex hull in screen
// space (rendererAPI.cpp: jarvisConvexHullAlgorithm). Fewer than 3
// points are returned unchanged, matching the source's precondition-free
// shortcut.
func JarvisMarch(points []ProjectedPoint) ConvexHull {
	if len(points) < 3 {
		return ConvexHull{Corners: append([]ProjectedPoint(nil), points...)}
	}
	l := 0
	for i := 1; i < len(points); i++ {
		if points[i].Flat.X < points[l].Flat.X {
			l = i
		}
	}
	out := make([]ProjectedPoint, 0, len(points))
	p := l
	for {
		if len(out) >= len(points) {
			// Guards against an infinite loop on degenerate input, matching the source.
			break
		}
		out = append(out, points[p])
		q := (p + 1) % len(points)
		for i := range points {
			if counterClockwise(points[p], points[i], points[q]) {
				q = i
			}
		}
		p = q
		if p == l {
			break
		}
	}
	return ConvexHull{Corners: out}
}

func pointInsideOfEdge(edgeA, edgeB, point geom.FlatPoint) bool {
	edgeDirX := edgeB.Y - edgeA.Y
	edgeDirY := edgeA.X - edgeB.X
	relX := point.X - edgeA.X
	relY := point.Y - edgeA.Y
	return edgeDirX*relX+edgeDirY*relY <= 0
}

// ContainsPoint reports whether p falls inside every edge of h
// (rendererAPI.cpp: pointInsideOfHull). h's corners must already be
// wound consistently by JarvisMarch.
func (h ConvexHull) ContainsPoint(p geom.FlatPoint) bool {
	n := len(h.Corners)
	for c := 0; c < n; c++ {
		nc := c + 1
		if nc == n {
			nc = 0
		}
		if !pointInsideOfEdge(h.Corners[c].Flat, h.Corners[nc].Flat, p) {
			return false
		}
	}
	return true
}

// ContainsRect reports whether every corner of the sub-pixel rectangle
// [left,top]-[right,bottom] is inside h (rendererAPI.cpp:
// rectangleInsideOfHull).
func (h ConvexHull) ContainsRect(left, top, right, bottom geom.FixedPoint) bool {
	return h.ContainsPoint(geom.FlatPoint{X: left, Y: top}) &&
		h.ContainsPoint(geom.FlatPoint{X: right, Y: top}) &&
		h.ContainsPoint(geom.FlatPoint{X: left, Y: bottom}) &&
		h.ContainsPoint(geom.FlatPoint{X: right, Y: bottom})
}

// PixelBounds returns the integer pixel bounding box of h's corners
// (rendererAPI.cpp: getPixelBoundFromProjection).
func (h ConvexHull) PixelBounds() geom.IRect {
	if len(h.Corners) == 0 {
		return geom.IRect{}
	}
	first := h.Corners[0]
	bound := geom.IRect{Left: first.Flat.X.Floor(), Top: first.Flat.Y.Floor(), Width: 1, Height: 1}
	for _, c := range h.Corners[1:] {
		bound = geom.Merge(bound, geom.IRect{Left: c.Flat.X.Floor(), Top: c.Flat.Y.Floor(), Width: 1, Height: 1})
	}
	return bound
}

// ProjectBoxCorners transforms and projects the 8 corners of the
// axis-aligned box [minBound,maxBound] through modelToWorld and c, ready
// for JarvisMarch (rendererAPI.cpp: projectHull/GENERATE_BOX_CORNERS).
// ok is false if any corner fails the cull frustum test, the same
// conservative bail-out the source uses to avoid a degenerate hull from
// near-plane wraparound.
func (c Camera) ProjectBoxCorners(minBound, maxBound geom.Vec3, modelToWorld geom.Transform3D) (corners [8]ProjectedPoint, ok bool) {
	local := [8]geom.Vec3{
		geom.V3(minBound.X, minBound.Y, minBound.Z),
		geom.V3(minBound.X, minBound.Y, maxBound.Z),
		geom.V3(minBound.X, maxBound.Y, minBound.Z),
		geom.V3(minBound.X, maxBound.Y, maxBound.Z),
		geom.V3(maxBound.X, minBound.Y, minBound.Z),
		geom.V3(maxBound.X, minBound.Y, maxBound.Z),
		geom.V3(maxBound.X, maxBound.Y, minBound.Z),
		geom.V3(maxBound.X, maxBound.Y, maxBound.Z),
	}
	for i, corner := range local {
		cs := c.WorldToCamera(modelToWorld.TransformPoint(corner))
		narrow := geom.V3(cs.X*0.5, cs.Y*0.5, cs.Z)
		for s := int32(0); s < c.CullFrustum.PlaneCount(); s++ {
			if !c.CullFrustum.Plane(s).Inside(narrow) {
				return corners, false
			}
		}
		corners[i] = c.CameraToScreen(cs)
	}
	return corners, true
}
