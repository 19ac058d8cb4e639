// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model implements spec.md section 4.9: a Model owns a shared
// position array and a list of Parts, each holding polygons (triangles
// or quads) that index into the shared positions. Grounded on
// original_source/Source/DFPSR/api/modelAPI.h's Model/Part/Polygon
// split (position array shared across parts, per-part texture and
// filter, per-polygon vertex attributes) and adapted onto this module's
// camera/clip/raster/cmdqueue packages for the render step.
package model

import (
	"github.com/chewxy/math32"

	"github.com/dfpsr-go/dfpsr/camera"
	"github.com/dfpsr-go/dfpsr/clip"
	"github.com/dfpsr-go/dfpsr/cmdqueue"
	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/raster"
	"github.com/dfpsr-go/dfpsr/texture"
)

// Shader selects which textures a part's fragments sample, matching
// spec.md section 6's DMF1 `Shader[0]` tag.
type Shader int

const (
	// ShaderFlatColor uses only interpolated vertex color.
	ShaderFlatColor Shader = iota
	// ShaderDiffuse1Tex multiplies vertex color by one diffuse texture sampled at UV1.
	ShaderDiffuse1Tex
	// ShaderDiffuse2Tex multiplies vertex color by a diffuse texture at UV1 and a light texture at UV2.
	ShaderDiffuse2Tex
)

// Polygon is a triangle (Count == 3) or quad (Count == 4) referencing
// shared positions by index, with per-vertex UV and color (spec.md:
// "Adding a polygon stores indices into positions[] and per-vertex
// tex-coords and colors").
type Polygon struct {
	Count   int
	Indices [4]int
	UV1     [4]geom.Vec2
	UV2     [4]geom.Vec2
	Colors  [4]geom.Vec4
}

// Part is one shading group of a Model: its own polygons, textures,
// shader, filter and mip detail range (spec.md section 6, per-part
// DMF1 properties).
type Part struct {
	Name           string
	Filter         raster.Filter
	ShaderKind     Shader
	DiffuseTexture *texture.Texture
	LightTexture   *texture.Texture
	// TextureNames holds the texture file names a loader (e.g. package
	// dmf) recorded for later resource-pool lookup, indexed the same
	// way DMF1's Texture[i] property is (spec.md §8 scenario S6: "the
	// diffuse texture name is recorded for lookup by resource pool").
	TextureNames   []string
	MinDetailLevel uint32
	MaxDetailLevel uint32
	Polygons       []Polygon
}

// AddTriangle appends a 3-vertex polygon indexing into the owning
// Model's shared positions.
func (p *Part) AddTriangle(indices [3]int, uv1, uv2 [3]geom.Vec2, colors [3]geom.Vec4) {
	poly := Polygon{Count: 3}
	for i := 0; i < 3; i++ {
		poly.Indices[i] = indices[i]
		poly.UV1[i] = uv1[i]
		poly.UV2[i] = uv2[i]
		poly.Colors[i] = colors[i]
	}
	p.Polygons = append(p.Polygons, poly)
}

// AddQuad appends a 4-vertex polygon; render splits it into two
// triangles sharing the 0-2 diagonal (spec.md: "quads become two
// triangles sharing an edge").
func (p *Part) AddQuad(indices [4]int, uv1, uv2 [4]geom.Vec2, colors [4]geom.Vec4) {
	poly := Polygon{Count: 4}
	for i := 0; i < 4; i++ {
		poly.Indices[i] = indices[i]
		poly.UV1[i] = uv1[i]
		poly.UV2[i] = uv2[i]
		poly.Colors[i] = colors[i]
	}
	p.Polygons = append(p.Polygons, poly)
}

// Model owns the shared position array and every Part that indexes
// into it (spec.md: "Model owns a shared positions[] and parts[]").
type Model struct {
	positions []geom.Vec3
	parts     []Part
	minBound  geom.Vec3
	maxBound  geom.Vec3
	hasBound  bool
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// AddPoint appends a new position unconditionally and returns its
// index, extending the model's bounding box (spec.md invariant: "the
// bounding box of a model contains every point currently in it").
func (m *Model) AddPoint(p geom.Vec3) int {
	index := len(m.positions)
	m.positions = append(m.positions, p)
	m.growBounds(p)
	return index
}

// AddPointDeduplicated returns the index of an existing position within
// threshold of p, or appends p and returns its new index if none is
// close enough (spec.md: "optionally deduplicates against existing
// points within a Euclidean threshold, returning the earliest matching
// index"). Deliberately linear: spec.md's open question on this is
// silent on scale, and model construction is not a hot path.
func (m *Model) AddPointDeduplicated(p geom.Vec3, threshold float32) int {
	thresholdSq := threshold * threshold
	for i, existing := range m.positions {
		if existing.Sub(p).Dot(existing.Sub(p)) <= thresholdSq {
			return i
		}
	}
	return m.AddPoint(p)
}

func (m *Model) growBounds(p geom.Vec3) {
	if !m.hasBound {
		m.minBound, m.maxBound = p, p
		m.hasBound = true
		return
	}
	m.minBound = geom.V3(min32(m.minBound.X, p.X), min32(m.minBound.Y, p.Y), min32(m.minBound.Z, p.Z))
	m.maxBound = geom.V3(max32(m.maxBound.X, p.X), max32(m.maxBound.Y, p.Y), max32(m.maxBound.Z, p.Z))
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// PointCount returns the number of shared positions.
func (m *Model) PointCount() int { return len(m.positions) }

// Point returns the position at index i.
func (m *Model) Point(i int) geom.Vec3 { return m.positions[i] }

// Bounds returns the model's axis-aligned bounding box. hasPoints is
// false for an empty model.
func (m *Model) Bounds() (min, max geom.Vec3, hasPoints bool) {
	return m.minBound, m.maxBound, m.hasBound
}

// AddPart appends and returns a pointer to a new, empty part.
func (m *Model) AddPart(name string) *Part {
	m.parts = append(m.parts, Part{Name: name})
	return &m.parts[len(m.parts)-1]
}

// PartCount returns the number of parts.
func (m *Model) PartCount() int { return len(m.parts) }

// Part returns a pointer to the i'th part.
func (m *Model) Part(i int) *Part { return &m.parts[i] }

type projected struct {
	cameraSpace geom.Vec3
	screen      camera.ProjectedPoint
}

// Render projects every shared position once, then for each part's
// polygons issues one or two cmdqueue.Command triangles against queue,
// clipping in floating-point camera space against cam's clip frustum
// where needed (spec.md: "project each point once, then for each polygon
// issue triangles... as commands"). modelToWorld places the model in
// world space; clipBound restricts where the resulting commands may draw.
// Corners are handed to the rasterizer in reverse order, so a polygon
// whose corners run counter-clockwise as seen from the camera (x right,
// y up) is front-facing and the opposite winding is culled.
func Render(m *Model, cam camera.Camera, modelToWorld geom.Transform3D, clipBound geom.IRect, queue *cmdqueue.Queue) {
	points := make([]projected, len(m.positions))
	for i, p := range m.positions {
		cs := cam.WorldToCamera(modelToWorld.TransformPoint(p))
		points[i] = projected{cameraSpace: cs, screen: cam.CameraToScreen(cs)}
	}

	for pi := range m.parts {
		part := &m.parts[pi]
		for _, poly := range part.Polygons {
			if poly.Count == 4 {
				emitTriangle(part, cam, points, queue, clipBound,
					[3]int{0, 2, 1}, poly)
				emitTriangle(part, cam, points, queue, clipBound,
					[3]int{0, 3, 2}, poly)
			} else {
				emitTriangle(part, cam, points, queue, clipBound,
					[3]int{0, 2, 1}, poly)
			}
		}
	}
}

// emitTriangle issues one cmdqueue.Command for the triangle formed by
// poly's corners at local indices corner[0..2], clipping it first if
// any of its points lie outside the clip frustum.
func emitTriangle(part *Part, cam camera.Camera, points []projected, queue *cmdqueue.Queue, clipBound geom.IRect, corner [3]int, poly Polygon) {
	i0, i1, i2 := poly.Indices[corner[0]], poly.Indices[corner[1]], poly.Indices[corner[2]]
	a, b, c := points[i0].cameraSpace, points[i1].cameraSpace, points[i2].cameraSpace

	level := mipLevelForTriangle(points[i0].screen, points[i1].screen, points[i2].screen, poly, corner)
	shader := shaderFor(part, level)

	if !clip.NeedsClipping(cam.ClipFrustum, a, b, c) {
		v0 := vertexFromPoly(points[i0].screen, poly, corner[0], cam.Perspective)
		v1 := vertexFromPoly(points[i1].screen, poly, corner[1], cam.Perspective)
		v2 := vertexFromPoly(points[i2].screen, poly, corner[2], cam.Perspective)
		queue.Add(cmdqueue.Command{
			Triangle:  raster.Triangle{V: [3]raster.Vertex{v0, v1, v2}, Perspective: cam.Perspective},
			Filter:    part.Filter,
			ClipBound: clipBound,
			Shader:    shader,
		})
		return
	}

	for _, sub := range clip.ClipTriangle(cam, cam.ClipFrustum, a, b, c) {
		var v [3]raster.Vertex
		subB := [3]float32{sub.SubB.X, sub.SubB.Y, sub.SubB.Z}
		subC := [3]float32{sub.SubC.X, sub.SubC.Y, sub.SubC.Z}
		for k := 0; k < 3; k++ {
			wB, wC := subB[k], subC[k]
			wA := 1 - wB - wC
			v[k] = vertexFromWeights(sub.Points[k], poly, corner, wA, wB, wC, cam.Perspective)
		}
		queue.Add(cmdqueue.Command{
			Triangle:  raster.Triangle{V: v, Perspective: cam.Perspective},
			Filter:    part.Filter,
			ClipBound: clipBound,
			Shader:    shader,
		})
	}
}

func vertexFromPoly(sp camera.ProjectedPoint, poly Polygon, local int, perspective bool) raster.Vertex {
	return buildVertex(sp, poly.Colors[local], poly.UV1[local], poly.UV2[local], perspective)
}

// vertexFromWeights recombines a sub-triangle corner's original-vertex
// barycentric weights (wA, wB, wC against the unclipped triangle's three
// corners) into interpolated color and UV, the way
// clip.SubTriangle.SubB/SubC are documented to be used.
func vertexFromWeights(sp camera.ProjectedPoint, poly Polygon, corner [3]int, wA, wB, wC float32, perspective bool) raster.Vertex {
	ca, cb, cc := poly.Colors[corner[0]], poly.Colors[corner[1]], poly.Colors[corner[2]]
	color := geom.Vec4{
		X: ca.X*wA + cb.X*wB + cc.X*wC,
		Y: ca.Y*wA + cb.Y*wB + cc.Y*wC,
		Z: ca.Z*wA + cb.Z*wB + cc.Z*wC,
		W: ca.W*wA + cb.W*wB + cc.W*wC,
	}
	uv1a, uv1b, uv1c := poly.UV1[corner[0]], poly.UV1[corner[1]], poly.UV1[corner[2]]
	uv2a, uv2b, uv2c := poly.UV2[corner[0]], poly.UV2[corner[1]], poly.UV2[corner[2]]
	uv1 := geom.Vec2{X: uv1a.X*wA + uv1b.X*wB + uv1c.X*wC, Y: uv1a.Y*wA + uv1b.Y*wB + uv1c.Y*wC}
	uv2 := geom.Vec2{X: uv2a.X*wA + uv2b.X*wB + uv2c.X*wC, Y: uv2a.Y*wA + uv2b.Y*wB + uv2c.Y*wC}
	return buildVertex(sp, color, uv1, uv2, perspective)
}

// buildVertex picks the depth-buffer convention spec.md section 6
// requires: orthogonal cameras store linear camera-space z, perspective
// cameras store 1/z (the same value used as the projective correction
// factor InvW).
func buildVertex(sp camera.ProjectedPoint, color geom.Vec4, uv1, uv2 geom.Vec2, perspective bool) raster.Vertex {
	depth := sp.CameraSpace.Z
	invW := float32(1)
	if perspective {
		if sp.CameraSpace.Z > 0 {
			invW = 1 / sp.CameraSpace.Z
		}
		depth = invW
	}
	return raster.Vertex{
		Flat:  sp.Flat,
		Depth: depth,
		InvW:  invW,
		Color: color,
		UV:    [2]geom.Vec2{uv1, uv2},
	}
}

// mipLevelForTriangle estimates one mip level for an entire triangle
// from the ratio of its UV1-space area to its screen-space pixel area
// (spec.md section 4.3: "optionally bilinear between the two nearest
// mip levels" assumes a caller picks a level per draw; a per-triangle
// area ratio is the cheapest level selection that still shrinks as the
// triangle recedes, short of a per-pixel UV derivative the rasterizer
// does not carry).
func mipLevelForTriangle(s0, s1, s2 camera.ProjectedPoint, poly Polygon, corner [3]int) uint32 {
	screenArea := triangleArea2(s0.ImageSpace, s1.ImageSpace, s2.ImageSpace)
	if screenArea <= 0 {
		return 0
	}
	uv0, uv1, uv2 := poly.UV1[corner[0]], poly.UV1[corner[1]], poly.UV1[corner[2]]
	uvArea := triangleArea2(uv0, uv1, uv2)
	ratio := uvArea / screenArea
	if ratio <= 1 {
		return 0
	}
	level := math32.Log2(ratio) * 0.5
	if level < 0 {
		return 0
	}
	return uint32(level)
}

func triangleArea2(a, b, c geom.Vec2) float32 {
	return math32.Abs((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
}

func shaderFor(part *Part, level uint32) raster.Shader {
	switch part.ShaderKind {
	case ShaderDiffuse1Tex:
		tex := part.DiffuseTexture
		return func(f raster.Fragment) geom.Vec4 {
			if tex == nil {
				return f.Color
			}
			r, g, b, a, err := tex.SampleBilinear(level, f.UV[0].X, f.UV[0].Y)
			if err != nil {
				return f.Color
			}
			return modulate(f.Color, r, g, b, a)
		}
	case ShaderDiffuse2Tex:
		diffuse, light := part.DiffuseTexture, part.LightTexture
		return func(f raster.Fragment) geom.Vec4 {
			out := f.Color
			if diffuse != nil {
				r, g, b, a, err := diffuse.SampleBilinear(level, f.UV[0].X, f.UV[0].Y)
				if err == nil {
					out = modulate(out, r, g, b, a)
				}
			}
			if light != nil {
				r, g, b, a, err := light.SampleBilinear(level, f.UV[1].X, f.UV[1].Y)
				if err == nil {
					out = modulate(out, r, g, b, a)
				}
			}
			return out
		}
	default:
		return func(f raster.Fragment) geom.Vec4 { return f.Color }
	}
}

func modulate(c geom.Vec4, r, g, b, a float32) geom.Vec4 {
	const inv255 = 1.0 / 255.0
	return geom.Vec4{
		X: c.X * r * inv255,
		Y: c.Y * g * inv255,
		Z: c.Z * b * inv255,
		W: c.W * a * inv255,
	}
}
