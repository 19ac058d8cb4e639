// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdqueue implements spec.md sections 4.7 and 4.8: an
// occlusion grid of coarse cell depths, an append-only draw command
// queue, and a tile-parallel executor built on
// golang.org/x/sync/errgroup, grounded on the fan-out pattern in
// _examples/gioui-gio/cmd/gio/gio.go's use of errgroup.Group for
// independent build tasks.
package cmdqueue

import (
	"math"

	"github.com/dfpsr-go/dfpsr/camera"
	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/rimage"
)

// CellSize is the occlusion grid's cell edge length in pixels (spec.md
// section 3: "16x16 cells").
const CellSize = 16

// OcclusionGrid is an aligned grid of per-cell maximum depths. It always
// works in the "larger is farther" direction regardless of the owning
// camera's projection (spec.md section 4.7, and section 9's open
// question on depth convention: "implementers must pick one convention
// per grid-population function and document it"). Orthogonal camera
// depths (linear z) already satisfy this. Perspective camera depths
// are 1/z, where farther is numerically smaller; the renderer negates
// them (passes -1/z) before populating or querying the grid, the same
// inversion spec.md notes the source applies in occludeFromTopRows.
type OcclusionGrid struct {
	cells rimage.Image[float32]
	// depthTolerance widens the occluded test so float rounding never
	// hides a triangle that is really coplanar with its occluder.
	depthTolerance float32
}

// NewOcclusionGrid allocates a grid covering an imageWidth x
// imageHeight target, cleared to -Inf (nothing occludes anything yet).
func NewOcclusionGrid(arena *heap.Arena, imageWidth, imageHeight int32) (OcclusionGrid, error) {
	cols := ceilDiv(imageWidth, CellSize)
	rows := ceilDiv(imageHeight, CellSize)
	cells, err := rimage.Create[float32](arena, cols, rows, rimage.RGBA)
	if err != nil {
		return OcclusionGrid{}, err
	}
	g := OcclusionGrid{cells: cells, depthTolerance: 0.001}
	for y := int32(0); y < rows; y++ {
		for x := int32(0); x < cols; x++ {
			if err := cells.Set(x, y, negInf); err != nil {
				return OcclusionGrid{}, err
			}
		}
	}
	return g, nil
}

func ceilDiv(v, d int32) int32 {
	if v <= 0 {
		return 0
	}
	return (v + d - 1) / d
}

var negInf = float32(math.Inf(-1))

// Columns and Rows report the grid's cell dimensions.
func (g OcclusionGrid) Columns() int32 { return g.cells.Width }
func (g OcclusionGrid) Rows() int32    { return g.cells.Height }

// cellBoundsForPixels converts a pixel-space rectangle into the
// inclusive range of cells it overlaps.
func cellBoundsForPixels(bound geom.IRect) (x0, y0, x1, y1 int32) {
	x0 = bound.Left / CellSize
	y0 = bound.Top / CellSize
	x1 = (bound.Right() - 1) / CellSize
	y1 = (bound.Bottom() - 1) / CellSize
	return
}

// WriteMaxDepth raises cell (cx,cy)'s stored depth to depth if depth is
// farther under the grid's depth convention (spec.md: "write
// max(existing, max_corner_depth)").
func (g OcclusionGrid) WriteMaxDepth(cx, cy int32, depth float32) error {
	if cx < 0 || cy < 0 || cx >= g.Columns() || cy >= g.Rows() {
		return nil
	}
	old, err := g.cells.At(cx, cy)
	if err != nil {
		return err
	}
	if depth > old {
		return g.cells.Set(cx, cy, depth)
	}
	return nil
}

// occludeFromPixelRect populates the grid from an already pixel-projected,
// axis-aligned bounding rectangle and its corners' maximum depth: every
// cell fully inside pixelBound gets max(existing, maxCornerDepth). This
// is the cheap approximation spec.md's "Existing triangles" occluder
// uses, where the occluder's own screen-space bound is already a tight
// axis-aligned rectangle.
func (g OcclusionGrid) occludeFromPixelRect(pixelBound geom.IRect, maxCornerDepth float32) error {
	x0, y0, x1, y1 := cellBoundsForPixels(pixelBound)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if !cellFullyInside(cx, cy, pixelBound) {
				continue
			}
			if err := g.WriteMaxDepth(cx, cy, maxCornerDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellFullyInside(cx, cy int32, bound geom.IRect) bool {
	left, top := cx*CellSize, cy*CellSize
	right, bottom := left+CellSize, top+CellSize
	return left >= bound.Left && top >= bound.Top && right <= bound.Right() && bottom <= bound.Bottom()
}

// OccludeFromTriangle treats an already-queued solid triangle as an
// occluder using its screen-space bounding rectangle (spec.md section
// 4.7, "Existing triangles").
func (g OcclusionGrid) OccludeFromTriangle(pixelBound geom.IRect, maxCornerDepth float32) error {
	return g.occludeFromPixelRect(pixelBound, maxCornerDepth)
}

// OccludeFromHull populates the grid from a projected 2D convex hull
// (built by camera.JarvisMarch from a box's 8 projected corners) and its
// corners' maximum depth: every cell fully inside the hull gets
// max(existing, maxCornerDepth) (spec.md section 4.7, "Box" —
// rendererAPI.cpp's occludeFromBox/occludeFromSortedHull, tested exactly
// against the hull rather than its axis-aligned bound, since a box's
// screen silhouette is rarely axis-aligned once projected).
func (g OcclusionGrid) OccludeFromHull(hull camera.ConvexHull, maxCornerDepth float32) error {
	if len(hull.Corners) < 3 {
		return nil
	}
	x0, y0, x1, y1 := cellBoundsForPixels(hull.PixelBounds())
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			left := geom.FixedPoint(cx*CellSize) * geom.UnitsPerPixel
			top := geom.FixedPoint(cy*CellSize) * geom.UnitsPerPixel
			right := geom.FixedPoint((cx+1)*CellSize) * geom.UnitsPerPixel
			bottom := geom.FixedPoint((cy+1)*CellSize) * geom.UnitsPerPixel
			if !hull.ContainsRect(left, top, right, bottom) {
				continue
			}
			if err := g.WriteMaxDepth(cx, cy, maxCornerDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

// OccludeFromTopRow raises cell (cx, 0), in the grid's top cell row, to
// depth (spec.md section 4.7, "Top rows" — valid only when the caller
// guarantees lower rows are never farther, e.g. a flat ground plane).
// Only cell row 0 is written; cells in lower rows are left unchanged.
func (g OcclusionGrid) OccludeFromTopRow(cx int32, depth float32) error {
	return g.WriteMaxDepth(cx, 0, depth)
}

// IsBoxVisible reports whether a box could be seen: it returns false only
// when every occlusion cell overlapping pixelBound has a stored depth
// strictly nearer than nearestCornerDepth — then the box lies behind the
// occluders in every cell it overlaps (spec.md section 4.7,
// "is_box_visible"). A cell nothing has been written to (still -Inf)
// keeps the box visible.
func (g OcclusionGrid) IsBoxVisible(pixelBound geom.IRect, nearestCornerDepth float32) (bool, error) {
	x0, y0, x1, y1 := cellBoundsForPixels(pixelBound)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if cx < 0 || cy < 0 || cx >= g.Columns() || cy >= g.Rows() {
				continue
			}
			stored, err := g.cells.At(cx, cy)
			if err != nil {
				return false, err
			}
			if stored == negInf || !(stored < nearestCornerDepth) {
				return true, nil
			}
		}
	}
	return false, nil
}

// IsOccluded reports whether every cell overlapping pixelBound has a
// stored depth at least depthTolerance nearer than minDepth (spec.md
// section 4.7, "Completion pass"). A cell nothing has been written to
// (still -Inf) never occludes.
func (g OcclusionGrid) IsOccluded(pixelBound geom.IRect, minDepth float32) (bool, error) {
	x0, y0, x1, y1 := cellBoundsForPixels(pixelBound)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if cx < 0 || cy < 0 || cx >= g.Columns() || cy >= g.Rows() {
				return false, nil
			}
			stored, err := g.cells.At(cx, cy)
			if err != nil {
				return false, err
			}
			if stored == negInf || !(minDepth >= stored+g.depthTolerance) {
				return false, nil
			}
		}
	}
	return true, nil
}

// Release drops this grid's reference to its backing allocation.
func (g OcclusionGrid) Release() { g.cells.Release() }
