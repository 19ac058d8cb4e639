// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdqueue

import (
	"golang.org/x/sync/errgroup"

	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/raster"
	"github.com/dfpsr-go/dfpsr/rimage"
)

// TileRows is the row-alignment granularity tiles are cut on, matching
// the rasterizer's own 2-row SIMD alignment (spec.md section 4.8).
const TileRows = 2

// Command is spec.md section 3's "Triangle Draw Command": a fully
// resolved rasterizer triangle plus the blend filter, clip bound, and a
// mutable occluded flag the command queue's completion pass sets.
type Command struct {
	Triangle  raster.Triangle
	Filter    raster.Filter
	ClipBound geom.IRect
	Occluded  bool
	Shader    raster.Shader
}

// Queue is the append-only draw command buffer spec.md section 4.8
// describes: add appends, clear resets length to zero while keeping the
// backing array for reuse.
type Queue struct {
	commands []Command
}

// Add appends a command to the queue.
func (q *Queue) Add(cmd Command) {
	q.commands = append(q.commands, cmd)
}

// Len returns the number of queued commands.
func (q *Queue) Len() int { return len(q.commands) }

// Clear resets the queue to empty without releasing its backing array,
// so the next frame's Add calls reuse the same memory (spec.md: "clear()
// resets length to zero (memory reused)").
func (q *Queue) Clear() {
	q.commands = q.commands[:0]
}

// At returns the command at index i, for the occlusion completion pass
// to mutate its Occluded flag in place.
func (q *Queue) At(i int) *Command { return &q.commands[i] }

// RunOcclusionPass marks every command whose triangle is fully hidden
// by grid as occluded, so Execute's rasterization pass can skip it
// (spec.md section 4.7, "Completion pass").
func (q *Queue) RunOcclusionPass(grid OcclusionGrid) error {
	for i := range q.commands {
		cmd := &q.commands[i]
		minDepth := minTriangleDepth(cmd.Triangle)
		occluded, err := grid.IsOccluded(cmd.Triangle.PixelBounds(), minDepth)
		if err != nil {
			return err
		}
		cmd.Occluded = occluded
	}
	return nil
}

// minTriangleDepth returns tri's nearest vertex depth expressed in
// OcclusionGrid's "larger is farther" convention: orthogonal vertex
// depth already satisfies that, perspective vertex depth is 1/z (where
// farther is numerically smaller) and must be negated first (see
// OcclusionGrid's doc comment).
func minTriangleDepth(tri raster.Triangle) float32 {
	min := gridDepth(tri.V[0].Depth, tri.Perspective)
	for i := 1; i < 3; i++ {
		d := gridDepth(tri.V[i].Depth, tri.Perspective)
		if d < min {
			min = d
		}
	}
	return min
}

func gridDepth(rawDepth float32, perspective bool) float32 {
	if perspective {
		return -rawDepth
	}
	return rawDepth
}

// Execute partitions colorImg/depthImg into horizontal tiles and
// rasterizes every non-occluded command overlapping each tile's row
// range, running at most jobCount tiles at a time on worker goroutines
// (spec.md section 4.8).
// jobCount == 1 disables parallelism. Within a tile, commands are
// rasterized in insertion order so depth-buffer writes are
// deterministic; tiles never overlap so overall output is deterministic
// too, regardless of goroutine scheduling.
func (q *Queue) Execute(colorImg rimage.Image[uint32], depthImg rimage.Image[float32], clipBound geom.IRect, jobCount int) error {
	if jobCount < 1 {
		jobCount = 1
	}
	tiles := partitionRows(clipBound, jobCount)

	if jobCount == 1 {
		for _, tile := range tiles {
			if err := q.runTile(colorImg, depthImg, tile); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(jobCount)
	for _, tile := range tiles {
		tile := tile
		g.Go(func() error {
			return q.runTile(colorImg, depthImg, tile)
		})
	}
	return g.Wait()
}

func (q *Queue) runTile(colorImg rimage.Image[uint32], depthImg rimage.Image[float32], tile geom.IRect) error {
	for i := range q.commands {
		cmd := &q.commands[i]
		if cmd.Occluded {
			continue
		}
		minY, maxY := cmd.Triangle.PixelYRange()
		if maxY < tile.Top || minY >= tile.Bottom() {
			continue
		}
		overlap := geom.Cut(tile, cmd.ClipBound)
		if !overlap.HasArea() {
			overlap = tile
		}
		if err := raster.Rasterize(cmd.Triangle, cmd.Filter, colorImg, depthImg, overlap, cmd.Shader); err != nil {
			return err
		}
	}
	return nil
}

// partitionRows splits bound's row range into contiguous, 2-row-aligned
// tiles of about Height/jobCount rows each, never fewer than TileRows,
// so there can be more tiles than workers (spec.md: "Partition the image into horizontal
// tiles by Y (each tile is a contiguous block of rows aligned to 2)").
func partitionRows(bound geom.IRect, jobCount int) []geom.IRect {
	if !bound.HasArea() {
		return nil
	}
	totalRows := bound.Height
	rowsPerTile := int32(totalRows) / int32(jobCount)
	if rowsPerTile < TileRows {
		rowsPerTile = TileRows
	}
	rowsPerTile -= rowsPerTile % TileRows
	if rowsPerTile == 0 {
		rowsPerTile = TileRows
	}

	var tiles []geom.IRect
	top := bound.Top
	for top < bound.Bottom() {
		height := rowsPerTile
		if top+height > bound.Bottom() {
			height = bound.Bottom() - top
		}
		tiles = append(tiles, geom.IRect{Left: bound.Left, Top: top, Width: bound.Width, Height: height})
		top += rowsPerTile
	}
	return tiles
}
