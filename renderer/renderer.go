// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package renderer implements spec.md section 4.10: the Renderer API's
// Idle/Receiving lifecycle state machine, wrapping cmdqueue, model, and
// the occlusion grid behind the begin/occludeFrom*/giveTask/isBoxVisible/
// end surface described there. Grounded on
// original_source/Source/DFPSR/api/rendererAPI.h's renderer_begin /
// renderer_giveTask / renderer_end free-function API, adapted into a
// single opaque handle type the way the teacher wraps stateful
// subsystems (e.g. gpu.GPU) behind one struct with lifecycle methods.
package renderer

import (
	"time"

	"github.com/dfpsr-go/dfpsr/base/timer"
	"github.com/dfpsr-go/dfpsr/camera"
	"github.com/dfpsr-go/dfpsr/cmdqueue"
	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/internal/derr"
	"github.com/dfpsr-go/dfpsr/internal/engineconfig"
	"github.com/dfpsr-go/dfpsr/model"
	"github.com/dfpsr-go/dfpsr/raster"
	"github.com/dfpsr-go/dfpsr/rimage"
)

// State is the renderer's lifecycle state (spec.md section 4.10).
type State int

const (
	Idle State = iota
	Receiving
)

// Renderer is the opaque render-target handle spec.md section 4.10
// describes: begin binds a color/depth pair, giveTask and the
// occlude* methods accumulate work while Receiving, end dispatches and
// resets back to Idle.
type Renderer struct {
	state     State
	jobCount  int
	colorImg  rimage.Image[uint32]
	depthImg  rimage.Image[float32]
	clipBound geom.IRect
	grid      cmdqueue.OcclusionGrid
	queue     cmdqueue.Queue
	debugBox  []geom.IRect
	dispatch  timer.Time
}

// New returns an Idle renderer that dispatches tile work across
// jobCount goroutines (jobCount <= 1 disables parallelism, matching
// spec.md section 5's DISABLE_MULTI_THREADING).
func New(jobCount int) *Renderer {
	if jobCount < 1 {
		jobCount = 1
	}
	return &Renderer{jobCount: jobCount}
}

// NewFromSettings returns an Idle renderer sized by s.EffectiveJobCount,
// so a caller driven by engineconfig.Load/LoadFile doesn't need to
// re-derive the DISABLE_MULTI_THREADING override itself.
func NewFromSettings(s engineconfig.Settings) *Renderer {
	return New(s.EffectiveJobCount())
}

func wrongState(op string) error {
	return derr.New(derr.WrongState, "renderer operation called outside its required lifecycle state").WithRegion("renderer." + op)
}

// Begin binds colorImg and/or depthImg and moves the renderer from
// Idle to Receiving. At least one of the two must be non-null; if both
// are given they must agree on dimensions (spec.md: "begin asserts
// that color and depth buffers agree on dimensions (or exactly one
// exists)").
func (r *Renderer) Begin(colorImg rimage.Image[uint32], depthImg rimage.Image[float32]) error {
	if r.state != Idle {
		return wrongState("begin")
	}
	if !colorImg.IsNull() && !depthImg.IsNull() {
		if colorImg.Width != depthImg.Width || colorImg.Height != depthImg.Height {
			return derr.New(derr.SizeMismatch, "color and depth buffers have different dimensions").WithRegion("renderer.begin")
		}
	}

	width, height := colorImg.Width, colorImg.Height
	if colorImg.IsNull() {
		width, height = depthImg.Width, depthImg.Height
	}

	grid, err := cmdqueue.NewOcclusionGrid(heap.Global(), width, height)
	if err != nil {
		return err
	}

	r.colorImg = colorImg
	r.depthImg = depthImg
	r.clipBound = geom.RectFromSize(width, height)
	r.grid = grid
	r.queue.Clear()
	r.debugBox = r.debugBox[:0]
	r.state = Receiving
	return nil
}

// OccludeFromBox feeds an already-known opaque world-space box into the
// occlusion grid so later giveTask calls can skip work hidden behind it
// (spec.md section 4.7/4.10, "occludeFromBox"): the box's 8 corners are
// transformed by modelToWorld and projected by cam, wrapped into a 2D
// convex hull (camera.JarvisMarch), and every grid cell the hull fully
// covers is marked at the hull's farthest corner depth
// (rendererAPI.cpp: occludeFromBox). A corner failing the cull frustum
// test conservatively skips occlusion for this box entirely, the same
// bail-out the source uses.
func (r *Renderer) OccludeFromBox(minBound, maxBound geom.Vec3, modelToWorld geom.Transform3D, cam camera.Camera) error {
	if r.state != Receiving {
		return wrongState("occludeFromBox")
	}
	corners, ok := cam.ProjectBoxCorners(minBound, maxBound, modelToWorld)
	if !ok {
		return nil
	}
	hull := camera.JarvisMarch(corners[:])
	if len(hull.Corners) < 3 {
		return nil
	}
	r.debugBox = append(r.debugBox, hull.PixelBounds())
	return r.grid.OccludeFromHull(hull, farthestCornerDepth(cam.Perspective, hull.Corners))
}

// farthestCornerDepth converts a hull's camera-space corners into the
// occlusion grid's "larger is farther" convention, the same conversion
// farthestVertexDepth performs for a rasterized triangle's vertices:
// orthogonal depth is the largest raw z, perspective depth is the
// negated smallest 1/z.
func farthestCornerDepth(perspective bool, corners []camera.ProjectedPoint) float32 {
	if !perspective {
		max := corners[0].CameraSpace.Z
		for _, c := range corners[1:] {
			if c.CameraSpace.Z > max {
				max = c.CameraSpace.Z
			}
		}
		return max
	}
	var min float32
	first := true
	for _, c := range corners {
		var inv float32
		if c.CameraSpace.Z > 0 {
			inv = 1 / c.CameraSpace.Z
		}
		if first || inv < min {
			min = inv
			first = false
		}
	}
	return -min
}

// nearestCornerDepth is farthestCornerDepth's opposite: orthogonal depth
// is the smallest raw z, perspective depth is the negated largest 1/z.
func nearestCornerDepth(perspective bool, corners []camera.ProjectedPoint) float32 {
	if !perspective {
		min := corners[0].CameraSpace.Z
		for _, c := range corners[1:] {
			if c.CameraSpace.Z < min {
				min = c.CameraSpace.Z
			}
		}
		return min
	}
	var max float32
	first := true
	for _, c := range corners {
		var inv float32
		if c.CameraSpace.Z > 0 {
			inv = 1 / c.CameraSpace.Z
		}
		if first || inv > max {
			max = inv
			first = false
		}
	}
	return -max
}

// OccludeFromExistingTriangles feeds every solid command already queued
// by giveTask back into the occlusion grid, using each triangle's own
// pixel-space bounding box and farthest vertex depth as a conservative
// occluder footprint (spec.md section 4.10,
// "occludeFromExistingTriangles").
func (r *Renderer) OccludeFromExistingTriangles() error {
	if r.state != Receiving {
		return wrongState("occludeFromExistingTriangles")
	}
	for i := 0; i < r.queue.Len(); i++ {
		cmd := r.queue.At(i)
		if cmd.Filter != raster.Solid { // only solid triangles are valid occluders; alpha is translucent.
			continue
		}
		bound := cmd.Triangle.PixelBounds()
		if err := r.grid.OccludeFromTriangle(bound, farthestVertexDepth(cmd.Triangle)); err != nil {
			return err
		}
	}
	return nil
}

// farthestVertexDepth returns tri's farthest vertex depth in
// OcclusionGrid's "larger is farther" convention (see OcclusionGrid's
// doc comment): orthogonal vertex depth already satisfies that;
// perspective vertex depth is 1/z, where farther is the smallest raw
// value, so the farthest one in grid terms is the negated minimum.
func farthestVertexDepth(tri raster.Triangle) float32 {
	if !tri.Perspective {
		max := tri.V[0].Depth
		for i := 1; i < 3; i++ {
			if tri.V[i].Depth > max {
				max = tri.V[i].Depth
			}
		}
		return max
	}
	min := tri.V[0].Depth
	for i := 1; i < 3; i++ {
		if tri.V[i].Depth < min {
			min = tri.V[i].Depth
		}
	}
	return -min
}

// OccludeFromTopRows feeds depths, one value per occlusion-grid column,
// into the grid's top cell row (row 0); lower cell rows are not written
// (spec.md section 4.10,
// "occludeFromTopRows" — valid for a ground-pass render where lower
// rows are never farther than row 0). Values must already be in the
// grid's depth convention.
func (r *Renderer) OccludeFromTopRows(depths []float32) error {
	if r.state != Receiving {
		return wrongState("occludeFromTopRows")
	}
	for cx, depth := range depths {
		if err := r.grid.OccludeFromTopRow(int32(cx), depth); err != nil {
			return err
		}
	}
	return nil
}

// GiveTask projects m with cam and modelToWorld and enqueues its
// triangles for rasterization at end. A null model handle is silently
// ignored (spec.md boundary behavior: "renderer_giveTask with a null
// model handle is silently ignored").
func (r *Renderer) GiveTask(m *model.Model, cam camera.Camera, modelToWorld geom.Transform3D) error {
	if r.state != Receiving {
		return wrongState("giveTask")
	}
	if m == nil {
		return nil
	}
	model.Render(m, cam, modelToWorld, r.clipBound, &r.queue)
	return nil
}

// IsBoxVisible reports whether a world-space box could still be seen
// given the occlusion grid's current contents (spec.md section 4.10,
// "isBoxVisible"; rendererAPI.cpp: isHullOccluded). The box's corners
// are projected the same way OccludeFromBox projects them; a corner
// failing the cull frustum test is treated as possibly visible, since
// the source's own cull test only ever proves invisibility, never
// occlusion.
func (r *Renderer) IsBoxVisible(minBound, maxBound geom.Vec3, modelToWorld geom.Transform3D, cam camera.Camera) (bool, error) {
	if r.state != Receiving {
		return false, wrongState("isBoxVisible")
	}
	corners, ok := cam.ProjectBoxCorners(minBound, maxBound, modelToWorld)
	if !ok {
		return true, nil
	}
	hull := camera.JarvisMarch(corners[:])
	if len(hull.Corners) < 3 {
		return true, nil
	}
	return r.grid.IsBoxVisible(hull.PixelBounds(), nearestCornerDepth(cam.Perspective, hull.Corners))
}

// End runs the occlusion completion pass, dispatches every non-occluded
// queued triangle across the renderer's tile workers, waits for them,
// then clears the command buffer and debug overlay list and returns to
// Idle (spec.md section 4.10, "end"; spec.md invariant 3: "after
// renderer_end, the command buffer length is 0"). debug additionally
// keeps the debug overlay list around for the caller to inspect before
// it is cleared; when false the overlay is discarded immediately.
func (r *Renderer) End(debug bool) error {
	if r.state != Receiving {
		return wrongState("end")
	}
	if err := r.queue.RunOcclusionPass(r.grid); err != nil {
		return err
	}
	r.dispatch.Start()
	err := r.queue.Execute(r.colorImg, r.depthImg, r.clipBound, r.jobCount)
	r.dispatch.Stop()
	if err != nil {
		return err
	}
	r.queue.Clear()
	if !debug {
		r.debugBox = r.debugBox[:0]
	}
	r.grid.Release()
	r.state = Idle
	return nil
}

// DebugOverlay returns the debug rectangles recorded by the most recent
// End(true) call, for a caller that wants to visualize occlusion boxes.
func (r *Renderer) DebugOverlay() []geom.IRect { return r.debugBox }

// DispatchStats reports the accumulated time spent inside the tile
// dispatch of every End call so far, and how many End calls contributed
// to it, for a caller profiling frame cost across the jobCount workers.
func (r *Renderer) DispatchStats() (total time.Duration, calls int) {
	return r.dispatch.Total, r.dispatch.N
}

// State reports the renderer's current lifecycle state.
func (r *Renderer) State() State { return r.state }
