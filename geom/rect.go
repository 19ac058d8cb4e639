// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// IRect is an integer rectangle stored as left/top/width/height (source:
// IRect.h). Kept in that representation rather than min/max corners
// because the source's callers (clip_bound, occlusion cells, tile
// partitioning) construct it from a position and a size far more often
// than from two corners.
type IRect struct {
	Left, Top, Width, Height int32
}

func RectFromSize(width, height int32) IRect {
	return IRect{0, 0, width, height}
}

func RectFromBounds(left, top, right, bottom int32) IRect {
	return IRect{left, top, right - left, bottom - top}
}

func (r IRect) Right() int32  { return r.Left + r.Width }
func (r IRect) Bottom() int32 { return r.Top + r.Height }
func (r IRect) HasArea() bool { return r.Width > 0 && r.Height > 0 }
func (r IRect) Area() int32   { return r.Width * r.Height }

func (r IRect) Expanded(units int32) IRect {
	return IRect{r.Left - units, r.Top - units, r.Width + units*2, r.Height + units*2}
}

// Cut returns the intersection of a and b, or a zero-area rectangle if
// they do not overlap.
func Cut(a, b IRect) IRect {
	if !Overlaps(a, b) {
		return IRect{}
	}
	left := max32(a.Left, b.Left)
	top := max32(a.Top, b.Top)
	right := min32(a.Right(), b.Right())
	bottom := min32(a.Bottom(), b.Bottom())
	return RectFromBounds(left, top, right, bottom)
}

// Merge returns the bounding box of the union of a and b.
func Merge(a, b IRect) IRect {
	left := min32(a.Left, b.Left)
	top := min32(a.Top, b.Top)
	right := max32(a.Right(), b.Right())
	bottom := max32(a.Bottom(), b.Bottom())
	return RectFromBounds(left, top, right, bottom)
}

func Overlaps(a, b IRect) bool {
	return a.Left < b.Right() && a.Right() > b.Left && a.Top < b.Bottom() && a.Bottom() > b.Top
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
