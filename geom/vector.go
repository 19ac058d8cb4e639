// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom implements the fixed-size vector, rectangle, matrix, and
// plane types of spec.md section 4 (L4 Math), grounded on
// original_source/Source/DFPSR/math/{FVector,IVector,UVector,IRect,
// FMatrix3x3,Transform3D,FPlane3D}.h. Float operations use
// github.com/chewxy/math32 (a teacher dependency) instead of converting
// through float64 and back, the same way cogentcore.org/core/math32 is
// itself built on it.
package geom

import "github.com/chewxy/math32"

// Vec2 is a 2D float32 vector (source: FVector2D).
type Vec2 struct{ X, Y float32 }

func V2(x, y float32) Vec2 { return Vec2{x, y} }

func (a Vec2) Add(b Vec2) Vec2  { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2  { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float32   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Length() float32      { return math32.Sqrt(a.Dot(a)) }

// Vec3 is a 3D float32 vector (source: FVector3D), used for camera space
// and world space coordinates throughout the core.
type Vec3 struct{ X, Y, Z float32 }

func V3(x, y, z float32) Vec3 { return Vec3{x, y, z} }

func (a Vec3) Add(b Vec3) Vec3     { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3     { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float32) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float32   { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}
func (a Vec3) Length() float32 { return math32.Sqrt(a.Dot(a)) }
func (a Vec3) Normalized() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}
func (a Vec3) Lerp(b Vec3, t float32) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// Vec4 is a 4D float32 vector (source: FVector4D), used for homogeneous
// barycentric-weighted attributes (color, uv, 1/w) in the rasterizer.
type Vec4 struct{ X, Y, Z, W float32 }

func V4(x, y, z, w float32) Vec4 { return Vec4{x, y, z, w} }

func (a Vec4) Add(b Vec4) Vec4      { return Vec4{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W} }
func (a Vec4) Scale(s float32) Vec4 { return Vec4{a.X * s, a.Y * s, a.Z * s, a.W * s} }

// IVec2 is a 2D signed-integer vector (source: IVector2D).
type IVec2 struct{ X, Y int32 }

func IV2(x, y int32) IVec2 { return IVec2{x, y} }

func (a IVec2) Add(b IVec2) IVec2 { return IVec2{a.X + b.X, a.Y + b.Y} }
func (a IVec2) Sub(b IVec2) IVec2 { return IVec2{a.X - b.X, a.Y - b.Y} }

// UVec2 is a 2D unsigned-integer vector (source: UVector2D).
type UVec2 struct{ X, Y uint32 }

func UV2(x, y uint32) UVec2 { return UVec2{x, y} }
