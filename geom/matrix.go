// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// Matrix3 is a 3x3 float32 matrix stored as three column axes (source:
// FMatrix3x3.h).
type Matrix3 struct {
	XAxis, YAxis, ZAxis Vec3
}

func IdentityMatrix3() Matrix3 {
	return Matrix3{Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1}}
}

// AxisSystem builds a right-handed basis with zAxis along forward and
// xAxis/yAxis derived from up, matching FMatrix3x3::makeAxisSystem —
// the camera's look-at construction.
func AxisSystem(forward, up Vec3) Matrix3 {
	f := forward.Normalized()
	x := up.Normalized().Cross(f).Normalized()
	y := f.Cross(x).Normalized()
	return Matrix3{XAxis: x, YAxis: y, ZAxis: f}
}

func (m Matrix3) Transform(p Vec3) Vec3 {
	return Vec3{
		p.X*m.XAxis.X + p.Y*m.YAxis.X + p.Z*m.ZAxis.X,
		p.X*m.XAxis.Y + p.Y*m.YAxis.Y + p.Z*m.ZAxis.Y,
		p.X*m.XAxis.Z + p.Y*m.YAxis.Z + p.Z*m.ZAxis.Z,
	}
}

// TransformTransposed applies the matrix's transpose, which for an
// axis-aligned normalized (rotation-only) matrix is its inverse —
// spec.md's camera world_to_camera path relies on this to avoid a
// general 3x3 inverse every frame.
func (m Matrix3) TransformTransposed(p Vec3) Vec3 {
	return Vec3{
		p.X*m.XAxis.X + p.Y*m.XAxis.Y + p.Z*m.XAxis.Z,
		p.X*m.YAxis.X + p.Y*m.YAxis.Y + p.Z*m.YAxis.Z,
		p.X*m.ZAxis.X + p.Y*m.ZAxis.Y + p.Z*m.ZAxis.Z,
	}
}

func (m Matrix3) Mul(right Matrix3) Matrix3 {
	return Matrix3{
		XAxis: right.Transform(m.XAxis),
		YAxis: right.Transform(m.YAxis),
		ZAxis: right.Transform(m.ZAxis),
	}
}

func Determinant3(m Matrix3) float32 {
	return m.XAxis.X*m.YAxis.Y*m.ZAxis.Z +
		m.ZAxis.X*m.XAxis.Y*m.YAxis.Z +
		m.YAxis.X*m.ZAxis.Y*m.XAxis.Z -
		m.XAxis.X*m.ZAxis.Y*m.YAxis.Z -
		m.YAxis.X*m.XAxis.Y*m.ZAxis.Z -
		m.ZAxis.X*m.YAxis.Y*m.XAxis.Z
}

func Inverse3(m Matrix3) Matrix3 {
	return inverse3UsingInvDet(m, 1/Determinant3(m))
}

func inverse3UsingInvDet(m Matrix3, invDet float32) Matrix3 {
	var r Matrix3
	r.XAxis.X = invDet * (m.YAxis.Y*m.ZAxis.Z - m.YAxis.Z*m.ZAxis.Y)
	r.XAxis.Y = -invDet * (m.XAxis.Y*m.ZAxis.Z - m.XAxis.Z*m.ZAxis.Y)
	r.XAxis.Z = invDet * (m.XAxis.Y*m.YAxis.Z - m.XAxis.Z*m.YAxis.Y)
	r.YAxis.X = -invDet * (m.YAxis.X*m.ZAxis.Z - m.YAxis.Z*m.ZAxis.X)
	r.YAxis.Y = invDet * (m.XAxis.X*m.ZAxis.Z - m.XAxis.Z*m.ZAxis.X)
	r.YAxis.Z = -invDet * (m.XAxis.X*m.YAxis.Z - m.XAxis.Z*m.YAxis.X)
	r.ZAxis.X = invDet * (m.YAxis.X*m.ZAxis.Y - m.YAxis.Y*m.ZAxis.X)
	r.ZAxis.Y = -invDet * (m.XAxis.X*m.ZAxis.Y - m.XAxis.Y*m.ZAxis.X)
	r.ZAxis.Z = invDet * (m.XAxis.X*m.YAxis.Y - m.XAxis.Y*m.YAxis.X)
	return r
}
