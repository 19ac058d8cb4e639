// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// Transform3D is a rigid-body (or more generally, affine) transform:
// a 3x3 linear part plus a translation (source: Transform3D.h). Camera
// and model placement both use this type.
type Transform3D struct {
	Position  Vec3
	Transform Matrix3
}

func IdentityTransform3D() Transform3D {
	return Transform3D{Position: Vec3{}, Transform: IdentityMatrix3()}
}

func (t Transform3D) TransformPoint(p Vec3) Vec3 {
	return t.Transform.Transform(p).Add(t.Position)
}

func (t Transform3D) TransformVector(p Vec3) Vec3 {
	return t.Transform.Transform(p)
}

// TransformPointTransposedInverse undoes a rigid transform without a
// general matrix inverse, valid only when Transform is orthonormal
// (rotation, no shear or scale) — exactly the camera's world_to_camera path.
func (t Transform3D) TransformPointTransposedInverse(p Vec3) Vec3 {
	return t.Transform.TransformTransposed(p.Sub(t.Position))
}

func MulTransform3D(left, right Transform3D) Transform3D {
	return Transform3D{
		Position:  right.TransformPoint(left.Position),
		Transform: left.Transform.Mul(right.Transform),
	}
}

func DeterminantTransform3D(t Transform3D) float32 {
	return Determinant3(t.Transform)
}

// InverseTransform3D inverts a Transform3D the same way the source does:
// a cofactor-expansion 3x3 inverse plus a translation solved from it,
// rather than a generic 4x4 Gauss-Jordan elimination.
func InverseTransform3D(t Transform3D) Transform3D {
	invDet := 1 / Determinant3(t.Transform)
	result := Transform3D{Transform: inverse3UsingInvDet(t.Transform, invDet)}
	result.Position.X = -(t.Position.X*result.Transform.XAxis.X + t.Position.Y*result.Transform.YAxis.X + t.Position.Z*result.Transform.ZAxis.X)
	result.Position.Y = -(t.Position.X*result.Transform.XAxis.Y + t.Position.Y*result.Transform.YAxis.Y + t.Position.Z*result.Transform.ZAxis.Y)
	result.Position.Z = -(t.Position.X*result.Transform.XAxis.Z + t.Position.Y*result.Transform.YAxis.Z + t.Position.Z*result.Transform.ZAxis.Z)
	return result
}
