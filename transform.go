package rig

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform holds the translate, rotate and scale channels of a scene-graph
// transform.
//
// Rotate stores Euler angles in radians using the host's default xyz rotate
// order: the X rotation is applied first, then Y, then Z. For column
// vectors, the resulting rotation matrix is
//
//	R = Rz · Ry · Rx
//
// Rotate pivots are assumed to be at the origin of the transform, so the
// composed matrix is T · R · S.
type Transform struct {
	Translate mgl64.Vec3
	Rotate    mgl64.Vec3
	Scale     mgl64.Vec3
}

// Identity is the identity transform.
var Identity = Transform{Scale: mgl64.Vec3{1, 1, 1}}

// Translation returns a transform that only translates.
func Translation(v mgl64.Vec3) Transform {
	xf := Identity
	xf.Translate = v
	return xf
}

func (xf Transform) String() string {
	return fmt.Sprintf("T%v R%v S%v", xf.Translate, xf.Rotate, xf.Scale)
}

// Quat returns the orientation of the transform.
func (xf Transform) Quat() mgl64.Quat {
	return EulerToQuat(xf.Rotate)
}

// Axis returns the world direction of one of the transform's local axes,
// ignoring scale.
func (xf Transform) Axis(a Axis) mgl64.Vec3 {
	return xf.Quat().Rotate(a.Vec())
}

// Matrix returns the transform's matrix, T · R · S.
func (xf Transform) Matrix() mgl64.Mat4 {
	return composeMatrix(xf.Translate, xf.Quat(), xf.Scale)
}

// ApproxEqual reports whether all channels of xf and o are within tol of
// each other.
func (xf Transform) ApproxEqual(o Transform, tol float64) bool {
	return xf.Translate.ApproxEqualThreshold(o.Translate, tol) &&
		xf.Rotate.ApproxEqualThreshold(o.Rotate, tol) &&
		xf.Scale.ApproxEqualThreshold(o.Scale, tol)
}

func composeMatrix(t mgl64.Vec3, q mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	m := q.Normalize().Mat4()
	// mgl64 matrices are column-major.
	for col := range 3 {
		for row := range 3 {
			m[col*4+row] *= s[col]
		}
	}
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// EulerToQuat converts xyz-ordered Euler angles (radians) to a quaternion.
func EulerToQuat(r mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(r[0], mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(r[1], mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(r[2], mgl64.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx)
}

// QuatToEuler converts a quaternion to xyz-ordered Euler angles (radians).
//
// At gimbal lock (Y rotation of ±90°) the Z angle is reported as zero and
// the remaining rotation is attributed to X.
func QuatToEuler(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()
	at := func(row, col int) float64 { return m[col*4+row] }

	sy := mgl64.Clamp(-at(2, 0), -1, 1)
	ry := math.Asin(sy)
	if math.Abs(sy) < 1-1e-12 {
		return mgl64.Vec3{
			math.Atan2(at(2, 1), at(2, 2)),
			ry,
			math.Atan2(at(1, 0), at(0, 0)),
		}
	}
	return mgl64.Vec3{
		math.Atan2(-at(1, 2), at(1, 1)),
		ry,
		0,
	}
}

// quatFromBasis returns the rotation whose columns are the given orthonormal,
// right-handed basis vectors.
func quatFromBasis(x, y, z mgl64.Vec3) mgl64.Quat {
	m := mgl64.Ident4()
	for i, col := range [3]mgl64.Vec3{x, y, z} {
		m[i*4+0] = col[0]
		m[i*4+1] = col[1]
		m[i*4+2] = col[2]
	}
	return mgl64.Mat4ToQuat(m).Normalize()
}

// TransformFromMatrix decomposes an affine matrix into translate, rotate and
// scale channels. Shear is discarded. A negative determinant is attributed
// to the X scale.
func TransformFromMatrix(m mgl64.Mat4) Transform {
	col := func(i int) mgl64.Vec3 {
		return mgl64.Vec3{m[i*4+0], m[i*4+1], m[i*4+2]}
	}
	x, y, z := col(0), col(1), col(2)
	s := mgl64.Vec3{x.Len(), y.Len(), z.Len()}
	if x.Cross(y).Dot(z) < 0 {
		s[0] = -s[0]
	}

	// Gram-Schmidt so that slightly sheared or degenerate input still yields
	// a valid rotation.
	xn, ok := normalize(x.Mul(math.Copysign(1, s[0])))
	if !ok {
		xn = mgl64.Vec3{1, 0, 0}
	}
	yn, ok := normalize(y.Sub(xn.Mul(xn.Dot(y))))
	if !ok {
		yn = perpendicular(xn)
	}
	zn := xn.Cross(yn)

	return Transform{
		Translate: mgl64.Vec3{m[12], m[13], m[14]},
		Rotate:    QuatToEuler(quatFromBasis(xn, yn, zn)),
		Scale:     s,
	}
}

// perpendicular returns an arbitrary unit vector perpendicular to the unit
// vector v.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	ref := mgl64.Vec3{0, 1, 0}
	if math.Abs(v.Dot(ref)) > 0.9 {
		ref = mgl64.Vec3{1, 0, 0}
	}
	p, _ := normalize(ref.Sub(v.Mul(v.Dot(ref))))
	return p
}

// matrixRotation extracts the orientation of an affine matrix, ignoring
// translation, scale and shear.
func matrixRotation(m mgl64.Mat4) mgl64.Quat {
	return TransformFromMatrix(m).Quat()
}
