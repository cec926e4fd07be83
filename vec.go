package rig

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Vec returns the vector ⟨x, y, z⟩.
func Vec(x, y, z float64) mgl64.Vec3 {
	return mgl64.Vec3{x, y, z}
}

// epsilon is the length below which a vector is treated as zero when
// deriving directions from it.
const epsilon = 1e-9

// lerp linearly interpolates between two vectors.
func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	// a + t * (b-a)
	return a.Add(b.Sub(a).Mul(t))
}

// normalize returns a vector of magnitude 1.0 with the same direction as v.
// Unlike mgl64.Vec3.Normalize, it reports false instead of producing a NaN
// vector when v is (nearly) zero.
func normalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1.0 / l), true
}

// isFinite reports whether none of v's components are NaN or infinite.
func isFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func mulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Axis names a signed local axis of a transform.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisNegX
	AxisNegY
	AxisNegZ
)

// Index returns the unsigned axis index, 0 for X through 2 for Z.
func (a Axis) Index() int {
	return int(a) % 3
}

// Sign returns -1 for negative axes and 1 otherwise.
func (a Axis) Sign() float64 {
	if a >= AxisNegX {
		return -1
	}
	return 1
}

// Vec returns the unit vector of the axis.
func (a Axis) Vec() mgl64.Vec3 {
	var v mgl64.Vec3
	v[a.Index()] = a.Sign()
	return v
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisNegX:
		return "-X"
	case AxisNegY:
		return "-Y"
	case AxisNegZ:
		return "-Z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis parses the output of [Axis.String], case-insensitively for the
// axis letter.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "X", "x", "+X", "+x":
		return AxisX, nil
	case "Y", "y", "+Y", "+y":
		return AxisY, nil
	case "Z", "z", "+Z", "+z":
		return AxisZ, nil
	case "-X", "-x":
		return AxisNegX, nil
	case "-Y", "-y":
		return AxisNegY, nil
	case "-Z", "-z":
		return AxisNegZ, nil
	default:
		return 0, errors.Errorf("invalid axis %q", s)
	}
}
