package rig

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEulerToQuatOrder(t *testing.T) {
	// X is applied first: rotating X by 90° about X leaves it alone, then
	// 90° about Z takes it to Y.
	q := EulerToQuat(Vec(math.Pi/2, 0, math.Pi/2))
	diff(t, Vec(0, 1, 0), q.Rotate(Vec(1, 0, 0)), approx(1e-12))
	// Y goes to Z under X, and Z is left alone by Z.
	diff(t, Vec(0, 0, 1), q.Rotate(Vec(0, 1, 0)), approx(1e-12))
}

func TestQuatToEulerRoundTrip(t *testing.T) {
	steps := []float64{-3, -2.2, -1, -0.4, 0, 0.3, 1.2, 2.5, 3}
	for _, x := range steps {
		for _, y := range []float64{-1.4, -0.6, 0, 0.5, 1.3} {
			for _, z := range steps {
				r := Vec(x, y, z)
				got := QuatToEuler(EulerToQuat(r))
				diff(t, r, got, approx(1e-9))
			}
		}
	}
}

func TestQuatToEulerGimbalLock(t *testing.T) {
	for _, r := range []mgl64.Vec3{Vec(0.3, math.Pi/2, 0.2), Vec(-1, -math.Pi/2, 0.5)} {
		q := EulerToQuat(r)
		e := QuatToEuler(q)
		if e[2] != 0 {
			t.Errorf("got Z angle %g at gimbal lock, want 0", e[2])
		}
		diffRotation(t, q, EulerToQuat(e))
	}
}

func TestTransformMatrixRoundTrip(t *testing.T) {
	xfs := []Transform{
		Identity,
		Translation(Vec(1, 2, 3)),
		{Translate: Vec(-1, 0, 4), Rotate: Vec(0.1, 0.2, 0.3), Scale: Vec(1, 2, 3)},
		{Translate: Vec(0, 0, 0), Rotate: Vec(-1, 0.5, 2), Scale: Vec(0.5, 0.5, 0.5)},
		{Translate: Vec(0, 5, 0), Rotate: Vec(0, 0, 1), Scale: Vec(-2, 1, 1)},
	}
	for _, xf := range xfs {
		got := TransformFromMatrix(xf.Matrix())
		if !got.ApproxEqual(xf, 1e-9) {
			t.Errorf("got %v, want %v", got, xf)
		}
	}
}

func TestTransformMatrixLayout(t *testing.T) {
	xf := Transform{Translate: Vec(1, 2, 3), Rotate: Vec(0, 0, math.Pi/2), Scale: Vec(2, 1, 1)}
	m := xf.Matrix()
	diff(t, Vec(1, 2, 3), m.Col(3).Vec3())
	// Local X, scaled by 2, points along world Y.
	diff(t, Vec(0, 2, 0), m.Col(0).Vec3(), approx(1e-12))
	diff(t, Vec(1, 4, 3), m.Mul4x1(mgl64.Vec4{1, 0, 0, 1}).Vec3(), approx(1e-12))
}

func TestTransformAxis(t *testing.T) {
	xf := Transform{Rotate: Vec(0, 0, math.Pi/2), Scale: Vec(1, 1, 1)}
	diff(t, Vec(0, 1, 0), xf.Axis(AxisX), approx(1e-12))
	diff(t, Vec(1, 0, 0), xf.Axis(AxisNegY), approx(1e-12))
}

func TestParseAxis(t *testing.T) {
	for _, a := range []Axis{AxisX, AxisY, AxisZ, AxisNegX, AxisNegY, AxisNegZ} {
		got, err := ParseAxis(a.String())
		if err != nil {
			t.Fatal(err)
		}
		diff(t, a, got)
	}
	_, err := ParseAxis("w")
	if err == nil {
		t.Fatal("expected error for invalid axis")
	}
	// The error names the input and carries a stack trace.
	if got := err.Error(); got != `invalid axis "w"` {
		t.Errorf("got error %q", got)
	}
	if trace := fmt.Sprintf("%+v", err); !strings.Contains(trace, "ParseAxis") {
		t.Errorf("error has no stack trace: %s", trace)
	}
	diff(t, Vec(0, 0, -1), AxisNegZ.Vec())
	diff(t, 2, AxisNegZ.Index())
}
