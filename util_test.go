package rig

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

// approx compares floats with an absolute tolerance.
func approx(margin float64) cmp.Option {
	return cmpopts.EquateApprox(0, margin)
}

// diffRotation compares two orientations by the basis they produce, which
// ignores the sign ambiguity of quaternions.
func diffRotation(t *testing.T, want, got mgl64.Quat) {
	t.Helper()
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		diff(t, want.Rotate(a.Vec()), got.Rotate(a.Vec()), approx(1e-9))
	}
}

func straightLine(n int, spacing float64) []Transform {
	out := make([]Transform, n)
	for i := range out {
		out[i] = Translation(Vec(float64(i)*spacing, 0, 0))
	}
	return out
}

func finiteSamples(t *testing.T, samples []Sample) {
	t.Helper()
	for i, s := range samples {
		q := s.Rotation
		if !isFinite(s.Position) || !isFinite(s.Scale) || !isFinite(q.V) || math.IsNaN(q.W) || math.IsInf(q.W, 0) {
			t.Errorf("sample %d is not finite: %+v", i, s)
		}
	}
}
