package rig

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBuildCurveErrors(t *testing.T) {
	opts := DefaultBuildOptions()
	if _, _, err := BuildCurve(straightLine(1, 1), opts); !errors.Is(err, ErrInsufficientControlPoints) {
		t.Errorf("got error %v, want %v", err, ErrInsufficientControlPoints)
	}
	opts.Degree = 2
	if _, _, err := BuildCurve(straightLine(3, 1), opts); !errors.Is(err, ErrInvalidDegree) {
		t.Errorf("got error %v, want %v", err, ErrInvalidDegree)
	}
}

func TestBuildCurveLinear(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.Degree = 1
	xfs := ControlsFromPositions(Vec(0, 0, 0), Vec(1, 1, 0), Vec(2, 0, 3))
	curve, offset, err := BuildCurve(xfs, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 2, curve.Spans())
	for i, xf := range xfs {
		diff(t, xf.Translate, curve.Points[i])
		diff(t, xf.Translate.Add(Vec(0, 1, 0)), offset.Points[i])
	}
}

func TestBuildCurveThroughControls(t *testing.T) {
	xfs := ControlsFromPositions(Vec(0, 0, 0), Vec(1, 2, 0), Vec(3, 2, 1), Vec(4, 0, -1))
	for _, mode := range []TangentMode{TangentNeighbors, TangentRotation} {
		opts := DefaultBuildOptions()
		opts.TangentMode = mode
		curve, offset, err := BuildCurve(xfs, opts)
		if err != nil {
			t.Fatal(err)
		}
		if !curve.Matches(offset) {
			t.Fatalf("%v: offset curve doesn't match curve", mode)
		}
		diff(t, len(xfs)-1, curve.Spans())
		for i, xf := range xfs {
			diff(t, xf.Translate, curve.Eval(float64(i)))
		}
	}
}

func TestBuildCurveUniformCatmullRom(t *testing.T) {
	// Evenly spaced collinear controls produce a uniformly parameterized
	// straight line.
	curve, _, err := BuildCurve(straightLine(4, 1), DefaultBuildOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := range 13 {
		ts := float64(i) / 4
		diff(t, Vec(ts, 0, 0), curve.Eval(ts), approx(1e-12))
	}
}

func TestBuildCurveNeighborTangents(t *testing.T) {
	xfs := ControlsFromPositions(Vec(0, 0, 0), Vec(1, 1, 0), Vec(2, 0, 0))
	curve, _, err := BuildCurve(xfs, DefaultBuildOptions())
	if err != nil {
		t.Fatal(err)
	}
	// The tangent at the middle control is parallel to the chord between its
	// neighbors.
	diff(t, Vec(1, 0, 0), curve.Deriv(1), approx(1e-12))
	diff(t, Vec(1, 0, 0), derivLeft(curve, 1), approx(1e-12))
}

func TestBuildCurveRotationTangents(t *testing.T) {
	xfs := []Transform{
		{Translate: Vec(0, 0, 0), Rotate: Vec(0, 0, math.Pi/2), Scale: Vec(1, 1, 1)},
		{Translate: Vec(2, 0, 0), Rotate: Vec(0, 0, 0), Scale: Vec(1, 1, 1)},
	}
	opts := DefaultBuildOptions()
	opts.TangentMode = TangentRotation
	opts.TangentLength = 0.25
	curve, offset, err := BuildCurve(xfs, opts)
	if err != nil {
		t.Fatal(err)
	}
	// The first control's X axis points up the world Y axis.
	diff(t, Vec(0, 0.5, 0), curve.Points[1], approx(1e-12))
	diff(t, Vec(1.5, 0, 0), curve.Points[2], approx(1e-12))

	// The offset of each point follows the frame of its control.
	diff(t, Vec(-1, 0.5, 0), offset.Points[1], approx(1e-12))
	diff(t, Vec(1.5, 1, 0), offset.Points[2], approx(1e-12))
}

func TestBuildCurveNoOffset(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.BuildOffsetCurve = false
	_, offset, err := BuildCurve(straightLine(3, 1), opts)
	if err != nil {
		t.Fatal(err)
	}
	if offset != nil {
		t.Error("got offset curve, want none")
	}
}

func TestBuildCurveTweak(t *testing.T) {
	opts := DefaultBuildOptions()
	base, _, err := BuildCurve(straightLine(3, 1), opts)
	if err != nil {
		t.Fatal(err)
	}
	tweak := base.Clone()
	tweak.Points[3] = tweak.Points[3].Add(Vec(0, 0, 1))

	opts.TweakBase = base
	opts.Tweak = tweak
	curve, offset, err := BuildCurve(straightLine(3, 2), opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Vec(2, 0, 1), curve.Points[3], approx(1e-12))
	diff(t, Vec(2, 1, 1), offset.Points[3], approx(1e-12))
	diff(t, Vec(4, 0, 0), curve.Points[6], approx(1e-12))

	opts.Tweak = &Curve{Degree: 3, Points: make([]mgl64.Vec3, 4)}
	if _, _, err := BuildCurve(straightLine(3, 1), opts); !errors.Is(err, ErrMismatchedParameterization) {
		t.Errorf("got error %v, want %v", err, ErrMismatchedParameterization)
	}
}
