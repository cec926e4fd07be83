package rig

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSphereRoll(t *testing.T) {
	r := NewSphereRoll()
	s := r.Step(RollState{}, Vec(0, 0, 0), 1)
	if !s.Valid() {
		t.Fatal("state not valid at start frame")
	}
	diffRotation(t, mgl64.QuatIdent(), s.Orientation)

	// A quarter turn of a unit sphere moving along +X brings its top to the
	// front.
	s = r.Step(s, Vec(math.Pi/2, 0, 0), 2)
	diff(t, Vec(1, 0, 0), s.Orientation.Rotate(Vec(0, 1, 0)), approx(1e-12))

	// Rolling back undoes it.
	s = r.Step(s, Vec(0, 0, 0), 3)
	diffRotation(t, mgl64.QuatIdent(), s.Orientation)
}

func TestSphereRollRadius(t *testing.T) {
	r := NewSphereRoll()
	r.Radius.Set(2)
	s := r.Step(RollState{}, Vec(0, 0, 0), 1)
	s = r.Step(s, Vec(0, 0, math.Pi), 2)
	// Along +Z the sphere turns about +X.
	diffRotation(t, mgl64.QuatRotate(math.Pi/2, Vec(1, 0, 0)), s.Orientation)

	r.Radius.Set(0)
	held := r.Step(s, Vec(0, 0, 10), 3)
	diffRotation(t, s.Orientation, held.Orientation)
	diff(t, Vec(0, 0, 10), held.Position)
}

func TestSphereRollAlongUp(t *testing.T) {
	r := NewSphereRoll()
	s := r.Step(RollState{}, Vec(0, 0, 0), 1)
	s = r.Step(s, Vec(0, 5, 0), 2)
	diffRotation(t, mgl64.QuatIdent(), s.Orientation)
}

func TestSphereRollReset(t *testing.T) {
	r := NewSphereRoll()
	s := r.Step(RollState{}, Vec(0, 0, 0), 1)
	s = r.Step(s, Vec(1, 0, 0), 2)
	s = r.Step(s, Vec(2, 0, 0), 3)

	for _, frame := range []float64{3, 2, 1, 0, 10} {
		got := r.Step(s, Vec(5, 0, 0), frame)
		diff(t, mgl64.QuatIdent(), got.Orientation)
		diff(t, frame, got.Frame)
	}

	// A wider gap rolls the jump.
	r.MaxFrameGap.Set(10)
	got := r.Step(s, Vec(5, 0, 0), 10)
	if got.Orientation == mgl64.QuatIdent() || got.Orientation == s.Orientation {
		t.Error("sphere didn't roll across the jump")
	}
}
