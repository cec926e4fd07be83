package rig

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func pointCurve(ps ...mgl64.Vec3) *Curve {
	return &Curve{Degree: 1, Points: ps}
}

func TestSpringExplicitStep(t *testing.T) {
	settings := DefaultSpringSettings()
	prev := SpringState{
		Frame:      1,
		Positions:  []mgl64.Vec3{Vec(0, 0, 0), Vec(2, 0, 0)},
		Velocities: make([]mgl64.Vec3, 2),
	}
	target := pointCurve(Vec(1, 0, 0), Vec(2, 0, 0))
	out, next := SpringStep(target, prev, settings, 2, 1)
	diff(t, Vec(0.25, 0, 0), out.Points[0])
	diff(t, Vec(2, 0, 0), out.Points[1])
	diff(t, Vec(0.25, 0, 0), next.Velocities[0])
	diff(t, 2.0, next.Frame)
	// prev is not modified.
	diff(t, Vec(0, 0, 0), prev.Positions[0])

	// Without a time step, the frame delta is used.
	settings.MaxFrameGap.Set(2)
	out, _ = SpringStep(target, prev, settings, 3, 0)
	diff(t, Vec(0.5, 0, 0), out.Points[0])

	settings.Strength.Set(0)
	out, _ = SpringStep(target, prev, settings, 2, 1)
	diff(t, target.Points, out.Points)
}

func TestSpringReset(t *testing.T) {
	settings := DefaultSpringSettings()
	target := pointCurve(Vec(1, 0, 0), Vec(2, 0, 0))
	prev := SpringState{
		Frame:      5,
		Positions:  []mgl64.Vec3{Vec(7, 7, 7), Vec(-3, 0, 0)},
		Velocities: []mgl64.Vec3{Vec(1, 1, 1), Vec(1, 1, 1)},
	}
	rest := restState(target, 0)

	tests := []struct {
		name  string
		prev  SpringState
		frame float64
	}{
		{"start frame", prev, 1},
		{"before start", prev, -4},
		{"empty state", SpringState{}, 6},
		{"backwards", prev, 3},
		{"same frame", prev, 5},
		{"forward jump", prev, 50},
		{"just past gap", prev, 6.5},
		{"point count", SpringState{Frame: 5, Positions: make([]mgl64.Vec3, 3), Velocities: make([]mgl64.Vec3, 3)}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, next := SpringStep(target, tt.prev, settings, tt.frame, 1)
			diff(t, target.Points, out.Points)
			diff(t, rest.Positions, next.Positions)
			diff(t, rest.Velocities, next.Velocities)
			diff(t, tt.frame, next.Frame)
		})
	}
}

func TestSpringCurveForwardJump(t *testing.T) {
	s := NewSpringCurve()
	s.Eval(pointCurve(Vec(0, 0, 0)), 1)
	s.Eval(pointCurve(Vec(0, 0, 0)), 2)
	out := s.Eval(pointCurve(Vec(100, 0, 0)), 500)
	diff(t, Vec(100, 0, 0), out.Points[0])
	diff(t, []mgl64.Vec3{{}}, s.State().Velocities)

	// Substeps within the gap integrate.
	out = s.Eval(pointCurve(Vec(101, 0, 0)), 500.5)
	diff(t, Vec(100.25, 0, 0), out.Points[0], approx(1e-12))
}

func TestSpringBlowUp(t *testing.T) {
	settings := DefaultSpringSettings()
	settings.Stiffness.Set(math.Inf(1))
	target := pointCurve(Vec(1, 0, 0))
	prev := restState(pointCurve(Vec(0, 0, 0)), 1)
	out, next := SpringStep(target, prev, settings, 2, 1)
	diff(t, target.Points, out.Points)
	diff(t, []mgl64.Vec3{{}}, next.Velocities)
}

func TestSpringCurveDeterministic(t *testing.T) {
	run := func() []mgl64.Vec3 {
		s := NewSpringCurve()
		var out []mgl64.Vec3
		for frame := 1; frame <= 20; frame++ {
			x := math.Sin(float64(frame) / 3)
			c := s.Eval(pointCurve(Vec(x, 0, 0), Vec(x, 1, 0)), float64(frame))
			out = append(out, c.Points...)
		}
		return out
	}
	diff(t, run(), run())
}

func TestSpringCurveLag(t *testing.T) {
	s := NewSpringCurve()
	out := s.Eval(pointCurve(Vec(0, 0, 0)), 1)
	diff(t, Vec(0, 0, 0), out.Points[0])
	if !s.State().Valid() {
		t.Fatal("state not recorded at start frame")
	}

	out = s.Eval(pointCurve(Vec(1, 0, 0)), 2)
	diff(t, Vec(0.25, 0, 0), out.Points[0])
	out = s.Eval(pointCurve(Vec(1, 0, 0)), 3)
	// v = (0.25 + 0.75*0.5) * 0.5
	diff(t, Vec(0.5625, 0, 0), out.Points[0])

	s.Reset()
	if s.State().Valid() {
		t.Error("state still valid after reset")
	}
	out = s.Eval(pointCurve(Vec(1, 0, 0)), 4)
	diff(t, Vec(1, 0, 0), out.Points[0])
}

func TestSpringHarmonicConverges(t *testing.T) {
	settings := DefaultSpringSettings()
	settings.Model = SpringHarmonic
	settings.Stiffness.Set(6)
	settings.Damping.Set(1)

	_, state := SpringStep(pointCurve(Vec(0, 0, 0)), SpringState{}, settings, 1, 1.0/24)
	target := pointCurve(Vec(1, -2, 3))
	var out *Curve
	var maxX float64
	for frame := 2; frame <= 200; frame++ {
		out, state = SpringStep(target, state, settings, float64(frame), 1.0/24)
		maxX = max(maxX, out.Points[0][0])
	}
	diff(t, target.Points, out.Points, approx(1e-6))
	// A critically damped spring doesn't overshoot.
	if maxX > 1+1e-9 {
		t.Errorf("spring overshot to %g", maxX)
	}
}
