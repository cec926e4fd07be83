package rig

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// polyline returns a degree 1 curve along X through x = 0, 1, ..., n-1, and
// an up-curve one unit above it.
func polyline(n int) (*Curve, *Curve) {
	c := &Curve{Degree: 1}
	up := &Curve{Degree: 1}
	for i := range n {
		c.Points = append(c.Points, Vec(float64(i), 0, 0))
		up.Points = append(up.Points, Vec(float64(i), 1, 0))
	}
	return c, up
}

func newTestVarFK(t *testing.T, n int) *VarFK {
	t.Helper()
	v, err := NewVarFK(n)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestNewVarFK(t *testing.T) {
	if _, err := NewVarFK(1); !errors.Is(err, ErrInsufficientControlPoints) {
		t.Errorf("got error %v, want %v", err, ErrInsufficientControlPoints)
	}
	v := newTestVarFK(t, 5)
	for i, ctl := range v.Controls {
		diff(t, float64(i)/4, ctl.U.Get())
		diff(t, 0.25, ctl.Falloff.Get())
	}
}

func TestVarFKIdentity(t *testing.T) {
	c, up, err := BuildCurve(ControlsFromPositions(Vec(0, 0, 0), Vec(1, 2, 0), Vec(3, 2, 1)), DefaultBuildOptions())
	if err != nil {
		t.Fatal(err)
	}
	v := newTestVarFK(t, 3)
	gotC, gotUp, err := v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, c.Points, gotC.Points, approx(1e-12))
	diff(t, up.Points, gotUp.Points, approx(1e-12))

	// Without an up-curve, no up-curve is returned.
	gotC, gotUp, err = v.Eval(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotUp != nil {
		t.Error("got up-curve, want none")
	}
	diff(t, c.Points, gotC.Points, approx(1e-12))
}

func TestVarFKTranslate(t *testing.T) {
	c, up := polyline(5)
	v := newTestVarFK(t, 3)
	v.Controls[1].Translate.Set(Vec(0, 1, 0))

	gotC, gotUp, err := v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	ys := []float64{0, 0.5, 1, 0.5, 0}
	for k, y := range ys {
		diff(t, Vec(float64(k), y, 0), gotC.Points[k], approx(1e-12))
		diff(t, Vec(float64(k), y+1, 0), gotUp.Points[k], approx(1e-12))
	}
	// The input is left alone.
	diff(t, Vec(2, 0, 0), c.Points[2])

	v.BuildMode = VarFKBuildCurve
	gotC, gotUp, err = v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Vec(2, 1, 0), gotC.Points[2], approx(1e-12))
	diff(t, up.Points, gotUp.Points)
}

func TestVarFKTranslateLocalFrame(t *testing.T) {
	// Along Z with the up-curve toward +Y, the local X axis is world Z.
	c := &Curve{Degree: 1, Points: []mgl64.Vec3{Vec(0, 0, 0), Vec(0, 0, 1), Vec(0, 0, 2)}}
	up := c.Translate(Vec(0, 1, 0))
	v := newTestVarFK(t, 2)
	v.Controls[0].Falloff.Set(0.1)
	v.Controls[0].Translate.Set(Vec(1, 0, 0))
	gotC, _, err := v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Vec(0, 0, 1), gotC.Points[0], approx(1e-12))
	diff(t, Vec(0, 0, 1), gotC.Points[1], approx(1e-12))
}

func TestVarFKRotate(t *testing.T) {
	c, up := polyline(5)
	v := newTestVarFK(t, 2)
	v.Controls[0].Falloff.Set(0.5)
	v.Controls[0].Rotate.Set(Vec(0, 0, math.Pi/2))

	gotC, gotUp, err := v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	// The pivot stays, the next point turns by half the angle and the rest
	// is out of reach.
	s := math.Sqrt2 / 2
	diff(t, Vec(0, 0, 0), gotC.Points[0], approx(1e-12))
	diff(t, Vec(s, s, 0), gotC.Points[1], approx(1e-12))
	diff(t, Vec(2, 0, 0), gotC.Points[2], approx(1e-12))
	// The up-curve turns with the curve.
	diff(t, Vec(-1, 0, 0), gotUp.Points[0], approx(1e-12))
	diff(t, Vec(0, math.Sqrt2, 0), gotUp.Points[1], approx(1e-12))
}

func TestVarFKWave(t *testing.T) {
	c, up := polyline(5)
	v := newTestVarFK(t, 2)
	v.Waves[1].Amplitude.Set(1)
	v.Waves[1].Phase.Set(math.Pi / 2)

	gotC, _, err := v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	for k, y := range []float64{1, 0, -1, 0, 1} {
		diff(t, Vec(float64(k), y, 0), gotC.Points[k], approx(1e-12))
	}

	v.StartPos.Set(0.5)
	gotC, _, err = v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	for k, y := range []float64{0, 0, -1, 0, 1} {
		diff(t, Vec(float64(k), y, 0), gotC.Points[k], approx(1e-12))
	}

	// With a full ramp the amplitude grows from zero at StartPos.
	v.AmpRamp.Set(1)
	gotC, _, err = v.Eval(c, up)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Vec(2, 0, 0), gotC.Points[2], approx(1e-12))
	diff(t, Vec(4, 1, 0), gotC.Points[4], approx(1e-12))
	diff(t, 0.5, v.ramp(0.75))
}

func TestVarFKMismatch(t *testing.T) {
	c, _ := polyline(5)
	_, up := polyline(4)
	v := newTestVarFK(t, 2)
	if _, _, err := v.Eval(c, up); !errors.Is(err, ErrMismatchedParameterization) {
		t.Errorf("got error %v, want %v", err, ErrMismatchedParameterization)
	}
}
