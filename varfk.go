package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// VarFKBuildMode selects which curves [VarFK.Eval] perturbs.
type VarFKBuildMode int

const (
	// VarFKBuildBoth perturbs the curve and moves the up-curve along with
	// it, so that sampled orientations follow the perturbation.
	VarFKBuildBoth VarFKBuildMode = iota
	// VarFKBuildCurve perturbs only the curve and passes the up-curve
	// through unchanged.
	VarFKBuildCurve
)

// VarFKControl is one control of a [VarFK] layer. Its translate and rotate
// channels act in the local frame of the curve at U: X along the curve, Y
// toward the up-curve, Z the remaining axis.
type VarFKControl struct {
	U         *Param[float64]
	Falloff   *Param[float64]
	Translate *Param[mgl64.Vec3]
	Rotate    *Param[mgl64.Vec3]
}

// NewVarFKControl returns a control at u with no perturbation.
func NewVarFKControl(u, falloff float64) *VarFKControl {
	return &VarFKControl{
		U:         NewBounded("uPosition", u, 0, 1),
		Falloff:   NewBounded("falloff", falloff, 0, math.Inf(1)),
		Translate: NewParam("translate", mgl64.Vec3{}),
		Rotate:    NewParam("rotate", mgl64.Vec3{}),
	}
}

// SineWave is a sinusoidal offset along one local axis,
// Amplitude · sin(2π · Frequency · u + Phase).
type SineWave struct {
	Amplitude *Param[float64]
	Frequency *Param[float64]
	Phase     *Param[float64]
}

func newSineWave(axis string) SineWave {
	return SineWave{
		Amplitude: NewParam(axis+"Amplitude", 0.0),
		Frequency: NewParam(axis+"Frequency", 1.0),
		Phase:     NewParam(axis+"Phase", 0.0),
	}
}

func (w SineWave) at(u float64) float64 {
	a := w.Amplitude.Get()
	if a == 0 {
		return 0
	}
	return a * math.Sin(2*math.Pi*w.Frequency.Get()*u+w.Phase.Get())
}

// VarFK is a tweak layer that perturbs the shape of a curve with a few
// sliding controls and a global sine wave, without moving the transforms
// the curve was built from. Its outputs are meant to be sampled in place of
// its inputs.
type VarFK struct {
	Controls  []*VarFKControl
	BuildMode VarFKBuildMode

	// Waves holds the sine waves along the local X (aim), Y (up) and Z
	// (tertiary) axes.
	Waves [3]SineWave
	// StartPos is the normalized position before which the waves have no
	// effect.
	StartPos *Param[float64]
	// AmpRamp blends the wave amplitude from constant (0) to ramping up
	// linearly from zero at StartPos to full at the end of the curve (1).
	AmpRamp *Param[float64]
}

// NewVarFK returns a layer with n controls spread evenly over the curve,
// each with a falloff reaching its neighbors.
func NewVarFK(n int) (*VarFK, error) {
	if n < 2 {
		return nil, errors.Wrapf(ErrInsufficientControlPoints, "VarFK with %d controls", n)
	}
	v := &VarFK{
		Controls: make([]*VarFKControl, n),
		Waves:    [3]SineWave{newSineWave("aim"), newSineWave("up"), newSineWave("tertiary")},
		StartPos: NewBounded("startPos", 0.0, 0, 1),
		AmpRamp:  NewBounded("ampRamp", 0.0, 0, 1),
	}
	for i := range v.Controls {
		v.Controls[i] = NewVarFKControl(float64(i)/float64(n-1), 1/float64(n-1))
	}
	return v, nil
}

// ramp returns the wave amplitude multiplier at u.
func (v *VarFK) ramp(u float64) float64 {
	start := v.StartPos.Get()
	if u < start {
		return 0
	}
	r := v.AmpRamp.Get()
	if r == 0 || start >= 1 {
		return 1
	}
	return (1 - r) + r*(u-start)/(1-start)
}

// Eval returns the perturbed curve and up-curve. upCurve may be nil, in
// which case frames are built against the world Y axis and the returned
// up-curve is nil.
func (v *VarFK) Eval(curve, upCurve *Curve) (*Curve, *Curve, error) {
	if upCurve != nil && !curve.Matches(upCurve) {
		return nil, nil, errors.Wrap(ErrMismatchedParameterization, "evaluating VarFK")
	}

	spans := float64(curve.Spans())
	frameAt := func(t float64) mgl64.Quat {
		p := curve.Eval(t)
		upDir := mgl64.Vec3{0, 1, 0}
		if upCurve != nil {
			upDir = upCurve.Eval(t).Sub(p)
		}
		q, ok := orient(tangentAt(curve, t), upDir, AxisX, AxisY)
		if !ok {
			return mgl64.QuatIdent()
		}
		return q
	}

	// World rotation of each control about its pivot on the input curve.
	type pivot struct {
		pos mgl64.Vec3
		rot mgl64.Quat
	}
	pivots := make([]pivot, len(v.Controls))
	for j, ctl := range v.Controls {
		t := ctl.U.Get() * spans
		q := frameAt(t)
		local := EulerToQuat(ctl.Rotate.Get())
		pivots[j] = pivot{
			pos: curve.Eval(t),
			rot: q.Mul(local).Mul(q.Conjugate()),
		}
	}

	outCurve := curve.Clone()
	var outUp *Curve
	if upCurve != nil {
		outUp = upCurve.Clone()
	}
	for k, t := range curve.PointParams() {
		u := t / spans
		q := frameAt(t)
		p := curve.Points[k]
		var up mgl64.Vec3
		if upCurve != nil {
			up = upCurve.Points[k]
		}

		var disp mgl64.Vec3
		for j, ctl := range v.Controls {
			w := falloffWeight(u, ctl.U.Get(), ctl.Falloff.Get())
			if w == 0 {
				continue
			}
			disp = disp.Add(q.Rotate(ctl.Translate.Get().Mul(w)))
			rot := slerpFromIdentity(pivots[j].rot, w)
			c := pivots[j].pos
			p = c.Add(rot.Rotate(p.Sub(c)))
			up = c.Add(rot.Rotate(up.Sub(c)))
		}
		if r := v.ramp(u); r != 0 {
			for a, wave := range v.Waves {
				disp = disp.Add(q.Rotate(Axis(a).Vec()).Mul(r * wave.at(u)))
			}
		}

		outCurve.Points[k] = p.Add(disp)
		if outUp != nil && v.BuildMode == VarFKBuildBoth {
			outUp.Points[k] = up.Add(disp)
		}
	}
	return outCurve, outUp, nil
}

// slerpFromIdentity returns the rotation q scaled by the weight w ∈ [0, 1],
// along the shortest arc.
func slerpFromIdentity(q mgl64.Quat, w float64) mgl64.Quat {
	if w >= 1 {
		return q
	}
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return mgl64.QuatSlerp(mgl64.QuatIdent(), q, w)
}
