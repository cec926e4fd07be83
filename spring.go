package rig

import (
	"math"
	"slices"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

// SpringModel selects the integrator used by [SpringStep].
type SpringModel int

const (
	// SpringExplicit integrates each point with
	//
	//	velocity += (target - current) * stiffness
	//	velocity *= 1 - damping
	//	current += velocity * dt
	//
	// where stiffness and damping are per-frame fractions in [0, 1].
	SpringExplicit SpringModel = iota
	// SpringHarmonic advances each point with the closed-form damped
	// harmonic oscillator. Stiffness is the angular frequency in radians per
	// unit of time and damping the damping ratio (1 is critically damped).
	// It stays stable for any time step.
	SpringHarmonic
)

func (m SpringModel) String() string {
	switch m {
	case SpringExplicit:
		return "explicit"
	case SpringHarmonic:
		return "harmonic"
	default:
		return "SpringModel(?)"
	}
}

// SpringSettings holds the tunables of a spring.
type SpringSettings struct {
	Model     SpringModel
	Stiffness *Param[float64]
	Damping   *Param[float64]
	// Strength blends between the target (0) and the fully sprung result
	// (1).
	Strength *Param[float64]
	// StartFrame is the frame at which the spring rests on its target.
	// Evaluating it, or any earlier frame, resets the state.
	StartFrame *Param[float64]
	// MaxFrameGap is the largest frame delta integrated as one step. A
	// longer jump resets the state.
	MaxFrameGap *Param[float64]
}

// DefaultSpringSettings returns settings for a moderately stiff explicit
// spring starting at frame 1.
func DefaultSpringSettings() SpringSettings {
	return SpringSettings{
		Model:       SpringExplicit,
		Stiffness:   NewBounded("stiffness", 0.5, 0, math.Inf(1)),
		Damping:     NewBounded("damping", 0.5, 0, 1),
		Strength:    NewBounded("strength", 1.0, 0, 1),
		StartFrame:  NewParam("startFrame", 1.0),
		MaxFrameGap: NewBounded("maxFrameGap", 1.0, 0, math.Inf(1)),
	}
}

// SpringState is the state carried between frames by [SpringStep]. The zero
// value is an empty state; the next step resets to the target.
type SpringState struct {
	Frame      float64
	Positions  []mgl64.Vec3
	Velocities []mgl64.Vec3
}

// Valid reports whether s holds integrated state.
func (s SpringState) Valid() bool {
	return s.Positions != nil
}

func restState(target *Curve, frame float64) SpringState {
	return SpringState{
		Frame:      frame,
		Positions:  slices.Clone(target.Points),
		Velocities: make([]mgl64.Vec3, len(target.Points)),
	}
}

// advances reports whether frame follows prev closely enough to be
// integrated from it.
func advances(prev, frame, maxGap float64) bool {
	return frame > prev && frame-prev <= maxGap
}

// SpringStep advances every control point of target one frame from prev
// towards its target position and returns the sprung curve and the new
// state. prev is not modified.
//
// The state resets to rest, with zero velocity and positions on the target,
// when frame is at or before the start frame, when prev is empty or has a
// different number of points, and when frame does not advance past
// prev.Frame or jumps more than MaxFrameGap frames past it. A reset frame
// returns a copy of target.
//
// dt is the time step. If dt <= 0, the frame delta is used.
func SpringStep(target *Curve, prev SpringState, settings SpringSettings, frame, dt float64) (*Curve, SpringState) {
	if frame <= settings.StartFrame.Get() ||
		!prev.Valid() ||
		len(prev.Positions) != len(target.Points) ||
		len(prev.Velocities) != len(target.Points) ||
		!advances(prev.Frame, frame, settings.MaxFrameGap.Get()) {
		return target.Clone(), restState(target, frame)
	}
	if dt <= 0 {
		dt = frame - prev.Frame
	}

	next := SpringState{
		Frame:      frame,
		Positions:  make([]mgl64.Vec3, len(target.Points)),
		Velocities: make([]mgl64.Vec3, len(target.Points)),
	}
	switch settings.Model {
	case SpringHarmonic:
		s := harmonica.NewSpring(dt, settings.Stiffness.Get(), settings.Damping.Get())
		for i, goal := range target.Points {
			var p, v mgl64.Vec3
			for k := range 3 {
				p[k], v[k] = s.Update(prev.Positions[i][k], prev.Velocities[i][k], goal[k])
			}
			next.Positions[i] = p
			next.Velocities[i] = v
		}
	default:
		stiffness := settings.Stiffness.Get()
		damping := settings.Damping.Get()
		for i, goal := range target.Points {
			cur := prev.Positions[i]
			v := prev.Velocities[i].Add(goal.Sub(cur).Mul(stiffness)).Mul(1 - damping)
			next.Velocities[i] = v
			next.Positions[i] = cur.Add(v.Mul(dt))
		}
	}

	strength := settings.Strength.Get()
	out := &Curve{Degree: target.Degree, Points: make([]mgl64.Vec3, len(target.Points))}
	for i, goal := range target.Points {
		p := lerp(goal, next.Positions[i], strength)
		if !isFinite(p) {
			// Recover from a blown up integration by resting on the target.
			return target.Clone(), restState(target, frame)
		}
		out.Points[i] = p
	}
	return out, next
}

// SpringCurve is a spring that keeps its own state across frames. It must
// be evaluated once per frame, in frame order.
type SpringCurve struct {
	Settings SpringSettings
	// TimeStep is passed to SpringStep as dt.
	TimeStep float64

	state SpringState
}

// NewSpringCurve returns a spring with default settings advancing one time
// unit per frame.
func NewSpringCurve() *SpringCurve {
	return &SpringCurve{Settings: DefaultSpringSettings(), TimeStep: 1}
}

// Eval advances the spring to frame and returns the sprung curve.
func (s *SpringCurve) Eval(target *Curve, frame float64) *Curve {
	out, state := SpringStep(target, s.state, s.Settings, frame, s.TimeStep)
	s.state = state
	return out
}

// State returns the spring's current state.
func (s *SpringCurve) State() SpringState { return s.state }

// Reset discards the spring's state.
func (s *SpringCurve) Reset() { s.state = SpringState{} }
