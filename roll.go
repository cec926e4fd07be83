package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SphereRoll rolls a sphere without slipping as its center moves.
type SphereRoll struct {
	Radius *Param[float64]
	// Up is the normal of the ground the sphere rolls on.
	Up         *Param[mgl64.Vec3]
	StartFrame *Param[float64]
	// MaxFrameGap is the largest frame delta rolled as one step. A longer
	// jump resets the orientation.
	MaxFrameGap *Param[float64]
}

// NewSphereRoll returns a unit sphere rolling on the XZ plane, starting at
// frame 1.
func NewSphereRoll() *SphereRoll {
	return &SphereRoll{
		Radius:      NewBounded("radius", 1.0, 0, math.Inf(1)),
		Up:          NewParam("up", mgl64.Vec3{0, 1, 0}),
		StartFrame:  NewParam("startFrame", 1.0),
		MaxFrameGap: NewBounded("maxFrameGap", 1.0, 0, math.Inf(1)),
	}
}

// RollState is the state carried between frames by [SphereRoll.Step]. The
// zero value is an empty state.
type RollState struct {
	Frame       float64
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Valid reports whether s holds integrated state.
func (s RollState) Valid() bool {
	return s.Orientation != (mgl64.Quat{})
}

// Step advances prev to frame, with the sphere's center at pos, and returns
// the new state.
//
// The sphere turns about up × Δ by |Δ| / radius radians, where Δ is the
// displacement since prev. The state resets to the identity orientation at
// or before the start frame, when prev is empty, and when frame does not
// advance past prev.Frame or jumps more than MaxFrameGap frames past it. Displacements that cannot roll the sphere, such
// as moving along up or a zero radius, leave the orientation unchanged.
func (r *SphereRoll) Step(prev RollState, pos mgl64.Vec3, frame float64) RollState {
	if frame <= r.StartFrame.Get() || !prev.Valid() || !advances(prev.Frame, frame, r.MaxFrameGap.Get()) {
		return RollState{Frame: frame, Position: pos, Orientation: mgl64.QuatIdent()}
	}
	next := RollState{Frame: frame, Position: pos, Orientation: prev.Orientation}

	radius := r.Radius.Get()
	if radius <= 0 {
		return next
	}
	delta := pos.Sub(prev.Position)
	axis, ok := normalize(r.Up.Get().Cross(delta))
	if !ok {
		return next
	}
	angle := delta.Len() / radius
	q := mgl64.QuatRotate(angle, axis).Mul(prev.Orientation).Normalize()
	if !isFinite(q.V) || math.IsNaN(q.W) {
		return next
	}
	next.Orientation = q
	return next
}
