package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WheelDrive turns a wheel as its driver moves, by the distance traveled
// along a forward direction.
type WheelDrive struct {
	Diameter  *Param[float64]
	GearRatio *Param[float64]
	// Forward is the world direction in which positive travel turns the
	// wheel forward. It need not be normalized.
	Forward *Param[mgl64.Vec3]
	// Axis is the local axis the wheel turns about.
	Axis       Axis
	StartFrame *Param[float64]
	// MaxFrameGap is the largest frame delta driven as one step. A longer
	// jump resets the angle.
	MaxFrameGap *Param[float64]
}

// NewWheelDrive returns a unit wheel rolling along +Z about its X axis,
// starting at frame 1.
func NewWheelDrive() *WheelDrive {
	return &WheelDrive{
		Diameter:    NewBounded("diameter", 1.0, 0, math.Inf(1)),
		GearRatio:   NewParam("gearRatio", 1.0),
		Forward:     NewParam("forward", mgl64.Vec3{0, 0, 1}),
		Axis:        AxisX,
		StartFrame:  NewParam("startFrame", 1.0),
		MaxFrameGap: NewBounded("maxFrameGap", 1.0, 0, math.Inf(1)),
	}
}

// WheelState is the state carried between frames by [WheelDrive.Step].
// The zero value is an empty state.
type WheelState struct {
	Frame    float64
	Position mgl64.Vec3
	// Angle is the accumulated rotation in radians.
	Angle float64

	valid bool
}

// Valid reports whether s holds integrated state.
func (s WheelState) Valid() bool { return s.valid }

// Step advances prev to frame, with the driver at pos, and returns the new
// state.
//
// Each step adds 2π · gearRatio · (Δ · forward) / (π · diameter) radians,
// where Δ is the displacement since prev. The state resets to a zero angle
// at or before the start frame, when prev is empty, and when frame does
// not advance past prev.Frame or jumps more than MaxFrameGap frames past
// it. A zero diameter or forward direction holds
// the angle.
func (w *WheelDrive) Step(prev WheelState, pos mgl64.Vec3, frame float64) WheelState {
	if frame <= w.StartFrame.Get() || !prev.valid || !advances(prev.Frame, frame, w.MaxFrameGap.Get()) {
		return WheelState{Frame: frame, Position: pos, valid: true}
	}
	next := WheelState{Frame: frame, Position: pos, Angle: prev.Angle, valid: true}

	d := w.Diameter.Get()
	fwd, ok := normalize(w.Forward.Get())
	if d <= 0 || !ok {
		return next
	}
	dist := pos.Sub(prev.Position).Dot(fwd)
	turn := dist / (math.Pi * d) * 2 * math.Pi * w.GearRatio.Get()
	if math.IsNaN(turn) || math.IsInf(turn, 0) {
		return next
	}
	next.Angle += turn
	return next
}

// Rotation returns the Euler rotation channels that turn the wheel by the
// angle of s about w.Axis.
func (w *WheelDrive) Rotation(s WheelState) mgl64.Vec3 {
	var r mgl64.Vec3
	r[w.Axis.Index()] = w.Axis.Sign() * s.Angle
	return r
}
