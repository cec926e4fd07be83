package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SimpleSquash computes a squash and stretch scale factor from the ratio of
// a current distance to a rest distance, such as the distance between a
// handle and its root.
type SimpleSquash struct {
	// SquashFactor is the exponent applied to rest/current when the
	// distance shrinks.
	SquashFactor *Param[float64]
	SquashMin    *Param[float64]
	SquashMax    *Param[float64]
	// StretchFactor is the exponent applied to current/rest when the
	// distance grows.
	StretchFactor *Param[float64]
	StretchMin    *Param[float64]
	StretchMax    *Param[float64]
}

// NewSimpleSquash returns a node with linear squash and stretch and no
// clamping.
func NewSimpleSquash() *SimpleSquash {
	return &SimpleSquash{
		SquashFactor:  NewParam("squashFactor", 1.0),
		SquashMin:     NewParam("squashMin", 0.0),
		SquashMax:     NewParam("squashMax", math.Inf(1)),
		StretchFactor: NewParam("stretchFactor", 1.0),
		StretchMin:    NewParam("stretchMin", 0.0),
		StretchMax:    NewParam("stretchMax", math.Inf(1)),
	}
}

// Eval returns the scale factor for the distances rest and current. It
// returns 1 when either distance is not positive.
func (s *SimpleSquash) Eval(rest, current float64) float64 {
	if !(rest > 0) || !(current > 0) || math.IsInf(rest, 0) || math.IsInf(current, 0) {
		return 1
	}
	var f float64
	switch {
	case current < rest:
		f = math.Pow(rest/current, s.SquashFactor.Get())
		f = mgl64.Clamp(f, s.SquashMin.Get(), s.SquashMax.Get())
	case current > rest:
		f = math.Pow(current/rest, s.StretchFactor.Get())
		f = mgl64.Clamp(f, s.StretchMin.Get(), s.StretchMax.Get())
	default:
		return 1
	}
	if math.IsNaN(f) {
		return 1
	}
	return f
}
