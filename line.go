package rig

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Line represents a line segment. It is the span type of degree 1 curves.
type Line struct {
	// The line's start point.
	P0 mgl64.Vec3
	// The line's end point.
	P1 mgl64.Vec3
}

var _ ArclenSolver = Line{}

// Length returns the length of the line.
func (l Line) Length() float64 {
	return l.P1.Sub(l.P0).Len()
}

// Arclen returns the length of the line
func (l Line) Arclen(accuracy float64) float64 {
	return l.Length()
}

func (l Line) SolveForArclen(arclen float64, accuracy float64) float64 {
	n := l.Length()
	if n == 0 {
		return 0
	}
	return min(max(arclen/n, 0), 1)
}

func (l Line) Eval(t float64) mgl64.Vec3 {
	return lerp(l.P0, l.P1, t)
}

// Deriv returns the line's direction, which is constant.
func (l Line) Deriv(t float64) mgl64.Vec3 {
	return l.P1.Sub(l.P0)
}

func (l Line) Start() mgl64.Vec3 { return l.P0 }
func (l Line) End() mgl64.Vec3   { return l.P1 }

func (l Line) Subsegment(start, end float64) Line {
	return Line{l.Eval(start), l.Eval(end)}
}

func (l Line) SubsegmentCurve(start, end float64) ParametricCurve {
	return l.Subsegment(start, end)
}
