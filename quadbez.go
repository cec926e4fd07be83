package rig

import (
	"github.com/go-gl/mathgl/mgl64"
)

// QuadBez is a quadratic Bézier segment. It is primarily the derivative of a
// [CubicBez].
type QuadBez struct {
	P0 mgl64.Vec3
	P1 mgl64.Vec3
	P2 mgl64.Vec3
}

func (q QuadBez) Eval(t float64) mgl64.Vec3 {
	mt := 1.0 - t
	a := q.P0.Mul(mt * mt)
	b := q.P1.Mul(mt * 2.0)
	c := q.P2.Mul(t)
	d := b.Add(c)
	return a.Add(d.Mul(t))
}
