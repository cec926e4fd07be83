package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ResampleMode selects how [Resample] distributes the new knots.
type ResampleMode int

const (
	// ResampleParametric spaces knots evenly in the input's parameter
	// domain.
	ResampleParametric ResampleMode = iota
	// ResampleArclen spaces knots evenly by arc length, making the output's
	// resolution independent of the input's point spacing.
	ResampleArclen
)

func (m ResampleMode) String() string {
	switch m {
	case ResampleParametric:
		return "parametric"
	case ResampleArclen:
		return "arclen"
	default:
		return "ResampleMode(?)"
	}
}

// Resample rebuilds c with the given number of spans. The output has the
// same degree as the input and passes through the input at every knot.
//
// Cubic output spans take their handles from the input's derivative,
// scaled to the parameter range each new span covers. A new span that lies
// within a single input span therefore reproduces the input exactly.
func Resample(c *Curve, sections int, mode ResampleMode) (*Curve, error) {
	if sections < 1 {
		return nil, errors.Wrapf(ErrInvalidResolution, "resampling to %d sections", sections)
	}
	if c.Degree != 1 && c.Degree != 3 {
		return nil, errors.Wrapf(ErrInvalidDegree, "degree %d", c.Degree)
	}
	return resampleAt(c, resampleParams(c, sections, mode)), nil
}

// ResamplePair resamples a curve and its up-curve at the same knots, so
// that their parameterizations keep matching. In ResampleArclen mode the
// knots are spaced by the arc length of c.
func ResamplePair(c, up *Curve, sections int, mode ResampleMode) (*Curve, *Curve, error) {
	if sections < 1 {
		return nil, nil, errors.Wrapf(ErrInvalidResolution, "resampling to %d sections", sections)
	}
	if c.Degree != 1 && c.Degree != 3 {
		return nil, nil, errors.Wrapf(ErrInvalidDegree, "degree %d", c.Degree)
	}
	if !c.Matches(up) {
		return nil, nil, errors.Wrap(ErrMismatchedParameterization, "resampling up-curve")
	}
	params := resampleParams(c, sections, mode)
	return resampleAt(c, params), resampleAt(up, params), nil
}

// resampleAt rebuilds c with knots at the given input parameters.
func resampleAt(c *Curve, params []float64) *Curve {
	sections := len(params) - 1
	if c.Degree == 1 {
		out := &Curve{Degree: 1, Points: make([]mgl64.Vec3, sections+1)}
		for i, t := range params {
			out.Points[i] = c.Eval(t)
		}
		return out
	}

	out := &Curve{Degree: 3, Points: make([]mgl64.Vec3, 0, 3*sections+1)}
	for i := range sections {
		t0, t1 := params[i], params[i+1]
		dt := t1 - t0
		// New spans ending on an input knot use the end tangent of the input
		// span they come from.
		d0 := c.Deriv(t0)
		d1 := derivLeft(c, t1)
		seg := Hermite(c.Eval(t0), d0.Mul(dt), c.Eval(t1), d1.Mul(dt))
		out.Points = append(out.Points, seg.P0, seg.P1, seg.P2)
	}
	out.Points = append(out.Points, c.Eval(params[sections]))
	return out
}

// resampleParams returns the input parameters of the sections+1 knots.
func resampleParams(c *Curve, sections int, mode ResampleMode) []float64 {
	params := make([]float64, sections+1)
	n := float64(c.Spans())
	switch mode {
	case ResampleArclen:
		tbl := newArclenTable(c, DefaultAccuracy)
		total := tbl.total()
		if total == 0 {
			// Degenerate curve, all arc lengths are equal. Fall back to
			// parametric spacing so that knots stay distinct.
			for i := range params {
				params[i] = n * float64(i) / float64(sections)
			}
			break
		}
		for i := range params {
			params[i] = tbl.param(total * float64(i) / float64(sections))
		}
		params[0] = 0
		params[sections] = n
	default:
		for i := range params {
			params[i] = n * float64(i) / float64(sections)
		}
	}
	return params
}

// derivLeft returns the derivative of c at t, approached from below. At
// span boundaries this is the end tangent of the preceding span.
func derivLeft(c *Curve, t float64) mgl64.Vec3 {
	i := min(max(int(math.Ceil(t))-1, 0), c.Spans()-1)
	return c.Segment(i).Deriv(t - float64(i))
}
