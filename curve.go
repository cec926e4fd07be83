package rig

import (
	"iter"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// DefaultAccuracy is a default value for methods that take an accuracy
// argument. It is suitable for rig evaluation at the scale of a character.
const DefaultAccuracy = 1e-6

// ParametricCurve describes a curve segment parametrized by a scalar
// t ∈ [0, 1].
type ParametricCurve interface {
	// Eval evaluates the curve at parameter t.
	Eval(t float64) mgl64.Vec3
	// Deriv evaluates the first derivative with respect to t.
	Deriv(t float64) mgl64.Vec3
	// Get a subsegment of the curve for the given parameter range.
	SubsegmentCurve(start, end float64) ParametricCurve
	Start() mgl64.Vec3
	End() mgl64.Vec3
}

// Arclener describes a parametrized curve that can have its arc length
// measured.
type Arclener interface {
	// Arclen returns the length of the curve.
	//
	// The result is accurate to the given accuracy (subject to roundoff errors
	// for ridiculously low values). Compute time may vary with accuracy, if the
	// curve needs to be subdivided.
	Arclen(accuracy float64) float64
}

// Segment is a single span of a [Curve].
type Segment interface {
	ParametricCurve
	Arclener
}

var _ Segment = Line{}
var _ Segment = CubicBez{}

// Curve is a piecewise curve through 3D control points.
//
// A degree 1 curve is a polyline with one span per pair of consecutive
// points. A degree 3 curve is a sequence of cubic Bézier spans sharing end
// points, so it has 3·spans+1 points. In both cases the parametric domain is
// [0, Spans()], with integer parameters at span boundaries.
//
// Curves are treated as immutable once built; operations that change a
// curve return a new one.
type Curve struct {
	Degree int
	Points []mgl64.Vec3
}

// NewCurve validates the point count for the degree and returns the curve.
// The points are copied.
func NewCurve(degree int, points []mgl64.Vec3) (*Curve, error) {
	switch degree {
	case 1:
		if len(points) < 2 {
			return nil, errors.Wrapf(ErrInsufficientControlPoints, "degree 1 curve with %d points", len(points))
		}
	case 3:
		if len(points) < 4 || (len(points)-1)%3 != 0 {
			return nil, errors.Wrapf(ErrInsufficientControlPoints, "degree 3 curve with %d points", len(points))
		}
	default:
		return nil, errors.Wrapf(ErrInvalidDegree, "degree %d", degree)
	}
	return &Curve{Degree: degree, Points: slices.Clone(points)}, nil
}

// Spans returns the number of spans, which is also the upper bound of the
// parametric domain.
func (c *Curve) Spans() int {
	if c.Degree == 3 {
		return (len(c.Points) - 1) / 3
	}
	return len(c.Points) - 1
}

// Clone returns a deep copy of the curve.
func (c *Curve) Clone() *Curve {
	return &Curve{Degree: c.Degree, Points: slices.Clone(c.Points)}
}

// Matches reports whether o has the same parameterization as c, that is,
// the same degree and number of control points.
func (c *Curve) Matches(o *Curve) bool {
	return c.Degree == o.Degree && len(c.Points) == len(o.Points)
}

// Translate returns a copy of the curve with every point moved by v.
func (c *Curve) Translate(v mgl64.Vec3) *Curve {
	out := c.Clone()
	for i := range out.Points {
		out.Points[i] = out.Points[i].Add(v)
	}
	return out
}

// PointParams returns the curve parameter associated with each control
// point. For cubic curves, the inner handles of span i are reported at
// i+1/3 and i+2/3.
func (c *Curve) PointParams() []float64 {
	out := make([]float64, len(c.Points))
	for i := range out {
		if c.Degree == 3 {
			out[i] = float64(i) / 3
		} else {
			out[i] = float64(i)
		}
	}
	return out
}

// Segment returns span i of the curve.
func (c *Curve) Segment(i int) Segment {
	if c.Degree == 3 {
		p := c.Points[3*i : 3*i+4]
		return CubicBez{p[0], p[1], p[2], p[3]}
	}
	return Line{c.Points[i], c.Points[i+1]}
}

// Segments returns an iterator over the curve's spans.
func (c *Curve) Segments() iter.Seq2[int, Segment] {
	return func(yield func(int, Segment) bool) {
		for i := range c.Spans() {
			if !yield(i, c.Segment(i)) {
				return
			}
		}
	}
}

// locate maps a curve parameter to a span index and a local parameter in
// [0, 1]. Parameters outside the domain are clamped.
func (c *Curve) locate(t float64) (int, float64) {
	n := c.Spans()
	if math.IsNaN(t) {
		t = 0
	}
	t = mgl64.Clamp(t, 0, float64(n))
	i := min(int(math.Floor(t)), n-1)
	return i, t - float64(i)
}

// Eval evaluates the curve at parameter t ∈ [0, Spans()].
func (c *Curve) Eval(t float64) mgl64.Vec3 {
	i, lt := c.locate(t)
	return c.Segment(i).Eval(lt)
}

// Deriv returns the first derivative of the curve at parameter t.
//
// At span boundaries the derivative of the following span is used, except
// at the end of the curve.
func (c *Curve) Deriv(t float64) mgl64.Vec3 {
	i, lt := c.locate(t)
	return c.Segment(i).Deriv(lt)
}

// EvalNormalized evaluates the curve at the normalized parameter u ∈ [0, 1].
func (c *Curve) EvalNormalized(u float64) mgl64.Vec3 {
	return c.Eval(u * float64(c.Spans()))
}

// Arclen returns the total length of the curve.
func (c *Curve) Arclen(accuracy float64) float64 {
	var sum float64
	n := float64(c.Spans())
	for _, seg := range c.Segments() {
		sum += seg.Arclen(accuracy / n)
	}
	return sum
}

// ParamAtLength returns the curve parameter at which the arc length from
// the start of the curve equals s. Lengths outside of the curve are
// clamped.
func (c *Curve) ParamAtLength(s float64, accuracy float64) float64 {
	return newArclenTable(c, accuracy).param(s)
}

// minArclenSubsteps is the number of pieces each span is split into when
// building an arc length table. Splitting bounds the parameter range any
// single root solve has to search.
const minArclenSubsteps = 8

// arclenTable maps arc lengths to curve parameters.
type arclenTable struct {
	curve    *Curve
	accuracy float64
	// params[i] is the curve parameter of table entry i, and lengths[i] is
	// the arc length from the start of the curve to it.
	params  []float64
	lengths []float64
}

func newArclenTable(c *Curve, accuracy float64) *arclenTable {
	n := c.Spans() * minArclenSubsteps
	tbl := &arclenTable{
		curve:    c,
		accuracy: accuracy,
		params:   make([]float64, n+1),
		lengths:  make([]float64, n+1),
	}
	inner := accuracy / float64(n)
	for i := range n {
		t0 := float64(i) / minArclenSubsteps
		t1 := float64(i+1) / minArclenSubsteps
		span, lt0 := c.locate(t0)
		lt1 := t1 - float64(span)
		sub := c.Segment(span).SubsegmentCurve(lt0, lt1).(Arclener)
		tbl.params[i+1] = t1
		tbl.lengths[i+1] = tbl.lengths[i] + sub.Arclen(inner)
	}
	return tbl
}

// total returns the length of the curve.
func (tbl *arclenTable) total() float64 {
	return tbl.lengths[len(tbl.lengths)-1]
}

// param returns the curve parameter at arc length s.
func (tbl *arclenTable) param(s float64) float64 {
	last := len(tbl.lengths) - 1
	if s <= 0 || tbl.total() == 0 {
		return 0
	}
	if s >= tbl.total() {
		return tbl.params[last]
	}
	i, found := slices.BinarySearch(tbl.lengths, s)
	if found {
		return tbl.params[i]
	}
	// lengths[i-1] < s < lengths[i]
	t0, t1 := tbl.params[i-1], tbl.params[i]
	span, lt0 := tbl.curve.locate(t0)
	lt1 := t1 - float64(span)
	sub := tbl.curve.Segment(span).SubsegmentCurve(lt0, lt1)
	local := SolveForArclen(sub.(Segment), s-tbl.lengths[i-1], tbl.accuracy)
	return t0 + local*(t1-t0)
}

// ArclenSolver can be implemented by types that have a better way of computing
// the solution than the one used by [SolveForArclen].
type ArclenSolver interface {
	SolveForArclen(arclen float64, accuracy float64) float64
}

// SolveForArclen solves for the parameter that has the given arc length from
// the start of the curve.
//
// This implementation uses the [ITP method], as provided by [SolveITP]. This is
// as robust as bisection but typically converges faster. In addition, the
// method takes care to compute arc lengths of increasingly smaller segments of
// the curve, as that is likely faster than repeatedly computing the arc length
// of the segment starting at t=0.
//
// Types can optionally implement [ArclenSolver], in which case this function
// will defer to it.
//
// [ITP method]: https://en.wikipedia.org/wiki/ITP_Method
func SolveForArclen(curve Segment, arclen float64, accuracy float64) float64 {
	if curve, ok := curve.(ArclenSolver); ok {
		return curve.SolveForArclen(arclen, accuracy)
	}

	if arclen <= 0.0 {
		return 0.0
	}
	totalArclen := curve.Arclen(accuracy)
	if arclen >= totalArclen {
		return 1.0
	}
	tLast := 0.0
	arclenLast := 0.0
	epsilon := accuracy / totalArclen
	n := 1.0 - min(math.Ceil(math.Log2(epsilon)), 0.0)
	innerAccuracy := accuracy / n
	f := func(t float64) float64 {
		var rangeStart, rangeEnd, dir float64
		if t > tLast {
			rangeStart = tLast
			rangeEnd = t
			dir = 1.0
		} else {
			rangeStart = t
			rangeEnd = tLast
			dir = -1.0
		}
		arc := curve.SubsegmentCurve(rangeStart, rangeEnd).(Arclener).Arclen(innerAccuracy)
		arclenLast += arc * dir
		tLast = t
		return arclenLast - arclen
	}
	return SolveITP(f, 0.0, 1.0, epsilon, 1, 0.2, -arclen, totalArclen-arclen)
}

// SolveITP solves an arbitrary function for a zero-crossing.
//
// This uses the [ITP method], as described in the paper [An Enhancement of the
// Bisection Method Average Performance Preserving Minmax Optimality].
//
// The values of ya and yb are given as arguments rather than computed from f,
// as the values may already be known, or they may be less expensive to compute
// as special cases.
//
// It is assumed that ya < 0.0 and yb > 0.0, otherwise unexpected results may
// occur.
//
// The value of epsilon must be larger than 2**-63 * (b - a), otherwise integer
// overflow may occur. The a and b parameters represent the lower and upper
// bounds of the bracket searched for a solution.
//
// The ITP method has tuning parameters. This implementation hardwires k2 to 2,
// both because it avoids an expensive floating point exponentiation and because
// this value has been tested to work well with arc length problems.
//
// The n0 parameter controls the relative impact of the bisection and secant
// components. When it is 0, the number of iterations is guaranteed to be no
// more than the number required by bisection. When the function is smooth, a
// value of 1 gives the secant method more of a chance to engage.
//
// [ITP method]: https://en.wikipedia.org/wiki/ITP_Method
// [An Enhancement of the Bisection Method Average Performance Preserving Minmax Optimality]: https://dl.acm.org/doi/10.1145/3423597
func SolveITP(
	f func(float64) float64,
	a float64,
	b float64,
	epsilon float64,
	n0 int,
	k1 float64,
	ya float64,
	yb float64,
) float64 {
	n1_2 := int(max(math.Ceil(math.Log2((b-a)/epsilon))-1.0, 0.0))
	nmax := n0 + n1_2
	scaledEpsilon := epsilon * float64(uint64(1)<<nmax)
	for b-a > 2.0*epsilon {
		x1_2 := 0.5 * (a + b)
		r := scaledEpsilon - 0.5*(b-a)
		xf := (yb*a - ya*b) / (yb - ya)
		sigma := x1_2 - xf
		// This has k2 = 2 hardwired for efficiency.
		delta := k1 * ((b - a) * (b - a))
		var xt float64
		if delta <= math.Abs(x1_2-xf) {
			xt = xf + math.Copysign(delta, sigma)
		} else {
			xt = x1_2
		}
		var xitp float64
		if math.Abs(xt-x1_2) <= r {
			xitp = xt
		} else {
			xitp = x1_2 - math.Copysign(r, sigma)
		}
		yitp := f(xitp)
		if yitp > 0.0 {
			b = xitp
			yb = yitp
		} else if yitp < 0.0 {
			a = xitp
			ya = yitp
		} else {
			return xitp
		}
		scaledEpsilon *= 0.5
	}
	return 0.5 * (a + b)
}

type option[T any] struct {
	isSet bool
	value T
}

func (opt *option[T]) set(v T) {
	opt.isSet = true
	opt.value = v
}

func (opt option[T]) get() (T, bool) {
	return opt.value, opt.isSet
}

// Tables of Legendre-Gauss quadrature coefficients, adapted from:
// <https://pomax.github.io/bezierinfo/legendre-gauss.html>

var gaussLegendreCoeffs8 = [...][2]float64{
	{0.3626837833783620, -0.1834346424956498},
	{0.3626837833783620, 0.1834346424956498},
	{0.3137066458778873, -0.5255324099163290},
	{0.3137066458778873, 0.5255324099163290},
	{0.2223810344533745, -0.7966664774136267},
	{0.2223810344533745, 0.7966664774136267},
	{0.1012285362903763, -0.9602898564975363},
	{0.1012285362903763, 0.9602898564975363},
}

var gaussLegendreCoeffs8Half = [...][2]float64{
	{0.3626837833783620, 0.1834346424956498},
	{0.3137066458778873, 0.5255324099163290},
	{0.2223810344533745, 0.7966664774136267},
	{0.1012285362903763, 0.9602898564975363},
}

var gaussLegendreCoeffs16Half = [...][2]float64{
	{0.1894506104550685, 0.0950125098376374},
	{0.1826034150449236, 0.2816035507792589},
	{0.1691565193950025, 0.4580167776572274},
	{0.1495959888165767, 0.6178762444026438},
	{0.1246289712555339, 0.7554044083550030},
	{0.0951585116824928, 0.8656312023878318},
	{0.0622535239386479, 0.9445750230732326},
	{0.0271524594117541, 0.9894009349916499},
}

var gaussLegendreCoeffs24Half = [...][2]float64{
	{0.1279381953467522, 0.0640568928626056},
	{0.1258374563468283, 0.1911188674736163},
	{0.1216704729278034, 0.3150426796961634},
	{0.1155056680537256, 0.4337935076260451},
	{0.1074442701159656, 0.5454214713888396},
	{0.0976186521041139, 0.6480936519369755},
	{0.0861901615319533, 0.7401241915785544},
	{0.0733464814110803, 0.8200019859739029},
	{0.0592985849154368, 0.8864155270044011},
	{0.0442774388174198, 0.9382745520027328},
	{0.0285313886289337, 0.9747285559713095},
	{0.0123412297999872, 0.9951872199970213},
}
