package rig

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// SampleMode selects how normalized sample positions map onto a curve.
type SampleMode int

const (
	// SampleParametric maps u linearly onto the curve's parameter domain.
	SampleParametric SampleMode = iota
	// SampleArclen maps u to the fraction of the curve's arc length.
	SampleArclen
)

// ScaleMode selects when the sampler derives a scale factor from the
// curve's length.
type ScaleMode int

const (
	// ScaleAlways applies L/L0 on every evaluation.
	ScaleAlways ScaleMode = iota
	// ScaleWhenLengthChanges applies L/L0 only while the length differs
	// from the rest length by more than a small tolerance, and holds 1
	// otherwise.
	ScaleWhenLengthChanges
	// ScaleDifferentThanCreation applies a factor that is only recomputed
	// by [Sampler.Rebuild].
	ScaleDifferentThanCreation
)

// SquashMode selects which length changes produce squash and stretch, and
// how they are distributed over the sample's axes.
type SquashMode int

const (
	// SquashStretch scales the aim axis by the length factor and the cross
	// axes inversely.
	SquashStretch SquashMode = iota
	// SquashOnly is SquashStretch, but only while the curve is compressed.
	SquashOnly
	// StretchOnly is SquashStretch, but only while the curve is extended.
	StretchOnly
	// SquashUniform scales all three axes by the length factor.
	SquashUniform
	// SquashNone scales only the aim axis.
	SquashNone
)

// lengthTolerance is the relative length difference under which a curve is
// considered to be at rest.
const lengthTolerance = 1e-6

// Sample is the result of sampling a curve at one position.
type Sample struct {
	// U is the normalized position the sample was taken at, after
	// reparameterization.
	U        float64
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// Matrix returns the sample's world matrix.
func (s Sample) Matrix() mgl64.Mat4 {
	return composeMatrix(s.Position, s.Rotation, s.Scale)
}

// Transform returns the sample as transform channels.
func (s Sample) Transform() Transform {
	return Transform{
		Translate: s.Position,
		Rotate:    QuatToEuler(s.Rotation),
		Scale:     s.Scale,
	}
}

// CustomPosition is a sampler position with its own parameter and an
// optional tweak that is spread over neighboring samples.
type CustomPosition struct {
	// U is the normalized position along the curve.
	U *Param[float64]
	// Falloff is the radius, in normalized units, over which the tweak
	// fades out. A falloff of zero disables the tweak.
	Falloff *Param[float64]

	// Translate is applied in the sample's local frame.
	Translate *Param[mgl64.Vec3]
	// Rotate holds xyz Euler angles applied in the sample's local frame.
	Rotate *Param[mgl64.Vec3]
	// Scale multiplies the sample's scale; (1, 1, 1) leaves it unchanged.
	Scale *Param[mgl64.Vec3]
	// Twist rotates about the aim axis, Tertiary about the third axis.
	Twist    *Param[float64]
	Tertiary *Param[float64]
}

// NewCustomPosition returns a custom position at u with no tweak.
func NewCustomPosition(u, falloff float64) *CustomPosition {
	return &CustomPosition{
		U:         NewBounded("uPosition", u, 0, 1),
		Falloff:   NewBounded("falloff", falloff, 0, math.Inf(1)),
		Translate: NewParam("translate", mgl64.Vec3{}),
		Rotate:    NewParam("rotate", mgl64.Vec3{}),
		Scale:     NewParam("scale", mgl64.Vec3{1, 1, 1}),
		Twist:     NewParam("twist", 0.0),
		Tertiary:  NewParam("tertiary", 0.0),
	}
}

// SamplerConfig holds the construction-time settings of a [Sampler]. They
// determine the sampler's topology and cannot change afterwards.
type SamplerConfig struct {
	// Count is the number of outputs.
	Count int
	Mode  SampleMode
	// AimAxis is the local axis that follows the curve's tangent; UpAxis
	// points toward the up-curve.
	AimAxis Axis
	UpAxis  Axis
	// Positions, when not nil, holds one custom position per output.
	// Positions must be non-decreasing.
	Positions []float64
}

// DefaultSamplerConfig returns a config for n evenly spaced outputs aiming
// down X with Y up.
func DefaultSamplerConfig(n int) SamplerConfig {
	return SamplerConfig{
		Count:   n,
		Mode:    SampleParametric,
		AimAxis: AxisX,
		UpAxis:  AxisY,
	}
}

// Sampler places a fixed number of outputs along a curve, deriving each
// output's orientation from the curve's tangent and an up-curve, and its
// scale from the curve's change in length.
//
// The exported parameters are the sampler's tunable attributes. They can be
// set or connected at any time and are read on every evaluation.
//
// A Sampler keeps per-sample state between evaluations (the rest length and
// the last valid orientations), so it must not be evaluated concurrently.
type Sampler struct {
	count     int
	mode      SampleMode
	aim, up   Axis
	positions []*CustomPosition

	// UpVector is the up reference used when no up-curve is given.
	UpVector *Param[mgl64.Vec3]

	DoScale      *Param[bool]
	ScaleMode    *Param[ScaleMode]
	SquashMode   *Param[SquashMode]
	SquashFactor *Param[float64]
	// SquashPos and SquashWidth shape a cosine bell of squash strength
	// along the curve. A width of zero applies squash evenly.
	SquashPos   *Param[float64]
	SquashWidth *Param[float64]
	ScaleMin    *Param[float64]
	ScaleMax    *Param[float64]

	UScale           *Param[float64]
	UOffset          *Param[float64]
	UTugScale        *Param[float64]
	UTugOffset       *Param[float64]
	UScaleMidInverse *Param[float64]

	// ExcludePolesRotation takes the first and last outputs' rotations from
	// the alternate matrices. With a single output, the base matrix is used.
	ExcludeBaseRotation  *Param[bool]
	ExcludePolesRotation *Param[bool]
	BaseAlternateMatrix  *Param[mgl64.Mat4]
	TipAlternateMatrix   *Param[mgl64.Mat4]

	restLength option[float64]
	frozen     struct{ length, factor float64 }
	prev       []option[mgl64.Quat]
	slots      []*Slot
}

// NewSampler returns a sampler with default attribute values: scaling
// always, squash and stretch with a factor of 1, no clamping and no
// reparameterization.
func NewSampler(cfg SamplerConfig) (*Sampler, error) {
	if cfg.Count < 1 {
		return nil, errors.Wrapf(ErrInvalidOutputCount, "sampler with %d outputs", cfg.Count)
	}
	if cfg.Positions != nil && len(cfg.Positions) != cfg.Count {
		return nil, errors.Wrapf(ErrInvalidOutputCount, "%d custom positions for %d outputs", len(cfg.Positions), cfg.Count)
	}
	for i := 1; i < len(cfg.Positions); i++ {
		if cfg.Positions[i] < cfg.Positions[i-1] {
			return nil, errors.Wrapf(ErrNonMonotonicParameterization, "custom position %d (%g) precedes position %d (%g)",
				i, cfg.Positions[i], i-1, cfg.Positions[i-1])
		}
	}
	if cfg.AimAxis.Index() == cfg.UpAxis.Index() {
		return nil, errors.Errorf("aim axis %v and up axis %v must differ", cfg.AimAxis, cfg.UpAxis)
	}

	inf := math.Inf(1)
	s := &Sampler{
		count: cfg.Count,
		mode:  cfg.Mode,
		aim:   cfg.AimAxis,
		up:    cfg.UpAxis,

		UpVector: NewParam("upVector", mgl64.Vec3{0, 1, 0}),

		DoScale:      NewParam("doScale", true),
		ScaleMode:    NewParam("scaleMode", ScaleAlways),
		SquashMode:   NewParam("squashMode", SquashStretch),
		SquashFactor: NewBounded("squashFactor", 1.0, 0, inf),
		SquashPos:    NewBounded("squashPos", 0.5, 0, 1),
		SquashWidth:  NewBounded("squashWidth", 0.0, 0, inf),
		ScaleMin:     NewBounded("scaleMin", 0.0, 0, inf),
		ScaleMax:     NewBounded("scaleMax", inf, 0, inf),

		UScale:           NewParam("uScale", 1.0),
		UOffset:          NewParam("uOffset", 0.0),
		UTugScale:        NewBounded("uTugScale", 0.0, 0, inf),
		UTugOffset:       NewBounded("uTugOffset", 0.0, 0, 1),
		UScaleMidInverse: NewBounded("uScaleMidInverse", 0.0, -1, 1),

		ExcludeBaseRotation:  NewParam("excludeBaseRotation", false),
		ExcludePolesRotation: NewParam("excludePolesRotation", false),
		BaseAlternateMatrix:  NewParam("baseAlternateWorldMatrix", mgl64.Ident4()),
		TipAlternateMatrix:   NewParam("tipAlternateWorldMatrix", mgl64.Ident4()),

		prev: make([]option[mgl64.Quat], cfg.Count),
	}
	s.frozen.factor = 1
	if cfg.Positions != nil {
		s.positions = make([]*CustomPosition, cfg.Count)
		for i, u := range cfg.Positions {
			s.positions[i] = NewCustomPosition(u, 0)
		}
	}
	return s, nil
}

// Count returns the number of outputs.
func (s *Sampler) Count() int { return s.count }

// Positions returns the custom positions, one per output, or nil if the
// sampler spaces its outputs evenly. The positions' parameters may be set or
// connected; the slice itself is fixed at construction.
func (s *Sampler) Positions() []*CustomPosition {
	return slices.Clone(s.positions)
}

// SetRestLength sets the curve length L0 that corresponds to a scale of 1.
// Without a call to SetRestLength, the length seen by the first evaluation
// of a curve with nonzero length is used.
func (s *Sampler) SetRestLength(l float64) {
	s.restLength.set(l)
}

// RestLength returns the rest length and whether it has been recorded.
func (s *Sampler) RestLength() (float64, bool) {
	return s.restLength.get()
}

// Rebuild recomputes the frozen scale factor used by
// ScaleDifferentThanCreation, if the curve's length differs from the
// length at the previous rebuild.
func (s *Sampler) Rebuild(curve *Curve) {
	l := curve.Arclen(DefaultAccuracy)
	if !s.restLength.isSet && l > epsilon {
		s.restLength.set(l)
	}
	if math.Abs(l-s.frozen.length) <= lengthTolerance*max(l, s.frozen.length) {
		return
	}
	s.frozen.length = l
	s.frozen.factor = 1
	if rest := s.restLength.value; rest > epsilon {
		s.frozen.factor = l / rest
	}
}

// Params returns the base normalized positions of the samples, before
// reparameterization. Custom positions are clamped to [0, 1] and forced to
// be non-decreasing, as they may be animated out of order.
func (s *Sampler) Params() []float64 {
	us := make([]float64, s.count)
	if s.positions == nil {
		if s.count == 1 {
			return us
		}
		for i := range us {
			us[i] = float64(i) / float64(s.count-1)
		}
		return us
	}
	for i, cp := range s.positions {
		us[i] = cp.U.Get()
		if i > 0 {
			us[i] = max(us[i], us[i-1])
		}
	}
	return us
}

// Reparam applies the u-space remapping attributes to a normalized
// position: first the tug toward UTugOffset, then the mid-sample bias, then
// UScale and UOffset. The result is clamped to [0, 1].
func (s *Sampler) Reparam(u float64) float64 {
	if k := s.UTugScale.Get(); k > 0 {
		o := s.UTugOffset.Get()
		e := 1 + k
		if u < o {
			u = o - o*math.Pow((o-u)/o, e)
		} else if u > o {
			u = o + (1-o)*math.Pow((u-o)/(1-o), e)
		}
	}
	m := s.UScaleMidInverse.Get()
	u += m * u * (1 - u)
	u = u*s.UScale.Get() + s.UOffset.Get()
	return mgl64.Clamp(u, 0, 1)
}

// Eval samples curve, using upCurve as the orientation reference. upCurve
// may be nil, in which case UpVector is used. It fails only if the curves'
// parameterizations differ.
func (s *Sampler) Eval(curve, upCurve *Curve) ([]Sample, error) {
	if upCurve != nil && !curve.Matches(upCurve) {
		return nil, errors.Wrap(ErrMismatchedParameterization, "sampling with up-curve")
	}

	tbl := newArclenTable(curve, DefaultAccuracy)
	length := tbl.total()
	if !s.restLength.isSet && length > epsilon {
		s.restLength.set(length)
	}
	factor := s.lengthFactor(length)

	base := s.Params()
	out := make([]Sample, s.count)
	spans := float64(curve.Spans())
	for i, u := range base {
		ru := s.Reparam(u)
		var t float64
		if s.mode == SampleArclen {
			t = tbl.param(ru * length)
		} else {
			t = ru * spans
		}

		p := curve.Eval(t)
		var upDir mgl64.Vec3
		if upCurve != nil {
			upDir = upCurve.Eval(t).Sub(p)
		} else {
			upDir = s.UpVector.Get()
		}
		out[i] = Sample{
			U:        ru,
			Position: p,
			Rotation: s.frame(i, tangentAt(curve, t), upDir),
			Scale:    s.squash(factor, ru),
		}
	}

	s.applyTweaks(out, base)

	if s.ExcludePolesRotation.Get() {
		out[s.count-1].Rotation = matrixRotation(s.TipAlternateMatrix.Get())
	}
	if s.ExcludePolesRotation.Get() || s.ExcludeBaseRotation.Get() {
		// With a single output, the base matrix wins.
		out[0].Rotation = matrixRotation(s.BaseAlternateMatrix.Get())
	}
	return out, nil
}

// tangentAt returns the curve's tangent at t, falling back to a central
// difference where the derivative vanishes, such as at coincident handles.
func tangentAt(c *Curve, t float64) mgl64.Vec3 {
	d := c.Deriv(t)
	if d.Len() >= epsilon {
		return d
	}
	const h = 1e-4
	return c.Eval(t + h).Sub(c.Eval(t - h))
}

// frame builds the orientation of sample i from an aim and an up
// direction. If the directions don't define a frame, the sample's previous
// orientation is reused, or the identity if there is none.
func (s *Sampler) frame(i int, tangent, upDir mgl64.Vec3) mgl64.Quat {
	q, ok := orient(tangent, upDir, s.aim, s.up)
	if !ok {
		if q, ok := s.prev[i].get(); ok {
			return q
		}
		return mgl64.QuatIdent()
	}
	s.prev[i].set(q)
	return q
}

// orient returns the rotation that points the local aim axis along tangent
// and the local up axis toward upDir, orthogonalized against the tangent.
// It reports false if tangent is zero or parallel to upDir.
func orient(tangent, upDir mgl64.Vec3, aimAxis, upAxis Axis) (mgl64.Quat, bool) {
	aim, ok1 := normalize(tangent)
	side, ok2 := normalize(aim.Cross(upDir))
	if !ok1 || !ok2 {
		return mgl64.Quat{}, false
	}
	up := side.Cross(aim)

	var cols [3]mgl64.Vec3
	ai, ui := aimAxis.Index(), upAxis.Index()
	cols[ai] = aim.Mul(aimAxis.Sign())
	cols[ui] = up.Mul(upAxis.Sign())
	// A right-handed basis has col[k] = col[k+1] × col[k+2].
	k := 3 - ai - ui
	cols[k] = cols[(k+1)%3].Cross(cols[(k+2)%3])
	return quatFromBasis(cols[0], cols[1], cols[2]), true
}

// lengthFactor returns the scale factor for the current curve length.
func (s *Sampler) lengthFactor(length float64) float64 {
	rest := s.restLength.value
	if !s.DoScale.Get() || rest <= epsilon || length <= epsilon {
		return 1
	}
	switch s.ScaleMode.Get() {
	case ScaleWhenLengthChanges:
		if math.Abs(length-rest) <= lengthTolerance*rest {
			return 1
		}
		return length / rest
	case ScaleDifferentThanCreation:
		return s.frozen.factor
	default:
		return length / rest
	}
}

// squash returns the scale of a sample at normalized position u for the
// length factor f.
func (s *Sampler) squash(f float64, u float64) mgl64.Vec3 {
	aim, cross := 1.0, 1.0
	exp := s.SquashFactor.Get() * s.bell(u)
	switch s.SquashMode.Get() {
	case SquashStretch:
		aim, cross = f, math.Pow(f, -exp)
	case SquashOnly:
		if f < 1 {
			aim, cross = f, math.Pow(f, -exp)
		}
	case StretchOnly:
		if f > 1 {
			aim, cross = f, math.Pow(f, -exp)
		}
	case SquashUniform:
		aim, cross = f, f
	case SquashNone:
		aim = f
	}
	lo, hi := s.ScaleMin.Get(), s.ScaleMax.Get()
	aim = mgl64.Clamp(aim, lo, hi)
	cross = mgl64.Clamp(cross, lo, hi)
	if math.IsNaN(aim) || math.IsInf(aim, 0) || math.IsNaN(cross) || math.IsInf(cross, 0) {
		aim, cross = 1, 1
	}

	out := mgl64.Vec3{cross, cross, cross}
	out[s.aim.Index()] = aim
	return out
}

// bell returns the squash strength at normalized position u.
func (s *Sampler) bell(u float64) float64 {
	w := s.SquashWidth.Get()
	if w <= 0 {
		return 1
	}
	d := math.Abs(u - s.SquashPos.Get())
	if d >= w {
		return 0
	}
	return 0.5 * (1 + math.Cos(math.Pi*d/w))
}

// falloffWeight returns the weight with which a tweak at uTweak affects a
// sample at u.
func falloffWeight(u, uTweak, falloff float64) float64 {
	if falloff <= 0 {
		return 0
	}
	return max(0, 1-math.Abs(u-uTweak)/falloff)
}

// applyTweaks spreads the custom positions' tweaks over the samples. us are
// the samples' base positions.
func (s *Sampler) applyTweaks(out []Sample, us []float64) {
	if s.positions == nil {
		return
	}
	aimVec := s.aim.Vec()
	tertVec := Axis(3 - s.aim.Index() - s.up.Index()).Vec()
	for i := range out {
		var (
			translate mgl64.Vec3
			scale     mgl64.Vec3
			twist     float64
			tertiary  float64
			active    bool
		)
		rot := mgl64.QuatIdent()
		for j, cp := range s.positions {
			w := falloffWeight(us[i], us[j], cp.Falloff.Get())
			if w == 0 {
				continue
			}
			active = true
			translate = translate.Add(cp.Translate.Get().Mul(w))
			scale = scale.Add(cp.Scale.Get().Sub(mgl64.Vec3{1, 1, 1}).Mul(w))
			rot = rot.Mul(EulerToQuat(cp.Rotate.Get().Mul(w)))
			twist += cp.Twist.Get() * w
			tertiary += cp.Tertiary.Get() * w
		}
		if !active {
			continue
		}
		q := out[i].Rotation
		out[i].Position = out[i].Position.Add(q.Rotate(translate))
		q = q.Mul(rot).
			Mul(mgl64.QuatRotate(twist, aimVec)).
			Mul(mgl64.QuatRotate(tertiary, tertVec))
		out[i].Rotation = q.Normalize()
		out[i].Scale = mulComponents(out[i].Scale, scale.Add(mgl64.Vec3{1, 1, 1}))
	}
}

// Bind connects the sampler's outputs to slots, one slot per output, and
// claims write authority over them. On failure no slot is claimed.
func (s *Sampler) Bind(slots []*Slot) error {
	if len(slots) != s.count {
		return errors.Wrapf(ErrInvalidOutputCount, "binding %d slots to %d outputs", len(slots), s.count)
	}
	for i, slot := range slots {
		if err := slot.Claim(s); err != nil {
			for _, claimed := range slots[:i] {
				_ = claimed.Release(s)
			}
			return err
		}
	}
	s.slots = slots
	return nil
}

// Unbind releases every bound slot the sampler still owns.
func (s *Sampler) Unbind() {
	for _, slot := range s.slots {
		_ = slot.Release(s)
	}
	s.slots = nil
}

// Slots returns the bound slots.
func (s *Sampler) Slots() []*Slot {
	return s.slots
}

// Apply writes samples into the bound slots. Slots whose authority has been
// transferred to another producer are skipped and reported with
// ErrNotAuthority after all other slots have been written.
func (s *Sampler) Apply(samples []Sample) error {
	var firstErr error
	for i, slot := range s.slots {
		if i >= len(samples) {
			break
		}
		if err := slot.WriteWorld(s, samples[i].Matrix()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
