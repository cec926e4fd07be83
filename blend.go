package rig

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// BlendMode selects how rotations are blended.
type BlendMode int

const (
	// BlendLinear blends Euler rotation channels independently, like every
	// other channel. Large rotation differences can produce gimbal
	// artifacts.
	BlendLinear BlendMode = iota
	// BlendSlerp blends rotations along the shortest arc between the two
	// orientations. Translate and scale still blend linearly.
	BlendSlerp
)

func (m BlendMode) String() string {
	switch m {
	case BlendLinear:
		return "linear"
	case BlendSlerp:
		return "slerp"
	default:
		return "BlendMode(?)"
	}
}

func blendVec(a, b mgl64.Vec3, w float64) mgl64.Vec3 {
	// Not lerp(b, a, w): w·a + (1-w)·b is exactly b at 0 and exactly a at 1.
	return a.Mul(w).Add(b.Mul(1 - w))
}

// BlendTransforms returns w·a + (1-w)·b, computed per channel. It returns
// exactly b for w = 0 and exactly a for w = 1.
func BlendTransforms(a, b Transform, w float64) Transform {
	return Transform{
		Translate: blendVec(a.Translate, b.Translate, w),
		Rotate:    blendVec(a.Rotate, b.Rotate, w),
		Scale:     blendVec(a.Scale, b.Scale, w),
	}
}

// BlendTransformsSlerp is like [BlendTransforms] but interpolates rotation
// spherically. The Euler channels of the result are not necessarily close
// to those of a and b, even at w = 0 and w = 1, although the orientations
// they describe are.
func BlendTransformsSlerp(a, b Transform, w float64) Transform {
	out := BlendTransforms(a, b, w)
	switch w {
	case 0:
		out.Rotate = b.Rotate
	case 1:
		out.Rotate = a.Rotate
	default:
		qa, qb := a.Quat(), b.Quat()
		if qa.Dot(qb) < 0 {
			qa = qa.Scale(-1)
		}
		out.Rotate = QuatToEuler(mgl64.QuatSlerp(qb, qa, w))
	}
	return out
}

// WeightedBlend returns the weighted sum of xforms, per channel. Negative
// weights count as zero and the remaining weights are normalized to sum to
// 1. If all weights are zero, the first transform is returned.
//
// WeightedBlend panics if xforms is empty or the lengths differ.
func WeightedBlend(xforms []Transform, weights []float64) Transform {
	if len(xforms) == 0 || len(xforms) != len(weights) {
		panic(fmt.Sprintf("WeightedBlend: %d transforms, %d weights", len(xforms), len(weights)))
	}
	var sum float64
	for _, w := range weights {
		sum += max(w, 0)
	}
	if !(sum > 0) {
		return xforms[0]
	}
	var out Transform
	for i, xf := range xforms {
		w := max(weights[i], 0) / sum
		if w == 0 {
			continue
		}
		out.Translate = out.Translate.Add(xf.Translate.Mul(w))
		out.Rotate = out.Rotate.Add(xf.Rotate.Mul(w))
		out.Scale = out.Scale.Add(xf.Scale.Mul(w))
	}
	return out
}

// Blend mixes two transform sources into one target, such as an IK and an
// FK chain driving a bind joint. Weight selects A at 1 and B at 0; B's
// weight is always the complement of A's.
type Blend struct {
	A, B   Source[Transform]
	Weight *Param[float64]
	Mode   BlendMode

	slot *Slot
}

// NewBlend returns a linear blend between a and b, fully on a.
func NewBlend(a, b Source[Transform]) *Blend {
	return &Blend{
		A:      a,
		B:      b,
		Weight: NewBounded("blend", 1.0, 0, 1),
	}
}

// Weights returns the weights of A and B, which sum to 1.
func (b *Blend) Weights() (wa, wb float64) {
	return b.Weight.Get(), Reverse(b.Weight).Get()
}

// Eval returns the blended transform.
func (b *Blend) Eval() Transform {
	w := b.Weight.Get()
	if b.Mode == BlendSlerp {
		return BlendTransformsSlerp(b.A.Get(), b.B.Get(), w)
	}
	return BlendTransforms(b.A.Get(), b.B.Get(), w)
}

// Bind claims write authority over slot.
func (b *Blend) Bind(slot *Slot) error {
	if err := slot.Claim(b); err != nil {
		return err
	}
	b.slot = slot
	return nil
}

// Unbind releases the bound slot.
func (b *Blend) Unbind() {
	if b.slot != nil {
		_ = b.slot.Release(b)
		b.slot = nil
	}
}

// Apply writes the blended transform into the bound slot's local channels.
func (b *Blend) Apply() error {
	if b.slot == nil {
		return nil
	}
	return b.slot.Write(b, b.Eval())
}

// SpaceSwitch re-parents a control under one of several spaces, selected by
// Index. The control's world matrix is
//
//	space[i] · offset[i] · local
//
// Offsets start as the identity. When MaintainOffset is set, switching
// spaces captures the offset that keeps the world matrix unchanged at the
// moment of the switch. Offsets are not updated afterwards, so a switch
// made away from the pose the offset was captured in drifts.
type SpaceSwitch struct {
	Spaces []Source[mgl64.Mat4]
	Local  Source[Transform]
	Index  *Param[int]
	// MaintainOffset selects whether switching captures an offset.
	MaintainOffset bool

	offsets []mgl64.Mat4
	active  int
	slot    *Slot
}

// NewSpaceSwitch returns a switch starting in the first space. local
// provides the control's own channels; nil means the identity.
func NewSpaceSwitch(spaces []Source[mgl64.Mat4], local Source[Transform]) (*SpaceSwitch, error) {
	if len(spaces) == 0 {
		return nil, errors.Wrap(ErrNoSources, "creating space switch")
	}
	if local == nil {
		local = Const(Identity)
	}
	s := &SpaceSwitch{
		Spaces:         spaces,
		Local:          local,
		Index:          NewBounded("space", 0, 0, len(spaces)-1),
		MaintainOffset: true,
		offsets:        make([]mgl64.Mat4, len(spaces)),
	}
	for i := range s.offsets {
		s.offsets[i] = mgl64.Ident4()
	}
	return s, nil
}

// Active returns the index of the space the control currently follows.
func (s *SpaceSwitch) Active() int { return s.active }

// Offset returns the offset captured for space i.
func (s *SpaceSwitch) Offset(i int) mgl64.Mat4 { return s.offsets[i] }

// Weights returns the hard constraint weights: 1 for the active space and 0
// for all others.
func (s *SpaceSwitch) Weights() []float64 {
	w := make([]float64, len(s.Spaces))
	w[s.active] = 1
	return w
}

// Switch makes i the active space and sets Index accordingly. If Index is
// connected, the connection wins at the next Eval.
func (s *SpaceSwitch) Switch(i int) {
	s.Index.Set(i)
	s.switchTo(s.Index.Get())
}

func (s *SpaceSwitch) switchTo(i int) {
	if i == s.active {
		return
	}
	if s.MaintainOffset {
		world := s.world(s.active)
		local := s.Local.Get().Matrix()
		off := s.Spaces[i].Get().Inv().Mul4(world).Mul4(local.Inv())
		if isFiniteMat(off) {
			s.offsets[i] = off
		}
	}
	s.active = i
}

func (s *SpaceSwitch) world(i int) mgl64.Mat4 {
	return s.Spaces[i].Get().Mul4(s.offsets[i]).Mul4(s.Local.Get().Matrix())
}

// Eval returns the control's world matrix. A change of Index since the last
// evaluation is treated as a switch.
func (s *SpaceSwitch) Eval() mgl64.Mat4 {
	s.switchTo(s.Index.Get())
	return s.world(s.active)
}

// Bind claims write authority over slot.
func (s *SpaceSwitch) Bind(slot *Slot) error {
	if err := slot.Claim(s); err != nil {
		return err
	}
	s.slot = slot
	return nil
}

// Unbind releases the bound slot.
func (s *SpaceSwitch) Unbind() {
	if s.slot != nil {
		_ = s.slot.Release(s)
		s.slot = nil
	}
}

// Apply evaluates the switch and writes the world matrix into the bound
// slot.
func (s *SpaceSwitch) Apply() error {
	if s.slot == nil {
		return nil
	}
	return s.slot.WriteWorld(s, s.Eval())
}

func isFiniteMat(m mgl64.Mat4) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
