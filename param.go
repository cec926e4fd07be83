package rig

import (
	"cmp"
	"fmt"

	"github.com/pkg/errors"
)

// Source is anything that produces a value of type T when pulled.
//
// Parameters are sources themselves, so one parameter can drive another.
type Source[T any] interface {
	Get() T
}

// SourceFunc adapts a function to the [Source] interface.
type SourceFunc[T any] func() T

func (f SourceFunc[T]) Get() T { return f() }

// Const returns a source that always produces v.
func Const[T any](v T) Source[T] {
	return SourceFunc[T](func() T { return v })
}

// Reverse returns a source producing 1 - x for every value x of src. It is
// used to derive the complementary weight of a two-way blend.
func Reverse(src Source[float64]) Source[float64] {
	return reverse{src}
}

type reverse struct {
	src Source[float64]
}

func (r reverse) Get() float64 { return 1 - r.src.Get() }

func (r reverse) driver() any { return r.src }

// A driven source reports the source it pulls its value from, so that
// connection cycles can be found through derived sources.
type driven interface {
	driver() any
}

// Param is a named, typed attribute of a rig component.
//
// A parameter holds its own value, which can be replaced by connecting an
// upstream [Source]. Bounded parameters clamp both set and connected values
// into their range. Parameters are pulled lazily: connected values are
// recomputed on every Get.
//
// A nil *Param returns the zero value of T.
type Param[T any] struct {
	Name string

	value    T
	clamp    func(T) T
	upstream Source[T]
}

// NewParam returns an unbounded parameter with the initial value v.
func NewParam[T any](name string, v T) *Param[T] {
	return &Param[T]{Name: name, value: v}
}

// NewBounded returns a parameter whose values are clamped to [lo, hi].
func NewBounded[T cmp.Ordered](name string, v, lo, hi T) *Param[T] {
	if lo > hi {
		panic(fmt.Sprintf("parameter %q has empty range [%v, %v]", name, lo, hi))
	}
	p := &Param[T]{
		Name:  name,
		clamp: func(v T) T { return min(max(v, lo), hi) },
	}
	p.Set(v)
	return p
}

// Get returns the parameter's current value.
func (p *Param[T]) Get() T {
	if p == nil {
		return *new(T)
	}
	v := p.value
	if p.upstream != nil {
		v = p.upstream.Get()
	}
	if p.clamp != nil {
		v = p.clamp(v)
	}
	return v
}

// Set sets the parameter's own value. While the parameter is connected, the
// value is stored but Get keeps returning the upstream value.
func (p *Param[T]) Set(v T) {
	if p.clamp != nil {
		v = p.clamp(v)
	}
	p.value = v
}

// Connect drives the parameter from src, replacing any existing connection.
// Connecting a parameter to itself, directly or through other parameters,
// fails with [ErrConnectionCycle].
func (p *Param[T]) Connect(src Source[T]) error {
	var s any = src
	for s != nil {
		if up, ok := s.(*Param[T]); ok && up == p {
			return errors.Wrapf(ErrConnectionCycle, "connecting %q", p.Name)
		}
		d, ok := s.(driven)
		if !ok {
			break
		}
		s = d.driver()
	}
	p.upstream = src
	return nil
}

// Disconnect removes the parameter's upstream connection, if any. The
// parameter reverts to its own value.
func (p *Param[T]) Disconnect() {
	p.upstream = nil
}

func (p *Param[T]) driver() any {
	if p == nil || p.upstream == nil {
		return nil
	}
	return p.upstream
}

// Connected reports whether the parameter is driven by an upstream source.
func (p *Param[T]) Connected() bool {
	return p.upstream != nil
}

func (p *Param[T]) String() string {
	return fmt.Sprintf("%s=%v", p.Name, p.Get())
}
