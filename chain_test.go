package rig

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewChainErrors(t *testing.T) {
	cfg := DefaultChainConfig(3)
	cfg.Build.Degree = 2
	if _, err := NewChain(cfg); !errors.Is(err, ErrInvalidDegree) {
		t.Errorf("got error %v, want %v", err, ErrInvalidDegree)
	}

	cfg = DefaultChainConfig(3)
	cfg.Sections = -1
	if _, err := NewChain(cfg); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("got error %v, want %v", err, ErrInvalidResolution)
	}

	cfg = DefaultChainConfig(0)
	if _, err := NewChain(cfg); !errors.Is(err, ErrInvalidOutputCount) {
		t.Errorf("got error %v, want %v", err, ErrInvalidOutputCount)
	}

	cfg = DefaultChainConfig(3)
	cfg.TweakControls = 1
	if _, err := NewChain(cfg); !errors.Is(err, ErrInsufficientControlPoints) {
		t.Errorf("got error %v, want %v", err, ErrInsufficientControlPoints)
	}
}

func newTestChain(t *testing.T, cfg ChainConfig) *Chain {
	t.Helper()
	c, err := NewChain(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestChainStretch(t *testing.T) {
	cfg := DefaultChainConfig(5)
	cfg.Sections = 24
	chain := newTestChain(t, cfg)
	chain.Sampler.ScaleMin.Set(0.8)
	chain.Sampler.ScaleMax.Set(1.2)

	samples, err := chain.Evaluate(straightLine(5, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	finiteSamples(t, samples)
	for i, s := range samples {
		diff(t, Vec(float64(i), 0, 0), s.Position, approx(1e-6))
		diff(t, Vec(1, 1, 1), s.Scale, approx(1e-9))
	}

	samples, err = chain.Evaluate(straightLine(5, 2), 2)
	if err != nil {
		t.Fatal(err)
	}
	finiteSamples(t, samples)
	for i, s := range samples {
		diff(t, Vec(float64(2*i), 0, 0), s.Position, approx(1e-6))
		diff(t, Vec(1.2, 0.8, 0.8), s.Scale, approx(1e-9))
		diffRotation(t, mgl64.QuatIdent(), s.Rotation)
	}

	curve, up := chain.Curves()
	diff(t, 24, curve.Spans())
	if !curve.Matches(up) {
		t.Error("sampled curves don't match")
	}
}

func TestChainEvaluateErrors(t *testing.T) {
	chain := newTestChain(t, DefaultChainConfig(3))
	if _, err := chain.Evaluate(straightLine(1, 1), 1); !errors.Is(err, ErrInsufficientControlPoints) {
		t.Errorf("got error %v, want %v", err, ErrInsufficientControlPoints)
	}
}

func TestChainDegenerate(t *testing.T) {
	chain := newTestChain(t, DefaultChainConfig(4))
	p := Vec(1, 2, 3)
	samples, err := chain.Evaluate(ControlsFromPositions(p, p, p), 1)
	if err != nil {
		t.Fatal(err)
	}
	finiteSamples(t, samples)
	for _, s := range samples {
		diff(t, p, s.Position, approx(1e-9))
	}
}

func TestChainNoResample(t *testing.T) {
	cfg := DefaultChainConfig(3)
	cfg.Sections = 0
	cfg.Build.BuildOffsetCurve = false
	chain := newTestChain(t, cfg)
	samples, err := chain.Evaluate(straightLine(3, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Vec(1, 0, 0), samples[1].Position, approx(1e-12))
	curve, up := chain.Curves()
	diff(t, 2, curve.Spans())
	if up != nil {
		t.Error("got up-curve, want none")
	}
}

func TestChainTweak(t *testing.T) {
	cfg := DefaultChainConfig(5)
	cfg.TweakControls = 3
	chain := newTestChain(t, cfg)
	chain.VarFK.Controls[1].Translate.Set(Vec(0, 1, 0))

	samples, err := chain.Evaluate(straightLine(5, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	finiteSamples(t, samples)
	// The middle of the curve is pushed up and the ends stay.
	diff(t, Vec(2, 1, 0), samples[2].Position, approx(1e-5))
	diff(t, Vec(0, 0, 0), samples[0].Position, approx(1e-9))
	diff(t, Vec(4, 0, 0), samples[4].Position, approx(1e-9))
}

func TestChainSpring(t *testing.T) {
	cfg := DefaultChainConfig(3)
	cfg.Spring = true
	chain := newTestChain(t, cfg)

	samples, err := chain.Evaluate(straightLine(3, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, Vec(1, 0, 0), samples[1].Position, approx(1e-6))

	// The curve lags a quarter of the way behind the controls.
	moved := straightLine(3, 1)
	for i := range moved {
		moved[i].Translate = moved[i].Translate.Add(Vec(0, 0, 1))
	}
	samples, err = chain.Evaluate(moved, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range samples {
		diff(t, Vec(float64(i), 0, 0.25), s.Position, approx(1e-6))
		diffRotation(t, mgl64.QuatIdent(), s.Rotation)
	}
}

func TestChainRebuild(t *testing.T) {
	chain := newTestChain(t, DefaultChainConfig(3))
	chain.Rebuild()
	chain.Sampler.ScaleMode.Set(ScaleDifferentThanCreation)
	chain.Sampler.SquashMode.Set(SquashNone)

	if _, err := chain.Evaluate(straightLine(3, 1), 1); err != nil {
		t.Fatal(err)
	}
	chain.Rebuild()
	samples, err := chain.Evaluate(straightLine(3, 2), 2)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 1.0, samples[0].Scale[0], approx(1e-9))

	chain.Rebuild()
	samples, err = chain.Evaluate(straightLine(3, 2), 3)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 2.0, samples[0].Scale[0], approx(1e-6))
}

func TestChainSlots(t *testing.T) {
	chain := newTestChain(t, DefaultChainConfig(3))
	slots := []*Slot{NewSlot("a", Identity), NewSlot("b", Identity), NewSlot("c", Identity)}
	if err := chain.Sampler.Bind(slots); err != nil {
		t.Fatal(err)
	}
	samples, err := chain.Evaluate(ControlsFromPositions(Vec(0, 0, 0), Vec(1, 1, 0), Vec(2, 0, 0)), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, slot := range slots {
		if got, want := slot.Read(), samples[i].Transform(); !got.ApproxEqual(want, 1e-9) {
			t.Errorf("slot %d: got %v, want %v", i, got, want)
		}
	}
}
