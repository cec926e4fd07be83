package rig

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ChainConfig describes the topology of a [Chain].
type ChainConfig struct {
	Build BuildOptions
	// TweakControls is the number of controls of the tweak layer inserted
	// after the build. Zero disables the layer.
	TweakControls int
	// Spring enables the spring layer.
	Spring bool
	// Sections is the span count the curve is resampled to before sampling.
	// Zero samples the built curve directly.
	Sections     int
	ResampleMode ResampleMode
	Sampler      SamplerConfig
}

// DefaultChainConfig returns the config of a plain chain with n outputs: a
// cubic curve with an offset curve, resampled by arc length to 4 sections
// per output, without tweak or spring layers.
func DefaultChainConfig(n int) ChainConfig {
	return ChainConfig{
		Build:        DefaultBuildOptions(),
		Sections:     4 * n,
		ResampleMode: ResampleArclen,
		Sampler:      DefaultSamplerConfig(n),
	}
}

// Chain drives a row of outputs from a row of controls: it builds a curve
// through the controls, optionally perturbs it with a tweak layer and a
// spring, resamples it and samples it.
//
// The layers are exposed so that their parameters can be set and
// connected. Layers disabled in the config are nil.
type Chain struct {
	cfg ChainConfig

	VarFK   *VarFK
	Spring  *SpringCurve
	Sampler *Sampler

	curve, up *Curve
}

// NewChain validates cfg and returns a chain.
func NewChain(cfg ChainConfig) (*Chain, error) {
	if cfg.Build.Degree != 1 && cfg.Build.Degree != 3 {
		return nil, errors.Wrapf(ErrInvalidDegree, "degree %d", cfg.Build.Degree)
	}
	if cfg.Sections < 0 {
		return nil, errors.Wrapf(ErrInvalidResolution, "resampling to %d sections", cfg.Sections)
	}
	s, err := NewSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}
	c := &Chain{cfg: cfg, Sampler: s}
	if cfg.TweakControls > 0 {
		v, err := NewVarFK(cfg.TweakControls)
		if err != nil {
			return nil, err
		}
		c.VarFK = v
	}
	if cfg.Spring {
		c.Spring = NewSpringCurve()
	}
	return c, nil
}

// Config returns the chain's config.
func (c *Chain) Config() ChainConfig { return c.cfg }

// Evaluate runs the chain for one frame and returns the samples. If the
// sampler is bound to slots, the samples are also written to them.
//
// With a spring layer, Evaluate must be called once per frame, in frame
// order.
func (c *Chain) Evaluate(controls []Transform, frame float64) ([]Sample, error) {
	curve, up, err := BuildCurve(controls, c.cfg.Build)
	if err != nil {
		return nil, err
	}

	if c.VarFK != nil {
		curve, up, err = c.VarFK.Eval(curve, up)
		if err != nil {
			return nil, err
		}
	}

	if c.Spring != nil {
		sprung := c.Spring.Eval(curve, frame)
		if up != nil {
			// The up-curve follows its curve rigidly.
			moved := up.Clone()
			for i, p := range sprung.Points {
				moved.Points[i] = moved.Points[i].Add(p.Sub(curve.Points[i]))
			}
			up = moved
		}
		curve = sprung
	}

	if c.cfg.Sections > 0 {
		if up != nil {
			curve, up, err = ResamplePair(curve, up, c.cfg.Sections, c.cfg.ResampleMode)
		} else {
			curve, err = Resample(curve, c.cfg.Sections, c.cfg.ResampleMode)
		}
		if err != nil {
			return nil, err
		}
	}
	c.curve, c.up = curve, up

	samples, err := c.Sampler.Eval(curve, up)
	if err != nil {
		return nil, err
	}
	if err := c.Sampler.Apply(samples); err != nil {
		return samples, err
	}
	return samples, nil
}

// Curves returns the curve and up-curve seen by the sampler during the last
// evaluation.
func (c *Chain) Curves() (curve, up *Curve) {
	return c.curve, c.up
}

// Rebuild re-records the scale factor frozen by ScaleDifferentThanCreation
// from the last evaluated curve.
func (c *Chain) Rebuild() {
	if c.curve != nil {
		c.Sampler.Rebuild(c.curve)
	}
}

// ControlsFromPositions returns identity-oriented controls at the given
// positions.
func ControlsFromPositions(ps ...mgl64.Vec3) []Transform {
	out := make([]Transform, len(ps))
	for i, p := range ps {
		out[i] = Translation(p)
	}
	return out
}
