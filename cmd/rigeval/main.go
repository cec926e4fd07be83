// Command rigeval evaluates a curve chain over a range of frames and prints
// the sampled transforms.
//
// The chain and its animation are described in a YAML, JSON or TOML file:
//
//	degree: 3
//	outputs: 5
//	sections: 24
//	scaleMin: 0.8
//	scaleMax: 1.2
//	keys:
//	  - frame: 1
//	    controls:
//	      - translate: [0, 0, 0]
//	      - translate: [1, 0, 0]
//	  - frame: 24
//	    controls:
//	      - translate: [0, 0, 0]
//	      - translate: [2, 0, 0]
//
// Controls are interpolated linearly between keys. Every setting can be
// overridden with a RIGEVAL_ environment variable, such as
// RIGEVAL_SPRING_STIFFNESS.
package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"honnef.co/go/rig"
)

// controlConfig is a control transform. Rotate is in degrees.
type controlConfig struct {
	Translate []float64 `mapstructure:"translate"`
	Rotate    []float64 `mapstructure:"rotate"`
	Scale     []float64 `mapstructure:"scale"`
}

type keyConfig struct {
	Frame    float64         `mapstructure:"frame"`
	Controls []controlConfig `mapstructure:"controls"`
}

type springConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Model       string  `mapstructure:"model"`
	Stiffness   float64 `mapstructure:"stiffness"`
	Damping     float64 `mapstructure:"damping"`
	Strength    float64 `mapstructure:"strength"`
	StartFrame  float64 `mapstructure:"startFrame"`
	MaxFrameGap float64 `mapstructure:"maxFrameGap"`
}

type config struct {
	Degree       int          `mapstructure:"degree"`
	Tangent      string       `mapstructure:"tangent"`
	Outputs      int          `mapstructure:"outputs"`
	Sections     int          `mapstructure:"sections"`
	Arclen       bool         `mapstructure:"arclen"`
	AimAxis      string       `mapstructure:"aimAxis"`
	UpAxis       string       `mapstructure:"upAxis"`
	Positions    []float64    `mapstructure:"positions"`
	ScaleMode    string       `mapstructure:"scaleMode"`
	SquashMode   string       `mapstructure:"squashMode"`
	SquashFactor float64      `mapstructure:"squashFactor"`
	ScaleMin     float64      `mapstructure:"scaleMin"`
	ScaleMax     float64      `mapstructure:"scaleMax"`
	Tweaks       int          `mapstructure:"tweaks"`
	Spring       springConfig `mapstructure:"spring"`
	Keys         []keyConfig  `mapstructure:"keys"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("degree", 3)
	v.SetDefault("tangent", "neighbors")
	v.SetDefault("outputs", 5)
	v.SetDefault("sections", 0)
	v.SetDefault("arclen", true)
	v.SetDefault("aimAxis", "X")
	v.SetDefault("upAxis", "Y")
	v.SetDefault("scaleMode", "always")
	v.SetDefault("squashMode", "squashStretch")
	v.SetDefault("squashFactor", 1.0)
	v.SetDefault("scaleMin", 0.0)
	v.SetDefault("scaleMax", math.Inf(1))
	v.SetDefault("spring.model", "explicit")
	v.SetDefault("spring.stiffness", 0.5)
	v.SetDefault("spring.damping", 0.5)
	v.SetDefault("spring.strength", 1.0)
	v.SetDefault("spring.startFrame", 1.0)
	v.SetDefault("spring.maxFrameGap", 1.0)
}

func loadConfig(path string) (config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("RIGEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return config{}, errors.Wrapf(err, "reading %s", path)
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, errors.Wrapf(err, "decoding %s", path)
	}
	if len(cfg.Keys) == 0 {
		return config{}, errors.Errorf("%s: no keys", path)
	}
	sort.SliceStable(cfg.Keys, func(i, j int) bool { return cfg.Keys[i].Frame < cfg.Keys[j].Frame })
	n := len(cfg.Keys[0].Controls)
	for _, k := range cfg.Keys {
		if len(k.Controls) != n {
			return config{}, errors.Errorf("%s: key at frame %g has %d controls, want %d", path, k.Frame, len(k.Controls), n)
		}
	}
	return cfg, nil
}

func vec3(s []float64, def mgl64.Vec3) (mgl64.Vec3, error) {
	switch len(s) {
	case 0:
		return def, nil
	case 3:
		return mgl64.Vec3{s[0], s[1], s[2]}, nil
	default:
		return mgl64.Vec3{}, errors.Errorf("want 3 components, got %d", len(s))
	}
}

func (c controlConfig) transform() (rig.Transform, error) {
	t, err := vec3(c.Translate, mgl64.Vec3{})
	if err != nil {
		return rig.Transform{}, errors.Wrap(err, "translate")
	}
	r, err := vec3(c.Rotate, mgl64.Vec3{})
	if err != nil {
		return rig.Transform{}, errors.Wrap(err, "rotate")
	}
	s, err := vec3(c.Scale, mgl64.Vec3{1, 1, 1})
	if err != nil {
		return rig.Transform{}, errors.Wrap(err, "scale")
	}
	for i := range r {
		r[i] = mgl64.DegToRad(r[i])
	}
	return rig.Transform{Translate: t, Rotate: r, Scale: s}, nil
}

// keyframes holds the control transforms of every key.
type keyframes struct {
	frames   []float64
	controls [][]rig.Transform
}

func newKeyframes(keys []keyConfig) (*keyframes, error) {
	kf := &keyframes{}
	for _, k := range keys {
		xfs := make([]rig.Transform, len(k.Controls))
		for i, c := range k.Controls {
			xf, err := c.transform()
			if err != nil {
				return nil, errors.Wrapf(err, "key at frame %g, control %d", k.Frame, i)
			}
			xfs[i] = xf
		}
		kf.frames = append(kf.frames, k.Frame)
		kf.controls = append(kf.controls, xfs)
	}
	return kf, nil
}

// at returns the controls at frame, holding the first and last keys.
func (kf *keyframes) at(frame float64) []rig.Transform {
	i := sort.SearchFloat64s(kf.frames, frame)
	switch {
	case i == 0:
		return kf.controls[0]
	case i == len(kf.frames):
		return kf.controls[len(kf.frames)-1]
	}
	f0, f1 := kf.frames[i-1], kf.frames[i]
	w := (frame - f0) / (f1 - f0)
	out := make([]rig.Transform, len(kf.controls[i]))
	for j := range out {
		out[j] = rig.BlendTransforms(kf.controls[i][j], kf.controls[i-1][j], w)
	}
	return out
}

func parseEnum[T any](what, s string, values map[string]T) (T, error) {
	v, ok := values[s]
	if !ok {
		var zero T
		return zero, errors.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

func newChain(cfg config) (*rig.Chain, error) {
	cc := rig.DefaultChainConfig(cfg.Outputs)
	cc.Build.Degree = cfg.Degree
	tangent, err := parseEnum("tangent mode", cfg.Tangent, map[string]rig.TangentMode{
		"neighbors": rig.TangentNeighbors,
		"rotation":  rig.TangentRotation,
	})
	if err != nil {
		return nil, err
	}
	cc.Build.TangentMode = tangent
	cc.Sections = cfg.Sections
	cc.ResampleMode = rig.ResampleParametric
	cc.Sampler.Mode = rig.SampleParametric
	if cfg.Arclen {
		cc.ResampleMode = rig.ResampleArclen
		cc.Sampler.Mode = rig.SampleArclen
	}
	if cc.Sampler.AimAxis, err = rig.ParseAxis(cfg.AimAxis); err != nil {
		return nil, err
	}
	if cc.Sampler.UpAxis, err = rig.ParseAxis(cfg.UpAxis); err != nil {
		return nil, err
	}
	cc.Sampler.Positions = cfg.Positions
	cc.TweakControls = cfg.Tweaks
	cc.Spring = cfg.Spring.Enabled

	scaleMode, err := parseEnum("scale mode", cfg.ScaleMode, map[string]rig.ScaleMode{
		"always":                rig.ScaleAlways,
		"whenLengthChanges":     rig.ScaleWhenLengthChanges,
		"differentThanCreation": rig.ScaleDifferentThanCreation,
	})
	if err != nil {
		return nil, err
	}
	squashMode, err := parseEnum("squash mode", cfg.SquashMode, map[string]rig.SquashMode{
		"squashStretch": rig.SquashStretch,
		"squash":        rig.SquashOnly,
		"stretch":       rig.StretchOnly,
		"uniform":       rig.SquashUniform,
		"none":          rig.SquashNone,
	})
	if err != nil {
		return nil, err
	}
	springModel, err := parseEnum("spring model", cfg.Spring.Model, map[string]rig.SpringModel{
		"explicit": rig.SpringExplicit,
		"harmonic": rig.SpringHarmonic,
	})
	if err != nil {
		return nil, err
	}

	chain, err := rig.NewChain(cc)
	if err != nil {
		return nil, err
	}
	s := chain.Sampler
	s.ScaleMode.Set(scaleMode)
	s.SquashMode.Set(squashMode)
	s.SquashFactor.Set(cfg.SquashFactor)
	s.ScaleMin.Set(cfg.ScaleMin)
	s.ScaleMax.Set(cfg.ScaleMax)
	if chain.Spring != nil {
		st := chain.Spring.Settings
		st.Model = springModel
		st.Stiffness.Set(cfg.Spring.Stiffness)
		st.Damping.Set(cfg.Spring.Damping)
		st.Strength.Set(cfg.Spring.Strength)
		st.StartFrame.Set(cfg.Spring.StartFrame)
		st.MaxFrameGap.Set(cfg.Spring.MaxFrameGap)
		chain.Spring.Settings = st
	}
	return chain, nil
}

func printSamples(w io.Writer, frame float64, samples []rig.Sample) {
	for i, s := range samples {
		r := rig.QuatToEuler(s.Rotation)
		fmt.Fprintf(w, "%g\t%d\tu=%.4f\tt=(%.4f %.4f %.4f)\tr=(%.2f %.2f %.2f)\ts=(%.4f %.4f %.4f)\n",
			frame, i, s.U,
			s.Position[0], s.Position[1], s.Position[2],
			mgl64.RadToDeg(r[0]), mgl64.RadToDeg(r[1]), mgl64.RadToDeg(r[2]),
			s.Scale[0], s.Scale[1], s.Scale[2])
	}
}

func run(w io.Writer, path string, start, end int) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	kf, err := newKeyframes(cfg.Keys)
	if err != nil {
		return err
	}
	chain, err := newChain(cfg)
	if err != nil {
		return err
	}
	// The rest pose is the first key.
	if _, err := chain.Evaluate(kf.controls[0], kf.frames[0]); err != nil {
		return errors.Wrap(err, "evaluating rest pose")
	}
	chain.Rebuild()
	if chain.Spring != nil {
		chain.Spring.Reset()
	}

	for f := start; f <= end; f++ {
		frame := float64(f)
		samples, err := chain.Evaluate(kf.at(frame), frame)
		if err != nil {
			return errors.Wrapf(err, "frame %d", f)
		}
		printSamples(w, frame, samples)
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("rigeval: ")

	var (
		configPath string
		start, end int
	)
	cmd := &cobra.Command{
		Use:   "rigeval --config rig.yaml",
		Short: "Evaluate a curve chain over a range of frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if end < start {
				return errors.Errorf("end frame %d precedes start frame %d", end, start)
			}
			return run(cmd.OutOrStdout(), configPath, start, end)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "rig.yaml", "rig description")
	cmd.Flags().IntVar(&start, "start", 1, "first frame")
	cmd.Flags().IntVar(&end, "end", 24, "last frame")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
