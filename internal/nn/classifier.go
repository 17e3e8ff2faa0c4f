package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/parallel"
	"github.com/born-ml/ckd/internal/serialization"
)

// ClassifierConfig describes a single-hidden-layer binary classifier.
type ClassifierConfig struct {
	Inputs           int     // Number of input features (default: 8)
	Hidden           int     // Hidden layer width (default: 256)
	Seed             uint64  // Seed for the hidden kernel initializer
	HiddenStd        float64 // Std of the hidden kernel initializer (default: 0.05)
	HiddenActivation string  // default: relu
	OutputActivation string  // default: hard_sigmoid
}

// DefaultClassifierConfig returns the 8→256(ReLU)→1(hard sigmoid) network
// seeded with 13.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Inputs:           8,
		Hidden:           256,
		Seed:             13,
		HiddenStd:        0.05,
		HiddenActivation: ActivationReLU,
		OutputActivation: ActivationHardSigmoid,
	}
}

func (c ClassifierConfig) withDefaults() ClassifierConfig {
	d := DefaultClassifierConfig()
	if c.Inputs == 0 {
		c.Inputs = d.Inputs
	}
	if c.Hidden == 0 {
		c.Hidden = d.Hidden
	}
	if c.HiddenStd == 0 {
		c.HiddenStd = d.HiddenStd
	}
	if c.HiddenActivation == "" {
		c.HiddenActivation = d.HiddenActivation
	}
	if c.OutputActivation == "" {
		c.OutputActivation = d.OutputActivation
	}
	return c
}

// Classifier is a feed-forward network producing one probability per row.
type Classifier struct {
	*Sequential
}

// NewClassifier builds and initializes a classifier. The hidden kernel is
// drawn from RandomNormal(0, HiddenStd) seeded with Seed, the output kernel
// from GlorotUniform on the same stream, and all biases start at zero.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	cfg = cfg.withDefaults()
	if cfg.Inputs < 0 || cfg.Hidden < 0 {
		return nil, fmt.Errorf("invalid classifier size %d→%d", cfg.Inputs, cfg.Hidden)
	}
	hiddenAct, err := NewActivation(cfg.HiddenActivation)
	if err != nil {
		return nil, err
	}
	outputAct, err := NewActivation(cfg.OutputActivation)
	if err != nil {
		return nil, err
	}

	rng := NewRand(cfg.Seed)
	return &Classifier{
		Sequential: NewSequential(
			NewLinear(cfg.Inputs, cfg.Hidden, RandomNormal{Std: cfg.HiddenStd}, Zeros{}, rng),
			hiddenAct,
			NewLinear(cfg.Hidden, 1, GlorotUniform{}, Zeros{}, rng),
			outputAct,
		),
	}, nil
}

// NewClassifierFromTopology rebuilds a network from a saved layer list.
// Weights are zero until LoadStateDict is called.
func NewClassifierFromTopology(specs []serialization.LayerSpec) (*Classifier, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty topology")
	}
	rng := NewRand(0)
	seq := NewSequential()
	width := 0 // output width of the last linear layer, 0 before the first
	for i, spec := range specs {
		switch spec.Type {
		case serialization.LayerLinear:
			if spec.In <= 0 || spec.Out <= 0 {
				return nil, fmt.Errorf("layer %d: invalid linear size %d→%d", i, spec.In, spec.Out)
			}
			if width != 0 && spec.In != width {
				return nil, fmt.Errorf("layer %d: linear input %d does not match previous output %d", i, spec.In, width)
			}
			width = spec.Out
			var bias Initializer
			if spec.Bias {
				bias = Zeros{}
			}
			seq.Add(NewLinear(spec.In, spec.Out, Zeros{}, bias, rng))
		case serialization.LayerActivation:
			act, err := NewActivation(spec.Activation)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			seq.Add(act)
		default:
			return nil, fmt.Errorf("layer %d: unknown layer type %q", i, spec.Type)
		}
	}
	if width != 1 {
		return nil, fmt.Errorf("topology must end in a 1-unit linear layer, got %d units", width)
	}
	return &Classifier{Sequential: seq}, nil
}

// SetParallel sets the kernel fan-out of every activation layer.
func (c *Classifier) SetParallel(cfg parallel.Config) {
	for i := 0; i < c.Len(); i++ {
		if m, ok := c.Module(i).(interface{ SetParallel(parallel.Config) }); ok {
			m.SetParallel(cfg)
		}
	}
}

// Predict returns the [batch, 1] probabilities for x.
func (c *Classifier) Predict(x *mat.Dense) *mat.Dense {
	return c.Forward(x)
}

// InputFeatures returns the width of the first layer.
func (c *Classifier) InputFeatures() int {
	for i := 0; i < c.Len(); i++ {
		if l, ok := c.Module(i).(*Linear); ok {
			return l.InFeatures()
		}
	}
	return 0
}

// Topology describes the layer stack for serialization.
func (c *Classifier) Topology() []serialization.LayerSpec {
	specs := make([]serialization.LayerSpec, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		switch m := c.Module(i).(type) {
		case *Linear:
			specs = append(specs, serialization.LayerSpec{
				Type:        serialization.LayerLinear,
				In:          m.InFeatures(),
				Out:         m.OutFeatures(),
				Bias:        m.Bias() != nil,
				Initializer: m.KernelInit(),
			})
		case interface{ Name() string }:
			specs = append(specs, serialization.LayerSpec{
				Type:       serialization.LayerActivation,
				Activation: m.Name(),
			})
		}
	}
	return specs
}

// Summary renders one line per layer with its output width and parameter
// count.
func (c *Classifier) Summary() string {
	out := ""
	width := 0
	for _, spec := range c.Topology() {
		switch spec.Type {
		case serialization.LayerLinear:
			params := spec.In * spec.Out
			if spec.Bias {
				params += spec.Out
			}
			width = spec.Out
			out += fmt.Sprintf("%-12s (None, %d)  %d\n", "dense", width, params)
		case serialization.LayerActivation:
			out += fmt.Sprintf("%-12s (None, %d)  0\n", spec.Activation, width)
		}
	}
	out += fmt.Sprintf("Total params: %d\n", CountParameters(c.Parameters()))
	return out
}
