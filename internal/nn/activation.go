package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/ckd/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

// Activation names used in saved topologies.
const (
	ActivationReLU        = "relu"
	ActivationHardSigmoid = "hard_sigmoid"
	ActivationSigmoid     = "sigmoid"
)

// elementwise is the shared machinery of the activation modules: it applies
// fn to every input element and, on Backward, multiplies the incoming
// gradient by deriv evaluated at the cached input.
type elementwise struct {
	name  string
	fn    func(float64) float64
	deriv func(float64) float64
	cfg   parallel.Config
	input *mat.Dense
}

func (e *elementwise) Forward(input *mat.Dense) *mat.Dense {
	e.input = input
	r, c := input.Dims()
	output := mat.NewDense(r, c, nil)
	if src, ok := contiguous(input); ok {
		parallel.Map(output.RawMatrix().Data, src, e.fn, e.cfg)
		return output
	}
	for i := 0; i < r; i++ {
		parallel.Map(output.RawRowView(i), input.RawRowView(i), e.fn, e.cfg)
	}
	return output
}

func (e *elementwise) Backward(gradOutput *mat.Dense) *mat.Dense {
	if e.input == nil {
		panic(fmt.Sprintf("%s.Backward: called before Forward", e.name))
	}
	r, c := gradOutput.Dims()
	if ir, ic := e.input.Dims(); ir != r || ic != c {
		panic(fmt.Sprintf("%s.Backward: gradient shape [%d %d] does not match input [%d %d]", e.name, r, c, ir, ic))
	}
	chain := func(g, x float64) float64 { return g * e.deriv(x) }
	gradInput := mat.NewDense(r, c, nil)
	g, gok := contiguous(gradOutput)
	x, xok := contiguous(e.input)
	if gok && xok {
		parallel.Map2(gradInput.RawMatrix().Data, g, x, chain, e.cfg)
		return gradInput
	}
	for i := 0; i < r; i++ {
		parallel.Map2(gradInput.RawRowView(i), gradOutput.RawRowView(i), e.input.RawRowView(i), chain, e.cfg)
	}
	return gradInput
}

// contiguous returns the backing slice of m when its rows are packed.
func contiguous(m *mat.Dense) ([]float64, bool) {
	raw := m.RawMatrix()
	if raw.Stride != raw.Cols {
		return nil, false
	}
	return raw.Data[:raw.Rows*raw.Cols], true
}

func (e *elementwise) Parameters() []*Parameter {
	return nil
}

// Name returns the activation name.
func (e *elementwise) Name() string {
	return e.name
}

// SetParallel overrides the kernel fan-out configuration.
func (e *elementwise) SetParallel(cfg parallel.Config) {
	e.cfg = cfg
}

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct {
	elementwise
}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{elementwise{
		name: ActivationReLU,
		fn:   func(x float64) float64 { return math.Max(0, x) },
		deriv: func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		},
		cfg: parallel.DefaultConfig(),
	}}
}

// HardSigmoid is a piecewise-linear approximation of the logistic function.
//
// Applies: f(x) = clip(0.2*x + 0.5, 0, 1)
//
// The output lies in [0, 1] and is read as a probability. The gradient is
// 0.2 inside (-2.5, 2.5) and 0 where the output saturates.
type HardSigmoid struct {
	elementwise
}

// NewHardSigmoid creates a new HardSigmoid activation module.
func NewHardSigmoid() *HardSigmoid {
	return &HardSigmoid{elementwise{
		name: ActivationHardSigmoid,
		fn:   hardSigmoid,
		deriv: func(x float64) float64 {
			if x > -2.5 && x < 2.5 {
				return 0.2
			}
			return 0
		},
		cfg: parallel.DefaultConfig(),
	}}
}

func hardSigmoid(x float64) float64 {
	return math.Min(1, math.Max(0, 0.2*x+0.5))
}

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: σ(x) = 1 / (1 + exp(-x))
type Sigmoid struct {
	elementwise
}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{elementwise{
		name: ActivationSigmoid,
		fn:   sigmoid,
		deriv: func(x float64) float64 {
			s := sigmoid(x)
			return s * (1 - s)
		},
		cfg: parallel.DefaultConfig(),
	}}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	z := math.Exp(x)
	return z / (1 + z)
}

// NewActivation returns the activation module registered under name.
func NewActivation(name string) (Module, error) {
	switch name {
	case ActivationReLU:
		return NewReLU(), nil
	case ActivationHardSigmoid:
		return NewHardSigmoid(), nil
	case ActivationSigmoid:
		return NewSigmoid(), nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}
