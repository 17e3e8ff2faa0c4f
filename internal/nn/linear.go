package nn

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias row with shape [1, out_features]
//   - y is the output with shape [batch_size, out_features]
//
// Example:
//
//	rng := nn.NewRand(13)
//	layer := nn.NewLinear(8, 256, nn.RandomNormal{Std: 0.05}, nn.Zeros{}, rng)
//	output := layer.Forward(input) // [batch, 256]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [1, out_features]
	kernelInit  string
	input       *mat.Dense // cached for Backward
}

// NewLinear creates a new Linear layer.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - kernel: Weight initializer
//   - bias: Bias initializer (nil for a layer without bias)
//   - rng: Random source for the initializers
func NewLinear(inFeatures, outFeatures int, kernel, bias Initializer, rng *rand.Rand) *Linear {
	w := mat.NewDense(outFeatures, inFeatures, nil)
	kernel.Init(w, inFeatures, outFeatures, rng)

	l := &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", w),
		kernelInit:  kernel.Name(),
	}
	if bias != nil {
		b := mat.NewDense(1, outFeatures, nil)
		bias.Init(b, inFeatures, outFeatures, rng)
		l.bias = NewParameter("bias", b)
	}
	return l
}

// Forward computes y = x @ W.T + b.
func (l *Linear) Forward(input *mat.Dense) *mat.Dense {
	batch, features := input.Dims()
	if features != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, features))
	}
	l.input = input

	output := mat.NewDense(batch, l.outFeatures, nil)
	output.Mul(input, l.weight.Value().T())

	if l.bias != nil {
		b := l.bias.Value().RawRowView(0)
		for i := 0; i < batch; i++ {
			row := output.RawRowView(i)
			for j := range row {
				row[j] += b[j]
			}
		}
	}
	return output
}

// Backward computes parameter gradients and returns dL/dx.
//
//	dW = gradOutput.T @ x       [out, in]
//	db = sum over batch         [1, out]
//	dx = gradOutput @ W         [batch, in]
func (l *Linear) Backward(gradOutput *mat.Dense) *mat.Dense {
	if l.input == nil {
		panic("Linear.Backward: called before Forward")
	}
	batch, out := gradOutput.Dims()
	if out != l.outFeatures {
		panic(fmt.Sprintf("Linear.Backward: expected gradient with %d features, got %d", l.outFeatures, out))
	}

	gradW := mat.NewDense(l.outFeatures, l.inFeatures, nil)
	gradW.Mul(gradOutput.T(), l.input)
	l.weight.SetGrad(gradW)

	if l.bias != nil {
		gradB := mat.NewDense(1, l.outFeatures, nil)
		gb := gradB.RawRowView(0)
		for i := 0; i < batch; i++ {
			row := gradOutput.RawRowView(i)
			for j, g := range row {
				gb[j] += g
			}
		}
		l.bias.SetGrad(gradB)
	}

	gradInput := mat.NewDense(batch, l.inFeatures, nil)
	gradInput.Mul(gradOutput, l.weight.Value())
	return gradInput
}

// Parameters returns [weight, bias], or [weight] without bias.
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter (nil without bias).
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// KernelInit returns the name of the weight initializer.
func (l *Linear) KernelInit() string {
	return l.kernelInit
}

// StateDict returns a map of parameter names to values.
func (l *Linear) StateDict() map[string]*mat.Dense {
	stateDict := map[string]*mat.Dense{"weight": l.weight.Value()}
	if l.bias != nil {
		stateDict["bias"] = l.bias.Value()
	}
	return stateDict
}

// LoadStateDict copies weight and bias from a state dictionary.
func (l *Linear) LoadStateDict(stateDict map[string]*mat.Dense) error {
	w, ok := stateDict["weight"]
	if !ok {
		return fmt.Errorf("missing weight in state dict")
	}
	if r, c := w.Dims(); r != l.outFeatures || c != l.inFeatures {
		return fmt.Errorf("weight shape mismatch: expected [%d %d], got [%d %d]",
			l.outFeatures, l.inFeatures, r, c)
	}
	l.weight.Value().Copy(w)

	if l.bias != nil {
		b, ok := stateDict["bias"]
		if !ok {
			return fmt.Errorf("missing bias in state dict")
		}
		if r, c := b.Dims(); r != 1 || c != l.outFeatures {
			return fmt.Errorf("bias shape mismatch: expected [1 %d], got [%d %d]", l.outFeatures, r, c)
		}
		l.bias.Value().Copy(b)
	}
	return nil
}
