package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Parameter represents a trainable parameter in a neural network.
//
// Example:
//
//	weight := nn.NewParameter("weight", mat.NewDense(256, 8, nil))
//	w := weight.Value()
//	grad := weight.Grad() // nil until the first Backward
type Parameter struct {
	name  string
	value *mat.Dense
	grad  *mat.Dense // same shape as value; nil until Backward runs
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, value *mat.Dense) *Parameter {
	return &Parameter{
		name:  name,
		value: value,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter matrix. Optimizers update it in place.
func (p *Parameter) Value() *mat.Dense {
	return p.value
}

// Grad returns the gradient, or nil before the first backward pass.
func (p *Parameter) Grad() *mat.Dense {
	return p.grad
}

// SetGrad sets the gradient.
func (p *Parameter) SetGrad(grad *mat.Dense) {
	p.grad = grad
}

// ZeroGrad clears the gradient.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// NumElements returns the number of scalar values in the parameter.
func (p *Parameter) NumElements() int {
	r, c := p.value.Dims()
	return r * c
}

// CountParameters sums NumElements over params.
func CountParameters(params []*Parameter) int {
	total := 0
	for _, p := range params {
		total += p.NumElements()
	}
	return total
}
