// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradients left on each nn.Parameter by the model's
// Backward pass and update the parameter values in place.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{})
//
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    pred := model.Forward(x)
//	    loss := lossFn.Forward(pred, y)
//	    model.Backward(lossFn.Backward(pred, y))
//	    optimizer.Step()
//	}
package optim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/ckd/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to every parameter that has a gradient.
	Step()

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// State is implemented by optimizers whose internal state can be saved
// alongside model weights and restored to resume training.
type State interface {
	Optimizer

	// Name identifies the optimizer type ("Adam", "SGD").
	Name() string

	// Config returns the hyperparameters as plain values.
	Config() map[string]any

	// StateDict returns the optimizer state as named matrices.
	StateDict() map[string]*mat.Dense

	// LoadStateDict restores state produced by StateDict.
	LoadStateDict(state map[string]*mat.Dense) error
}

// ErrStateMismatch is returned when saved optimizer state does not fit the
// parameters being optimized.
var ErrStateMismatch = errors.New("optimizer state does not match parameters")

// Optimizer names accepted by New, compared case-insensitively.
const (
	NameAdam = "adam"
	NameSGD  = "sgd"
)

// Supported reports whether New accepts name.
func Supported(name string) bool {
	switch strings.ToLower(name) {
	case NameAdam, NameSGD:
		return true
	}
	return false
}

// New creates an optimizer by name with the given learning rate. A zero lr
// selects the optimizer's default.
func New(name string, params []*nn.Parameter, lr float64) (State, error) {
	switch strings.ToLower(name) {
	case NameAdam:
		return NewAdam(params, AdamConfig{LR: lr}), nil
	case NameSGD:
		return NewSGD(params, SGDConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// slotKey names the per-parameter slot of an optimizer state tensor.
func slotKey(slot string, i int) string {
	return fmt.Sprintf("%s.%d", slot, i)
}

// loadSlots copies saved per-parameter matrices into slots, checking shapes.
func loadSlots(params []*nn.Parameter, state map[string]*mat.Dense, slot string) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, len(params))
	for i, p := range params {
		saved, ok := state[slotKey(slot, i)]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrStateMismatch, slotKey(slot, i))
		}
		r, c := p.Value().Dims()
		sr, sc := saved.Dims()
		if r != sr || c != sc {
			return nil, fmt.Errorf("%w: %s is %dx%d, parameter %s is %dx%d",
				ErrStateMismatch, slotKey(slot, i), sr, sc, p.Name(), r, c)
		}
		out[i] = mat.DenseCopyOf(saved)
	}
	return out, nil
}

func zerosLike(p *nn.Parameter) *mat.Dense {
	r, c := p.Value().Dims()
	return mat.NewDense(r, c, nil)
}
