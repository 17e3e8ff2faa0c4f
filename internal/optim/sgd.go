package optim

import (
	"github.com/born-ml/ckd/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// DefaultSGDLR is the SGD learning rate used when none is configured.
const DefaultSGDLR = 0.01

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities []*mat.Dense
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = DefaultSGDLR
	}

	s := &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make([]*mat.Dense, len(params)),
	}
	for i, p := range params {
		s.velocities[i] = zerosLike(p)
	}
	return s
}

// Step performs a single optimization step.
func (s *SGD) Step() {
	for i, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		step := grad
		if s.momentum != 0 {
			vel := s.velocities[i]
			vel.Scale(s.momentum, vel)
			vel.Add(vel, grad)
			step = vel
		}

		value := param.Value()
		var delta mat.Dense
		delta.Scale(s.lr, step)
		value.Sub(value, &delta)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Name implements State.
func (s *SGD) Name() string {
	return "SGD"
}

// Config implements State.
func (s *SGD) Config() map[string]any {
	return map[string]any{
		"lr":       s.lr,
		"momentum": s.momentum,
	}
}

// StateDict returns the momentum buffers keyed "velocity.<i>".
func (s *SGD) StateDict() map[string]*mat.Dense {
	state := make(map[string]*mat.Dense, len(s.params))
	for i := range s.params {
		state[slotKey("velocity", i)] = mat.DenseCopyOf(s.velocities[i])
	}
	return state
}

// LoadStateDict restores state produced by StateDict.
func (s *SGD) LoadStateDict(state map[string]*mat.Dense) error {
	vel, err := loadSlots(s.params, state, "velocity")
	if err != nil {
		return err
	}
	s.velocities = vel
	return nil
}
