package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/ckd/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Default Adam hyperparameters.
const (
	DefaultAdamLR    = 0.001
	DefaultAdamBeta1 = 0.9
	DefaultAdamBeta2 = 0.999
	DefaultAdamEps   = 1e-7
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	lr_t = lr * sqrt(1 - beta2^t) / (1 - beta1^t)
//	param = param - lr_t * m_t / (sqrt(v_t) + eps)
//
// The bias correction is folded into the step size, with eps added to the
// uncorrected second moment.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int          // Timestep for bias correction
	m      []*mat.Dense // First moment estimates
	v      []*mat.Dense // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-7)
}

// NewAdam creates a new Adam optimizer. Zero fields take their defaults.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = DefaultAdamLR
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = DefaultAdamBeta1
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = DefaultAdamBeta2
	}
	if config.Eps == 0 {
		config.Eps = DefaultAdamEps
	}

	a := &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make([]*mat.Dense, len(params)),
		v:      make([]*mat.Dense, len(params)),
	}
	for i, p := range params {
		a.m[i] = zerosLike(p)
		a.v[i] = zerosLike(p)
	}
	return a
}

// Step performs a single optimization step. Parameters with no gradient
// are skipped.
func (a *Adam) Step() {
	a.t++

	correction1 := 1 - math.Pow(a.beta1, float64(a.t))
	correction2 := 1 - math.Pow(a.beta2, float64(a.t))
	lrT := a.lr * math.Sqrt(correction2) / correction1

	for i, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		a.updateParameter(param.Value(), grad, a.m[i], a.v[i], lrT)
	}
}

func (a *Adam) updateParameter(value, grad, m, v *mat.Dense, lrT float64) {
	r, c := value.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := grad.At(i, j)

			mi := a.beta1*m.At(i, j) + (1-a.beta1)*g
			vi := a.beta2*v.At(i, j) + (1-a.beta2)*g*g
			m.Set(i, j, mi)
			v.Set(i, j, vi)

			value.Set(i, j, value.At(i, j)-lrT*mi/(math.Sqrt(vi)+a.eps))
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the number of steps taken.
func (a *Adam) GetTimestep() int {
	return a.t
}

// Name implements State.
func (a *Adam) Name() string {
	return "Adam"
}

// Config implements State.
func (a *Adam) Config() map[string]any {
	return map[string]any{
		"lr":    a.lr,
		"beta1": a.beta1,
		"beta2": a.beta2,
		"eps":   a.eps,
	}
}

// StateDict returns the moment estimates ("m.<i>", "v.<i>") and the
// timestep ("t") where i indexes the parameter list.
func (a *Adam) StateDict() map[string]*mat.Dense {
	state := make(map[string]*mat.Dense, 2*len(a.params)+1)
	for i := range a.params {
		state[slotKey("m", i)] = mat.DenseCopyOf(a.m[i])
		state[slotKey("v", i)] = mat.DenseCopyOf(a.v[i])
	}
	state["t"] = mat.NewDense(1, 1, []float64{float64(a.t)})
	return state
}

// LoadStateDict restores state produced by StateDict.
func (a *Adam) LoadStateDict(state map[string]*mat.Dense) error {
	m, err := loadSlots(a.params, state, "m")
	if err != nil {
		return err
	}
	v, err := loadSlots(a.params, state, "v")
	if err != nil {
		return err
	}
	t, ok := state["t"]
	if !ok {
		return fmt.Errorf("%w: missing t", ErrStateMismatch)
	}
	a.m, a.v = m, v
	a.t = int(t.At(0, 0))
	return nil
}
