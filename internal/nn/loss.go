package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon clips predictions away from 0 and 1 inside BCELoss.
const DefaultEpsilon = 1e-7

// BCELoss computes mean binary cross-entropy.
//
// Loss = -mean(y*log(p) + (1-y)*log(1-p))
//
// Predictions are clipped to [Eps, 1-Eps] so that a saturated hard-sigmoid
// output does not produce an infinite loss.
//
// Example:
//
//	bce := nn.NewBCELoss()
//	probs := model.Forward(x)
//	loss := bce.Forward(probs, y)
//	grad := bce.Backward(probs, y)
type BCELoss struct {
	Eps float64
}

// NewBCELoss creates a BCE loss with DefaultEpsilon.
func NewBCELoss() *BCELoss {
	return &BCELoss{Eps: DefaultEpsilon}
}

// Forward returns the mean loss of [batch, 1] predictions against targets.
func (l *BCELoss) Forward(predictions *mat.Dense, targets []float64) float64 {
	p := column(predictions, len(targets), "BCELoss.Forward")

	var sum float64
	for i, y := range targets {
		pi := l.clip(p[i])
		sum += y*math.Log(pi) + (1-y)*math.Log(1-pi)
	}
	return -sum / float64(len(targets))
}

// Backward returns dLoss/dPredictions with shape [batch, 1].
//
//	dL/dp = (p - y) / (p * (1 - p)) / batch
func (l *BCELoss) Backward(predictions *mat.Dense, targets []float64) *mat.Dense {
	p := column(predictions, len(targets), "BCELoss.Backward")

	n := float64(len(targets))
	grad := mat.NewDense(len(targets), 1, nil)
	for i, y := range targets {
		pi := l.clip(p[i])
		grad.Set(i, 0, (pi-y)/(pi*(1-pi))/n)
	}
	return grad
}

// Parameters returns nil (loss functions have no trainable parameters).
func (l *BCELoss) Parameters() []*Parameter {
	return nil
}

func (l *BCELoss) clip(p float64) float64 {
	eps := l.Eps
	if eps == 0 {
		eps = DefaultEpsilon
	}
	return math.Min(math.Max(p, eps), 1-eps)
}

// column validates a [n, 1] matrix and returns its values.
func column(m *mat.Dense, n int, op string) []float64 {
	r, c := m.Dims()
	if c != 1 || r != n {
		panic(fmt.Sprintf("%s: expected predictions of shape [%d 1], got [%d %d]", op, n, r, c))
	}
	return mat.Col(nil, 0, m)
}
