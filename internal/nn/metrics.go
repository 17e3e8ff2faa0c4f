package nn

import (
	"gonum.org/v1/gonum/mat"
)

// DefaultThreshold separates the positive from the negative class.
const DefaultThreshold = 0.5

// Threshold maps a probability to a class label: p >= 0.5 → 1, else 0.
func Threshold(p float64) int {
	if p >= DefaultThreshold {
		return 1
	}
	return 0
}

// Labels thresholds every row of [batch, 1] probabilities.
func Labels(probs *mat.Dense) []int {
	r, _ := probs.Dims()
	out := make([]int, r)
	for i := range out {
		out[i] = Threshold(probs.At(i, 0))
	}
	return out
}

// BinaryAccuracy returns the fraction of rows whose thresholded prediction
// equals the target.
func BinaryAccuracy(probs *mat.Dense, targets []float64) float64 {
	p := column(probs, len(targets), "BinaryAccuracy")
	if len(targets) == 0 {
		return 0
	}
	correct := 0
	for i, y := range targets {
		if float64(Threshold(p[i])) == y {
			correct++
		}
	}
	return float64(correct) / float64(len(targets))
}
