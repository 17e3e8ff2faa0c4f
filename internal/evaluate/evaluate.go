// Package evaluate scores a trained classifier on a held-out set and
// renders the report block.
package evaluate

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/nn"
)

// Separator closes every report block.
const Separator = "-------------------------------------------------------------------"

// Predictor maps a feature matrix to [batch, 1] probabilities.
type Predictor interface {
	Predict(x *mat.Dense) *mat.Dense
}

// Result holds the scores of one model on one data set.
type Result struct {
	Probabilities []float64
	Predicted     []int // 1 where probability >= 0.5
	Original      []int
	Loss          float64
	Accuracy      float64
}

// Evaluate predicts x, thresholds at 0.5 and computes the binary
// cross-entropy and accuracy against y with the same definitions used in
// training. Evaluation has no side effects, so repeated calls agree.
func Evaluate(model Predictor, x *mat.Dense, y []float64) (*Result, error) {
	rows, _ := x.Dims()
	if rows == 0 {
		return nil, errors.New("empty evaluation set")
	}
	if rows != len(y) {
		return nil, fmt.Errorf("x has %d rows, y has %d", rows, len(y))
	}

	probs := model.Predict(x)
	if r, c := probs.Dims(); r != rows || c != 1 {
		return nil, fmt.Errorf("model returned [%d %d] predictions for %d rows", r, c, rows)
	}

	original := make([]int, len(y))
	for i, v := range y {
		original[i] = int(v)
	}

	return &Result{
		Probabilities: mat.Col(nil, 0, probs),
		Predicted:     nn.Labels(probs),
		Original:      original,
		Loss:          nn.NewBCELoss().Forward(probs, y),
		Accuracy:      nn.BinaryAccuracy(probs, y),
	}, nil
}

// Write prints the report block for the model stored at name.
func (r *Result) Write(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "Model file:  %s\nOriginal  : %s\nPredicted : %s\nScores    : loss =  %s  acc =  %s\n%s\n\n",
		name,
		joinInts(r.Original),
		joinInts(r.Predicted),
		strconv.FormatFloat(r.Loss, 'g', -1, 64),
		strconv.FormatFloat(r.Accuracy, 'g', -1, 64),
		Separator,
	)
	return err
}

// ConfusionMatrix returns counts indexed [original][predicted].
func (r *Result) ConfusionMatrix() [2][2]int {
	var m [2][2]int
	for i, o := range r.Original {
		if o < 0 || o > 1 {
			continue
		}
		m[o][r.Predicted[i]]++
	}
	return m
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
