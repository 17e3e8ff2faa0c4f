package ckd_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/ckd"
	"github.com/born-ml/ckd/internal/dataset"
	"github.com/born-ml/ckd/internal/logging"
	"github.com/born-ml/ckd/internal/nn"
)

func writeCSV(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,sg,al,sc,hemo,pcv,wbcc,rbcc,htn,classification\n")
	for i := 0; i < rows; i++ {
		sg, hemo, htn, label := "1.020", 15.0-float64(i%5)*0.3, "no", "notckd"
		if i%3 != 0 {
			sg, hemo, htn, label = "1.010", 9.0+float64(i%7)*0.4, "yes", "ckd"
		}
		fmt.Fprintf(&b, "%d,%s,%d,%.1f,%.1f,%d,%d,%.1f,%s,%s\n",
			i, sg, i%4, 0.8+float64(i%9)*0.3, hemo, 30+i%20, 5000+i*37, 3.5+float64(i%10)*0.2, htn, label)
	}
	path := filepath.Join(t.TempDir(), "kidney_disease.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func trainModel(t *testing.T) (*ckd.Report, string) {
	t.Helper()
	cfg := ckd.DefaultConfig()
	cfg.Data.Path = writeCSV(t, 100)
	cfg.Train.Epochs = 20
	cfg.Output.ModelPath = filepath.Join(t.TempDir(), "ckd.model")

	var out bytes.Buffer
	report, err := ckd.Train(context.Background(), cfg, &out, logging.Discard())
	require.NoError(t, err)
	return report, cfg.Output.ModelPath
}

func record() map[string]string {
	return map[string]string{
		"id": "7", "sg": "1.010", "al": "2", "sc": " 3.2", "hemo": "9.4",
		"pcv": "31", "wbcc": "9100", "rbcc": "3.9", "htn": "yes ",
	}
}

func TestPredictRecords(t *testing.T) {
	report, path := trainModel(t)

	p, err := ckd.LoadPredictor(path)
	require.NoError(t, err)
	assert.Equal(t, dataset.FeatureColumns, p.Features())

	preds, err := p.PredictRecords([]map[string]string{record()})
	require.NoError(t, err)
	require.Len(t, preds, 1)

	// Same path by hand: encode, scale with the fitted scaler, predict.
	rec := record()
	x := mat.NewDense(1, len(dataset.FeatureColumns), nil)
	for j, name := range dataset.FeatureColumns {
		v, err := report.Data.Encoder.Encode(name, strings.TrimSpace(rec[name]))
		require.NoError(t, err)
		x.Set(0, j, v)
	}
	scaled, err := report.Data.Scaler.Transform(x)
	require.NoError(t, err)
	want := report.Trained.Model.Predict(scaled).At(0, 0)

	got := preds[0]
	assert.InDelta(t, want, got.Probability, 1e-12)
	assert.Equal(t, nn.Threshold(want), got.Label)
	assert.Equal(t, []string{"ckd", "notckd"}[got.Label], got.Class)
}

func TestPredictRecords_Empty(t *testing.T) {
	_, path := trainModel(t)
	p, err := ckd.LoadPredictor(path)
	require.NoError(t, err)

	preds, err := p.PredictRecords(nil)
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestPredictRecords_Errors(t *testing.T) {
	_, path := trainModel(t)
	p, err := ckd.LoadPredictor(path)
	require.NoError(t, err)

	missing := record()
	delete(missing, "hemo")
	_, err = p.PredictRecords([]map[string]string{missing})
	require.ErrorIs(t, err, dataset.ErrMissingColumn)

	marker := record()
	marker["al"] = "?"
	_, err = p.PredictRecords([]map[string]string{marker})
	require.ErrorIs(t, err, dataset.ErrMissingColumn)

	unknown := record()
	unknown["htn"] = "maybe"
	_, err = p.PredictRecords([]map[string]string{record(), unknown})
	require.ErrorIs(t, err, dataset.ErrUnknownCategory)
	assert.Contains(t, err.Error(), "record 1")
}

func TestLoadPredictor_NoPreprocessing(t *testing.T) {
	model, err := nn.NewClassifier(nn.DefaultClassifierConfig())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bare.model")
	require.NoError(t, (&nn.Checkpoint{Model: model}).Save(path))

	_, err = ckd.LoadPredictor(path)
	require.ErrorIs(t, err, ckd.ErrNoPreprocessing)
}

func TestLoadPredictor_MissingFile(t *testing.T) {
	_, err := ckd.LoadPredictor(filepath.Join(t.TempDir(), "nope.model"))
	require.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	report, path := trainModel(t)

	cfg := ckd.DefaultConfig()
	cfg.Data.Path = writeCSV(t, 100)
	var out bytes.Buffer
	evals, err := ckd.Evaluate(context.Background(), cfg, []string{path, path}, &out, logging.Discard())
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, report.Evaluations[0].Result.Predicted, evals[0].Result.Predicted)
	assert.Equal(t, 2, strings.Count(out.String(), "Model file:  "+path))
}

func TestPredictRecords_NumericLabel(t *testing.T) {
	src, err := os.ReadFile(writeCSV(t, 60))
	require.NoError(t, err)
	text := strings.ReplaceAll(string(src), ",notckd\n", ",0\n")
	text = strings.ReplaceAll(text, ",ckd\n", ",1\n")
	data := filepath.Join(t.TempDir(), "numeric.csv")
	require.NoError(t, os.WriteFile(data, []byte(text), 0o600))

	cfg := ckd.DefaultConfig()
	cfg.Data.Path = data
	cfg.Train.Epochs = 5
	cfg.Output.ModelPath = filepath.Join(t.TempDir(), "numeric.model")
	var out bytes.Buffer
	_, err = ckd.Train(context.Background(), cfg, &out, logging.Discard())
	require.NoError(t, err)

	p, err := ckd.LoadPredictor(cfg.Output.ModelPath)
	require.NoError(t, err)
	preds, err := p.PredictRecords([]map[string]string{record()})
	require.NoError(t, err)
	assert.Empty(t, preds[0].Class)
	assert.Contains(t, []int{0, 1}, preds[0].Label)
}
