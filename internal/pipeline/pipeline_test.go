package pipeline

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

	"github.com/born-ml/ckd/internal/config"
	"github.com/born-ml/ckd/internal/dataset"
	"github.com/born-ml/ckd/internal/history"
	"github.com/born-ml/ckd/internal/logging"
	"github.com/born-ml/ckd/internal/nn"
	"github.com/born-ml/ckd/internal/plot"
)

// writeCSV writes clean rows plus incomplete ones, with extra columns
// that are not used by the model.
func writeCSV(t *testing.T, clean, incomplete int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,age,sg,al,sc,hemo,pcv,wbcc,rbcc,htn,classification\n")
	for i := 0; i < clean; i++ {
		sick := i%3 != 0
		sg, hemo, htn, label := "1.020", 15.0-float64(i%5)*0.3, "no", "notckd"
		if sick {
			sg, hemo, htn, label = "1.010", 9.0+float64(i%7)*0.4, "yes", "ckd"
		}
		if i%11 == 0 {
			label += "\t"
		}
		fmt.Fprintf(&b, "%d,%d,%s,%d,%.1f,%.1f,%d,%d,%.1f,%s,%s\n",
			i, 20+i%60, sg, i%4, 0.8+float64(i%9)*0.3, hemo, 30+i%20, 5000+i*37, 3.5+float64(i%10)*0.2, htn, label)
	}
	for i := 0; i < incomplete; i++ {
		fmt.Fprintf(&b, "%d,50,1.015,?,1.2,12.0,40,8000,4.5,no,notckd\n", clean+i)
	}
	path := filepath.Join(t.TempDir(), "kidney_disease.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func testConfig(t *testing.T, dataPath string) config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Data.Path = dataPath
	cfg.Train.Epochs = 40
	cfg.Train.LogEvery = 10
	cfg.Output.ModelPath = filepath.Join(dir, "ckd.model")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, 300, 20))
	var out bytes.Buffer

	report, err := Run(context.Background(), cfg, &out, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, 300, report.Data.Rows)
	assert.Equal(t, 20, report.Data.Dropped)
	r, c := report.Data.Split.XTrain.Dims()
	assert.Equal(t, [2]int{240, 8}, [2]int{r, c})
	r, c = report.Data.Split.XTest.Dims()
	assert.Equal(t, [2]int{60, 8}, [2]int{r, c})

	assert.Contains(t, out.String(), "Shape of training data:  (240, 8)")
	assert.Contains(t, out.String(), "Shape of test data    :  (60, 8)")
	assert.Contains(t, out.String(), "Model file:  "+cfg.Output.ModelPath)
	assert.Equal(t, 40, report.Trained.History.Len())

	require.Len(t, report.Evaluations, 1)
	res := report.Evaluations[0].Result
	require.Len(t, res.Predicted, 60)
	for _, p := range res.Predicted {
		assert.Contains(t, []int{0, 1}, p)
	}

	// The reloaded model predicts exactly what the trained one does.
	loaded, err := nn.LoadCheckpoint(cfg.Output.ModelPath, nil)
	require.NoError(t, err)
	want := report.Trained.Model.Predict(report.Data.Split.XTest)
	assert.True(t, mat.Equal(want, loaded.Model.Predict(report.Data.Split.XTest)))
	assert.Equal(t, nn.Labels(want), res.Predicted)

	meta := loaded.Preprocessing
	require.NotNil(t, meta)
	assert.Equal(t, []string{"sg", "al", "sc", "hemo", "pcv", "wbcc", "rbcc", "htn"}, meta.Features)
	assert.Equal(t, []string{"ckd", "notckd"}, meta.Vocabularies["classification"])
	assert.Equal(t, []string{"no", "yes"}, meta.Vocabularies["htn"])
	assert.Equal(t, report.Trained.RunID, loaded.RunID)
	assert.Equal(t, 40, loaded.Epoch)
	assert.Equal(t, int64(40), loaded.Step)
}

func TestPrepare_ScaledRangeAndPartition(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, 100, 5))
	data, err := Prepare(cfg)
	require.NoError(t, err)

	assert.Equal(t, 100, data.Rows)
	assert.Len(t, data.Split.TrainIndex, 80)
	assert.Len(t, data.Split.TestIndex, 20)

	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), data.Split.TrainIndex...), data.Split.TestIndex...) {
		assert.False(t, seen[i], "row %d in both partitions", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)

	var all mat.Dense
	all.Stack(data.Split.XTrain, data.Split.XTest)
	_, cols := all.Dims()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, &all)
		assert.InDelta(t, 0, minOf(col), 1e-12, "column %d", j)
		assert.InDelta(t, 1, maxOf(col), 1e-12, "column %d", j)
	}
}

func TestPrepare_FitTrain(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, 100, 0))
	cfg.Split.ScalerFit = "train"
	data, err := Prepare(cfg)
	require.NoError(t, err)

	_, cols := data.Split.XTrain.Dims()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, data.Split.XTrain)
		assert.InDelta(t, 0, minOf(col), 1e-12)
		assert.InDelta(t, 1, maxOf(col), 1e-12)
	}
	assert.Equal(t, "train", data.Preprocessing().ScalerFit)
}

func TestPrepare_Errors(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.csv"))
	_, err := Prepare(cfg)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "partial.csv")
	require.NoError(t, os.WriteFile(path, []byte("sg,al\n1.02,1\n"), 0o600))
	cfg = testConfig(t, path)
	_, err = Prepare(cfg)
	assert.ErrorContains(t, err, "missing column")

	// Every row dropped.
	cfg = testConfig(t, writeCSV(t, 0, 10))
	_, err = Prepare(cfg)
	assert.Error(t, err)
}

func TestPrepareTable_RejectsNonBinaryLabel(t *testing.T) {
	header := []string{"sg", "al", "sc", "hemo", "pcv", "wbcc", "rbcc", "htn", "classification"}
	build := func(label func(i int) string) *dataset.Table {
		rows := make([][]string, 20)
		for i := range rows {
			rows[i] = []string{"1.020", fmt.Sprint(i % 4), "1.2", fmt.Sprint(10 + i), "40", "8000", "4.5", "no", label(i)}
		}
		table, err := dataset.NewTable(header, rows)
		require.NoError(t, err)
		return table
	}
	cfg := config.Default()

	// Numeric label with four values.
	_, err := PrepareTable(build(func(i int) string { return fmt.Sprint(i % 4) }), cfg)
	require.ErrorIs(t, err, ErrNonBinaryLabel)

	// Three categories.
	classes := []string{"ckd", "notckd", "unknown"}
	_, err = PrepareTable(build(func(i int) string { return classes[i%3] }), cfg)
	require.ErrorIs(t, err, ErrNonBinaryLabel)

	// Numeric 0/1 labels pass through.
	data, err := PrepareTable(build(func(i int) string { return fmt.Sprint(i % 2) }), cfg)
	require.NoError(t, err)
	for _, v := range data.Split.YTrain {
		assert.Contains(t, []float64{0, 1}, v)
	}
}

func TestRunWithHistoryPlotAndModelList(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, 60, 0))
	dir := t.TempDir()
	cfg.Train.Epochs = 5
	cfg.Output.Compress = true
	cfg.Output.HistoryPath = filepath.Join(dir, "history.db")
	cfg.Output.PlotPath = filepath.Join(dir, "curves.json")
	cfg.Output.EvalModels = []string{cfg.Output.ModelPath, cfg.Output.ModelPath}

	var out bytes.Buffer
	report, err := Run(context.Background(), cfg, &out, logging.Discard())
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 2)
	assert.Equal(t, report.Evaluations[0].Result, report.Evaluations[1].Result)
	assert.Equal(t, 2, strings.Count(out.String(), "Model file:"))

	store, err := history.Open(cfg.Output.HistoryPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	epochs, err := store.Epochs(context.Background(), report.Trained.RunID)
	require.NoError(t, err)
	assert.Len(t, epochs, 5)

	chart, err := plot.Load(cfg.Output.PlotPath)
	require.NoError(t, err)
	assert.Len(t, chart.Series[1].Data, 5)
}

func TestRunEvaluate(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, 50, 0))
	cfg.Train.Epochs = 3
	report, err := Run(context.Background(), cfg, &bytes.Buffer{}, logging.Discard())
	require.NoError(t, err)

	var out bytes.Buffer
	evals, err := RunEvaluate(context.Background(), cfg, []string{cfg.Output.ModelPath}, &out, logging.Discard())
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, report.Evaluations[0].Result, evals[0].Result)

	_, err = RunEvaluate(context.Background(), cfg, []string{filepath.Join(t.TempDir(), "none.model")}, &out, logging.Discard())
	assert.Error(t, err)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Train.Epochs = 0
	_, err := Run(context.Background(), cfg, &bytes.Buffer{}, logging.Discard())
	assert.ErrorContains(t, err, "invalid config")
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = max(m, x)
	}
	return m
}
