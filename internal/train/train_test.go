package train

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/nn"
	"github.com/born-ml/ckd/internal/optim"
)

// separable returns rows where the label is 1 iff the first feature > 0.5.
func separable(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n-1)
		b := float64((i*7)%n) / float64(n-1)
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		if a > 0.5 {
			y[i] = 1
		}
	}
	return x, y
}

func newModel(t *testing.T) *nn.Classifier {
	t.Helper()
	m, err := nn.NewClassifier(nn.ClassifierConfig{Inputs: 2, Hidden: 16, Seed: 13})
	require.NoError(t, err)
	return m
}

func TestFit_RunsExactlyEpochs(t *testing.T) {
	x, y := separable(40)
	model := newModel(t)
	calls := 0
	count := CallbackFunc(func(context.Context, Epoch) error { calls++; return nil })

	h, err := NewTrainer(Config{Epochs: 25}).Fit(context.Background(), model, nn.NewBCELoss(),
		optim.NewAdam(model.Parameters(), optim.AdamConfig{}), x, y, count)
	require.NoError(t, err)
	assert.Equal(t, 25, h.Len())
	assert.Len(t, h.Accuracy, 25)
	assert.Equal(t, 25, calls)
}

func TestFit_LearnsSeparableData(t *testing.T) {
	x, y := separable(60)
	model := newModel(t)

	h, err := NewTrainer(Config{Epochs: 400}).Fit(context.Background(), model, nn.NewBCELoss(),
		optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01}), x, y)
	require.NoError(t, err)

	loss, acc := h.Final()
	assert.Less(t, loss, h.Loss[0])
	assert.GreaterOrEqual(t, acc, 0.9)
}

func TestFit_MiniBatches(t *testing.T) {
	x, y := separable(10)
	model := newModel(t)
	adam := optim.NewAdam(model.Parameters(), optim.AdamConfig{})

	h, err := NewTrainer(Config{Epochs: 3, BatchSize: 4}).Fit(context.Background(), model, nn.NewBCELoss(), adam, x, y)
	require.NoError(t, err)
	// 10 rows in batches of 4: 3 updates per epoch.
	assert.Equal(t, 9, adam.GetTimestep())
	assert.Equal(t, 9, h.Steps)
}

func TestFit_Deterministic(t *testing.T) {
	x, y := separable(30)
	run := func() []float64 {
		model := newModel(t)
		h, err := NewTrainer(Config{Epochs: 20}).Fit(context.Background(), model, nn.NewBCELoss(),
			optim.NewAdam(model.Parameters(), optim.AdamConfig{}), x, y)
		require.NoError(t, err)
		return h.Loss
	}
	assert.Equal(t, run(), run())
}

func TestFit_Errors(t *testing.T) {
	model := newModel(t)
	adam := optim.NewAdam(model.Parameters(), optim.AdamConfig{})
	tr := NewTrainer(Config{Epochs: 1})
	ctx := context.Background()

	_, err := tr.Fit(ctx, model, nn.NewBCELoss(), adam, mat.NewDense(2, 2, nil), []float64{1})
	assert.Error(t, err)

	x, y := separable(4)
	stop := errors.New("stop")
	_, err = tr.Fit(ctx, model, nn.NewBCELoss(), adam, x, y,
		CallbackFunc(func(context.Context, Epoch) error { return stop }))
	assert.ErrorIs(t, err, stop)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	h, err := tr.Fit(cancelled, model, nn.NewBCELoss(), adam, x, y)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.Len())
}

func TestBatchBounds(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 10}}, batchBounds(10, 0))
	assert.Equal(t, [][2]int{{0, 10}}, batchBounds(10, 32))
	assert.Equal(t, [][2]int{{0, 4}, {4, 8}, {8, 10}}, batchBounds(10, 4))
}

func TestLogProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cb := LogProgress(logger, 10, 25)
	for i := 1; i <= 25; i++ {
		require.NoError(t, cb.OnEpochEnd(context.Background(), Epoch{Index: i}))
	}
	// epochs 1, 10, 20 and 25
	assert.Equal(t, 4, strings.Count(buf.String(), "msg=epoch"))
}

type memRecorder struct {
	epochs []int
}

func (m *memRecorder) RecordEpoch(_ context.Context, runID string, epoch int, _, _ float64) error {
	if runID != "run-1" {
		return errors.New("wrong run")
	}
	m.epochs = append(m.epochs, epoch)
	return nil
}

func TestRecordTo(t *testing.T) {
	rec := &memRecorder{}
	cb := RecordTo(rec, "run-1")
	require.NoError(t, cb.OnEpochEnd(context.Background(), Epoch{Index: 1}))
	require.NoError(t, cb.OnEpochEnd(context.Background(), Epoch{Index: 2}))
	assert.Equal(t, []int{1, 2}, rec.epochs)
}
