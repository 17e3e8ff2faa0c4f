// Package train runs the fixed-epoch training loop.
package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/nn"
	"github.com/born-ml/ckd/internal/optim"
)

// DefaultEpochs is the number of passes over the training set.
const DefaultEpochs = 2000

// Config controls the training loop.
type Config struct {
	Epochs    int // Number of epochs (default: 2000)
	BatchSize int // Rows per update; 0 means the full training set
}

// DefaultConfig returns 2000 full-batch epochs.
func DefaultConfig() Config {
	return Config{Epochs: DefaultEpochs}
}

// Model is what Fit trains.
type Model interface {
	nn.Module
}

// Loss is a differentiable loss on [batch, 1] predictions.
type Loss interface {
	Forward(predictions *mat.Dense, targets []float64) float64
	Backward(predictions *mat.Dense, targets []float64) *mat.Dense
}

// Epoch is the outcome of one epoch, measured on the training set.
type Epoch struct {
	Index    int // 1-based
	Loss     float64
	Accuracy float64
	Duration time.Duration
}

// History holds the per-epoch training curves.
type History struct {
	Loss     []float64
	Accuracy []float64
	Steps    int // optimizer updates applied
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.Loss)
}

// Final returns the last recorded loss and accuracy.
func (h *History) Final() (loss, accuracy float64) {
	if h.Len() == 0 {
		return 0, 0
	}
	return h.Loss[h.Len()-1], h.Accuracy[h.Len()-1]
}

// Callback observes training. A returned error stops Fit.
type Callback interface {
	OnEpochEnd(ctx context.Context, e Epoch) error
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ctx context.Context, e Epoch) error

// OnEpochEnd implements Callback.
func (f CallbackFunc) OnEpochEnd(ctx context.Context, e Epoch) error {
	return f(ctx, e)
}

// Trainer fits a model with a loss and an optimizer.
type Trainer struct {
	Config Config
}

// NewTrainer creates a trainer. A zero Epochs selects DefaultEpochs.
func NewTrainer(cfg Config) *Trainer {
	if cfg.Epochs == 0 {
		cfg.Epochs = DefaultEpochs
	}
	return &Trainer{Config: cfg}
}

// Fit runs exactly Config.Epochs epochs over (x, y) in row order and returns
// the loss and accuracy of each epoch. There is no early stopping and no
// validation split. Each batch does one forward pass, one backward pass and
// one optimizer step; the reported epoch loss and accuracy are the
// row-weighted means of the batch values before their updates.
func (t *Trainer) Fit(ctx context.Context, model Model, loss Loss, opt optim.Optimizer,
	x *mat.Dense, y []float64, callbacks ...Callback,
) (*History, error) {
	rows, _ := x.Dims()
	if rows == 0 {
		return nil, errors.New("empty training set")
	}
	if rows != len(y) {
		return nil, fmt.Errorf("x has %d rows, y has %d", rows, len(y))
	}
	if t.Config.Epochs < 0 || t.Config.BatchSize < 0 {
		return nil, fmt.Errorf("invalid training config %+v", t.Config)
	}

	batches := batchBounds(rows, t.Config.BatchSize)
	history := &History{
		Loss:     make([]float64, 0, t.Config.Epochs),
		Accuracy: make([]float64, 0, t.Config.Epochs),
	}

	for epoch := 1; epoch <= t.Config.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		start := time.Now()

		var lossSum, accSum float64
		for _, b := range batches {
			xb, yb := x, y
			if b[0] != 0 || b[1] != rows {
				xb = x.Slice(b[0], b[1], 0, x.RawMatrix().Cols).(*mat.Dense)
				yb = y[b[0]:b[1]]
			}
			n := float64(b[1] - b[0])

			opt.ZeroGrad()
			pred := model.Forward(xb)
			lossSum += loss.Forward(pred, yb) * n
			accSum += nn.BinaryAccuracy(pred, yb) * n
			model.Backward(loss.Backward(pred, yb))
			opt.Step()
			history.Steps++
		}

		e := Epoch{
			Index:    epoch,
			Loss:     lossSum / float64(rows),
			Accuracy: accSum / float64(rows),
			Duration: time.Since(start),
		}
		history.Loss = append(history.Loss, e.Loss)
		history.Accuracy = append(history.Accuracy, e.Accuracy)

		for _, cb := range callbacks {
			if err := cb.OnEpochEnd(ctx, e); err != nil {
				return history, fmt.Errorf("epoch %d: %w", epoch, err)
			}
		}
	}
	return history, nil
}

// batchBounds returns [start, end) row ranges; size 0 is one full batch.
func batchBounds(rows, size int) [][2]int {
	if size <= 0 || size >= rows {
		return [][2]int{{0, rows}}
	}
	var out [][2]int
	for lo := 0; lo < rows; lo += size {
		out = append(out, [2]int{lo, min(lo+size, rows)})
	}
	return out
}

// LogProgress logs every n-th epoch and the last one at Info level.
func LogProgress(logger *slog.Logger, every, total int) Callback {
	if every <= 0 {
		every = 1
	}
	return CallbackFunc(func(ctx context.Context, e Epoch) error {
		if e.Index%every == 0 || e.Index == total || e.Index == 1 {
			logger.LogAttrs(ctx, slog.LevelInfo, "epoch",
				slog.Int("epoch", e.Index),
				slog.Int("of", total),
				slog.Float64("loss", e.Loss),
				slog.Float64("accuracy", e.Accuracy),
			)
		}
		return nil
	})
}

// EpochRecorder persists epoch results.
type EpochRecorder interface {
	RecordEpoch(ctx context.Context, runID string, epoch int, loss, accuracy float64) error
}

// RecordTo writes every epoch of run runID to rec.
func RecordTo(rec EpochRecorder, runID string) Callback {
	return CallbackFunc(func(ctx context.Context, e Epoch) error {
		return rec.RecordEpoch(ctx, runID, e.Index, e.Loss, e.Accuracy)
	})
}
