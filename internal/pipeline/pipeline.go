// Package pipeline sequences the stages of a training run: load, clean,
// encode, scale, split, train, save, and evaluate every listed model.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/config"
	"github.com/born-ml/ckd/internal/dataset"
	"github.com/born-ml/ckd/internal/evaluate"
	"github.com/born-ml/ckd/internal/history"
	"github.com/born-ml/ckd/internal/nn"
	"github.com/born-ml/ckd/internal/optim"
	"github.com/born-ml/ckd/internal/parallel"
	"github.com/born-ml/ckd/internal/plot"
	"github.com/born-ml/ckd/internal/preprocess"
	"github.com/born-ml/ckd/internal/serialization"
	"github.com/born-ml/ckd/internal/train"
)

const separator = evaluate.Separator

// ErrNonBinaryLabel is returned when the label column holds anything but
// two classes.
var ErrNonBinaryLabel = errors.New("label is not binary")

// Prepared is the cleaned, encoded, scaled and split data set.
type Prepared struct {
	Split    *preprocess.Split
	Scaler   *preprocess.MinMaxScaler
	Encoder  *dataset.Encoder
	Features []string
	Label    string
	Rows     int // rows left after cleaning
	Dropped  int // rows removed for missing values
	FitScope preprocess.FitScope
}

// Preprocessing returns what a saved model needs to score raw records.
func (p *Prepared) Preprocessing() *serialization.PreprocessingMeta {
	return &serialization.PreprocessingMeta{
		Features:     append([]string(nil), p.Features...),
		Label:        p.Label,
		ScalerMin:    p.Scaler.Min(),
		ScalerMax:    p.Scaler.Max(),
		ScalerFit:    string(p.FitScope),
		Vocabularies: p.Encoder.Vocabularies(),
	}
}

// Prepare loads the CSV named by cfg and runs every data stage.
func Prepare(cfg config.Config) (*Prepared, error) {
	table, err := dataset.LoadCSV(cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	return PrepareTable(table, cfg)
}

// PrepareTable runs the data stages on an already loaded table.
func PrepareTable(table *dataset.Table, cfg config.Config) (*Prepared, error) {
	scope, err := preprocess.ParseFitScope(cfg.Split.ScalerFit)
	if err != nil {
		return nil, err
	}

	columns := append(append([]string(nil), cfg.Data.Features...), cfg.Data.Label)
	table, err = table.Select(columns...)
	if err != nil {
		return nil, fmt.Errorf("select columns: %w", err)
	}
	loaded, _ := table.Shape()
	table = table.DropMissing(dataset.NewMissingSet(cfg.Data.MissingMarkers...), cfg.Data.NumericColumns...)
	rows, _ := table.Shape()

	enc, err := dataset.FitEncoder(table)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	frame, err := enc.Transform(table)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	x, y, features, err := frame.XY(cfg.Data.Label)
	if err != nil {
		return nil, err
	}
	if classes := enc.Classes(cfg.Data.Label); len(classes) > 2 {
		return nil, fmt.Errorf("%w: %s has %d classes %q", ErrNonBinaryLabel, cfg.Data.Label, len(classes), classes)
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: %s is %g in row %d", ErrNonBinaryLabel, cfg.Data.Label, v, i)
		}
	}

	splitCfg := preprocess.SplitConfig{
		TestSize: cfg.Split.TestSize,
		Shuffle:  cfg.Split.Shuffle,
		Seed:     cfg.Split.Seed,
	}
	scaler := preprocess.NewMinMaxScaler()

	var split *preprocess.Split
	switch scope {
	case preprocess.FitAll:
		scaled, err := scaler.FitTransform(x)
		if err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
		if split, err = preprocess.TrainTestSplit(scaled, y, splitCfg); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
	case preprocess.FitTrain:
		if split, err = preprocess.TrainTestSplit(x, y, splitCfg); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
		if split.XTrain, err = scaler.FitTransform(split.XTrain); err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
		if split.XTest, err = scaler.Transform(split.XTest); err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
	}

	return &Prepared{
		Split:    split,
		Scaler:   scaler,
		Encoder:  enc,
		Features: features,
		Label:    cfg.Data.Label,
		Rows:     rows,
		Dropped:  loaded - rows,
		FitScope: scope,
	}, nil
}

// WriteShapes prints the partition shapes between separator lines.
func WriteShapes(w io.Writer, s *preprocess.Split) error {
	trainRows, trainCols := s.XTrain.Dims()
	testRows, testCols := s.XTest.Dims()
	_, err := fmt.Fprintf(w, "%s\nShape of training data:  (%d, %d)\nShape of test data    :  (%d, %d)\n%s\n",
		separator, trainRows, trainCols, testRows, testCols, separator)
	return err
}

// Trained is the outcome of the training stage.
type Trained struct {
	RunID     string
	Model     *nn.Classifier
	Optimizer optim.State
	History   *train.History
}

// Train builds the classifier from cfg and fits it on the train partition.
// Every epoch is appended to store when it is non-nil.
func Train(ctx context.Context, cfg config.Config, data *Prepared, logger *slog.Logger, store *history.Store) (*Trained, error) {
	model, err := nn.NewClassifier(nn.ClassifierConfig{
		Inputs:           len(data.Features),
		Hidden:           cfg.Model.Hidden,
		Seed:             cfg.Model.InitSeed,
		HiddenStd:        cfg.Model.InitStd,
		HiddenActivation: cfg.Model.HiddenActivation,
		OutputActivation: cfg.Model.OutputActivation,
	})
	if err != nil {
		return nil, err
	}
	model.SetParallel(parallel.WithWorkers(cfg.Train.Workers))
	opt, err := optim.New(cfg.Train.Optimizer, model.Parameters(), cfg.Train.LearningRate)
	if err != nil {
		return nil, err
	}

	runID := history.NewRunID()
	callbacks := []train.Callback{train.LogProgress(logger, cfg.Train.LogEvery, cfg.Train.Epochs)}
	if store != nil {
		run, err := store.StartRun(ctx, history.Run{
			ID:        runID,
			Dataset:   cfg.Data.Path,
			ModelPath: cfg.Output.ModelPath,
			Seed:      cfg.Model.InitSeed,
			Epochs:    cfg.Train.Epochs,
		})
		if err != nil {
			return nil, err
		}
		callbacks = append(callbacks, train.RecordTo(store, run.ID))
	}

	logger.Info("training",
		"run_id", runID,
		"rows", len(data.Split.YTrain),
		"parameters", nn.CountParameters(model.Parameters()),
		"epochs", cfg.Train.Epochs,
		"optimizer", opt.Name(),
	)

	trainer := train.NewTrainer(train.Config{Epochs: cfg.Train.Epochs, BatchSize: cfg.Train.BatchSize})
	hist, err := trainer.Fit(ctx, model, nn.NewBCELoss(), opt, data.Split.XTrain, data.Split.YTrain, callbacks...)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	return &Trained{RunID: runID, Model: model, Optimizer: opt, History: hist}, nil
}

// Save writes the trained model with its optimizer state, training summary
// and preprocessing state to cfg.Output.ModelPath.
func Save(cfg config.Config, data *Prepared, t *Trained) error {
	loss, acc := t.History.Final()

	metadata := parallel.HostInfo()
	metadata["dataset"] = cfg.Data.Path
	metadata["rows"] = fmt.Sprint(data.Rows)

	ckpt := &nn.Checkpoint{
		Model:         t.Model,
		Optimizer:     t.Optimizer,
		Epoch:         t.History.Len(),
		Step:          int64(t.History.Steps),
		Loss:          loss,
		Accuracy:      acc,
		RunID:         t.RunID,
		Seed:          cfg.Model.InitSeed,
		Preprocessing: data.Preprocessing(),
		Metadata:      metadata,
		CreatedAt:     time.Now().UTC(),
		Compress:      cfg.Output.Compress,
	}
	if err := ckpt.Save(cfg.Output.ModelPath); err != nil {
		return fmt.Errorf("save %s: %w", cfg.Output.ModelPath, err)
	}
	return nil
}

// Evaluation is the result of one listed model on the test partition.
type Evaluation struct {
	Path   string
	Result *evaluate.Result
}

// EvaluateModels reloads every model in paths, scores it on (x, y) and
// writes its report block to w.
func EvaluateModels(ctx context.Context, paths []string, x *mat.Dense, y []float64, w io.Writer,
	logger *slog.Logger, store *history.Store,
) ([]Evaluation, error) {
	out := make([]Evaluation, 0, len(paths))
	for _, path := range paths {
		ckpt, err := nn.LoadCheckpoint(path, nil)
		if err != nil {
			return out, err
		}
		if _, cols := x.Dims(); cols != ckpt.Model.InputFeatures() {
			return out, fmt.Errorf("%s: model expects %d features, data has %d", path, ckpt.Model.InputFeatures(), cols)
		}
		res, err := evaluate.Evaluate(ckpt.Model, x, y)
		if err != nil {
			return out, fmt.Errorf("%s: %w", path, err)
		}
		if err := res.Write(w, path); err != nil {
			return out, err
		}
		logger.Info("evaluated", "model", path, "loss", res.Loss, "accuracy", res.Accuracy)

		if store != nil && ckpt.RunID != "" {
			if err := store.RecordEvaluation(ctx, ckpt.RunID, path, res.Loss, res.Accuracy); err != nil {
				return out, err
			}
		}
		out = append(out, Evaluation{Path: path, Result: res})
	}
	return out, nil
}

// Report summarises a full run.
type Report struct {
	Data        *Prepared
	Trained     *Trained
	Evaluations []Evaluation
}

// Run executes the full pipeline described by cfg, writing the console
// output to w.
func Run(ctx context.Context, cfg config.Config, w io.Writer, logger *slog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	data, err := Prepare(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("prepared data", "path", cfg.Data.Path, "rows", data.Rows, "dropped", data.Dropped, "features", data.Features, "scaler_fit", data.FitScope)
	if err := WriteShapes(w, data.Split); err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Output.HistoryPath)
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	trained, err := Train(ctx, cfg, data, logger, store)
	if err != nil {
		return nil, err
	}
	if err := Save(cfg, data, trained); err != nil {
		return nil, err
	}
	logger.Info("saved model", "path", cfg.Output.ModelPath)

	if cfg.Output.PlotPath != "" {
		chart := plot.NewTrainingCurves(cfg.Output.ModelPath, plot.Curves{
			Accuracy: trained.History.Accuracy,
			Loss:     trained.History.Loss,
		})
		if err := chart.Save(cfg.Output.PlotPath); err != nil {
			return nil, err
		}
	}

	evals, err := EvaluateModels(ctx, cfg.ModelsToEvaluate(), data.Split.XTest, data.Split.YTest, w, logger, store)
	if err != nil {
		return nil, err
	}

	return &Report{Data: data, Trained: trained, Evaluations: evals}, nil
}

// RunEvaluate rebuilds the test partition from cfg and evaluates paths on it.
func RunEvaluate(ctx context.Context, cfg config.Config, paths []string, w io.Writer, logger *slog.Logger) ([]Evaluation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	data, err := Prepare(cfg)
	if err != nil {
		return nil, err
	}
	if err := WriteShapes(w, data.Split); err != nil {
		return nil, err
	}
	store, err := openStore(cfg.Output.HistoryPath)
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}
	return EvaluateModels(ctx, paths, data.Split.XTest, data.Split.YTest, w, logger, store)
}

func openStore(path string) (*history.Store, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // no store configured
	}
	return history.Open(path)
}
