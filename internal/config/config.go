// Package config loads the pipeline configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/ckd/internal/dataset"
	"github.com/born-ml/ckd/internal/nn"
	"github.com/born-ml/ckd/internal/optim"
	"github.com/born-ml/ckd/internal/preprocess"
)

// Config is the full pipeline configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Split   SplitConfig   `yaml:"split"`
	Model   ModelConfig   `yaml:"model"`
	Train   TrainConfig   `yaml:"train"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig selects the input file and its cleaning rules.
type DataConfig struct {
	Path           string   `yaml:"path"`
	Features       []string `yaml:"features"`
	Label          string   `yaml:"label"`
	NumericColumns []string `yaml:"numeric_columns"`
	MissingMarkers []string `yaml:"missing_markers"`
}

// SplitConfig controls scaling and the train/test split.
type SplitConfig struct {
	TestSize  float64 `yaml:"test_size"`
	Shuffle   bool    `yaml:"shuffle"`
	Seed      uint64  `yaml:"seed"`
	ScalerFit string  `yaml:"scaler_fit"` // "all" or "train"
}

// ModelConfig describes the network.
type ModelConfig struct {
	Hidden           int     `yaml:"hidden"`
	InitSeed         uint64  `yaml:"init_seed"`
	InitStd          float64 `yaml:"init_std"`
	HiddenActivation string  `yaml:"hidden_activation"`
	OutputActivation string  `yaml:"output_activation"`
}

// TrainConfig controls the optimizer and the epoch loop.
type TrainConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"` // 0 = full batch
	Optimizer    string  `yaml:"optimizer"`  // "adam" or "sgd"
	LearningRate float64 `yaml:"learning_rate"`
	LogEvery     int     `yaml:"log_every"`
	Workers      int     `yaml:"workers"` // activation fan-out: 0 = one per physical core, 1 = sequential
}

// OutputConfig names the artifacts a run produces.
type OutputConfig struct {
	ModelPath   string   `yaml:"model_path"`
	Compress    bool     `yaml:"compress"`
	EvalModels  []string `yaml:"eval_models,omitempty"` // empty = ModelPath
	HistoryPath string   `yaml:"history_path,omitempty"`
	PlotPath    string   `yaml:"plot_path,omitempty"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration that reproduces the reference run.
func Default() Config {
	model := nn.DefaultClassifierConfig()
	split := preprocess.DefaultSplitConfig()
	return Config{
		Data: DataConfig{
			Path:           "kidney_disease.csv",
			Features:       append([]string(nil), dataset.FeatureColumns...),
			Label:          dataset.LabelColumn,
			NumericColumns: append([]string(nil), dataset.NumericColumns...),
			MissingMarkers: []string{"", "?", "NA", "N/A", "NaN", "nan", "null", "NULL"},
		},
		Split: SplitConfig{
			TestSize:  split.TestSize,
			Shuffle:   split.Shuffle,
			Seed:      split.Seed,
			ScalerFit: string(preprocess.FitAll),
		},
		Model: ModelConfig{
			Hidden:           model.Hidden,
			InitSeed:         model.Seed,
			InitStd:          model.HiddenStd,
			HiddenActivation: model.HiddenActivation,
			OutputActivation: model.OutputActivation,
		},
		Train: TrainConfig{
			Epochs:       2000,
			Optimizer:    optim.NameAdam,
			LearningRate: 0.001,
			LogEvery:     100,
		},
		Output: OutputConfig{
			ModelPath: "ckd.model",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over Default. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	//nolint:gosec // G304: config path is user-provided
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Data.Path == "" {
		errs = append(errs, errors.New("data.path is required"))
	}
	if len(c.Data.Features) == 0 {
		errs = append(errs, errors.New("data.features must not be empty"))
	}
	if c.Data.Label == "" {
		errs = append(errs, errors.New("data.label is required"))
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		errs = append(errs, fmt.Errorf("split.test_size must be in (0, 1), got %v", c.Split.TestSize))
	}
	if _, err := preprocess.ParseFitScope(c.Split.ScalerFit); err != nil {
		errs = append(errs, fmt.Errorf("split.scaler_fit: %w", err))
	}
	if c.Model.Hidden <= 0 {
		errs = append(errs, fmt.Errorf("model.hidden must be positive, got %d", c.Model.Hidden))
	}
	if c.Model.InitStd < 0 {
		errs = append(errs, fmt.Errorf("model.init_std must not be negative, got %v", c.Model.InitStd))
	}
	for _, act := range []string{c.Model.HiddenActivation, c.Model.OutputActivation} {
		if _, err := nn.NewActivation(act); err != nil {
			errs = append(errs, fmt.Errorf("model: %w", err))
		}
	}
	if c.Train.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("train.epochs must be positive, got %d", c.Train.Epochs))
	}
	if c.Train.Workers < 0 {
		errs = append(errs, fmt.Errorf("train.workers must not be negative, got %d", c.Train.Workers))
	}
	if c.Train.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("train.batch_size must not be negative, got %d", c.Train.BatchSize))
	}
	if !optim.Supported(c.Train.Optimizer) {
		errs = append(errs, fmt.Errorf("train.optimizer must be adam or sgd, got %q", c.Train.Optimizer))
	}
	if c.Train.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("train.learning_rate must be positive, got %v", c.Train.LearningRate))
	}
	if c.Output.ModelPath == "" {
		errs = append(errs, errors.New("output.model_path is required"))
	}
	return errors.Join(errs...)
}

// ModelsToEvaluate returns the explicit evaluation list, defaulting to the
// model written by the run.
func (c Config) ModelsToEvaluate() []string {
	if len(c.Output.EvalModels) > 0 {
		return c.Output.EvalModels
	}
	return []string{c.Output.ModelPath}
}
