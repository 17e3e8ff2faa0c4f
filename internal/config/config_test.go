package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"sg", "al", "sc", "hemo", "pcv", "wbcc", "rbcc", "htn"}, cfg.Data.Features)
	assert.Equal(t, "classification", cfg.Data.Label)
	assert.Equal(t, 0.2, cfg.Split.TestSize)
	assert.Equal(t, "all", cfg.Split.ScalerFit)
	assert.Equal(t, 256, cfg.Model.Hidden)
	assert.Equal(t, uint64(13), cfg.Model.InitSeed)
	assert.Equal(t, "hard_sigmoid", cfg.Model.OutputActivation)
	assert.Equal(t, 2000, cfg.Train.Epochs)
	assert.Equal(t, []string{"ckd.model"}, cfg.ModelsToEvaluate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  path: data/kidney.csv
split:
  scaler_fit: train
  seed: 7
train:
  epochs: 50
output:
  eval_models: [a.model, b.model]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/kidney.csv", cfg.Data.Path)
	assert.Equal(t, "train", cfg.Split.ScalerFit)
	assert.Equal(t, uint64(7), cfg.Split.Seed)
	assert.Equal(t, 50, cfg.Train.Epochs)
	assert.Equal(t, []string{"a.model", "b.model"}, cfg.ModelsToEvaluate())

	// untouched keys keep defaults
	assert.Equal(t, 0.2, cfg.Split.TestSize)
	assert.Equal(t, "adam", cfg.Train.Optimizer)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train: [epochs"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckd.yaml")
	cfg := Default()
	cfg.Train.Epochs = 10
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Split.TestSize = 1
	cfg.Split.ScalerFit = "test"
	cfg.Train.Epochs = 0
	cfg.Model.OutputActivation = "softmax"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"split.test_size", "split.scaler_fit", "train.epochs", "softmax"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateOptimizerName(t *testing.T) {
	for _, name := range []string{"adam", "Adam", "ADAM", "sgd", "SGD"} {
		cfg := Default()
		cfg.Train.Optimizer = name
		assert.NoError(t, cfg.Validate(), name)
	}

	cfg := Default()
	cfg.Train.Optimizer = "rmsprop"
	assert.ErrorContains(t, cfg.Validate(), "train.optimizer")

	cfg = Default()
	cfg.Train.Workers = -1
	assert.ErrorContains(t, cfg.Validate(), "train.workers")
}
