// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ckd

import (
	"context"
	"io"
	"log/slog"

	"github.com/born-ml/ckd/internal/config"
	"github.com/born-ml/ckd/internal/pipeline"
)

// Config is the full pipeline configuration.
type Config = config.Config

// Report summarises a training run.
type Report = pipeline.Report

// Evaluation is the result of one model on the test partition.
type Evaluation = pipeline.Evaluation

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Train runs the full pipeline: prepare data, train, save, then evaluate
// every model listed in cfg.Output.EvalModels (default: the saved model).
// The console report is written to w.
func Train(ctx context.Context, cfg Config, w io.Writer, logger *slog.Logger) (*Report, error) {
	return pipeline.Run(ctx, cfg, w, logger)
}

// Evaluate rebuilds the test partition from cfg and scores each model in
// paths on it.
func Evaluate(ctx context.Context, cfg Config, paths []string, w io.Writer, logger *slog.Logger) ([]Evaluation, error) {
	return pipeline.RunEvaluate(ctx, cfg, paths, w, logger)
}
