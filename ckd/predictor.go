// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ckd

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/dataset"
	"github.com/born-ml/ckd/internal/nn"
	"github.com/born-ml/ckd/internal/preprocess"
)

// ErrNoPreprocessing is returned for model files saved without
// preprocessing state.
var ErrNoPreprocessing = errors.New("model file has no preprocessing state")

// Prediction is the model output for one record.
type Prediction struct {
	Probability float64
	Label       int    // 1 when Probability >= 0.5
	Class       string // decoded label, e.g. "ckd" or "notckd"; empty for a numeric label
}

// Predictor applies a saved model to raw records.
type Predictor struct {
	model    *nn.Classifier
	features []string
	label    string
	encoder  *dataset.Encoder
	labels   *dataset.Encoder
	scaler   *preprocess.MinMaxScaler
	missing  dataset.MissingSet
}

// LoadPredictor reads a model file written by Train.
func LoadPredictor(path string) (*Predictor, error) {
	ckpt, err := nn.LoadCheckpoint(path, nil)
	if err != nil {
		return nil, err
	}
	meta := ckpt.Preprocessing
	if meta == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPreprocessing)
	}
	if len(meta.Features) != ckpt.Model.InputFeatures() {
		return nil, fmt.Errorf("%s: %d features recorded, model takes %d", path, len(meta.Features), ckpt.Model.InputFeatures())
	}
	scaler, err := preprocess.RestoreMinMaxScaler(meta.ScalerMin, meta.ScalerMax)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Predictor{
		model:    ckpt.Model,
		features: meta.Features,
		label:    meta.Label,
		encoder:  dataset.NewEncoder(meta.Features, meta.Vocabularies),
		labels:   dataset.NewEncoder([]string{meta.Label}, meta.Vocabularies),
		scaler:   scaler,
		missing:  dataset.DefaultMissing,
	}, nil
}

// Features returns the feature columns a record must provide, in model
// input order.
func (p *Predictor) Features() []string {
	return append([]string(nil), p.features...)
}

// Predict returns [batch, 1] probabilities for already scaled inputs.
func (p *Predictor) Predict(x *mat.Dense) *mat.Dense {
	return p.model.Predict(x)
}

// PredictRecords encodes, scales and scores raw records keyed by column
// name. Columns other than the features are ignored.
func (p *Predictor) PredictRecords(records []map[string]string) ([]Prediction, error) {
	if len(records) == 0 {
		return nil, nil
	}

	x := mat.NewDense(len(records), len(p.features), nil)
	for i, rec := range records {
		for j, name := range p.features {
			raw, ok := rec[name]
			if !ok || p.missing.IsMissing(raw) {
				return nil, fmt.Errorf("record %d: %w: %s", i, dataset.ErrMissingColumn, name)
			}
			v, err := p.encoder.Encode(name, strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			x.Set(i, j, v)
		}
	}

	scaled, err := p.scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	probs := p.model.Predict(scaled)

	out := make([]Prediction, len(records))
	for i := range out {
		prob := probs.At(i, 0)
		label := nn.Threshold(prob)
		out[i] = Prediction{Probability: prob, Label: label}
		if p.labels.Kind(p.label) == dataset.Categorical {
			class, err := p.labels.Decode(p.label, label)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			out[i].Class = class
		}
	}
	return out, nil
}
