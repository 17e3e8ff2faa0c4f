// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ckd trains and applies a chronic kidney disease classifier.
//
// # Overview
//
// A run loads a clinical CSV, keeps eight measurements (sg, al, sc, hemo,
// pcv, wbcc, rbcc, htn) and the classification label, drops incomplete
// rows, label-encodes the categorical columns, scales every feature to
// [0, 1], splits the rows 80/20 and trains an 8→256→1 network with binary
// cross-entropy and Adam. The model file records the layer topology, the
// weights, the optimizer state and the preprocessing state.
//
// # Basic Usage
//
//	cfg := ckd.DefaultConfig()
//	cfg.Data.Path = "kidney_disease.csv"
//	report, err := ckd.Train(ctx, cfg, os.Stdout, slog.Default())
//
// Scoring raw records with a saved model:
//
//	p, err := ckd.LoadPredictor("ckd.model")
//	preds, err := p.PredictRecords([]map[string]string{{
//	    "sg": "1.020", "al": "1", "sc": "1.2", "hemo": "15.4",
//	    "pcv": "44", "wbcc": "7800", "rbcc": "5.2", "htn": "yes",
//	}})
//	fmt.Println(preds[0].Class, preds[0].Probability)
package ckd
