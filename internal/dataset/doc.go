// Package dataset loads and cleans the tabular clinical data.
//
// The package provides:
//   - Table: header + string cells as read from CSV
//   - MissingSet: the markers that count as a missing cell
//   - Encoder: label encoding of non-numeric columns
//   - Frame: the fully numeric view consumed by preprocessing
//
// Typical flow:
//
//	t, err := dataset.LoadCSV("kidney_disease.csv")
//	t, err = t.Select(dataset.DefaultColumns...)
//	t = t.DropMissing(dataset.DefaultMissing, dataset.NumericColumns...)
//	enc, err := dataset.FitEncoder(t)
//	frame, err := enc.Transform(t)
//	X, y, features, err := frame.XY(dataset.LabelColumn)
package dataset
