// Package plot builds chart documents for training curves.
//
// A chart is a self-describing JSON document (series of points plus axis
// configuration) that an external renderer turns into an image.
package plot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PlotType names the kind of chart.
type PlotType string

// Chart kinds.
const (
	TrainingCurves PlotType = "training_curves"
)

// PlotData is a chart document.
type PlotData struct {
	PlotType  PlotType       `json:"plot_type"`
	Title     string         `json:"title"`
	Timestamp time.Time      `json:"timestamp"`
	ModelName string         `json:"model_name"`
	Series    []SeriesData   `json:"series"`
	Config    PlotConfig     `json:"config"`
	Metrics   map[string]any `json:"metrics,omitempty"`
}

// SeriesData is one line of a chart.
type SeriesData struct {
	Name  string         `json:"name"`
	Type  string         `json:"type"` // "line"
	Data  []DataPoint    `json:"data"`
	Style map[string]any `json:"style,omitempty"`
}

// DataPoint is one (x, y) sample.
type DataPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlotConfig holds axis and layout settings.
type PlotConfig struct {
	XAxisLabel string `json:"x_axis_label"`
	YAxisLabel string `json:"y_axis_label"`
	XAxisScale string `json:"x_axis_scale"` // "linear", "log"
	YAxisScale string `json:"y_axis_scale"` // "linear", "log"
	ShowLegend bool   `json:"show_legend"`
	ShowGrid   bool   `json:"show_grid"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// Curves is the per-epoch input of NewTrainingCurves.
type Curves struct {
	Accuracy []float64
	Loss     []float64
}

// NewTrainingCurves builds the "model accuracy & loss" chart: one line per
// metric against the epoch index, with the final values under Metrics.
func NewTrainingCurves(modelName string, c Curves) PlotData {
	metrics := map[string]any{"epochs": len(c.Loss)}
	if n := len(c.Accuracy); n > 0 {
		metrics["final_accuracy"] = c.Accuracy[n-1]
	}
	if n := len(c.Loss); n > 0 {
		metrics["final_loss"] = c.Loss[n-1]
	}

	return PlotData{
		PlotType:  TrainingCurves,
		Title:     "model accuracy & loss",
		Timestamp: time.Now().UTC(),
		ModelName: modelName,
		Series: []SeriesData{
			line("acc", c.Accuracy, "#4ECDC4"),
			line("loss", c.Loss, "#FF6B6B"),
		},
		Config: PlotConfig{
			XAxisLabel: "epoch",
			YAxisLabel: "accuracy and loss",
			XAxisScale: "linear",
			YAxisScale: "linear",
			ShowLegend: true,
			ShowGrid:   true,
			Width:      800,
			Height:     600,
		},
		Metrics: metrics,
	}
}

func line(name string, ys []float64, color string) SeriesData {
	data := make([]DataPoint, len(ys))
	for i, y := range ys {
		data[i] = DataPoint{X: float64(i), Y: y}
	}
	return SeriesData{
		Name:  name,
		Type:  "line",
		Data:  data,
		Style: map[string]any{"color": color, "line_width": 2.0},
	}
}

// Save writes the chart as indented JSON.
func (p PlotData) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// Load reads a chart written by Save.
func Load(path string) (PlotData, error) {
	var p PlotData
	//nolint:gosec // G304: plot path is user-provided
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read plot: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to decode plot: %w", err)
	}
	return p, nil
}
