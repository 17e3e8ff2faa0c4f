// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/nn"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	rng := nn.NewRand(1)

	tests := []struct {
		name   string
		module nn.Module
		out    int
	}{
		{
			name:   "Linear",
			module: nn.NewLinear(10, 5, nn.GlorotUniform{}, nn.Zeros{}, rng),
			out:    5,
		},
		{
			name: "Sequential",
			module: nn.NewSequential(
				nn.NewLinear(10, 5, nn.RandomNormal{}, nn.Zeros{}, rng),
				nn.NewReLU(),
				nn.NewLinear(5, 1, nn.GlorotUniform{}, nn.Zeros{}, rng),
				nn.NewHardSigmoid(),
			),
			out: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := mat.NewDense(2, 10, nil)
			output := tt.module.Forward(input)
			r, c := output.Dims()
			if r != 2 || c != tt.out {
				t.Errorf("Forward shape = (%d, %d), want (2, %d)", r, c, tt.out)
			}

			grad := tt.module.Backward(mat.NewDense(2, tt.out, nil))
			if r, c := grad.Dims(); r != 2 || c != 10 {
				t.Errorf("Backward shape = (%d, %d), want (2, 10)", r, c)
			}

			if len(tt.module.Parameters()) == 0 {
				t.Error("Parameters() returned empty slice")
			}
			if _, ok := tt.module.(nn.StateModule); !ok {
				t.Error("module does not implement StateModule")
			}
		})
	}
}

func TestActivationsHaveNoParameters(t *testing.T) {
	for _, name := range []string{"relu", "hard_sigmoid", "sigmoid"} {
		act, err := nn.NewActivation(name)
		if err != nil {
			t.Fatalf("NewActivation(%q): %v", name, err)
		}
		if n := len(act.Parameters()); n != 0 {
			t.Errorf("%s has %d parameters", name, n)
		}
	}
}

func TestClassifierFacade(t *testing.T) {
	model, err := nn.NewClassifier(nn.DefaultClassifierConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := nn.CountParameters(model.Parameters()); got != 8*256+256+256+1 {
		t.Errorf("CountParameters = %d", got)
	}

	path := filepath.Join(t.TempDir(), "facade.model")
	if err := (&nn.Checkpoint{Model: model}).Save(path); err != nil {
		t.Fatal(err)
	}
	ckpt, err := nn.LoadCheckpoint(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	x := mat.NewDense(3, 8, []float64{
		0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7,
		1, 1, 1, 1, 1, 1, 1, 1,
		0.5, 0, 0.5, 0, 0.5, 0, 0.5, 0,
	})
	want := nn.Labels(model.Predict(x))
	got := nn.Labels(ckpt.Model.Predict(x))
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("row %d: reloaded label %d, want %d", i, got[i], want[i])
		}
	}
}
