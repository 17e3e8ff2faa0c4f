// Package nn implements the neural network modules of the classifier.
//
// This package provides building blocks for feed-forward networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient storage
//   - Linear: Fully connected layer
//   - Activations: ReLU, HardSigmoid, Sigmoid
//   - BCELoss: Binary cross-entropy
//   - Sequential: Container for stacking layers
//   - Classifier: the 8→256→1 network with save/load
//
// Matrices are gonum *mat.Dense values with one row per sample. Gradients
// are computed by explicit Backward passes in reverse module order.
package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(8, 256, nn.RandomNormal{Std: 0.05}, nn.Zeros{}, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(256, 1, nn.GlorotUniform{}, nn.Zeros{}, rng),
//	    nn.NewHardSigmoid(),
//	)
type Module interface {
	// Forward computes the output for a [batch, in] input.
	//
	// Modules cache what Backward needs, so Forward must be called before
	// Backward on the same batch.
	Forward(input *mat.Dense) *mat.Dense

	// Backward takes dLoss/dOutput and returns dLoss/dInput, storing
	// parameter gradients on the module's Parameters.
	Backward(gradOutput *mat.Dense) *mat.Dense

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter
}

// StateModule is a Module whose parameters can be saved and restored.
type StateModule interface {
	Module

	// StateDict returns a map of parameter names to values.
	StateDict() map[string]*mat.Dense

	// LoadStateDict copies values from a state dictionary.
	LoadStateDict(stateDict map[string]*mat.Dense) error
}
