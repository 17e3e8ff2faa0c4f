package nn

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Backward walks the
// modules in reverse.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(8, 256, nn.RandomNormal{}, nn.Zeros{}, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(256, 1, nn.GlorotUniform{}, nn.Zeros{}, rng),
//	    nn.NewHardSigmoid(),
//	)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input *mat.Dense) *mat.Dense {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Backward propagates gradOutput through the modules in reverse order.
func (s *Sequential) Backward(gradOutput *mat.Dense) *mat.Dense {
	grad := gradOutput
	for i := len(s.modules) - 1; i >= 0; i-- {
		grad = s.modules[i].Backward(grad)
	}
	return grad
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at index i.
func (s *Sequential) Module(i int) Module {
	return s.modules[i]
}

// StateDict returns all parameters keyed "layers.<index>.<name>".
func (s *Sequential) StateDict() map[string]*mat.Dense {
	stateDict := make(map[string]*mat.Dense)
	for i, module := range s.modules {
		sm, ok := module.(StateModule)
		if !ok {
			continue
		}
		for name, value := range sm.StateDict() {
			stateDict[fmt.Sprintf("layers.%d.%s", i, name)] = value
		}
	}
	return stateDict
}

// LoadStateDict restores every module's parameters from a state dictionary
// produced by StateDict.
func (s *Sequential) LoadStateDict(stateDict map[string]*mat.Dense) error {
	for i, module := range s.modules {
		sm, ok := module.(StateModule)
		if !ok {
			continue
		}
		prefix := fmt.Sprintf("layers.%d.", i)
		sub := make(map[string]*mat.Dense)
		for name, value := range stateDict {
			if rest, found := strings.CutPrefix(name, prefix); found {
				sub[rest] = value
			}
		}
		if err := sm.LoadStateDict(sub); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}
