package nn

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/serialization"
)

// ModelType is recorded in the header of classifier files.
const ModelType = "Classifier"

// OptimizerState represents an optimizer that can save/load its state.
//
// Optimizers from the optim package implement this interface; declaring it
// here keeps nn free of an import on optim.
type OptimizerState interface {
	Name() string
	Config() map[string]any
	StateDict() map[string]*mat.Dense
	LoadStateDict(state map[string]*mat.Dense) error
}

// Checkpoint is a saved classifier together with everything needed to use
// it on raw records or to resume training.
//
// Example:
//
//	ckpt := &nn.Checkpoint{
//	    Model:     model,
//	    Optimizer: adam,
//	    Epoch:     2000,
//	    Loss:      0.08,
//	}
//	err := ckpt.Save("ckd.model")
//
// To resume training:
//
//	ckpt, err := nn.LoadCheckpoint("ckd.model", adam)
type Checkpoint struct {
	Model         *Classifier
	Optimizer     OptimizerState // Optional
	Epoch         int
	Step          int64
	Loss          float64
	Accuracy      float64
	RunID         string
	Seed          uint64
	Preprocessing *serialization.PreprocessingMeta // Optional
	Metadata      map[string]string
	CreatedAt     time.Time
	Compress      bool // xz-compress the tensor data
}

// Save writes the checkpoint to a model file.
func (c *Checkpoint) Save(path string) (err error) {
	if c.Model == nil {
		return errors.New("checkpoint has no model")
	}

	stateDict := make(map[string]*mat.Dense)
	for name, value := range c.Model.StateDict() {
		stateDict[name] = value
	}

	training := &serialization.TrainingMeta{
		RunID:    c.RunID,
		Epochs:   c.Epoch,
		Step:     c.Step,
		Loss:     c.Loss,
		Accuracy: c.Accuracy,
		Seed:     c.Seed,
	}
	if c.Optimizer != nil {
		for name, value := range c.Optimizer.StateDict() {
			stateDict[serialization.OptimizerPrefix+name] = value
		}
		training.OptimizerType = c.Optimizer.Name()
		training.OptimizerConfig = c.Optimizer.Config()
	}

	header := serialization.Header{
		ModelType:     ModelType,
		CreatedAt:     c.CreatedAt,
		Topology:      c.Model.Topology(),
		Metadata:      c.Metadata,
		Preprocessing: c.Preprocessing,
		Training:      training,
	}

	writer, err := serialization.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.Write(stateDict, header, serialization.WriteOptions{Compress: c.Compress}); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a model file, rebuilds the classifier from its
// topology and restores its weights. When optimizer is non-nil and the file
// holds optimizer state, that state is restored into it.
func LoadCheckpoint(path string, optimizer OptimizerState) (*Checkpoint, error) {
	m, err := serialization.Open(path, serialization.ReaderOptions{ValidationLevel: serialization.ValidationStrict})
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if m.Header.ModelType != ModelType {
		return nil, fmt.Errorf("%s: unexpected model type %q", path, m.Header.ModelType)
	}

	model, err := NewClassifierFromTopology(m.Header.Topology)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	modelState := make(map[string]*mat.Dense)
	optState := make(map[string]*mat.Dense)
	for name, value := range m.StateDict {
		if rest, ok := strings.CutPrefix(name, serialization.OptimizerPrefix); ok {
			optState[rest] = value
		} else {
			modelState[name] = value
		}
	}
	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("%s: failed to load model state: %w", path, err)
	}

	ckpt := &Checkpoint{
		Model:         model,
		Preprocessing: m.Header.Preprocessing,
		Metadata:      m.Header.Metadata,
		CreatedAt:     m.Header.CreatedAt,
		Compress:      m.Compressed(),
	}
	if t := m.Header.Training; t != nil {
		ckpt.Epoch = t.Epochs
		ckpt.Step = t.Step
		ckpt.Loss = t.Loss
		ckpt.Accuracy = t.Accuracy
		ckpt.RunID = t.RunID
		ckpt.Seed = t.Seed
	}

	if optimizer != nil && len(optState) > 0 {
		if t := m.Header.Training; t != nil && t.OptimizerType != "" && t.OptimizerType != optimizer.Name() {
			return nil, fmt.Errorf("%s: saved optimizer is %s, got %s", path, t.OptimizerType, optimizer.Name())
		}
		if err := optimizer.LoadStateDict(optState); err != nil {
			return nil, fmt.Errorf("%s: failed to load optimizer state: %w", path, err)
		}
		ckpt.Optimizer = optimizer
	}

	return ckpt, nil
}
