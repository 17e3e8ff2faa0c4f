package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes      = "CKDM"
	FormatVersion   = 1    // v1: fixed header with SHA-256 checksum
	HeaderAlignment = 64   // Align tensor data to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in fixed header

	// FileExtension is the suffix of model files.
	FileExtension = ".model"
)

// DTypeFloat64 is the only tensor data type stored in model files.
const DTypeFloat64 = "float64"

// Flags for the model format.
const (
	FlagCompressed   uint32 = 1 << 0 // bit 0: xz-compressed data section
	FlagHasOptimizer uint32 = 1 << 1 // bit 1: optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header of a model file.
type Header struct {
	FormatVersion int                `json:"format_version"`          // Version of the file format
	Version       string             `json:"version"`                 // Version of the writer
	ModelType     string             `json:"model_type"`              // Type of model (e.g., "Classifier")
	CreatedAt     time.Time          `json:"created_at"`              // When the file was created
	Tensors       []TensorMeta       `json:"tensors"`                 // Tensor table
	Topology      []LayerSpec        `json:"topology"`                // Layer stack, input to output
	Metadata      map[string]string  `json:"metadata"`                // Custom metadata
	Preprocessing *PreprocessingMeta `json:"preprocessing,omitempty"` // Feature pipeline state (optional)
	Training      *TrainingMeta      `json:"training,omitempty"`      // Training summary (optional)
}

// LayerSpec describes one module of a sequential network.
type LayerSpec struct {
	Type        string `json:"type"`                  // "linear" or "activation"
	In          int    `json:"in,omitempty"`          // Linear input width
	Out         int    `json:"out,omitempty"`         // Linear output width
	Bias        bool   `json:"bias,omitempty"`        // Linear has a bias row
	Initializer string `json:"initializer,omitempty"` // Linear kernel initializer
	Activation  string `json:"activation,omitempty"`  // Activation name
}

// Layer types.
const (
	LayerLinear     = "linear"
	LayerActivation = "activation"
)

// PreprocessingMeta stores what is needed to turn raw records into model
// inputs: feature order, scaler ranges and categorical vocabularies.
type PreprocessingMeta struct {
	Features     []string            `json:"features"`
	Label        string              `json:"label"`
	ScalerMin    []float64           `json:"scaler_min"`
	ScalerMax    []float64           `json:"scaler_max"`
	ScalerFit    string              `json:"scaler_fit"`
	Vocabularies map[string][]string `json:"vocabularies"`
}

// TrainingMeta summarises the run that produced the model.
type TrainingMeta struct {
	RunID           string         `json:"run_id"`
	Epochs          int            `json:"epochs"`
	Step            int64          `json:"step"`
	Loss            float64        `json:"loss"`
	Accuracy        float64        `json:"accuracy"`
	Seed            uint64         `json:"seed"`
	OptimizerType   string         `json:"optimizer_type,omitempty"`   // "Adam", "SGD"
	OptimizerConfig map[string]any `json:"optimizer_config,omitempty"` // Optimizer hyperparameters
}

// TensorMeta describes a tensor in the data section.
//
// Offsets refer to the uncompressed data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "layers.0.weight")
	DType  string `json:"dtype"`  // Always "float64"
	Shape  []int  `json:"shape"`  // [rows, cols]
	Offset int64  `json:"offset"` // Byte offset from the start of tensor data
	Size   int64  `json:"size"`   // Size in bytes
}

// alignedHeaderEnd returns the offset of the data section for a JSON
// header of headerSize bytes.
func alignedHeaderEnd(headerSize uint64) int64 {
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	pos := int64(FixedHeaderSize) + int64(headerSize)
	return pos + (HeaderAlignment-(pos%HeaderAlignment))%HeaderAlignment
}
