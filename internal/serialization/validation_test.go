package serialization

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name: "contiguous",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 100, Size: 200},
			},
			dataSize: 300,
		},
		{
			name: "overlap by one byte",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name:     "past end of data",
			tensors:  []TensorMeta{{Name: "a", Offset: 50, Size: 100}},
			dataSize: 120,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -8, Size: 8}},
			dataSize: 100,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantType, verr.Type)
		})
	}
}

func TestValidateTensorOffsets_TooManyTensors(t *testing.T) {
	tensors := make([]TensorMeta, MaxTensorCount+1)
	assert.ErrorIs(t, ValidateTensorOffsets(tensors, 0), ErrTooManyTensors)
}

func TestValidateTensorName(t *testing.T) {
	for _, name := range []string{"layers.0.weight", "optimizer.m.layers.2.bias", "optimizer.t"} {
		assert.NoError(t, ValidateTensorName(name), name)
	}
	for _, name := range []string{"", "../etc/passwd", "layers/0", `a\b`, "a\x00b", strings.Repeat("x", MaxTensorNameLen+1)} {
		assert.ErrorIs(t, ValidateTensorName(name), ErrInvalidTensorName, "%q", name)
	}
}

func TestValidateHeader(t *testing.T) {
	valid := func() *Header {
		return &Header{
			FormatVersion: FormatVersion,
			Tensors: []TensorMeta{
				{Name: "layers.0.weight", DType: DTypeFloat64, Shape: []int{2, 3}, Offset: 0, Size: 48},
				{Name: "layers.0.bias", DType: DTypeFloat64, Shape: []int{1, 2}, Offset: 48, Size: 16},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateHeader(valid(), 64, ValidationStrict))
	})

	t.Run("wrong dtype", func(t *testing.T) {
		h := valid()
		h.Tensors[0].DType = "float32"
		assert.ErrorIs(t, ValidateHeader(h, 64, ValidationNormal), ErrUnsupportedDType)
	})

	t.Run("size does not match shape", func(t *testing.T) {
		h := valid()
		h.Tensors[1].Size = 8
		var verr *ValidationError
		require.True(t, errors.As(ValidateHeader(h, 64, ValidationNormal), &verr))
		assert.Equal(t, "invalid_shape", verr.Type)
	})

	t.Run("offsets only checked in strict mode", func(t *testing.T) {
		h := valid()
		assert.NoError(t, ValidateHeader(h, 32, ValidationNormal))
		assert.ErrorIs(t, ValidateHeader(h, 32, ValidationStrict), ErrOutOfBounds)
	})

	t.Run("unknown version", func(t *testing.T) {
		h := valid()
		h.FormatVersion = 7
		assert.ErrorIs(t, ValidateHeader(h, 64, ValidationStrict), ErrUnsupportedVersion)
	})

	t.Run("none skips everything", func(t *testing.T) {
		h := valid()
		h.Tensors[0].Name = "../x"
		assert.NoError(t, ValidateHeader(h, 0, ValidationNone))
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "regions overlap"}
	assert.Equal(t, `offset_overlap: tensors "a" and "b": regions overlap`, err.Error())

	err = &ValidationError{Type: "too_many_tensors", Details: "got 2"}
	assert.Equal(t, "too_many_tensors: got 2", err.Error())
}

func FuzzValidateTensorName(f *testing.F) {
	f.Add("layers.0.weight")
	f.Add("../../secret")
	f.Fuzz(func(t *testing.T, name string) {
		err := ValidateTensorName(name)
		if err == nil && (strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00")) {
			t.Errorf("accepted unsafe name %q", name)
		}
	})
}
