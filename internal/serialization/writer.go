package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"gonum.org/v1/gonum/mat"
)

// Version is written into every header.
const Version = "0.3.0"

// WriteOptions controls how the data section is stored.
type WriteOptions struct {
	Compress bool // xz-compress the tensor data
}

// ModelWriter writes a model file to disk.
type ModelWriter struct {
	file   *os.File
	closed bool
}

// Create creates (or truncates) a model file.
func Create(path string) (*ModelWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &ModelWriter{file: file}, nil
}

// Write writes the state dictionary with header to the file.
func (w *ModelWriter) Write(stateDict map[string]*mat.Dense, header Header, opts WriteOptions) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return WriteTo(w.file, stateDict, header, opts)
}

// Close closes the writer and the underlying file.
func (w *ModelWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo encodes a state dictionary and header to any io.Writer.
//
// Tensors are laid out in name order so identical inputs produce identical
// data sections. FormatVersion, Version and the tensor table of header are
// filled in; CreatedAt is set when zero.
func WriteTo(writer io.Writer, stateDict map[string]*mat.Dense, header Header, opts WriteOptions) error {
	header.FormatVersion = FormatVersion
	header.Version = Version
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// Calculate tensor offsets and collect tensor data
	var currentOffset int64
	var data bytes.Buffer
	header.Tensors = make([]TensorMeta, 0, len(names))
	for _, name := range names {
		m := stateDict[name]
		r, c := m.Dims()
		size := int64(r * c * 8)

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  DTypeFloat64,
			Shape:  []int{r, c},
			Offset: currentOffset,
			Size:   size,
		})
		currentOffset += size

		writeFloats(&data, m)
	}

	checksum := ComputeChecksum(data.Bytes())

	stored := data.Bytes()
	flags := uint32(0)
	if opts.Compress {
		compressed, err := compress(stored)
		if err != nil {
			return err
		}
		stored = compressed
		flags |= FlagCompressed
	}
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if hasOptimizerState(names) {
		flags |= FlagHasOptimizer
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerSize := uint64(len(headerJSON))
	fixedHeader := make([]byte, FixedHeaderSize)

	// 0x00-0x03: Magic bytes
	copy(fixedHeader[0:4], MagicBytes)

	// 0x04-0x07: Version
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	// 0x08-0x0B: Flags
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F: Reserved (0)

	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(fixedHeader[16:24], headerSize)

	// 0x18-0x1F: Stored data size
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(stored)))

	// 0x20-0x3F: SHA-256 checksum
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := writer.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	padding := alignedHeaderEnd(headerSize) - int64(FixedHeaderSize) - int64(headerSize)
	if padding > 0 {
		if _, err := writer.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := writer.Write(stored); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

func writeFloats(buf *bytes.Buffer, m *mat.Dense) {
	r, c := m.Dims()
	var b [8]byte
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(m.At(i, j)))
			buf.Write(b[:])
		}
	}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress tensor data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}
	return buf.Bytes(), nil
}

func hasOptimizerState(names []string) bool {
	for _, name := range names {
		if strings.HasPrefix(name, OptimizerPrefix) {
			return true
		}
	}
	return false
}

// OptimizerPrefix marks optimizer tensors in a state dictionary.
const OptimizerPrefix = "optimizer."
