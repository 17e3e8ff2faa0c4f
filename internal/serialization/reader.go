package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ulikunitz/xz"
	"gonum.org/v1/gonum/mat"
)

// ReaderOptions configures how a model file is decoded.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Model is a decoded model file.
type Model struct {
	Header    Header
	Flags     uint32
	Checksum  [ChecksumSize]byte
	StateDict map[string]*mat.Dense
}

// Compressed reports whether the data section was stored xz-compressed.
func (m *Model) Compressed() bool {
	return m.Flags&FlagCompressed != 0
}

// TensorNames returns the tensor names in file order.
func (m *Model) TensorNames() []string {
	names := make([]string, len(m.Header.Tensors))
	for i, meta := range m.Header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// Tensor returns a named tensor.
func (m *Model) Tensor(name string) (*mat.Dense, error) {
	t, ok := m.StateDict[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return t, nil
}

// Open reads and validates a model file.
func Open(path string, opts ReaderOptions) (*Model, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	m, err := ReadFrom(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadHeader reads only the fixed and JSON headers of a model file.
func ReadHeader(path string) (Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	fixed, err := readFixedHeader(file)
	if err != nil {
		return Header{}, err
	}
	return readJSONHeader(file, fixed.headerSize)
}

type fixedHeader struct {
	flags      uint32
	headerSize uint64
	dataSize   uint64
	checksum   [ChecksumSize]byte
}

func readFixedHeader(r io.Reader) (fixedHeader, error) {
	var fh fixedHeader

	buf := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fh, fmt.Errorf("failed to read fixed header: %w", err)
	}

	// 0x00-0x03: Magic bytes
	if string(buf[0:4]) != MagicBytes {
		return fh, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, string(buf[0:4]), MagicBytes)
	}

	// 0x04-0x07: Version
	if version := binary.LittleEndian.Uint32(buf[4:8]); version != FormatVersion {
		return fh, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	fh.flags = binary.LittleEndian.Uint32(buf[8:12])
	fh.headerSize = binary.LittleEndian.Uint64(buf[16:24])
	fh.dataSize = binary.LittleEndian.Uint64(buf[24:32])
	copy(fh.checksum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if fh.headerSize > MaxHeaderSize {
		return fh, ErrHeaderTooLarge
	}
	return fh, nil
}

func readJSONHeader(r io.Reader, size uint64) (Header, error) {
	var header Header
	headerBytes := make([]byte, size)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return header, fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return header, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return header, nil
}

// ReadFrom decodes a model from an io.Reader.
func ReadFrom(reader io.Reader, opts ReaderOptions) (*Model, error) {
	fh, err := readFixedHeader(reader)
	if err != nil {
		return nil, err
	}

	header, err := readJSONHeader(reader, fh.headerSize)
	if err != nil {
		return nil, err
	}

	padding := alignedHeaderEnd(fh.headerSize) - int64(FixedHeaderSize) - int64(fh.headerSize) //nolint:gosec // bounded above
	if padding > 0 {
		if _, err := io.CopyN(io.Discard, reader, padding); err != nil {
			return nil, fmt.Errorf("failed to read padding: %w", err)
		}
	}

	if fh.dataSize > math.MaxInt32 {
		return nil, fmt.Errorf("%w: data size %d", ErrOutOfBounds, fh.dataSize)
	}
	stored := make([]byte, fh.dataSize)
	if _, err := io.ReadFull(reader, stored); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	data := stored
	if fh.flags&FlagCompressed != 0 {
		data, err = decompress(stored, dataSectionSize(header.Tensors))
		if err != nil {
			return nil, err
		}
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), fh.checksum); err != nil {
			return nil, err
		}
	}

	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	stateDict := make(map[string]*mat.Dense, len(header.Tensors))
	for _, meta := range header.Tensors {
		t, err := decodeTensor(meta, data)
		if err != nil {
			return nil, err
		}
		stateDict[meta.Name] = t
	}

	return &Model{
		Header:    header,
		Flags:     fh.flags,
		Checksum:  fh.checksum,
		StateDict: stateDict,
	}, nil
}

func decodeTensor(meta TensorMeta, data []byte) (*mat.Dense, error) {
	if len(meta.Shape) != 2 {
		return nil, fmt.Errorf("tensor %s: invalid shape %v", meta.Name, meta.Shape)
	}
	rows, cols := meta.Shape[0], meta.Shape[1]
	end := meta.Offset + int64(rows*cols*8)
	if meta.Offset < 0 || end > int64(len(data)) {
		return nil, fmt.Errorf("tensor %s: %w", meta.Name, ErrOutOfBounds)
	}
	raw := data[meta.Offset:end]
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return mat.NewDense(rows, cols, values), nil
}

// dataSectionSize is the uncompressed size implied by the tensor table,
// clamped to [0, math.MaxInt32].
func dataSectionSize(tensors []TensorMeta) int64 {
	var end int64
	for _, t := range tensors {
		if t.Offset < 0 || t.Size < 0 || t.Offset > math.MaxInt32 || t.Size > math.MaxInt32 {
			return math.MaxInt32
		}
		end = max(end, t.Offset+t.Size)
	}
	return min(end, math.MaxInt32)
}

// decompress inflates an xz data section of at most limit bytes.
func decompress(data []byte, limit int64) ([]byte, error) {
	zr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress tensor data: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: decompressed data exceeds %d bytes", ErrOutOfBounds, limit)
	}
	return out, nil
}
