package dataset

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ColumnKind tells how the encoder treats a column.
type ColumnKind int

const (
	Numeric     ColumnKind = iota // values pass through as float64
	Categorical                   // values are replaced by integer codes
)

// String returns the kind name.
func (k ColumnKind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Encoder maps every non-numeric column to integer codes.
//
// Codes are assigned in lexicographic order of the distinct raw values, so
// a column with k distinct values is encoded onto [0, k-1]. The mapping is
// fixed once fitted; reuse the Encoder to encode other tables consistently.
type Encoder struct {
	columns []string
	kinds   []ColumnKind
	classes map[string][]string       // column -> sorted vocabulary
	codes   map[string]map[string]int // column -> value -> code
}

// FitEncoder learns the kind of every column and the vocabulary of the
// categorical ones. A column is numeric when every cell parses as a number.
func FitEncoder(t *Table) (*Encoder, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	e := &Encoder{
		columns: t.Columns(),
		kinds:   make([]ColumnKind, len(t.header)),
		classes: make(map[string][]string),
		codes:   make(map[string]map[string]int),
	}

	for j, name := range e.columns {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if allNumeric(col) {
			e.kinds[j] = Numeric
			continue
		}

		e.kinds[j] = Categorical
		vocab := slices.Clone(col)
		slices.Sort(vocab)
		vocab = slices.Compact(vocab)

		codes := make(map[string]int, len(vocab))
		for code, v := range vocab {
			codes[v] = code
		}
		e.classes[name] = vocab
		e.codes[name] = codes
	}
	return e, nil
}

// NewEncoder rebuilds an encoder from stored vocabularies.
// Columns without a vocabulary are numeric.
func NewEncoder(columns []string, classes map[string][]string) *Encoder {
	e := &Encoder{
		columns: slices.Clone(columns),
		kinds:   make([]ColumnKind, len(columns)),
		classes: make(map[string][]string),
		codes:   make(map[string]map[string]int),
	}
	for j, name := range columns {
		vocab, ok := classes[name]
		if !ok {
			continue
		}
		e.kinds[j] = Categorical
		e.classes[name] = slices.Clone(vocab)
		codes := make(map[string]int, len(vocab))
		for code, v := range vocab {
			codes[v] = code
		}
		e.codes[name] = codes
	}
	return e
}

func allNumeric(col []string) bool {
	for _, v := range col {
		if _, ok := parseNumber(v); !ok {
			return false
		}
	}
	return true
}

// Kind returns the fitted kind of column.
func (e *Encoder) Kind(column string) ColumnKind {
	j := slices.Index(e.columns, column)
	if j < 0 {
		return Numeric
	}
	return e.kinds[j]
}

// Classes returns the vocabulary of a categorical column (nil for numeric).
// The value at index i is encoded as i.
func (e *Encoder) Classes(column string) []string {
	return slices.Clone(e.classes[column])
}

// Vocabularies returns a copy of every categorical vocabulary.
func (e *Encoder) Vocabularies() map[string][]string {
	out := make(map[string][]string, len(e.classes))
	for k, v := range e.classes {
		out[k] = slices.Clone(v)
	}
	return out
}

// Encode returns the code of value in a categorical column, or the parsed
// number for a numeric one.
func (e *Encoder) Encode(column, value string) (float64, error) {
	if codes, ok := e.codes[column]; ok {
		code, ok := codes[value]
		if !ok {
			return 0, fmt.Errorf("%w: %q in column %s", ErrUnknownCategory, value, column)
		}
		return float64(code), nil
	}
	f, ok := parseNumber(value)
	if !ok {
		return 0, fmt.Errorf("column %s: cannot parse %q as number", column, value)
	}
	return f, nil
}

// Decode maps a code back to the raw value of a categorical column.
func (e *Encoder) Decode(column string, code int) (string, error) {
	vocab, ok := e.classes[column]
	if !ok {
		return "", fmt.Errorf("column %s is not categorical", column)
	}
	if code < 0 || code >= len(vocab) {
		return "", fmt.Errorf("code %d out of range [0, %d) for column %s", code, len(vocab), column)
	}
	return vocab[code], nil
}

// Transform encodes t into a numeric Frame.
// t must have the columns the encoder was fitted on, in the same order.
func (e *Encoder) Transform(t *Table) (*Frame, error) {
	if !slices.Equal(t.header, e.columns) {
		return nil, fmt.Errorf("columns %v do not match fitted columns %v", t.header, e.columns)
	}
	if t.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	data := make([][]float64, t.Len())
	for i, row := range t.rows {
		out := make([]float64, len(row))
		for j, v := range row {
			f, err := e.Encode(e.columns[j], v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			out[j] = f
		}
		data[i] = out
	}
	return &Frame{Columns: slices.Clone(e.columns), Rows: data}, nil
}

// Frame is a numeric table produced by the Encoder.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// XY splits the frame into a feature matrix and the label vector.
// Feature columns keep their frame order; the label column is removed.
func (f *Frame) XY(label string) (*mat.Dense, []float64, []string, error) {
	lj := slices.Index(f.Columns, label)
	if lj < 0 {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, label)
	}
	if len(f.Rows) == 0 {
		return nil, nil, nil, ErrEmptyDataset
	}

	features := make([]string, 0, len(f.Columns)-1)
	for j, name := range f.Columns {
		if j != lj {
			features = append(features, name)
		}
	}

	n, d := len(f.Rows), len(features)
	x := make([]float64, 0, n*d)
	y := make([]float64, n)
	for i, row := range f.Rows {
		for j, v := range row {
			if j == lj {
				y[i] = v
				continue
			}
			x = append(x, v)
		}
	}
	return mat.NewDense(n, d, x), y, features, nil
}
