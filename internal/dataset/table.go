package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Columns of the chronic kidney disease dataset retained for training.
var (
	// FeatureColumns are the eight clinical measurements fed to the network.
	FeatureColumns = []string{"sg", "al", "sc", "hemo", "pcv", "wbcc", "rbcc", "htn"}

	// NumericColumns are the measurements that must parse as numbers.
	// A cell in one of these columns that does not parse counts as missing.
	NumericColumns = []string{"sg", "al", "sc", "hemo", "pcv", "wbcc", "rbcc"}

	// DefaultColumns is FeatureColumns followed by LabelColumn.
	DefaultColumns = append(append([]string{}, FeatureColumns...), LabelColumn)
)

// LabelColumn holds the ckd / notckd classification.
const LabelColumn = "classification"

// Common errors.
var (
	ErrMissingColumn   = errors.New("missing column")
	ErrEmptyDataset    = errors.New("dataset has no rows")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyFile       = errors.New("CSV file is empty or missing header")
)

// MissingSet is the set of cell values treated as missing.
// Cells are compared after trimming surrounding whitespace.
type MissingSet map[string]struct{}

// DefaultMissing mirrors the usual CSV NA markers plus the "?" used by the
// UCI distribution of the dataset.
var DefaultMissing = NewMissingSet("", "?", "NA", "N/A", "NaN", "nan", "null", "NULL")

// NewMissingSet builds a MissingSet from markers.
func NewMissingSet(markers ...string) MissingSet {
	s := make(MissingSet, len(markers))
	for _, m := range markers {
		s[m] = struct{}{}
	}
	return s
}

// IsMissing reports whether v is one of the markers.
func (s MissingSet) IsMissing(v string) bool {
	_, ok := s[strings.TrimSpace(v)]
	return ok
}

// Table is an in-memory CSV table of string cells.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// NewTable creates a table from a header and row-major cells.
// Every row must have exactly len(header) cells.
func NewTable(header []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(header))
		}
	}
	h := make([]string, len(header))
	for i, name := range header {
		h[i] = strings.TrimSpace(name)
	}
	return &Table{header: h, index: index, rows: rows}, nil
}

// LoadCSV reads a CSV file whose first row is the header.
func LoadCSV(path string) (*Table, error) {
	//nolint:gosec // G304: the dataset path is user input by design
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	t, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV reads CSV data whose first row is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, ErrEmptyFile
	}
	return NewTable(records[0], records[1:])
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.header))
	copy(out, t.header)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) {
	return len(t.rows), len(t.header)
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	col := make([]string, len(t.rows))
	for i, row := range t.rows {
		col[i] = row[j]
	}
	return col, nil
}

// Cell returns the cell at row i of the named column.
func (t *Table) Cell(i int, column string) string {
	return t.rows[i][t.index[column]]
}

// Select returns a table with only the given columns, in the given order.
// All absent columns are reported in a single ErrMissingColumn error.
func (t *Table) Select(columns ...string) (*Table, error) {
	var missing []string
	idx := make([]int, len(columns))
	for k, name := range columns {
		j, ok := t.index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[k] = j
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out := make([]string, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return NewTable(columns, rows)
}

// DropMissing returns a table without the rows that have a missing cell.
//
// Cells of the numeric columns that do not parse as float64 are treated as
// missing too. Numeric column names absent from the table are ignored.
func (t *Table) DropMissing(markers MissingSet, numeric ...string) *Table {
	numIdx := make([]int, 0, len(numeric))
	for _, name := range numeric {
		if j, ok := t.index[name]; ok {
			numIdx = append(numIdx, j)
		}
	}

	rows := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		if rowMissing(row, markers, numIdx) {
			continue
		}
		clean := make([]string, len(row))
		for j, v := range row {
			clean[j] = strings.TrimSpace(v)
		}
		rows = append(rows, clean)
	}
	return &Table{header: t.Columns(), index: t.index, rows: rows}
}

func rowMissing(row []string, markers MissingSet, numIdx []int) bool {
	for _, v := range row {
		if markers.IsMissing(v) {
			return true
		}
	}
	for _, j := range numIdx {
		if _, ok := parseNumber(row[j]); !ok {
			return true
		}
	}
	return false
}

// parseNumber parses a trimmed cell as float64.
func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
