package document

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingValue marks a measurement that was not taken.
const MissingValue = -999999.0

// Row and field separators of a `values` payload.
const (
	rowSeparator   = ";"
	fieldSeparator = ","
)

// Matrix is a dense table of measurements with a fixed column count.
type Matrix struct {
	cols int
	data []float64
}

// NewMatrix builds a matrix from rows that all have cols fields.
func NewMatrix(cols int, rows [][]float64) (*Matrix, error) {
	m := &Matrix{cols: cols, data: make([]float64, 0, cols*len(rows))}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d fields, want %d", i+1, len(row), cols)
		}
		m.data = append(m.data, row...)
	}
	return m, nil
}

// ParseError reports a retained row field that is not a number.
type ParseError struct {
	Row   int // 1-based position of the row in the payload
	Field int // 1-based position of the field in the row
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, field %d: invalid number %q", e.Row, e.Field, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseMatrix reads a `values` payload: rows separated by ';', fields by ','.
//
// Rows with a field count other than fields are dropped without notice. Every
// field of a kept row must parse as a float; the first one that does not
// fails the whole payload with a *ParseError. An empty payload, or one where
// every row was dropped, gives an empty matrix.
func ParseMatrix(text string, fields int) (*Matrix, error) {
	m := &Matrix{cols: fields}
	if text == "" {
		return m, nil
	}

	for i, line := range strings.Split(text, rowSeparator) {
		parts := strings.Split(line, fieldSeparator)
		if len(parts) != fields {
			continue
		}
		for j, part := range parts {
			raw := strings.TrimSpace(part)
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &ParseError{Row: i + 1, Field: j + 1, Value: raw, Err: err}
			}
			m.data = append(m.data, v)
		}
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	if m == nil || m.cols == 0 {
		return 0
	}
	return len(m.data) / m.cols
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	if m == nil {
		return 0
	}
	return m.cols
}

// At returns the value at row r, column c. It panics when out of range.
func (m *Matrix) At(r, c int) float64 {
	if c < 0 || c >= m.cols || r < 0 || r >= m.Rows() {
		panic(fmt.Sprintf("document: index (%d, %d) out of range for %dx%d matrix", r, c, m.Rows(), m.cols))
	}
	return m.data[r*m.cols+c]
}

// Row returns a copy of row r.
func (m *Matrix) Row(r int) []float64 {
	out := make([]float64, m.cols)
	copy(out, m.data[r*m.cols:(r+1)*m.cols])
	return out
}

// Column returns a copy of column c.
func (m *Matrix) Column(c int) []float64 {
	rows := m.Rows()
	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = m.At(r, c)
	}
	return out
}

// Count returns how many rows hold v in column c.
func (m *Matrix) Count(c int, v float64) int {
	n := 0
	for r, rows := 0, m.Rows(); r < rows; r++ {
		if m.At(r, c) == v {
			n++
		}
	}
	return n
}

// CountMissing returns how many rows hold MissingValue in column c.
func (m *Matrix) CountMissing(c int) int {
	return m.Count(c, MissingValue)
}
