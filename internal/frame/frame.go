// Package frame implements the in-memory table engine behind the trellis
// public API: typed columns, stable multi-column sorts, hash joins and
// contiguous group iteration.
package frame

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is wrapped by errors caused by referencing a column that
// is not part of a frame's schema.
var ErrUnknownColumn = errors.New("unknown column")

// Frame is an ordered sequence of rows sharing a schema. Operations return
// new frames; a frame handed to another stage is never mutated in place.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty frame with the given column names.
func New(cols ...string) *Frame {
	f := &Frame{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range f.cols {
		f.index[c] = i
	}
	return f
}

// Columns returns the schema's column names in order. The caller must not
// modify the returned slice.
func (f *Frame) Columns() []string { return f.cols }

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.rows) }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// ColumnIndex returns the position of a column in the schema.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

// HasColumn reports whether the schema contains the column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Append adds a row. The row length must match the schema width.
func (f *Frame) Append(row ...Value) error {
	if len(row) != len(f.cols) {
		return fmt.Errorf("row has %d values, schema has %d columns", len(row), len(f.cols))
	}
	f.rows = append(f.rows, append([]Value(nil), row...))
	return nil
}

// At returns the cell at (row, col) by position.
func (f *Frame) At(row, col int) Value { return f.rows[row][col] }

// Cell returns the cell at row for a named column.
func (f *Frame) Cell(row int, name string) (Value, error) {
	i, ok := f.index[name]
	if !ok {
		return Value{}, fmt.Errorf("%w %q", ErrUnknownColumn, name)
	}
	return f.rows[row][i], nil
}

// Row returns a copy of the row at i.
func (f *Frame) Row(i int) []Value {
	return append([]Value(nil), f.rows[i]...)
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := New(f.cols...)
	out.rows = make([][]Value, len(f.rows))
	for i, r := range f.rows {
		out.rows[i] = append([]Value(nil), r...)
	}
	return out
}

// indexOf resolves the positions of the named columns, failing on the first
// unknown name.
func (f *Frame) indexOf(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := f.index[n]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownColumn, n)
		}
		idx[i] = j
	}
	return idx, nil
}

// Select returns a new frame restricted to the named columns, in the order
// given.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx, err := f.indexOf(names)
	if err != nil {
		return nil, err
	}
	out := New(names...)
	out.rows = make([][]Value, len(f.rows))
	for r, row := range f.rows {
		nr := make([]Value, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		out.rows[r] = nr
	}
	return out, nil
}

// Drop returns a new frame without the named columns. Unknown names are
// ignored; dropping a column that never existed is not an error.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []string
	for _, c := range f.cols {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := f.Select(keep...)
	return out
}

// WithColumn returns a new frame with an added column. The values slice must
// have one entry per row. Replacing an existing column is an error.
func (f *Frame) WithColumn(name string, values []Value) (*Frame, error) {
	if f.HasColumn(name) {
		return nil, fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(f.rows) {
		return nil, fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(f.rows))
	}
	out := New(append(append([]string(nil), f.cols...), name)...)
	out.rows = make([][]Value, len(f.rows))
	for i, r := range f.rows {
		nr := make([]Value, 0, len(r)+1)
		nr = append(nr, r...)
		nr = append(nr, values[i])
		out.rows[i] = nr
	}
	return out, nil
}

// Column returns all values of the named column, top to bottom.
func (f *Frame) Column(name string) ([]Value, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, name)
	}
	out := make([]Value, len(f.rows))
	for r, row := range f.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Slice returns a new frame holding rows [lo, hi).
func (f *Frame) Slice(lo, hi int) *Frame {
	out := New(f.cols...)
	out.rows = make([][]Value, 0, hi-lo)
	for _, r := range f.rows[lo:hi] {
		out.rows = append(out.rows, append([]Value(nil), r...))
	}
	return out
}

// Filter returns a new frame with only the rows for which keep returns true.
func (f *Frame) Filter(keep func(row []Value) bool) *Frame {
	out := New(f.cols...)
	for _, r := range f.rows {
		if keep(r) {
			out.rows = append(out.rows, append([]Value(nil), r...))
		}
	}
	return out
}
