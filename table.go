package trellis

import (
	"time"

	"github.com/trellis-data/trellis/internal/frame"
)

// Value is a single typed table cell. The zero Value is null (missing).
type Value = frame.Value

// Kind identifies the type of a Value.
type Kind = frame.Kind

// Value kinds, re-exported from the frame engine.
const (
	KindNull   = frame.KindNull
	KindInt    = frame.KindInt
	KindFloat  = frame.KindFloat
	KindString = frame.KindString
	KindBool   = frame.KindBool
	KindDate   = frame.KindDate
)

// Value constructors, re-exported from the frame engine.
func Null() Value { return frame.Null() }

func Int(v int64) Value { return frame.Int(v) }

func Float(v float64) Value { return frame.Float(v) }

func Str(v string) Value { return frame.String(v) }

func Bool(v bool) Value { return frame.Bool(v) }

func Date(t time.Time) Value { return frame.Date(t) }

func DateFromDays(days int64) Value { return frame.DateFromDays(days) }

// Table is a named, ordered sequence of rows sharing a schema. Row order is
// significant only after an explicit sort. All operations return new tables;
// a table handed to a pipeline stage is never mutated.
type Table struct {
	name string
	f    *frame.Frame
}

// NewTable creates an empty table with the given column names.
func NewTable(name string, columns ...string) *Table {
	return &Table{name: name, f: frame.New(columns...)}
}

func fromFrame(name string, f *frame.Frame) *Table {
	return &Table{name: name, f: f}
}

// Name returns the table's name, used in error messages and reports.
func (t *Table) Name() string { return t.name }

// Columns returns the schema's column names in order.
func (t *Table) Columns() []string { return t.f.Columns() }

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.f.NumRows() }

// NumCols returns the column count.
func (t *Table) NumCols() int { return t.f.NumCols() }

// HasColumn reports whether the schema contains the column.
func (t *Table) HasColumn(name string) bool { return t.f.HasColumn(name) }

// Append adds one row. The value count must match the schema width.
func (t *Table) Append(values ...Value) error { return t.f.Append(values...) }

// At returns the cell at (row, col) by position.
func (t *Table) At(row, col int) Value { return t.f.At(row, col) }

// Cell returns the cell at row for a named column.
func (t *Table) Cell(row int, column string) (Value, error) {
	v, err := t.f.Cell(row, column)
	if err != nil {
		return Value{}, &SchemaError{Table: t.name, Column: column, Op: "cell"}
	}
	return v, nil
}

// Row returns a copy of the row at i.
func (t *Table) Row(i int) []Value { return t.f.Row(i) }

// Column returns all values of the named column, top to bottom.
func (t *Table) Column(name string) ([]Value, error) {
	vals, err := t.f.Column(name)
	if err != nil {
		return nil, &SchemaError{Table: t.name, Column: name, Op: "column"}
	}
	return vals, nil
}

// SortBy returns a new table stably sorted ascending by the named columns.
func (t *Table) SortBy(columns ...string) (*Table, error) {
	f, err := t.f.SortBy(columns...)
	if err != nil {
		return nil, t.schemaErr("sort", columns)
	}
	return fromFrame(t.name, f), nil
}

// Select returns a new table restricted to the named columns.
func (t *Table) Select(columns ...string) (*Table, error) {
	f, err := t.f.Select(columns...)
	if err != nil {
		return nil, t.schemaErr("select", columns)
	}
	return fromFrame(t.name, f), nil
}

// Drop returns a new table without the named columns. Unknown names are
// ignored.
func (t *Table) Drop(columns ...string) *Table {
	return fromFrame(t.name, t.f.Drop(columns...))
}

// WithColumn returns a new table with one added column; values must have one
// entry per row.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	f, err := t.f.WithColumn(name, values)
	if err != nil {
		return nil, err
	}
	return fromFrame(t.name, f), nil
}

// Slice returns a new table holding rows [lo, hi).
func (t *Table) Slice(lo, hi int) *Table {
	return fromFrame(t.name, t.f.Slice(lo, hi))
}

// Filter returns a new table with only rows for which keep returns true.
// The row slice passed to keep is indexed by the table's column order.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	return fromFrame(t.name, t.f.Filter(keep))
}

// Rename returns a shallow view of the table under a different name.
func (t *Table) Rename(name string) *Table {
	return &Table{name: name, f: t.f}
}

// schemaErr builds a SchemaError naming the first column in the list that is
// absent from the table's schema.
func (t *Table) schemaErr(op string, columns []string) error {
	e := &SchemaError{Table: t.name, Op: op}
	for _, c := range columns {
		if !t.f.HasColumn(c) {
			e.Column = c
			break
		}
	}
	return e
}
