package trellis

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the trellis package.
var (
	// ErrMissingColumn is returned when an operation references a column
	// absent from its input table.
	ErrMissingColumn = errors.New("column not found")

	// ErrNullKey is returned when a group or time key column contains
	// missing values.
	ErrNullKey = errors.New("null value in key column")

	// ErrSplitPoint is returned when the validation boundary row cannot be
	// located.
	ErrSplitPoint = errors.New("split point not found")

	// ErrDuplicateKey is returned when a (group, time) pair is not unique
	// where uniqueness is required for re-merging derived columns.
	ErrDuplicateKey = errors.New("duplicate (group, time) key")

	// ErrClosed is returned when operations are attempted on a closed
	// source or sink.
	ErrClosed = errors.New("backend is closed")
)

// SchemaError reports a reference to a column that is not part of a table's
// schema.
type SchemaError struct {
	Table  string
	Column string
	Op     string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: table %q has no column %q", e.Op, e.Table, e.Column)
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumn }

// GroupingError reports a missing value in a group or time key column, over
// which grouping and ordering are undefined.
type GroupingError struct {
	Table  string
	Column string
	Row    int
}

func (e *GroupingError) Error() string {
	return fmt.Sprintf("table %q: key column %q is null at row %d", e.Table, e.Column, e.Row)
}

func (e *GroupingError) Unwrap() error { return ErrNullKey }

// SplitPointError reports that the train/validation boundary could not be
// located; the splitter fails loudly rather than guessing an arbitrary cut.
type SplitPointError struct {
	Table  string
	Cutoff string
}

func (e *SplitPointError) Error() string {
	return fmt.Sprintf("table %q: no row at or after cutoff %s", e.Table, e.Cutoff)
}

func (e *SplitPointError) Unwrap() error { return ErrSplitPoint }

// DuplicateKeyError reports a (group, time) pair occurring more than once in
// a table that must be unique on that pair before derived columns are
// re-attached.
type DuplicateKeyError struct {
	Table string
	Group string
	Time  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("table %q: duplicate key (group=%s, time=%s)", e.Table, e.Group, e.Time)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// JoinFanoutWarning records a join that produced more output rows than left
// input rows, indicating a one-to-many match the caller may not have
// intended. It is surfaced on the run report and never aborts a run.
type JoinFanoutWarning struct {
	Left    string
	Right   string
	InRows  int
	OutRows int
}

func (w JoinFanoutWarning) String() string {
	return fmt.Sprintf("join %s<-%s fanned out: %d rows in, %d rows out", w.Left, w.Right, w.InRows, w.OutRows)
}
