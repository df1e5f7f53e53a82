package trellis

import (
	"github.com/trellis-data/trellis/internal/frame"
)

// DefaultJoinSuffix marks right-hand columns renamed to avoid a collision
// with a left-hand column.
const DefaultJoinSuffix = "_y"

// JoinOptions tunes a join. The zero value joins on identical key names on
// both sides with DefaultJoinSuffix.
type JoinOptions struct {
	// RightKeys are the key columns on the right table; defaults to the
	// left-side keys.
	RightKeys []string
	// Suffix is appended to colliding right-hand column names; defaults to
	// DefaultJoinSuffix.
	Suffix string
}

// JoinOutcome is a join's output table plus provenance metadata.
type JoinOutcome struct {
	Table *Table
	// Redundant lists the output names of right-hand columns that collided
	// with a left-hand column and were renamed with the suffix. These are
	// the columns DropRedundant removes; pruning works from this list by
	// identity, never by scanning unrelated columns for a name pattern.
	Redundant []string
	// Warning is non-nil when the join produced more rows than the left
	// input (an unintended one-to-many match, unless the caller wanted
	// fan-out). It never aborts anything.
	Warning *JoinFanoutWarning
}

// DropRedundant returns the outcome's table without the suffix-renamed
// duplicate columns, keeping schemas stable across repeated joins with
// overlapping column sets.
func (o *JoinOutcome) DropRedundant() *Table {
	return o.Table.Drop(o.Redundant...)
}

// Join performs a left-outer join on key columns sharing the same name in
// both tables. Every left row appears at least once; multiple right matches
// fan out to one output row per match, so callers must ensure right-table
// key uniqueness when fan-out is undesired.
func Join(left, right *Table, keys ...string) (*JoinOutcome, error) {
	return JoinWith(left, right, keys, JoinOptions{})
}

// JoinWith is Join with explicit options.
func JoinWith(left, right *Table, keys []string, opts JoinOptions) (*JoinOutcome, error) {
	rightKeys := opts.RightKeys
	if rightKeys == nil {
		rightKeys = keys
	}
	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultJoinSuffix
	}

	for _, k := range keys {
		if !left.HasColumn(k) {
			return nil, &SchemaError{Table: left.name, Column: k, Op: "join"}
		}
	}
	for _, k := range rightKeys {
		if !right.HasColumn(k) {
			return nil, &SchemaError{Table: right.name, Column: k, Op: "join"}
		}
	}

	res, err := frame.LeftJoin(left.f, right.f, keys, rightKeys, suffix)
	if err != nil {
		return nil, err
	}

	out := &JoinOutcome{
		Table:     fromFrame(left.name, res.Frame),
		Redundant: res.Suffixed,
	}
	if res.FanOut {
		out.Warning = &JoinFanoutWarning{
			Left:    left.name,
			Right:   right.name,
			InRows:  left.NumRows(),
			OutRows: res.Frame.NumRows(),
		}
	}
	return out, nil
}
