package trellis

import (
	"testing"
	"time"
)

// day returns a Date value for 2014-01-<d> UTC; the fixture month used
// throughout the engine tests.
func day(d int) Value {
	return Date(time.Date(2014, 1, d, 0, 0, 0, 0, time.UTC))
}

// mustTable builds a table or fails the test.
func mustTable(t *testing.T, name string, cols []string, rows ...[]Value) *Table {
	t.Helper()
	tbl := NewTable(name, cols...)
	for _, r := range rows {
		if err := tbl.Append(r...); err != nil {
			t.Fatalf("building table %s: %v", name, err)
		}
	}
	return tbl
}

// cellInt reads an integer cell or fails the test.
func cellInt(t *testing.T, tbl *Table, row int, col string) int64 {
	t.Helper()
	v, err := tbl.Cell(row, col)
	if err != nil {
		t.Fatalf("cell %s[%d]: %v", col, row, err)
	}
	if v.IsNull() {
		t.Fatalf("cell %s[%d] is null", col, row)
	}
	return v.Int64()
}

// cellNull reports whether a cell is missing, failing the test on schema
// errors.
func cellNull(t *testing.T, tbl *Table, row int, col string) bool {
	t.Helper()
	v, err := tbl.Cell(row, col)
	if err != nil {
		t.Fatalf("cell %s[%d]: %v", col, row, err)
	}
	return v.IsNull()
}

// findRow returns the first row where every named column equals the given
// value, or -1.
func findRow(t *testing.T, tbl *Table, match map[string]Value) int {
	t.Helper()
	for r := 0; r < tbl.NumRows(); r++ {
		ok := true
		for col, want := range match {
			v, err := tbl.Cell(r, col)
			if err != nil {
				t.Fatalf("cell %s[%d]: %v", col, r, err)
			}
			if v.IsNull() || v.String() != want.String() {
				ok = false
				break
			}
		}
		if ok {
			return r
		}
	}
	return -1
}
