package trellis

import (
	"fmt"
	"time"
)

// Split orders the table ascending by the time key and cuts off the last
// cutCount rows as the validation partition; everything earlier is the
// training partition. The two partitions are disjoint and together cover the
// input exactly.
func Split(t *Table, timeKey string, cutCount int) (train, valid *Table, err error) {
	if cutCount < 0 || cutCount > t.NumRows() {
		return nil, nil, &SplitPointError{
			Table:  t.name,
			Cutoff: fmt.Sprintf("row count %d of %d", cutCount, t.NumRows()),
		}
	}
	sorted, err := t.SortBy(timeKey)
	if err != nil {
		return nil, nil, err
	}
	cut := sorted.NumRows() - cutCount
	train = sorted.Slice(0, cut).Rename(t.name + "_train")
	valid = sorted.Slice(cut, sorted.NumRows()).Rename(t.name + "_valid")
	return train, valid, nil
}

// SplitAtDate cuts the sorted table at the first row whose time key is at or
// after the cutoff date. The cutoff is external configuration, replacing the
// positional coincidence some preparation scripts use to size the validation
// window; a cutoff beyond every row in the table fails loudly rather than
// silently producing an empty validation set.
func SplitAtDate(t *Table, timeKey string, cutoff time.Time) (train, valid *Table, err error) {
	sorted, err := t.SortBy(timeKey)
	if err != nil {
		return nil, nil, err
	}
	cutDays := Date(cutoff).Days()
	idx, ok := sorted.f.ColumnIndex(timeKey)
	if !ok {
		return nil, nil, &SchemaError{Table: t.name, Column: timeKey, Op: "split"}
	}
	cut := -1
	for r := 0; r < sorted.NumRows(); r++ {
		v := sorted.f.At(r, idx)
		if !v.IsNull() && v.Days() >= cutDays {
			cut = r
			break
		}
	}
	if cut < 0 {
		return nil, nil, &SplitPointError{Table: t.name, Cutoff: cutoff.Format("2006-01-02")}
	}
	train = sorted.Slice(0, cut).Rename(t.name + "_train")
	valid = sorted.Slice(cut, sorted.NumRows()).Rename(t.name + "_valid")
	return train, valid, nil
}
