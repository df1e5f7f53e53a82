package trellis

import "fmt"

// Rolling column name suffixes. For an indicator column F the engine emits
// F_bw (trailing window sum) and F_fw (leading window sum).
const (
	BackwardSuffix = "_bw"
	ForwardSuffix  = "_fw"
)

// DefaultWindow is the rolling window size in rows.
const DefaultWindow = 7

// RollingSum computes fixed-size trailing and leading window sums of each
// indicator column per group. F_bw at a row is the count of true indicator
// values over the window most recent rows up to and including the row,
// within the same group ordered by ascending time. F_fw is the identical
// computation over the time-reversed group sequence. Partial windows at
// group edges are allowed.
//
// The two passes sort independently (ascending for _bw, descending for _fw)
// and their results are re-keyed by (group key, time key) before being
// merged, never by row position, since the two sorts order rows differently.
// The input must be unique on (group key, time key); duplicates are rejected
// because windowed results would fan out incorrectly on re-attachment.
func RollingSum(t *Table, groupKeys []string, timeKey string, indicators []string, window int) (*Table, error) {
	if window < 1 {
		return nil, fmt.Errorf("rolling window must be at least 1, got %d", window)
	}
	for _, c := range append(append([]string(nil), groupKeys...), timeKey) {
		if !t.HasColumn(c) {
			return nil, &SchemaError{Table: t.name, Column: c, Op: "rolling sum"}
		}
	}
	for _, c := range indicators {
		if !t.HasColumn(c) {
			return nil, &SchemaError{Table: t.name, Column: c, Op: "rolling sum"}
		}
	}
	if err := requireKeysPresent(t, groupKeys, timeKey); err != nil {
		return nil, err
	}
	if err := requireUniqueKeys(t, groupKeys, timeKey); err != nil {
		return nil, err
	}

	bw, err := windowPass(t, groupKeys, timeKey, indicators, window, false)
	if err != nil {
		return nil, err
	}
	fw, err := windowPass(t, groupKeys, timeKey, indicators, window, true)
	if err != nil {
		return nil, err
	}

	keys := append(append([]string(nil), groupKeys...), timeKey)
	merged, err := JoinWith(bw, fw, keys, JoinOptions{})
	if err != nil {
		return nil, err
	}
	if merged.Warning != nil {
		// Both passes saw identical unique keys, so this cannot happen
		// unless the uniqueness check above is broken.
		return nil, &DuplicateKeyError{Table: t.name, Group: fmt.Sprint(groupKeys), Time: timeKey}
	}
	out := merged.Table
	out.name = t.name + "_rolling"
	return out, nil
}

// windowPass computes one direction of trailing window sums: ascending time
// for the backward columns, descending time for the forward columns (a
// trailing window over the reversed sequence is a leading window over the
// original one).
func windowPass(t *Table, groupKeys []string, timeKey string, indicators []string, window int, reverse bool) (*Table, error) {
	sortCols := append(append([]string(nil), groupKeys...), timeKey)
	var sorted *Table
	var err error
	if reverse {
		f, serr := t.f.SortByDesc(sortCols...)
		if serr != nil {
			return nil, serr
		}
		sorted = fromFrame(t.name, f)
	} else {
		sorted, err = t.SortBy(sortCols...)
		if err != nil {
			return nil, err
		}
	}

	suffix := BackwardSuffix
	if reverse {
		suffix = ForwardSuffix
	}

	spans, err := sorted.f.Groups(groupKeys...)
	if err != nil {
		return nil, err
	}

	outCols := append([]string(nil), sortCols...)
	for _, f := range indicators {
		outCols = append(outCols, f+suffix)
	}
	out := NewTable(t.name, outCols...)

	n := sorted.NumRows()
	sums := make(map[string][]int64, len(indicators))
	for _, f := range indicators {
		fIdx, _ := sorted.f.ColumnIndex(f)
		col := make([]int64, n)
		for _, sp := range spans {
			var running int64
			for r := sp.Start; r < sp.End; r++ {
				if sorted.f.At(r, fIdx).Truthy() {
					running++
				}
				if r-sp.Start >= window {
					if sorted.f.At(r-window, fIdx).Truthy() {
						running--
					}
				}
				col[r] = running
			}
		}
		sums[f] = col
	}

	keyIdx := make([]int, len(sortCols))
	for i, c := range sortCols {
		keyIdx[i], _ = sorted.f.ColumnIndex(c)
	}
	for r := 0; r < n; r++ {
		row := make([]Value, 0, len(outCols))
		for _, j := range keyIdx {
			row = append(row, sorted.f.At(r, j))
		}
		for _, f := range indicators {
			row = append(row, Int(sums[f][r]))
		}
		if err := out.Append(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// requireUniqueKeys rejects tables holding a repeated (group, time) pair.
func requireUniqueKeys(t *Table, groupKeys []string, timeKey string) error {
	cols := append(append([]string(nil), groupKeys...), timeKey)
	dup, err := t.f.FirstDuplicate(cols...)
	if err != nil {
		return err
	}
	if dup >= 0 {
		groupDesc := ""
		for i, g := range groupKeys {
			if i > 0 {
				groupDesc += ","
			}
			v, _ := t.f.Cell(dup, g)
			groupDesc += v.String()
		}
		tv, _ := t.f.Cell(dup, timeKey)
		return &DuplicateKeyError{Table: t.name, Group: groupDesc, Time: tv.String()}
	}
	return nil
}
