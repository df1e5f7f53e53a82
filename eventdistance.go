package trellis

// Event-distance column name prefixes. For an indicator column F the engine
// emits After_F (days since the most recent occurrence at or before the row)
// and Before_F (days until the next occurrence at or after the row).
const (
	AfterPrefix  = "After_"
	BeforePrefix = "Before_"
)

// EventDistance computes per-row day distances to the nearest occurrence of
// each indicator event within the row's group. Rows where the indicator is
// true are the only anchors; first and last rows of a group are never
// synthesized as anchors. Rows with no anchor on the relevant side get a
// missing value, which propagates so a later stage can decide how to impute.
//
// The result is a derived table keyed by (group key, time key) holding only
// the new columns; re-attach it to the main table with MergeDerived.
func EventDistance(t *Table, groupKeys []string, timeKey string, indicators []string) (*Table, error) {
	for _, c := range append(append([]string(nil), groupKeys...), timeKey) {
		if !t.HasColumn(c) {
			return nil, &SchemaError{Table: t.name, Column: c, Op: "event distance"}
		}
	}
	for _, c := range indicators {
		if !t.HasColumn(c) {
			return nil, &SchemaError{Table: t.name, Column: c, Op: "event distance"}
		}
	}
	if err := requireKeysPresent(t, groupKeys, timeKey); err != nil {
		return nil, err
	}

	sortCols := append(append([]string(nil), groupKeys...), timeKey)
	sorted, err := t.SortBy(sortCols...)
	if err != nil {
		return nil, err
	}
	spans, err := sorted.f.Groups(groupKeys...)
	if err != nil {
		return nil, err
	}

	timeIdx, _ := sorted.f.ColumnIndex(timeKey)
	n := sorted.NumRows()

	outCols := append([]string(nil), sortCols...)
	for _, f := range indicators {
		outCols = append(outCols, AfterPrefix+f, BeforePrefix+f)
	}

	// One after/before pair per indicator, filled by two linear scans per
	// group: forward carrying the last anchor date, backward carrying the
	// next anchor date.
	after := make(map[string][]Value, len(indicators))
	before := make(map[string][]Value, len(indicators))
	for _, f := range indicators {
		after[f] = make([]Value, n)
		before[f] = make([]Value, n)
	}

	for _, f := range indicators {
		fIdx, _ := sorted.f.ColumnIndex(f)
		av, bv := after[f], before[f]
		for _, sp := range spans {
			lastAnchor := int64(-1)
			haveLast := false
			for r := sp.Start; r < sp.End; r++ {
				day := sorted.f.At(r, timeIdx).Days()
				if sorted.f.At(r, fIdx).Truthy() {
					lastAnchor = day
					haveLast = true
				}
				if haveLast {
					av[r] = Int(day - lastAnchor)
				} else {
					av[r] = Null()
				}
			}
			nextAnchor := int64(-1)
			haveNext := false
			for r := sp.End - 1; r >= sp.Start; r-- {
				day := sorted.f.At(r, timeIdx).Days()
				if sorted.f.At(r, fIdx).Truthy() {
					nextAnchor = day
					haveNext = true
				}
				if haveNext {
					bv[r] = Int(nextAnchor - day)
				} else {
					bv[r] = Null()
				}
			}
		}
	}

	out := NewTable(t.name+"_eventdist", outCols...)
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
			row = append(row, after[f][r], before[f][r])
		}
		if err := out.Append(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// requireKeysPresent rejects tables whose group or time key columns contain
// nulls; grouping and ordering are undefined over missing keys.
func requireKeysPresent(t *Table, groupKeys []string, timeKey string) error {
	cols := append(append([]string(nil), groupKeys...), timeKey)
	row, col, err := t.f.NullsIn(cols...)
	if err != nil {
		return err
	}
	if row >= 0 {
		return &GroupingError{Table: t.name, Column: col, Row: row}
	}
	return nil
}
