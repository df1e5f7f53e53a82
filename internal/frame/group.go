package frame

// Span is a half-open row range [Start, End) within a sorted frame.
type Span struct {
	Start, End int
}

// Groups returns the contiguous runs of equal values in the named key
// columns. The frame must already be sorted so that equal keys are adjacent;
// grouped scans (event distances, rolling windows) walk these spans one at a
// time, which is also the granularity any chunked execution would have to
// buffer at.
func (f *Frame) Groups(names ...string) ([]Span, error) {
	idx, err := f.indexOf(names)
	if err != nil {
		return nil, err
	}
	var spans []Span
	start := 0
	for r := 1; r <= len(f.rows); r++ {
		if r == len(f.rows) || !sameKey(f.rows[r-1], f.rows[r], idx) {
			spans = append(spans, Span{Start: start, End: r})
			start = r
		}
	}
	return spans, nil
}

func sameKey(a, b []Value, idx []int) bool {
	for _, j := range idx {
		if Compare(a[j], b[j]) != 0 {
			return false
		}
	}
	return true
}

// FirstDuplicate returns the row index of the first row whose composite key
// over the named columns repeats an earlier row's key, or -1 when the frame
// is unique on those columns. Null keys are skipped; they never match.
func (f *Frame) FirstDuplicate(names ...string) (int, error) {
	idx, err := f.indexOf(names)
	if err != nil {
		return -1, err
	}
	seen := make(map[string]bool, len(f.rows))
	var keyBuf []byte
	for r, row := range f.rows {
		keyBuf = keyBuf[:0]
		null := false
		for _, j := range idx {
			if row[j].IsNull() {
				null = true
				break
			}
			keyBuf = appendKey(keyBuf, row[j])
		}
		if null {
			continue
		}
		if seen[string(keyBuf)] {
			return r, nil
		}
		seen[string(keyBuf)] = true
	}
	return -1, nil
}

// NullsIn reports the first row index holding a null in any of the named
// columns, or -1 when there are none. Grouping and time ordering are
// undefined over missing keys, so callers reject such frames up front.
func (f *Frame) NullsIn(names ...string) (int, string, error) {
	idx, err := f.indexOf(names)
	if err != nil {
		return -1, "", err
	}
	for r, row := range f.rows {
		for i, j := range idx {
			if row[j].IsNull() {
				return r, names[i], nil
			}
		}
	}
	return -1, "", nil
}
