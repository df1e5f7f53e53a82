package frame

import "sort"

// SortBy returns a new frame sorted ascending by the named columns, most
// significant first. The sort is stable: rows with equal keys keep their
// original relative order, which is what makes repeated pipeline runs
// deterministic even with tied time keys.
func (f *Frame) SortBy(names ...string) (*Frame, error) {
	idx, err := f.indexOf(names)
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	sort.SliceStable(out.rows, func(a, b int) bool {
		ra, rb := out.rows[a], out.rows[b]
		for _, j := range idx {
			if c := Compare(ra[j], rb[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out, nil
}

// SortByDesc returns a new frame sorted descending by the named columns.
// Used by the leading rolling-window pass, which is a trailing pass over the
// time-reversed group sequence.
func (f *Frame) SortByDesc(names ...string) (*Frame, error) {
	idx, err := f.indexOf(names)
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	sort.SliceStable(out.rows, func(a, b int) bool {
		ra, rb := out.rows[a], out.rows[b]
		for _, j := range idx {
			if c := Compare(ra[j], rb[j]); c != 0 {
				return c > 0
			}
		}
		return false
	})
	return out, nil
}
