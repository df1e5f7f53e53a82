package frame

// JoinResult carries a join's output frame together with provenance
// metadata: which right-hand columns were renamed to avoid collisions, and
// whether the join fanned out (produced more rows than the left input).
type JoinResult struct {
	Frame *Frame
	// Suffixed lists the output names of right-hand columns that collided
	// with a left-hand column and were renamed. Pruning duplicates after a
	// join works from this list, not from scanning the schema for a name
	// pattern.
	Suffixed []string
	// FanOut is true when at least one left row matched more than one right
	// row.
	FanOut bool
}

// LeftJoin performs a left-outer hash join. Every left row appears at least
// once; unmatched left rows carry nulls in the right-hand columns; multiple
// right matches fan out to one output row per match. Right key columns are
// not duplicated. Non-key right columns whose name collides with a left
// column are renamed by appending suffix.
func LeftJoin(left, right *Frame, leftKeys, rightKeys []string, suffix string) (*JoinResult, error) {
	lIdx, err := left.indexOf(leftKeys)
	if err != nil {
		return nil, err
	}
	rIdx, err := right.indexOf(rightKeys)
	if err != nil {
		return nil, err
	}

	rightKey := make(map[string]bool, len(rightKeys))
	for _, k := range rightKeys {
		rightKey[k] = true
	}

	// Output schema: all left columns, then non-key right columns with
	// collision suffixing.
	outCols := append([]string(nil), left.cols...)
	var rightOut []int    // positions in right
	var suffixed []string // renamed output columns
	for j, c := range right.cols {
		if rightKey[c] {
			continue
		}
		name := c
		if left.HasColumn(name) {
			name += suffix
			suffixed = append(suffixed, name)
		}
		outCols = append(outCols, name)
		rightOut = append(rightOut, j)
	}

	// Build side: right rows bucketed by composite key. Rows with a null in
	// any key column never match and are left out of the index.
	buckets := make(map[string][]int, len(right.rows))
	var keyBuf []byte
	for i, row := range right.rows {
		keyBuf = keyBuf[:0]
		null := false
		for _, j := range rIdx {
			if row[j].IsNull() {
				null = true
				break
			}
			keyBuf = appendKey(keyBuf, row[j])
		}
		if null {
			continue
		}
		buckets[string(keyBuf)] = append(buckets[string(keyBuf)], i)
	}

	out := New(outCols...)
	out.rows = make([][]Value, 0, len(left.rows))
	fanOut := false
	for _, lrow := range left.rows {
		keyBuf = keyBuf[:0]
		null := false
		for _, j := range lIdx {
			if lrow[j].IsNull() {
				null = true
				break
			}
			keyBuf = appendKey(keyBuf, lrow[j])
		}
		var matches []int
		if !null {
			matches = buckets[string(keyBuf)]
		}
		if len(matches) == 0 {
			nr := make([]Value, 0, len(outCols))
			nr = append(nr, lrow...)
			for range rightOut {
				nr = append(nr, Null())
			}
			out.rows = append(out.rows, nr)
			continue
		}
		if len(matches) > 1 {
			fanOut = true
		}
		for _, m := range matches {
			nr := make([]Value, 0, len(outCols))
			nr = append(nr, lrow...)
			for _, j := range rightOut {
				nr = append(nr, right.rows[m][j])
			}
			out.rows = append(out.rows, nr)
		}
	}

	return &JoinResult{Frame: out, Suffixed: suffixed, FanOut: fanOut}, nil
}
