package trellis

// MergeDerived re-attaches a derived feature table onto the main table by an
// exact-match left join on (group key, time key). The derived table must be
// unique on that pair: a derived table that fans out would silently misalign
// features, so duplicates are rejected instead. The main table's row count
// never changes.
func MergeDerived(main, derived *Table, groupKeys []string, timeKey string) (*Table, error) {
	if err := requireUniqueKeys(derived, groupKeys, timeKey); err != nil {
		return nil, err
	}
	keys := append(append([]string(nil), groupKeys...), timeKey)
	out, err := JoinWith(main, derived, keys, JoinOptions{})
	if err != nil {
		return nil, err
	}
	if out.Warning != nil {
		// Unique derived keys cannot fan a left join out; reaching this
		// means main and derived disagree about key typing.
		return nil, &DuplicateKeyError{Table: derived.name, Group: "", Time: timeKey}
	}
	merged := out.DropRedundant()
	merged.name = main.name
	return merged, nil
}
