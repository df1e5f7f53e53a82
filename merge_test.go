package trellis

import (
	"errors"
	"testing"
)

func TestMergeDerived_PreservesRowCount(t *testing.T) {
	tbl := promoFixture(t, 5)
	dist, err := EventDistance(tbl, []string{"Store"}, "Date", []string{"Promo"})
	if err != nil {
		t.Fatalf("EventDistance: %v", err)
	}
	merged, err := MergeDerived(tbl, dist, []string{"Store"}, "Date")
	if err != nil {
		t.Fatalf("MergeDerived: %v", err)
	}
	if merged.NumRows() != tbl.NumRows() {
		t.Fatalf("rows = %d, want %d", merged.NumRows(), tbl.NumRows())
	}
	if !merged.HasColumn("After_Promo") || !merged.HasColumn("Before_Promo") {
		t.Fatalf("columns = %v", merged.Columns())
	}
	// No suffixed duplicates leak into the merged schema.
	for _, c := range merged.Columns() {
		if len(c) > 2 && c[len(c)-2:] == DefaultJoinSuffix {
			t.Fatalf("redundant column %q survived the merge", c)
		}
	}
	// Values line up by key, not by position: check a known row.
	r := findRow(t, merged, map[string]Value{"Store": Int(1), "Date": day(5)})
	if got := cellInt(t, merged, r, "After_Promo"); got != 2 {
		t.Errorf("After_Promo = %d, want 2", got)
	}
}

func TestMergeDerived_DuplicateDerivedRejected(t *testing.T) {
	tbl := promoFixture(t, 3)
	dup := mustTable(t, "derived", []string{"Store", "Date", "X"},
		[]Value{Int(1), day(1), Int(1)},
		[]Value{Int(1), day(1), Int(2)},
	)
	_, err := MergeDerived(tbl, dup, []string{"Store"}, "Date")
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}
}
