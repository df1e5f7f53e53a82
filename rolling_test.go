package trellis

import (
	"errors"
	"testing"
)

func TestRollingSum_WindowArithmetic(t *testing.T) {
	tbl := promoFixture(t, 10)
	out, err := RollingSum(tbl, []string{"Store"}, "Date", []string{"Promo"}, 7)
	if err != nil {
		t.Fatalf("RollingSum: %v", err)
	}
	if out.NumRows() != tbl.NumRows() {
		t.Fatalf("rows = %d, want %d", out.NumRows(), tbl.NumRows())
	}

	// Store 1 event on day 3: the trailing 7-row window contains the event
	// from day 3 through day 9 and drops it at day 10.
	wantBW := map[int]int64{1: 0, 2: 0, 3: 1, 4: 1, 9: 1, 10: 0}
	for d, w := range wantBW {
		r := findRow(t, out, map[string]Value{"Store": Int(1), "Date": day(d)})
		if r < 0 {
			t.Fatalf("store 1 day %d missing", d)
		}
		if got := cellInt(t, out, r, "Promo_bw"); got != w {
			t.Errorf("day %d Promo_bw = %d, want %d", d, got, w)
		}
	}

	// Leading window: the event is visible looking forward from day 3 back
	// through the preceding 6 rows.
	wantFW := map[int]int64{1: 1, 2: 1, 3: 1, 4: 0, 10: 0}
	for d, w := range wantFW {
		r := findRow(t, out, map[string]Value{"Store": Int(1), "Date": day(d)})
		if got := cellInt(t, out, r, "Promo_fw"); got != w {
			t.Errorf("day %d Promo_fw = %d, want %d", d, got, w)
		}
	}

	// Store 2 event on day 7 stays inside store 2.
	r := findRow(t, out, map[string]Value{"Store": Int(2), "Date": day(10)})
	if got := cellInt(t, out, r, "Promo_bw"); got != 1 {
		t.Errorf("store 2 day 10 Promo_bw = %d, want 1", got)
	}
}

func TestRollingSum_BoundsProperty(t *testing.T) {
	// All-true indicator: sums are capped by the window size and by the
	// partial window length at group edges.
	tbl := NewTable("sales", "Store", "Date", "Open")
	for d := 1; d <= 12; d++ {
		if err := tbl.Append(Int(1), day(d), Bool(true)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	const window = 7
	out, err := RollingSum(tbl, []string{"Store"}, "Date", []string{"Open"}, window)
	if err != nil {
		t.Fatalf("RollingSum: %v", err)
	}
	for d := 1; d <= 12; d++ {
		r := findRow(t, out, map[string]Value{"Date": day(d)})
		bw := cellInt(t, out, r, "Open_bw")
		fw := cellInt(t, out, r, "Open_fw")
		if bw < 0 || bw > window || fw < 0 || fw > window {
			t.Fatalf("day %d out of bounds: bw=%d fw=%d", d, bw, fw)
		}
		wantBW := int64(d)
		if wantBW > window {
			wantBW = window
		}
		if bw != wantBW {
			t.Errorf("day %d Open_bw = %d, want %d", d, bw, wantBW)
		}
		wantFW := int64(12 - d + 1)
		if wantFW > window {
			wantFW = window
		}
		if fw != wantFW {
			t.Errorf("day %d Open_fw = %d, want %d", d, fw, wantFW)
		}
	}
}

func TestRollingSum_FirstRowEqualsOwnValue(t *testing.T) {
	tbl := mustTable(t, "sales", []string{"Store", "Date", "Promo"},
		[]Value{Int(1), day(1), Bool(true)},
		[]Value{Int(1), day(2), Bool(false)},
		[]Value{Int(2), day(1), Bool(false)},
	)
	out, err := RollingSum(tbl, []string{"Store"}, "Date", []string{"Promo"}, 7)
	if err != nil {
		t.Fatalf("RollingSum: %v", err)
	}
	r := findRow(t, out, map[string]Value{"Store": Int(1), "Date": day(1)})
	if got := cellInt(t, out, r, "Promo_bw"); got != 1 {
		t.Errorf("first row Promo_bw = %d, want its own value 1", got)
	}
	r = findRow(t, out, map[string]Value{"Store": Int(2), "Date": day(1)})
	if got := cellInt(t, out, r, "Promo_bw"); got != 0 {
		t.Errorf("first row Promo_bw = %d, want 0", got)
	}
}

func TestRollingSum_DuplicateKeysRejected(t *testing.T) {
	tbl := mustTable(t, "sales", []string{"Store", "Date", "Promo"},
		[]Value{Int(1), day(1), Bool(true)},
		[]Value{Int(1), day(1), Bool(false)},
	)
	_, err := RollingSum(tbl, []string{"Store"}, "Date", []string{"Promo"}, 7)
	var de *DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DuplicateKeyError", err)
	}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatal("DuplicateKeyError must unwrap to ErrDuplicateKey")
	}
}

func TestRollingSum_BadWindow(t *testing.T) {
	tbl := promoFixture(t, 3)
	if _, err := RollingSum(tbl, []string{"Store"}, "Date", []string{"Promo"}, 0); err == nil {
		t.Fatal("expected error for window 0")
	}
}
