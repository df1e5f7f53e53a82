package trellis

import (
	"strings"
	"testing"
)

// salesFixture builds two stores over ten days. Store 1 runs a promo on
// day 3 and is closed on day 5; store 2 runs a promo on day 7.
func salesFixture(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable("sales", "Store", "Date", "Sales", "Promo", "Open")
	for _, store := range []int64{1, 2} {
		for d := 1; d <= 10; d++ {
			promo := int64(0)
			if (store == 1 && d == 3) || (store == 2 && d == 7) {
				promo = 1
			}
			open := int64(1)
			if store == 1 && d == 5 {
				open = 0
			}
			err := tbl.Append(Int(store), day(d), Int(100*store+int64(d)), Int(promo), Int(open))
			if err != nil {
				t.Fatal(err)
			}
		}
	}
	return tbl
}

func storesFixture(t *testing.T) *Table {
	t.Helper()
	return mustTable(t, "stores",
		[]string{"Store", "StoreType"},
		[]Value{Int(1), Str("a")},
		[]Value{Int(2), Str("b")},
	)
}

func salesSpec() Spec {
	return Spec{
		Name:       "sales",
		GroupKey:   []string{"Store"},
		TimeKey:    "Date",
		Indicators: []string{"Promo"},
		Window:     7,
		Joins:      []JoinSpec{{Table: "stores", Keys: []string{"Store"}}},
		Filters:    []FilterSpec{{Column: "Open", Op: "truthy"}},
		Split:      SplitSpec{ValidRows: 4},
	}
}

func TestPipelineRun(t *testing.T) {
	p, err := NewPipeline(salesSpec())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	p.Metrics = NewMetrics(nil)

	res, err := p.Run(salesFixture(t), map[string]*Table{"stores": storesFixture(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One closed row dropped, last four rows held out.
	if got := res.Train.NumRows() + res.Valid.NumRows(); got != 19 {
		t.Errorf("total rows = %d, want 19", got)
	}
	if res.Valid.NumRows() != 4 {
		t.Errorf("valid rows = %d, want 4", res.Valid.NumRows())
	}

	for _, col := range []string{
		"StoreType", ColYear, ColMonth, ColDay, ColWeek,
		"After_Promo", "Before_Promo", "Promo_bw", "Promo_fw",
	} {
		if !res.Train.HasColumn(col) {
			t.Errorf("train is missing column %q", col)
		}
	}

	// Store 1's promo ran on day 3; day 4 is one day after it and, with the
	// promo over, seven rows ahead see no upcoming one.
	r := findRow(t, res.Train, map[string]Value{"Store": Int(1), "Date": day(4)})
	if r < 0 {
		t.Fatal("store 1 day 4 not found in train")
	}
	if got := cellInt(t, res.Train, r, "After_Promo"); got != 1 {
		t.Errorf("store 1 day 4 After_Promo = %d, want 1", got)
	}
	if !cellNull(t, res.Train, r, "Before_Promo") {
		t.Error("store 1 day 4 Before_Promo should be null, no promo follows")
	}
	if got := cellInt(t, res.Train, r, "Promo_bw"); got != 1 {
		t.Errorf("store 1 day 4 Promo_bw = %d, want 1", got)
	}
	if got := cellInt(t, res.Train, r, "Promo_fw"); got != 0 {
		t.Errorf("store 1 day 4 Promo_fw = %d, want 0", got)
	}

	// Day 5 was closed and must be filtered out.
	if r := findRow(t, res.Train, map[string]Value{"Store": Int(1), "Date": day(5)}); r >= 0 {
		t.Error("closed store 1 day 5 survived the filter")
	}

	// Validation holds the latest dates only.
	for r := 0; r < res.Valid.NumRows(); r++ {
		v, err := res.Valid.Cell(r, "Date")
		if err != nil {
			t.Fatal(err)
		}
		if v.Days() < day(9).Days() {
			t.Errorf("valid row %d dated %s, want day 9 or later", r, v.String())
		}
	}

	if res.Report == nil {
		t.Fatal("run report missing")
	}
	if len(res.Report.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Report.Warnings)
	}
	var stages []string
	for _, s := range res.Report.Stages {
		stages = append(stages, s.Stage)
	}
	for _, want := range []string{"join:stores", "calendar", "event_distance", "rolling_sum", "filter:Open", "sort", "split"} {
		found := false
		for _, s := range stages {
			if s == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("stage %q missing from report (got %v)", want, stages)
		}
	}
}

func TestPipelineRunFanoutWarning(t *testing.T) {
	stores := storesFixture(t)
	if err := stores.Append(Int(1), Str("c")); err != nil {
		t.Fatal(err)
	}

	spec := salesSpec()
	spec.Indicators = nil
	p, err := NewPipeline(spec)
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(salesFixture(t), map[string]*Table{"stores": stores})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Report.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one fan-out warning", res.Report.Warnings)
	}
	w := res.Report.Warnings[0]
	if w.OutRows <= w.InRows {
		t.Errorf("warning rows %d -> %d, want growth", w.InRows, w.OutRows)
	}
}

func TestPipelineRunMissingReference(t *testing.T) {
	p, err := NewPipeline(salesSpec())
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Run(salesFixture(t), nil)
	if err == nil || !strings.Contains(err.Error(), "stores") {
		t.Errorf("error = %v, want mention of missing stores table", err)
	}
}

func TestPipelineCutoffSplit(t *testing.T) {
	spec := salesSpec()
	spec.Filters = nil
	spec.Split = SplitSpec{CutoffDate: "2014-01-08"}
	p, err := NewPipeline(spec)
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(salesFixture(t), map[string]*Table{"stores": storesFixture(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Days 8, 9, 10 for both stores fall at or after the cutoff.
	if res.Valid.NumRows() != 6 {
		t.Errorf("valid rows = %d, want 6", res.Valid.NumRows())
	}
	if res.Train.NumRows() != 14 {
		t.Errorf("train rows = %d, want 14", res.Train.NumRows())
	}
}

func TestNewPipelineRejectsBadSpec(t *testing.T) {
	if _, err := NewPipeline(Spec{Name: "x"}); err == nil {
		t.Fatal("NewPipeline accepted a spec without group_key")
	}
}
