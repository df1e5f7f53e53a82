package trellis

import (
	"context"
	"errors"
	"testing"

	"github.com/trellis-data/trellis/internal/testutil"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	_, path := testutil.TempDBPath(t)
	cfg := DefaultSQLiteStoreConfig()
	cfg.Path = path
	store, err := OpenSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	tbl := mustTable(t, "stores",
		[]string{"Store", "Date", "Sales", "Open", "Type"},
		[]Value{Int(1), day(1), Float(99.5), Bool(true), Str("a")},
		[]Value{Int(2), day(2), Float(12.25), Bool(false), Null()},
	)
	if err := store.WriteTable(ctx, tbl); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	got, err := store.ReadTable(ctx, "stores")
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got.NumRows() != 2 || got.NumCols() != 5 {
		t.Fatalf("shape %dx%d, want 2x5", got.NumRows(), got.NumCols())
	}
	if v := cellInt(t, got, 0, "Store"); v != 1 {
		t.Errorf("Store[0] = %d, want 1", v)
	}
	d, err := got.Cell(1, "Date")
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind() != KindDate || d.Days() != day(2).Days() {
		t.Errorf("Date[1] = %s (%v), want %s", d.String(), d.Kind(), day(2).String())
	}
	s, err := got.Cell(0, "Sales")
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != KindFloat || s.Float64() != 99.5 {
		t.Errorf("Sales[0] = %v, want 99.5", s)
	}
	b, err := got.Cell(1, "Open")
	if err != nil {
		t.Fatal(err)
	}
	if b.Kind() != KindBool || b.BoolVal() {
		t.Errorf("Open[1] = %v, want false", b)
	}
	if !cellNull(t, got, 1, "Type") {
		t.Error("null Type cell did not survive the round trip")
	}
}

func TestSQLiteStoreReplacesTable(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := mustTable(t, "ref", []string{"K"}, []Value{Int(1)}, []Value{Int(2)})
	if err := store.WriteTable(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := mustTable(t, "ref", []string{"K"}, []Value{Int(9)})
	if err := store.WriteTable(ctx, second); err != nil {
		t.Fatal(err)
	}
	got, err := store.ReadTable(ctx, "ref")
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 1 || cellInt(t, got, 0, "K") != 9 {
		t.Errorf("replacement did not take effect: %d rows", got.NumRows())
	}
}

func TestSQLiteStoreWriteResult(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	res := &Result{
		Train: mustTable(t, "sales_train", []string{"Store"}, []Value{Int(1)}),
		Valid: mustTable(t, "sales_valid", []string{"Store"}, []Value{Int(2)}),
	}
	if err := store.WriteResult(ctx, res, nil); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	tables, err := store.Tables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 || tables[0] != "sales_train" || tables[1] != "sales_valid" {
		t.Errorf("tables = %v, want [sales_train sales_valid]", tables)
	}
}

func TestSQLiteStoreClosed(t *testing.T) {
	store := openTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ReadTable(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadTable after close = %v, want ErrClosed", err)
	}
	if err := store.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
}
