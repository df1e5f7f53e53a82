package trellis

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
)

func exportFixture(t *testing.T) *Table {
	t.Helper()
	return mustTable(t, "out",
		[]string{"Store", "Date", "Sales", "Open", "Note"},
		[]Value{Int(1), day(1), Float(99.5), Bool(true), Str("a")},
		[]Value{Int(2), day(2), Float(12.25), Bool(false), Null()},
	)
}

func TestExportCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	tbl := exportFixture(t)

	if err := ExportTable(ctx, backend, "out.csv", tbl, DefaultExportConfig()); err != nil {
		t.Fatalf("ExportTable: %v", err)
	}
	data, err := backend.Read(ctx, "out.csv")
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadCSVString(string(data), "out", DefaultCSVSourceConfig())
	if err != nil {
		t.Fatalf("ReadCSVString: %v", err)
	}
	if got.NumRows() != tbl.NumRows() || got.NumCols() != tbl.NumCols() {
		t.Fatalf("round trip shape %dx%d, want %dx%d",
			got.NumRows(), got.NumCols(), tbl.NumRows(), tbl.NumCols())
	}
	if v := cellInt(t, got, 1, "Store"); v != 2 {
		t.Errorf("Store[1] = %d, want 2", v)
	}
	d, err := got.Cell(0, "Date")
	if err != nil {
		t.Fatal(err)
	}
	if d.Days() != day(1).Days() {
		t.Errorf("Date[0] = %s, want %s", d.String(), day(1).String())
	}
	if !cellNull(t, got, 1, "Note") {
		t.Error("empty Note cell should read back null")
	}
}

func TestExportCSVGzip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	cfg := DefaultExportConfig()
	cfg.Compression = true

	if err := ExportTable(ctx, backend, "out.csv.gz", exportFixture(t), cfg); err != nil {
		t.Fatalf("ExportTable: %v", err)
	}
	data, err := backend.Read(ctx, "out.csv.gz")
	if err != nil {
		t.Fatal(err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not gzip: %v", err)
	}
	plain, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(plain), "Store,Date,Sales,Open,Note") {
		t.Errorf("unexpected header line in %q", string(plain))
	}

	// The gzipped artifact reads back through the backend-aware CSV source.
	got, err := ReadCSVKey(ctx, backend, "out.csv.gz", "out", DefaultCSVSourceConfig())
	if err != nil {
		t.Fatalf("ReadCSVKey: %v", err)
	}
	if got.NumRows() != 2 {
		t.Errorf("rows = %d, want 2", got.NumRows())
	}
}

func TestExportJSONLines(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	cfg := ExportConfig{Format: ExportFormatJSON}

	if err := ExportTable(ctx, backend, "out.jsonl", exportFixture(t), cfg); err != nil {
		t.Fatalf("ExportTable: %v", err)
	}
	data, err := backend.Read(ctx, "out.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	var row map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &row); err != nil {
		t.Fatalf("line 2 is not JSON: %v", err)
	}
	if row["Store"] != float64(2) {
		t.Errorf("Store = %v, want 2", row["Store"])
	}
	if note, ok := row["Note"]; !ok || note != nil {
		t.Errorf("Note = %v, want explicit null", note)
	}
}

func TestExportArrowIPC(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	cfg := ExportConfig{Format: ExportFormatArrow}
	tbl := exportFixture(t)

	if err := ExportTable(ctx, backend, "out.arrow", tbl, cfg); err != nil {
		t.Fatalf("ExportTable: %v", err)
	}
	data, err := backend.Read(ctx, "out.arrow")
	if err != nil {
		t.Fatal(err)
	}

	rdr, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not an Arrow IPC stream: %v", err)
	}
	defer rdr.Release()

	schema := rdr.Schema()
	if got := len(schema.Fields()); got != tbl.NumCols() {
		t.Fatalf("field count = %d, want %d", got, tbl.NumCols())
	}
	for i, name := range tbl.Columns() {
		if schema.Field(i).Name != name {
			t.Errorf("field %d = %q, want %q", i, schema.Field(i).Name, name)
		}
	}

	rows := 0
	for rdr.Next() {
		rows += int(rdr.RecordBatch().NumRows())
	}
	if err := rdr.Err(); err != nil {
		t.Fatal(err)
	}
	if rows != tbl.NumRows() {
		t.Errorf("rows = %d, want %d", rows, tbl.NumRows())
	}
}

func TestExportResultWritesPartitions(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	res := &Result{
		Train: mustTable(t, "train", []string{"Store"}, []Value{Int(1)}),
		Valid: mustTable(t, "valid", []string{"Store"}, []Value{Int(2)}),
	}
	test := mustTable(t, "test", []string{"Store"}, []Value{Int(3)})

	if err := ExportResult(ctx, backend, "run1/", res, test, DefaultExportConfig()); err != nil {
		t.Fatalf("ExportResult: %v", err)
	}
	keys, err := backend.List(ctx, "run1/")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"run1/test.csv", "run1/train.csv", "run1/valid.csv"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
