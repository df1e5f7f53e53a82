package trellis

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
)

// ExportFormat selects the output format for table export.
type ExportFormat int

const (
	// ExportFormatCSV writes comma-separated values with a header row.
	ExportFormatCSV ExportFormat = iota
	// ExportFormatJSON writes one JSON object per row (JSON lines).
	ExportFormatJSON
	// ExportFormatArrow writes an Arrow IPC stream (columnar sink).
	ExportFormatArrow
)

// ExportConfig configures table export.
type ExportConfig struct {
	// Format is the output format.
	Format ExportFormat

	// Compression gzips the output (CSV and JSON only; Arrow IPC streams
	// carry their own framing and are written as-is).
	Compression bool

	// IncludeHeader includes the column header row (CSV).
	IncludeHeader bool
}

// DefaultExportConfig returns CSV with headers.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{Format: ExportFormatCSV, IncludeHeader: true}
}

// ExportTable encodes a table and writes it to a storage backend under key.
func ExportTable(ctx context.Context, backend StorageBackend, key string, t *Table, cfg ExportConfig) error {
	var data []byte
	var err error
	switch cfg.Format {
	case ExportFormatCSV:
		data, err = encodeCSV(t, cfg.IncludeHeader)
	case ExportFormatJSON:
		data, err = encodeJSONLines(t)
	case ExportFormatArrow:
		data, err = encodeArrowIPC(t)
	default:
		return fmt.Errorf("unknown export format %d", cfg.Format)
	}
	if err != nil {
		return fmt.Errorf("encoding table %q: %w", t.Name(), err)
	}

	if cfg.Compression && cfg.Format != ExportFormatArrow {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if err := backend.Write(ctx, key, data); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// ExportResult writes a run's train and validation partitions under
// keyPrefix; the separately supplied test table, when non-nil, is written
// alongside them under the same schema contract.
func ExportResult(ctx context.Context, backend StorageBackend, keyPrefix string, res *Result, test *Table, cfg ExportConfig) error {
	ext := formatExt(cfg)
	if err := ExportTable(ctx, backend, keyPrefix+"train"+ext, res.Train, cfg); err != nil {
		return err
	}
	if err := ExportTable(ctx, backend, keyPrefix+"valid"+ext, res.Valid, cfg); err != nil {
		return err
	}
	if test != nil {
		if err := ExportTable(ctx, backend, keyPrefix+"test"+ext, test, cfg); err != nil {
			return err
		}
	}
	return nil
}

func formatExt(cfg ExportConfig) string {
	ext := ".csv"
	switch cfg.Format {
	case ExportFormatJSON:
		ext = ".jsonl"
	case ExportFormatArrow:
		ext = ".arrow"
	}
	if cfg.Compression && cfg.Format != ExportFormatArrow {
		ext += ".gz"
	}
	return ext
}

func encodeCSV(t *Table, header bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header {
		if err := w.Write(t.Columns()); err != nil {
			return nil, err
		}
	}
	record := make([]string, len(t.Columns()))
	for r := 0; r < t.NumRows(); r++ {
		row := t.Row(r)
		for c, v := range row {
			record[c] = v.String()
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func encodeJSONLines(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	cols := t.Columns()
	for r := 0; r < t.NumRows(); r++ {
		obj := make(map[string]any, len(cols))
		row := t.Row(r)
		for c, name := range cols {
			obj[name] = jsonValue(row[c])
		}
		if err := enc.Encode(obj); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func jsonValue(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindInt:
		return v.Int64()
	case KindFloat:
		return v.Float64()
	case KindBool:
		return v.BoolVal()
	default:
		return v.String()
	}
}
