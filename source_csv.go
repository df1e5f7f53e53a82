package trellis

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVSourceConfig configures reading a raw CSV extract into a typed table.
type CSVSourceConfig struct {
	// Comma is the field separator. Defaults to ','.
	Comma rune `json:"comma,omitempty" yaml:"comma,omitempty"`

	// Inference tunes column-type inference over the leading rows.
	Inference InferenceConfig `json:"inference" yaml:"inference"`

	// Types pins the type of specific columns, overriding inference.
	Types map[string]ColumnType `json:"types,omitempty" yaml:"types,omitempty"`
}

// DefaultCSVSourceConfig returns defaults suitable for the usual
// comma-separated extracts.
func DefaultCSVSourceConfig() CSVSourceConfig {
	return CSVSourceConfig{
		Comma:     ',',
		Inference: DefaultInferenceConfig(),
	}
}

// ReadCSV parses a CSV stream with a header row into a typed table. Column
// types are inferred from a sample and may be pinned per column via the
// config; cells that fail to parse under the column type become nulls.
func ReadCSV(r io.Reader, name string, cfg CSVSourceConfig) (*Table, error) {
	if cfg.Comma == 0 {
		cfg.Comma = ','
	}
	cr := csv.NewReader(r)
	cr.Comma = cfg.Comma
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV %q: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading CSV %q: no header row", name)
	}
	header := records[0]
	rows := records[1:]

	cols := InferSchema(header, rows, cfg.Inference)
	for i := range cols {
		if t, ok := cfg.Types[cols[i].Name]; ok {
			cols[i].Type = t
		}
	}

	table := NewTable(name, header...)
	for _, rec := range rows {
		vals := make([]Value, len(header))
		for c := range header {
			if c < len(rec) {
				vals[c] = ParseCell(rec[c], cols[c], cfg.Inference)
			} else {
				vals[c] = Null()
			}
		}
		if err := table.Append(vals...); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// ReadCSVString parses an in-memory CSV document.
func ReadCSVString(data, name string, cfg CSVSourceConfig) (*Table, error) {
	return ReadCSV(strings.NewReader(data), name, cfg)
}

// ReadCSVKey reads a CSV artifact from a storage backend. Keys ending in
// ".gz" are transparently decompressed.
func ReadCSVKey(ctx context.Context, backend StorageBackend, key, name string, cfg CSVSourceConfig) (*Table, error) {
	data, err := backend.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	var r io.Reader = bytes.NewReader(data)
	if strings.HasSuffix(key, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("decompressing %q: %w", key, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return ReadCSV(r, name, cfg)
}
