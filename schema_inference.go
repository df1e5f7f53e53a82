package trellis

import (
	"strconv"
	"strings"
	"time"
)

// ColumnType is the inferred type of a raw extract column.
type ColumnType string

const (
	TypeInt    ColumnType = "int64"
	TypeFloat  ColumnType = "float64"
	TypeBool   ColumnType = "bool"
	TypeDate   ColumnType = "date"
	TypeString ColumnType = "string"
)

// InferenceConfig tunes schema inference over raw extracts.
type InferenceConfig struct {
	// SampleSize is how many leading rows to inspect per column.
	SampleSize int `json:"sample_size" yaml:"sample_size"`

	// NullLiterals are cell contents treated as missing values.
	NullLiterals []string `json:"null_literals" yaml:"null_literals"`

	// DateFormats are the layouts tried, in order, when parsing dates.
	DateFormats []string `json:"date_formats" yaml:"date_formats"`
}

// DefaultInferenceConfig returns sensible defaults for CSV extracts.
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		SampleSize:   1000,
		NullLiterals: []string{"", "NA", "N/A", "NaN", "null", "None"},
		DateFormats:  []string{"2006-01-02", "2006-01-02 15:04:05", "2006/01/02"},
	}
}

// InferredColumn is one column discovered during schema inference.
type InferredColumn struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// InferSchema inspects up to cfg.SampleSize rows of raw string cells and
// assigns each column the narrowest type every sampled non-null cell parses
// as, widening int to float when both occur and falling back to string.
func InferSchema(header []string, rows [][]string, cfg InferenceConfig) []InferredColumn {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultInferenceConfig().SampleSize
	}
	sample := rows
	if len(sample) > cfg.SampleSize {
		sample = sample[:cfg.SampleSize]
	}

	out := make([]InferredColumn, len(header))
	for c, name := range header {
		col := InferredColumn{Name: name, Type: TypeString}
		canInt, canFloat, canBool, canDate := true, true, true, true
		seen := 0
		for _, row := range sample {
			if c >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[c])
			if isNullLiteral(cell, cfg.NullLiterals) {
				col.Nullable = true
				continue
			}
			seen++
			if canInt {
				if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
					canInt = false
				}
			}
			if canFloat {
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					canFloat = false
				}
			}
			if canBool {
				switch strings.ToLower(cell) {
				case "true", "false", "0", "1":
				default:
					canBool = false
				}
			}
			if canDate {
				if _, ok := parseDate(cell, cfg.DateFormats); !ok {
					canDate = false
				}
			}
		}
		switch {
		case seen == 0:
			col.Type = TypeString
		case canDate:
			col.Type = TypeDate
		case canInt:
			col.Type = TypeInt
		case canFloat:
			col.Type = TypeFloat
		case canBool:
			col.Type = TypeBool
		default:
			col.Type = TypeString
		}
		out[c] = col
	}
	return out
}

// ParseCell converts one raw cell to a typed value under an inferred column
// type. Unparseable cells degrade to null rather than aborting the read;
// key-column nulls are caught later by the engines that require them.
func ParseCell(cell string, col InferredColumn, cfg InferenceConfig) Value {
	cell = strings.TrimSpace(cell)
	if isNullLiteral(cell, cfg.NullLiterals) {
		return Null()
	}
	switch col.Type {
	case TypeInt:
		if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return Int(v)
		}
	case TypeFloat:
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return Float(v)
		}
	case TypeBool:
		switch strings.ToLower(cell) {
		case "true", "1":
			return Bool(true)
		case "false", "0":
			return Bool(false)
		}
	case TypeDate:
		if t, ok := parseDate(cell, cfg.DateFormats); ok {
			return Date(t)
		}
	case TypeString:
		return Str(cell)
	}
	return Null()
}

func isNullLiteral(cell string, literals []string) bool {
	for _, l := range literals {
		if cell == l {
			return true
		}
	}
	return false
}

func parseDate(cell string, formats []string) (time.Time, bool) {
	for _, layout := range formats {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
