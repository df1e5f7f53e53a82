package trellis

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Spec declares a full feature-engineering pipeline: which tables join onto
// the primary table, which columns drive the grouped temporal features, and
// where the train/validation boundary falls. Specs are plain data and load
// from YAML.
type Spec struct {
	// Name identifies the pipeline in reports and metrics.
	Name string `json:"name" yaml:"name"`

	// GroupKey partitions rows into independent per-entity subsequences
	// (e.g. the store id).
	GroupKey []string `json:"group_key" yaml:"group_key"`

	// TimeKey is the date column establishing within-group order.
	TimeKey string `json:"time_key" yaml:"time_key"`

	// Indicators are the boolean/indicator columns fed to the
	// event-distance and rolling engines.
	Indicators []string `json:"indicators" yaml:"indicators"`

	// Window is the rolling window size in rows. Defaults to DefaultWindow.
	Window int `json:"window" yaml:"window"`

	// Joins are applied to the primary table in order, each followed by
	// redundant-column pruning.
	Joins []JoinSpec `json:"joins" yaml:"joins"`

	// Filters drop rows after feature derivation (e.g. closed stores).
	Filters []FilterSpec `json:"filters,omitempty" yaml:"filters,omitempty"`

	// Split positions the train/validation boundary.
	Split SplitSpec `json:"split" yaml:"split"`
}

// JoinSpec declares one reference-table join.
type JoinSpec struct {
	// Table names the reference table to join onto the working table.
	Table string `json:"table" yaml:"table"`
	// Keys are the join key columns on the working (left) side.
	Keys []string `json:"keys" yaml:"keys"`
	// RightKeys override the key names on the reference side when they
	// differ; defaults to Keys.
	RightKeys []string `json:"right_keys,omitempty" yaml:"right_keys,omitempty"`
	// Suffix overrides the collision suffix; defaults to DefaultJoinSuffix.
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

// FilterSpec drops rows that fail a single-column predicate.
type FilterSpec struct {
	Column string `json:"column" yaml:"column"`
	// Op is one of eq, ne, gt, ge, lt, le, truthy, falsy.
	Op string `json:"op" yaml:"op"`
	// Value is the comparison operand, unused by truthy/falsy.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// SplitSpec positions the validation window. Exactly one of ValidRows or
// CutoffDate must be set; the boundary is deliberate external configuration,
// never derived from a positional coincidence with the test set.
type SplitSpec struct {
	// ValidRows takes the last N rows in time order as validation.
	ValidRows int `json:"valid_rows,omitempty" yaml:"valid_rows,omitempty"`
	// CutoffDate (YYYY-MM-DD) starts the validation window at the first
	// row dated at or after it.
	CutoffDate string `json:"cutoff_date,omitempty" yaml:"cutoff_date,omitempty"`
}

// DefaultSpec returns a spec with engine defaults filled in.
func DefaultSpec(name string) Spec {
	return Spec{
		Name:   name,
		Window: DefaultWindow,
	}
}

// Validate checks the spec for the mistakes that would otherwise surface
// mid-run with a less precise message.
func (s *Spec) Validate() error {
	if len(s.GroupKey) == 0 {
		return fmt.Errorf("spec %q: group_key is required", s.Name)
	}
	if s.TimeKey == "" {
		return fmt.Errorf("spec %q: time_key is required", s.Name)
	}
	if s.Window < 0 {
		return fmt.Errorf("spec %q: window must be positive, got %d", s.Name, s.Window)
	}
	for i, j := range s.Joins {
		if j.Table == "" {
			return fmt.Errorf("spec %q: join %d has no table", s.Name, i)
		}
		if len(j.Keys) == 0 {
			return fmt.Errorf("spec %q: join %d on %q has no keys", s.Name, i, j.Table)
		}
		if len(j.RightKeys) > 0 && len(j.RightKeys) != len(j.Keys) {
			return fmt.Errorf("spec %q: join %d on %q has %d right keys for %d keys",
				s.Name, i, j.Table, len(j.RightKeys), len(j.Keys))
		}
	}
	for i, f := range s.Filters {
		switch f.Op {
		case "eq", "ne", "gt", "ge", "lt", "le", "truthy", "falsy":
		default:
			return fmt.Errorf("spec %q: filter %d has unknown op %q", s.Name, i, f.Op)
		}
	}
	if s.Split.ValidRows > 0 && s.Split.CutoffDate != "" {
		return fmt.Errorf("spec %q: valid_rows and cutoff_date are mutually exclusive", s.Name)
	}
	if s.Split.CutoffDate != "" {
		if _, err := time.Parse("2006-01-02", s.Split.CutoffDate); err != nil {
			return fmt.Errorf("spec %q: bad cutoff_date: %w", s.Name, err)
		}
	}
	return nil
}

// ParseSpec decodes a YAML pipeline spec and validates it.
func ParseSpec(data []byte) (Spec, error) {
	spec := Spec{Window: DefaultWindow}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("parsing pipeline spec: %w", err)
	}
	if spec.Window == 0 {
		spec.Window = DefaultWindow
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// LoadSpec reads and parses a YAML pipeline spec file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("reading pipeline spec: %w", err)
	}
	return ParseSpec(data)
}
