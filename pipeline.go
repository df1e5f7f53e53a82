package trellis

import (
	"fmt"
	"strconv"
	"time"
)

// Pipeline assembles the full preparation flow declared by a Spec: reference
// joins, calendar derivation, grouped temporal features, re-merge, filtering
// and the time-ordered split. Every stage is a pure function from tables to
// a new table; no stage mutates a table another stage holds, so a failed run
// leaves no partially modified state behind.
type Pipeline struct {
	spec Spec

	// Metrics, when set, instruments stage durations and row counts.
	Metrics *Metrics
}

// NewPipeline validates the spec and builds a pipeline for it.
func NewPipeline(spec Spec) (*Pipeline, error) {
	if spec.Window == 0 {
		spec.Window = DefaultWindow
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{spec: spec}, nil
}

// Spec returns the validated spec the pipeline runs.
func (p *Pipeline) Spec() Spec { return p.spec }

// StageReport records one stage's row flow and duration.
type StageReport struct {
	Stage    string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// RunReport summarizes a pipeline run: per-stage row counts and durations
// plus any non-fatal join fan-out warnings.
type RunReport struct {
	Pipeline string
	Stages   []StageReport
	Warnings []JoinFanoutWarning
	Started  time.Time
	Finished time.Time
}

// Result is a completed run's output partitions and report.
type Result struct {
	Train  *Table
	Valid  *Table
	Report *RunReport
}

// Run executes the pipeline over the primary table and the named reference
// tables. Errors abort the run synchronously; the returned error names the
// table, column or group that violated an invariant.
func (p *Pipeline) Run(primary *Table, refs map[string]*Table) (*Result, error) {
	report := &RunReport{Pipeline: p.spec.Name, Started: time.Now()}
	res, err := p.run(primary, refs, report)
	report.Finished = time.Now()
	p.Metrics.observeRun(p.spec.Name, err)
	if err != nil {
		return nil, err
	}
	res.Report = report
	return res, nil
}

func (p *Pipeline) run(primary *Table, refs map[string]*Table, report *RunReport) (*Result, error) {
	spec := p.spec
	working := primary
	var err error

	for _, js := range spec.Joins {
		right, ok := refs[js.Table]
		if !ok {
			return nil, fmt.Errorf("pipeline %q: reference table %q not provided", spec.Name, js.Table)
		}
		start := time.Now()
		outcome, jerr := JoinWith(working, right, js.Keys, JoinOptions{
			RightKeys: js.RightKeys,
			Suffix:    js.Suffix,
		})
		if jerr != nil {
			return nil, jerr
		}
		if outcome.Warning != nil {
			report.Warnings = append(report.Warnings, *outcome.Warning)
			p.Metrics.observeFanout(spec.Name)
		}
		next := outcome.DropRedundant()
		p.record(report, "join:"+js.Table, working.NumRows(), next.NumRows(), start)
		working = next
	}

	working, err = p.timed(report, "calendar", working, func(t *Table) (*Table, error) {
		return DeriveCalendar(t, spec.TimeKey)
	})
	if err != nil {
		return nil, err
	}

	if len(spec.Indicators) > 0 {
		working, err = p.timed(report, "event_distance", working, func(t *Table) (*Table, error) {
			distance, derr := EventDistance(t, spec.GroupKey, spec.TimeKey, spec.Indicators)
			if derr != nil {
				return nil, derr
			}
			return MergeDerived(t, distance, spec.GroupKey, spec.TimeKey)
		})
		if err != nil {
			return nil, err
		}

		working, err = p.timed(report, "rolling_sum", working, func(t *Table) (*Table, error) {
			rolling, rerr := RollingSum(t, spec.GroupKey, spec.TimeKey, spec.Indicators, spec.Window)
			if rerr != nil {
				return nil, rerr
			}
			return MergeDerived(t, rolling, spec.GroupKey, spec.TimeKey)
		})
		if err != nil {
			return nil, err
		}
	}

	for _, fs := range spec.Filters {
		working, err = p.timed(report, "filter:"+fs.Column, working, func(t *Table) (*Table, error) {
			return applyFilter(t, fs)
		})
		if err != nil {
			return nil, err
		}
	}

	sortCols := append([]string{spec.TimeKey}, spec.GroupKey...)
	working, err = p.timed(report, "sort", working, func(t *Table) (*Table, error) {
		return t.SortBy(sortCols...)
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var train, valid *Table
	switch {
	case spec.Split.CutoffDate != "":
		cutoff, perr := time.Parse("2006-01-02", spec.Split.CutoffDate)
		if perr != nil {
			return nil, fmt.Errorf("pipeline %q: bad cutoff_date: %w", spec.Name, perr)
		}
		train, valid, err = SplitAtDate(working, spec.TimeKey, cutoff)
	case spec.Split.ValidRows > 0:
		train, valid, err = Split(working, spec.TimeKey, spec.Split.ValidRows)
	default:
		// No boundary configured: everything trains, validation is empty.
		train, valid, err = Split(working, spec.TimeKey, 0)
	}
	if err != nil {
		return nil, err
	}
	p.record(report, "split", working.NumRows(), train.NumRows(), start)

	return &Result{Train: train, Valid: valid}, nil
}

// timed runs one stage and records its report entry and metrics.
func (p *Pipeline) timed(report *RunReport, stage string, in *Table, fn func(*Table) (*Table, error)) (*Table, error) {
	start := time.Now()
	out, err := fn(in)
	if err != nil {
		return nil, err
	}
	p.record(report, stage, in.NumRows(), out.NumRows(), start)
	return out, nil
}

func (p *Pipeline) record(report *RunReport, stage string, rowsIn, rowsOut int, start time.Time) {
	d := time.Since(start)
	report.Stages = append(report.Stages, StageReport{
		Stage:    stage,
		RowsIn:   rowsIn,
		RowsOut:  rowsOut,
		Duration: d,
	})
	p.Metrics.observeStage(p.spec.Name, stage, rowsOut, d)
}

// applyFilter keeps rows satisfying one column predicate.
func applyFilter(t *Table, fs FilterSpec) (*Table, error) {
	idx, ok := t.f.ColumnIndex(fs.Column)
	if !ok {
		return nil, &SchemaError{Table: t.Name(), Column: fs.Column, Op: "filter"}
	}
	var num float64
	switch fs.Op {
	case "gt", "ge", "lt", "le":
		v, err := strconv.ParseFloat(fs.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: operand %q is not numeric", fs.Column, fs.Value)
		}
		num = v
	}
	return t.Filter(func(row []Value) bool {
		v := row[idx]
		switch fs.Op {
		case "eq":
			return !v.IsNull() && v.String() == fs.Value
		case "ne":
			return v.IsNull() || v.String() != fs.Value
		case "gt":
			return !v.IsNull() && v.Float64() > num
		case "ge":
			return !v.IsNull() && v.Float64() >= num
		case "lt":
			return !v.IsNull() && v.Float64() < num
		case "le":
			return !v.IsNull() && v.Float64() <= num
		case "truthy":
			return v.Truthy()
		case "falsy":
			return !v.Truthy()
		}
		return false
	}), nil
}
