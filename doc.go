// Package trellis prepares grouped temporal datasets for supervised
// learning.
//
// Trellis takes a main fact table plus reference tables, enriches each
// row with calendar features, per-group event distances and rolling
// window sums, and splits the result into time-ordered train and
// validation partitions.
//
// # Basic Usage
//
// Build a pipeline from a spec and run it over loaded tables:
//
//	spec, err := trellis.LoadSpec("pipeline.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := trellis.NewPipeline(spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := p.Run(sales, map[string]*trellis.Table{"stores": stores})
//
// Or call the stages directly:
//
//	out, err := trellis.Join(sales, stores, "Store")
//	cal, err := trellis.DeriveCalendar(out.Table, "Date")
//	dist, err := trellis.EventDistance(cal, []string{"Store"}, "Date", []string{"Promo"})
//
// # Features
//
// Feature engineering:
//   - Multi-table left joins with collision suffixing and fan-out warnings
//   - Calendar derivation (year, month, day, week of year)
//   - Per-group days since / days until event indicators (After_F, Before_F)
//   - Trailing and leading rolling window sums (F_bw, F_fw)
//   - Time-ordered train/validation splits by row count or cutoff date
//
// Input and output:
//   - CSV loading with schema inference and per-column type pins
//   - SQLite source and sink for reference tables and partitions
//   - CSV, JSON Lines, and Arrow IPC export with optional gzip
//   - Pluggable storage backends (file, memory, S3)
//
// Operations:
//   - Declarative YAML pipeline specs
//   - Snappy-compressed frame caching between runs
//   - Encryption at rest (AES-256-GCM)
//   - Prometheus metrics for stage timings and row counts
//
// # Configuration
//
// Use [Spec] to describe a pipeline:
//
//	spec := trellis.Spec{
//	    Name:       "sales",
//	    GroupKey:   []string{"Store"},
//	    TimeKey:    "Date",
//	    Indicators: []string{"Promo"},
//	    Window:     7,
//	    Split:      trellis.SplitSpec{ValidRows: 5000},
//	}
//
// Or use [DefaultSpec] for sensible defaults.
package trellis
