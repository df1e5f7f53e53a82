package trellis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label names.
const (
	LabelPipeline = "pipeline"
	LabelStage    = "stage"
	LabelStatus   = "status"
)

// Metrics instruments pipeline runs. Metrics are registered against the
// caller's registerer so multiple pipelines (and tests) can coexist in one
// process without duplicate-registration panics.
type Metrics struct {
	stageSeconds *prometheus.HistogramVec
	stageRows    *prometheus.CounterVec
	fanoutTotal  *prometheus.CounterVec
	runsTotal    *prometheus.CounterVec
}

// NewMetrics creates pipeline metrics on reg. A nil reg registers on a
// private throwaway registry, which effectively disables scraping.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		stageSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trellis",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{LabelPipeline, LabelStage}),
		stageRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trellis",
			Name:      "stage_rows_total",
			Help:      "Rows emitted by each pipeline stage",
		}, []string{LabelPipeline, LabelStage}),
		fanoutTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trellis",
			Name:      "join_fanout_warnings_total",
			Help:      "Joins that produced more rows than their left input",
		}, []string{LabelPipeline}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trellis",
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal status",
		}, []string{LabelPipeline, LabelStatus}),
	}
}

func (m *Metrics) observeStage(pipeline, stage string, rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.stageSeconds.WithLabelValues(pipeline, stage).Observe(d.Seconds())
	m.stageRows.WithLabelValues(pipeline, stage).Add(float64(rows))
}

func (m *Metrics) observeFanout(pipeline string) {
	if m == nil {
		return
	}
	m.fanoutTotal.WithLabelValues(pipeline).Inc()
}

func (m *Metrics) observeRun(pipeline string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runsTotal.WithLabelValues(pipeline, status).Inc()
}
