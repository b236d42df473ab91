package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the ingestion pipeline.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec   // labels: source, outcome={success,failure}
	FetchDuration *prometheus.HistogramVec // labels: source

	ParseDegradations *prometheus.CounterVec // labels: source
	QualityScore      *prometheus.HistogramVec

	ReportsPersisted prometheus.Counter
	PersistErrors    prometheus.Counter

	FlareDuplicates prometheus.Counter

	CycleActive   prometheus.Gauge
	CycleDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.ParseDegradations,
		m.QualityScore,
		m.ReportsPersisted,
		m.PersistErrors,
		m.FlareDuplicates,
		m.CycleActive,
		m.CycleDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "space_weather",
			Name:      "fetches_total",
			Help:      "Source fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "space_weather",
			Name:      "fetch_duration_seconds",
			Help:      "Wall-clock duration of one source normalize call.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		ParseDegradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "space_weather",
			Name:      "parse_degradations_total",
			Help:      "Non-fatal parse issues recorded during normalization.",
		}, []string{"source"}),
		QualityScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "space_weather",
			Name:      "report_quality_score",
			Help:      "Quality score distribution of normalized reports.",
			Buckets:   []float64{0.2, 0.4, 0.6, 0.8, 0.9, 1},
		}, []string{"source"}),
		ReportsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather",
			Name:      "reports_persisted_total",
			Help:      "Normalized reports handed to the store.",
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather",
			Name:      "persist_errors_total",
			Help:      "Store writes that failed (fetch outcome unaffected).",
		}),
		FlareDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather",
			Name:      "flare_duplicates_total",
			Help:      "Secondary-catalog flare events discarded as duplicates.",
		}),
		CycleActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "space_weather",
			Name:      "fetch_cycle_active",
			Help:      "1 while a fetch cycle is in flight.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "space_weather",
			Name:      "fetch_cycle_duration_seconds",
			Help:      "Duration of a complete fan-out fetch cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}
