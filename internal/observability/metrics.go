package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_recon"

// Metrics holds the Prometheus counters, histograms, and gauges for the reconciler.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Upstream fetches.
	FetchRequests *prometheus.CounterVec   // labels: source={spc,storm_events}, outcome={changed,not_modified,error}
	FetchDuration *prometheus.HistogramVec // labels: source
	RetryAttempts prometheus.Counter

	// Reconciliation progress.
	DaysProcessed     *prometheus.CounterVec // labels: source, outcome={summarized,quiet,skipped,failed}
	SummariesCurrent  *prometheus.CounterVec // labels: source
	ConsistencyErrors prometheus.Counter
	RecordsParsed     *prometheus.CounterVec   // labels: source
	RunDuration       *prometheus.HistogramVec // labels: driver={poll,backfill}

	// Radar assignment.
	RadarCache *prometheus.CounterVec // labels: result={hit,miss}

	// Signaling.
	MessagesProduced prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRunning,
		m.FetchRequests,
		m.FetchDuration,
		m.RetryAttempts,
		m.DaysProcessed,
		m.SummariesCurrent,
		m.ConsistencyErrors,
		m.RecordsParsed,
		m.RunDuration,
		m.RadarCache,
		m.MessagesProduced,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a driver is running, 0 otherwise.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		RetryAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Retries issued after transient failures.",
		}),
		DaysProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_processed_total",
			Help:      "Weather days visited by source and outcome.",
		}, []string{"source", "outcome"}),
		SummariesCurrent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_current_total",
			Help:      "Summaries that became current, by source.",
		}, []string{"source"}),
		ConsistencyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_errors_total",
			Help:      "Row-count or aggregate invariant violations.",
		}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Detail records produced by the parsers, by source.",
		}, []string{"source"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete driver invocation.",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		}, []string{"driver"}),
		RadarCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "radar_cache_total",
			Help:      "Closest-radar cache lookups by result.",
		}, []string{"result"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Summary notifications written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Summary notifications that failed to publish.",
		}),
	}
}
