package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wq_threshold"

// Metrics holds the Prometheus counters, histograms, and gauges for the analysis pipeline.
type Metrics struct {
	DatasetsConsumed prometheus.Counter
	ResultsProduced  prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Analysis metrics.
	EventsDetected *prometheus.CounterVec   // labels: parameter
	Warnings       *prometheus.CounterVec   // labels: kind={data_quality,granularity_mismatch}
	EventDuration  *prometheus.HistogramVec // labels: parameter
	ReportsWritten *prometheus.CounterVec   // labels: format={xlsx,pdf}, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_consumed_total",
			Help:      "Total station datasets read from the source topic.",
		}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_produced_total",
			Help:      "Total analysis results written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total datasets that failed decoding or analysis.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of datasets per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EventsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_detected_total",
			Help:      "Threshold exceedance events by parameter.",
		}, []string{"parameter"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Advisory analysis warnings by kind.",
		}, []string{"kind"}),
		EventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_hours",
			Help:      "Duration of detected continuous events in hours.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 12, 24, 48, 96},
		}, []string{"parameter"}),
		ReportsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Rendered reports by format and outcome.",
		}, []string{"format", "outcome"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetsConsumed,
		m.ResultsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.EventsDetected,
		m.Warnings,
		m.EventDuration,
		m.ReportsWritten,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
