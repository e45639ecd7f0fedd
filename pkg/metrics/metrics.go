package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the generation metrics. A nil *Metrics records nothing.
type Metrics struct {
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	OperationPolls     prometheus.Counter
	AssistTotal        *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "gengallery"
	}
	f := promauto.With(reg)
	return &Metrics{
		GenerationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "requests_total",
				Help:      "Total number of generation requests",
			},
			[]string{"kind", "status"},
		),
		GenerationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Generation duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		),
		OperationPolls: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "operation_polls_total",
				Help:      "Total number of long-running operation status checks",
			},
		),
		AssistTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "assist",
				Name:      "requests_total",
				Help:      "Total number of prompt assist requests",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordGeneration records a finished generation of the given kind.
func (m *Metrics) RecordGeneration(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(kind, status(err)).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordPoll() {
	if m == nil {
		return
	}
	m.OperationPolls.Inc()
}

func (m *Metrics) RecordAssist(err error) {
	if m == nil {
		return
	}
	m.AssistTotal.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
