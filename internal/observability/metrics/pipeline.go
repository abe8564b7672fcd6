package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics covers the analysis pipeline and the chat driver.
// Run outcomes are "done", "degraded" (fallback feedback used) and
// "failed".
type PipelineMetrics struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	runsInFlight     prometheus.Gauge
	providerAttempts *prometheus.CounterVec
	chatTurnsTotal   *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ri",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ri",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Analysis run duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ri",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of in-flight analysis runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	providerAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ri",
			Subsystem: "provider",
			Name:      "attempts_total",
			Help:      "Total provider invocations by provider id and result.",
		},
		[]string{"service", "provider", "result"},
	)
	chatTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ri",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by result.",
		},
		[]string{"service", "result"},
	)

	registry.MustRegister(runsTotal, runDuration, runsInFlight, providerAttempts, chatTurnsTotal)

	return &PipelineMetrics{
		registry:         registry,
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		runsInFlight:     runsInFlight,
		providerAttempts: providerAttempts,
		chatTurnsTotal:   chatTurnsTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartRun() {
	m.runsInFlight.Inc()
}

func (m *PipelineMetrics) FinishRun(service, outcome string, duration time.Duration) {
	m.runsInFlight.Dec()
	if outcome == "" {
		outcome = "unknown"
	}
	m.runsTotal.WithLabelValues(service, outcome).Inc()
	m.runDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveProviderAttempt(service, provider, result string) {
	if provider == "" {
		provider = "default"
	}
	m.providerAttempts.WithLabelValues(service, provider, result).Inc()
}

func (m *PipelineMetrics) ObserveChatTurn(service, result string) {
	m.chatTurnsTotal.WithLabelValues(service, result).Inc()
}
