// Package metrics exposes Prometheus instrumentation for the evaluation
// pipeline. Collectors are registered once at package load and shared by all
// components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submissions accepted by the orchestrator,
	// including coalesced duplicates.
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "burnish",
		Name:      "submissions_total",
		Help:      "Submissions received by the orchestrator.",
	})

	// SubmissionsCoalesced counts submissions that attached to an in-flight
	// evaluation for the same id instead of starting a new one.
	SubmissionsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "burnish",
		Name:      "submissions_coalesced_total",
		Help:      "Submissions coalesced onto an in-flight evaluation.",
	})

	// VerdictsTotal counts terminal verdicts by outcome.
	VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnish",
		Name:      "verdicts_total",
		Help:      "Terminal verdicts by outcome.",
	}, []string{"verdict"})

	// GatewayAttempts counts gateway calls by result class.
	GatewayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnish",
		Subsystem: "gateway",
		Name:      "attempts_total",
		Help:      "Gateway generation attempts by result.",
	}, []string{"result"})

	// PipelineDuration observes wall time from pipeline start to verdict.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "burnish",
		Name:      "pipeline_duration_seconds",
		Help:      "Time from pipeline start to terminal verdict.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// SinkRetries counts sink write retries after a persistence failure.
	SinkRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "burnish",
		Subsystem: "sink",
		Name:      "retries_total",
		Help:      "Sink write retries after a persistence failure.",
	})

	// InflightEvaluations gauges evaluations currently running.
	InflightEvaluations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "burnish",
		Name:      "inflight_evaluations",
		Help:      "Evaluations currently in flight.",
	})
)

// Gateway attempt result labels.
const (
	GatewayResultOK          = "ok"
	GatewayResultTimeout     = "timeout"
	GatewayResultUnavailable = "unavailable"
	GatewayResultRejected    = "rejected"
)
