// Package metrics exposes Prometheus collectors for the claim pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "autoclaim"

var (
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route, and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2.5, 10), // 5ms to ~19s
		},
		[]string{"method", "route"},
	)

	// ClaimsTotal counts assembled claims by approval status and claim status.
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Total number of assembled claims by approval status and claim status.",
		},
		[]string{"approval_status", "status"},
	)

	// ClaimsRejectedTotal counts requests aborted before assembly.
	ClaimsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_rejected_total",
			Help:      "Total number of claim requests rejected before assembly, by reason.",
		},
		[]string{"reason"},
	)

	StageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 3, 10), // 1ms to ~20s
		},
		[]string{"stage"},
	)

	// ReasoningCallsTotal counts reasoning adapter outcomes: ok, fallback.
	ReasoningCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reasoning_calls_total",
			Help:      "Total number of vision-reasoning calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	ReasoningTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reasoning_tokens_total",
			Help:      "Total tokens reported by the vision-reasoning service.",
		},
	)

	ImagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_processed_total",
			Help:      "Total number of images run through perception, by result.",
		},
		[]string{"result"},
	)
)
