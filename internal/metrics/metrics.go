// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storycraft"

var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Generation calls by outcome (success, error, timeout, empty).",
	}, []string{"outcome"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Wall time of a single generation call.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120, 180},
	})

	StoriesStoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stories_stored_total",
		Help:      "Story store attempts by outcome (success, error).",
	}, []string{"outcome"})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Asynchronous submissions by final state.",
	}, []string{"state"})

	SubmissionsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "submissions_pending",
		Help:      "Submissions waiting for or running on the worker pool.",
	})

	StoriesPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stories_pruned_total",
		Help:      "Stories deleted by the retention sweeper.",
	})
)
