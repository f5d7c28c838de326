// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts tally runs and manual edits. A nil *Metrics records
// nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	edits       *prometheus.CounterVec
	postsStored prometheus.Counter
}

// NewMetrics registers the service metrics with registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quest_tally_runs_total",
			Help: "Total number of tally runs by method and outcome",
		}, []string{"method", "outcome"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quest_tally_run_duration_seconds",
			Help:    "Time spent ingesting posts and ranking tasks",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"method"}),
		edits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quest_tally_edits_total",
			Help: "Total number of manual edits by action and outcome",
		}, []string{"action", "outcome"}),
		postsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "quest_tally_posts_stored_total",
			Help: "Total number of posts stored or replaced",
		}),
	}
}

func (m *Metrics) observeRun(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(method, outcome).Inc()
	if outcome == "ok" {
		m.runDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeEdit(action, outcome string) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) addPosts(n int) {
	if m == nil {
		return
	}
	m.postsStored.Add(float64(n))
}
