// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

// Package metrics provides Prometheus instrumentation for the selection
// engine: request counts by mode and outcome, selection latency, candidate
// and result-set sizes, snapshot size and response-cache efficiency.
//
// Instruments are registered on the default registry via promauto. The
// Recorder type adapts them to the engine's telemetry interface:
//
//	eng.SetRecorder(metrics.NewRecorder())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Selection Metrics
	SelectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_requests_total",
			Help: "Total number of evaluated selections by fallback mode and outcome",
		},
		[]string{"mode", "outcome"}, // mode: none/soft/aggressive/force; outcome: strict/fallback/empty
	)

	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "selection_duration_seconds",
			Help:    "Selection latency in seconds",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25}, // In-memory evaluation is sub-millisecond for small catalogues
		},
		[]string{"mode"},
	)

	SelectionCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "selection_candidates",
			Help:    "Number of items left after hard filters, per selection",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	SelectionReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "selection_returned_items",
			Help:    "Number of items returned, per selection",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// Catalogue Metrics
	SnapshotItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_snapshot_items",
			Help: "Size of the catalogue snapshot evaluated by the most recent selection",
		},
	)

	// Response Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "selection_cache_hits_total",
			Help: "Total number of selection responses served from cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "selection_cache_misses_total",
			Help: "Total number of cacheable selections not found in cache",
		},
	)
)

// RecordSelection records one evaluated selection.
func RecordSelection(mode, outcome string, snapshotItems, candidates, returned int, duration time.Duration) {
	SelectionRequests.WithLabelValues(mode, outcome).Inc()
	SelectionDuration.WithLabelValues(mode).Observe(duration.Seconds())
	SelectionCandidates.Observe(float64(candidates))
	SelectionReturned.Observe(float64(returned))
	SnapshotItems.Set(float64(snapshotItems))
}

// RecordCacheLookup records one response-cache lookup.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}
