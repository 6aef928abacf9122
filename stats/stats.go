// Package stats exposes the engine's Prometheus metrics: active query
// count, answers emitted by kind, wire frames sent/received, and
// aborts (SPEC_FULL.md §4.12 Metrics).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are process-wide, registered once at package init and
// referenced through package-level functions - the same access pattern
// as this engine's other cross-cutting singletons (nlog, hk.DefaultHK,
// qreg's package-level registry), rather than threaded through every
// constructor that might want to record something.
var (
	ActiveQueries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dasq",
		Name:      "active_queries",
		Help:      "Number of query trees currently registered and not yet work-done.",
	})
	AnswersEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dasq",
		Name:      "answers_emitted_total",
		Help:      "Answers delivered out of a RemoteSink's processors, by kind (handles|count).",
	}, []string{"kind"})
	FramesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dasq",
		Name:      "frames_sent_total",
		Help:      "Wire frames successfully sent to a peer.",
	})
	FramesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dasq",
		Name:      "frames_received_total",
		Help:      "Wire frames accepted and delivered to a local receiver.",
	})
	Aborts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dasq",
		Name:      "aborts_total",
		Help:      "Queries aborted, via either a wire ABORT frame or an admin request.",
	})
)

// QueryStarted/QueryFinished bracket a query's registered lifetime.
func QueryStarted()  { ActiveQueries.Inc() }
func QueryFinished() { ActiveQueries.Dec() }

// AnswerEmitted records one answer delivered out of a RemoteSink's
// processor for the given kind ("handles" or "count").
func AnswerEmitted(kind string) { AnswersEmitted.WithLabelValues(kind).Inc() }

// Handler returns the http.Handler that serves the Prometheus exposition
// format for the default registry (spec.md §6a "metrics endpoint").
func Handler() http.Handler { return promhttp.Handler() }
