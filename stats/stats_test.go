/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/singnet/das-query-engine/stats"
)

func TestActiveQueriesGauge(t *testing.T) {
	before := testutil.ToFloat64(stats.ActiveQueries)
	stats.QueryStarted()
	if got := testutil.ToFloat64(stats.ActiveQueries); got != before+1 {
		t.Fatalf("ActiveQueries = %v, want %v", got, before+1)
	}
	stats.QueryFinished()
	if got := testutil.ToFloat64(stats.ActiveQueries); got != before {
		t.Fatalf("ActiveQueries = %v, want %v", got, before)
	}
}

func TestAnswersEmittedByKind(t *testing.T) {
	before := testutil.ToFloat64(stats.AnswersEmitted.WithLabelValues("handles"))
	stats.AnswerEmitted("handles")
	got := testutil.ToFloat64(stats.AnswersEmitted.WithLabelValues("handles"))
	if got != before+1 {
		t.Fatalf("AnswersEmitted(handles) = %v, want %v", got, before+1)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	stats.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dasq_active_queries") {
		t.Fatal("exposition body missing dasq_active_queries metric")
	}
}
