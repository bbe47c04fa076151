package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestQueryMetricsObserve(t *testing.T) {
	m := NewQueryMetrics(nil)
	m.Observe("ask", OutcomeOK, 200*time.Millisecond)
	m.Observe("ask", OutcomeOK, 300*time.Millisecond)
	m.Observe("filter", OutcomeFallback, time.Second)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`datenollm_llm_calls_total{operation="ask",outcome="ok"} 2`,
		`datenollm_llm_calls_total{operation="filter",outcome="fallback"} 1`,
		`datenollm_llm_call_duration_seconds_count{operation="ask"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestQueryMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQueryMetrics(reg)
	m.Observe("ask", OutcomeError, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 2 {
		t.Errorf("expected 2 metric families, got %d", len(families))
	}
}

func TestQueryMetricsHandler(t *testing.T) {
	m := NewQueryMetrics(nil)
	m.Observe("ask", OutcomeOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `datenollm_llm_calls_total{operation="ask",outcome="ok"} 1`) {
		t.Errorf("unexpected exposition:\n%s", w.Body.String())
	}
}

func TestQueryMetricsNilSafe(t *testing.T) {
	var m *QueryMetrics
	m.Observe("ask", OutcomeOK, time.Millisecond)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("nil metrics handler status = %d", w.Code)
	}
}
