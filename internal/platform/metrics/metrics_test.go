package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetrics_nil_receiver_is_noop(t *testing.T) {
	var m *Metrics
	m.IncRequests()
	m.IncErrors()
	m.IncVideoUpdates()
	m.IncVideoClears()
	m.BroadcastLoopStarted()
	m.BroadcastLoopEnded()
	m.IncBroadcastTicks()
	m.IncEmitFailures("video:state-update")
	m.SetConnectedWindows(3)
}

func TestMetrics_broadcast_loop_gauge(t *testing.T) {
	m := New()
	m.BroadcastLoopStarted()
	m.BroadcastLoopStarted()
	m.BroadcastLoopEnded()
	m.IncEmitFailures("video:state-update")

	out := scrape(t, m, nil)
	if !strings.Contains(out, "presenter_active_broadcast_loops 1") {
		t.Errorf("expected one active loop in:\n%s", out)
	}
	if !strings.Contains(out, "presenter_broadcast_sessions_total 2") {
		t.Errorf("expected two sessions in:\n%s", out)
	}
	if !strings.Contains(out, `presenter_emit_failures_total{event="video:state-update"} 1`) {
		t.Errorf("expected labelled emit failure in:\n%s", out)
	}
}

func TestMetrics_Handler_refreshes_gauges(t *testing.T) {
	m := New()
	out := scrape(t, m, func() { m.SetConnectedWindows(2) })
	if !strings.Contains(out, "presenter_connected_windows 2") {
		t.Errorf("expected refreshed gauge in:\n%s", out)
	}
}

func TestRequestMiddleware_counts_errors(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	out := scrape(t, m, nil)
	if !strings.Contains(out, "presenter_requests_total 2") {
		t.Errorf("expected 2 requests in:\n%s", out)
	}
	if !strings.Contains(out, "presenter_errors_total 1") {
		t.Errorf("expected 1 error in:\n%s", out)
	}
}
