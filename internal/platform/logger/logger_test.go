package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v want %v", in, got, want)
		}
	}
}

func TestNewWithWriter_text_format(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "text")
	log.Info("hello", "window", "main")
	if !strings.Contains(buf.String(), "window=main") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestRequestLogger_logs_failed_requests(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/video/state", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["path"] != "/api/video/state" {
		t.Errorf("path: got %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusServiceUnavailable) {
		t.Errorf("status: got %v", entry["status"])
	}
}

func TestRequestLogger_successful_requests_at_debug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/video/state", nil))

	if buf.Len() != 0 {
		t.Errorf("expected no info output for 204, got %q", buf.String())
	}
}
