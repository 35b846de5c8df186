package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{path: "/", status: http.StatusOK, want: slog.LevelInfo},
		{path: "/cart/add/1/", status: http.StatusSeeOther, want: slog.LevelInfo},
		{path: "/product/missing/", status: http.StatusNotFound, want: slog.LevelInfo},
		{path: "/order/", status: http.StatusUnprocessableEntity, want: slog.LevelInfo},
		{path: "/cart/add/1/", status: http.StatusForbidden, want: slog.LevelWarn},
		{path: "/order/", status: http.StatusInternalServerError, want: slog.LevelError},
		{path: "/assets/css/site.css", status: http.StatusOK, want: slog.LevelDebug},
		{path: "/readyz", status: http.StatusServiceUnavailable, want: slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLogLevel(tt.path, tt.status); got != tt.want {
			t.Fatalf("requestLogLevel(%q, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestValidRequestID(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":                                     false,
		"3f2b9c1e-8d7a-4e5b-9c3d-1a2b3c4d5e6f": true,
		"lb.trace_01":                          true,
		"id with spaces":                       false,
		"id\ninjected=1":                       false,
		strings.Repeat("a", maxRequestIDLen+1): false,
	}
	for id, want := range tests {
		if got := validRequestID(id); got != want {
			t.Fatalf("validRequestID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := &Handlers{logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	handler := h.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loggerFromRequest := h.loggerFromContext(r.Context())
		loggerFromRequest.Info("inside handler")
		http.Redirect(w, r, cartDetailPath, http.StatusSeeOther)
	}))

	req := httptest.NewRequest(http.MethodPost, "/cart/add/1/", nil)
	req.Header.Set("X-Request-ID", "edge-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "edge-42" {
		t.Fatalf("expected inbound request id to be echoed, got %q", rec.Header().Get("X-Request-ID"))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if entry["request_id"] != "edge-42" || entry["method"] != http.MethodPost {
			t.Fatalf("expected request attributes on every line, got %v", entry)
		}
	}

	var completed map[string]any
	_ = json.Unmarshal([]byte(lines[1]), &completed)
	if completed["msg"] != "request completed" || completed["status"] != float64(http.StatusSeeOther) || completed["location"] != cartDetailPath {
		t.Fatalf("unexpected completion entry %v", completed)
	}
}
