package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

const maxRequestIDLen = 64

// RequestLogger logs every request and puts a request-scoped logger into the
// context. Server errors log at error, client errors other than not found
// and form validation log at warn, probes and assets log at debug.
func (h *Handlers) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeLabel(r)
		if route == "" {
			route = "unknown"
		}

		requestID := requestIDFromRequest(r)
		w.Header().Set("X-Request-ID", requestID)

		args := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"remote_ip", clientIP(r),
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			args = append(args, "user_agent", userAgent)
		}
		if referer := strings.TrimSpace(r.Referer()); referer != "" {
			args = append(args, "referer", referer)
		}
		logger := h.logger.With(args...)

		ctx := logging.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		recordRequestMetrics(ctx, r.Method, route, status, start)

		attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds(), "bytes", recorder.bytes}
		if location := recorder.Header().Get("Location"); location != "" && status/100 == 3 {
			attrs = append(attrs, "location", location)
		}
		logger.Log(ctx, requestLogLevel(r.URL.Path, status), "request completed", attrs...)
	})
}

func recordRequestMetrics(ctx context.Context, method, route string, status int, start time.Time) {
	observability.Count(ctx, "http.server.requests",
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	observability.ObserveSince(ctx, "http.server.duration", start,
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("http.status_class", fmt.Sprintf("%dxx", status/100)),
	)
	if status >= http.StatusInternalServerError {
		observability.Count(ctx, "http.server.errors",
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
	}
}

func requestLogLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case quietPath(path):
		return slog.LevelDebug
	case status == http.StatusNotFound, status == http.StatusUnprocessableEntity:
		return slog.LevelInfo
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// quietPath reports paths logged at debug level: static files and probes.
func quietPath(path string) bool {
	return strings.HasPrefix(path, "/assets/") || path == "/health-check/" || path == "/readyz"
}

// requestIDFromRequest reuses an inbound X-Request-ID from a proxy when it is
// short and limited to [A-Za-z0-9._-]; anything else gets a fresh UUID so
// client input never lands in logs unchecked.
func requestIDFromRequest(r *http.Request) string {
	if r == nil {
		return uuid.NewString()
	}
	if requestID := strings.TrimSpace(r.Header.Get("X-Request-ID")); validRequestID(requestID) {
		return requestID
	}
	return uuid.NewString()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func routeLabel(r *http.Request) string {
	if r == nil {
		return ""
	}
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	if name := route.GetName(); name != "" {
		return name
	}
	if template, err := route.GetPathTemplate(); err == nil {
		return template
	}
	return ""
}
