package handlers

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/experina/storefront/internal/observability"
)

const contentSecurityPolicy = "default-src 'self'; img-src 'self' https: data:; style-src 'self'; script-src 'self'; form-action 'self'; frame-ancestors 'none'"

var (
	errMissingHost = errors.New("missing host")
	errForeignHost = errors.New("host not allowed")
)

// SecurityHeaders sets baseline security headers for all responses.
func (h *Handlers) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		headers.Set("Cross-Origin-Opener-Policy", "same-origin")
		headers.Set("Content-Security-Policy", contentSecurityPolicy)

		next.ServeHTTP(w, r)
	})
}

// RequireSameOrigin rejects cart and order submissions whose Origin or
// Referer points at another site. Requests carrying neither header are
// rejected too.
func (h *Handlers) RequireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestMutatesState(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		meter := observability.MeterFromContext(ctx)
		meter.Count("security.same_origin.checked", 1)

		block := func(reason string, args ...any) {
			meter.Count("security.same_origin.blocked", 1, sentry.WithAttributes(attribute.String("reason", reason)))
			h.loggerFromContext(ctx).Warn("blocked cross-origin request", append([]any{"reason", reason, "method", r.Method}, args...)...)
			http.Error(w, "Forbidden", http.StatusForbidden)
		}

		origin := strings.TrimSpace(r.Header.Get("Origin"))
		referer := strings.TrimSpace(r.Header.Get("Referer"))
		if origin == "" && referer == "" {
			block("missing_origin_and_referer")
			return
		}

		allowed := h.allowedHosts(r)
		if origin != "" {
			if err := checkHost(origin, allowed); err != nil {
				block("invalid_origin", "origin", origin, "error", err)
				return
			}
		}
		if referer != "" {
			if err := checkHost(referer, allowed); err != nil {
				block("invalid_referer", "referer", referer, "error", err)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func requestMutatesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func checkHost(rawURL string, allowed map[string]struct{}) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errMissingHost
	}
	if _, ok := allowed[host]; !ok {
		return errForeignHost
	}
	return nil
}

// allowedHosts is the request host plus the host of BASE_URL.
func (h *Handlers) allowedHosts(r *http.Request) map[string]struct{} {
	hosts := map[string]struct{}{}
	if host := normalizeHost(r.Host); host != "" {
		hosts[host] = struct{}{}
	}
	if h.config != nil {
		if parsed, err := url.Parse(strings.TrimSpace(h.config.BaseURL)); err == nil {
			if host := strings.ToLower(parsed.Hostname()); host != "" {
				hosts[host] = struct{}{}
			}
		}
	}
	return hosts
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
