package handlers

import (
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/experina/storefront/internal/observability"
	"github.com/experina/storefront/internal/session"
)

// MetricsContext adds a request-scoped, pre-attributed meter to the context.
// It must run inside SessionMiddleware to tag meters with the visitor's cart.
func (h *Handlers) MetricsContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		attrs := []attribute.Builder{
			attribute.String("http.request_id", requestIDFromRequest(r)),
			attribute.String("http.method", r.Method),
			attribute.String("network.client.ip", clientIP(r)),
		}
		if route := routeLabel(r); route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			attrs = append(attrs, attribute.String("http.user_agent", userAgent))
		}

		if sess := session.FromContext(ctx); sess != nil {
			attrs = append(attrs, attribute.String("session.state", sessionState(sess)))
			if h.carts != nil {
				c := h.carts.Load(ctx, sess)
				attrs = append(attrs,
					attribute.Int("cart.units", c.Len()),
					attribute.Int("cart.lines", c.Distinct()),
				)
			}
		}

		meter := sentry.NewMeter(ctx).WithCtx(ctx)
		meter.SetAttributes(attrs...)

		ctx = observability.WithMeter(ctx, meter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionState(sess *session.Session) string {
	if sess.IsNew() {
		return "new"
	}
	return "returning"
}
