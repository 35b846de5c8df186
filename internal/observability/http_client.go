package observability

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go/attribute"
	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

// Email API hosts that receive sentry-trace and baggage headers.
var defaultTraceTargets = []string{
	"api.postmarkapp.com",
	"api.mailgun.net",
	"api.eu.mailgun.net",
	"api.resend.com",
}

// NewHTTPClient returns a client for outbound provider calls. Requests are
// traced, and every call records http.client.requests and
// http.client.duration on the context meter. A zero timeout means no client
// timeout. extraHosts adds propagation targets such as a custom API base URL.
func NewHTTPClient(timeout time.Duration, extraHosts ...string) *http.Client {
	client := &http.Client{
		Transport: WrapRoundTripper(http.DefaultTransport, extraHosts...),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

func WrapRoundTripper(base http.RoundTripper, extraHosts ...string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &meteredTransport{
		base: sentryhttpclient.NewSentryRoundTripper(
			base,
			sentryhttpclient.WithTracePropagationTargets(traceTargets(extraHosts)),
		),
	}
}

type meteredTransport struct {
	base http.RoundTripper
}

func (t *meteredTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	attrs := []attribute.Builder{
		attribute.String("server.address", req.URL.Hostname()),
		attribute.String("http.method", req.Method),
		attribute.String("http.status_class", statusClass(resp, err)),
	}
	ctx := req.Context()
	Count(ctx, "http.client.requests", attrs...)
	ObserveSince(ctx, "http.client.duration", start, attrs...)
	return resp, err
}

func statusClass(resp *http.Response, err error) string {
	if err != nil || resp == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode/100) + "xx"
}

// traceTargets accepts bare hosts or full URLs and skips duplicates.
func traceTargets(extra []string) []string {
	targets := append([]string(nil), defaultTraceTargets...)
	seen := make(map[string]bool, len(targets)+len(extra))
	for _, host := range targets {
		seen[host] = true
	}
	for _, raw := range extra {
		host := strings.TrimSpace(raw)
		if u, err := url.Parse(host); err == nil && u.Host != "" {
			host = u.Hostname()
		}
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		targets = append(targets, host)
	}
	return targets
}
