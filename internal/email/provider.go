// Package email provides transactional email transports and templates.
package email

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/experina/storefront/internal/observability"
)

const (
	sendTimeout     = 30 * time.Second
	maxResponseBody = 1 << 20
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
}

// Email is a single message. An empty From falls back to the provider's
// configured sender.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
	// Tag groups messages in the provider dashboard, e.g. order_confirmation.
	Tag string
	// Metadata is attached to the message where the provider supports it so
	// bounces can be traced back to an order.
	Metadata map[string]string
}

func (e *Email) validate() error {
	if e == nil {
		return fmt.Errorf("email is required")
	}
	if len(e.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if strings.TrimSpace(e.Subject) == "" {
		return fmt.Errorf("email subject is required")
	}
	if e.Text == "" && e.HTML == "" {
		return fmt.Errorf("email body is empty")
	}
	return nil
}

type Config struct {
	Provider string
	APIKey   string
	From     string
	Domain   string // For Mailgun
	BaseURL  string // Overrides the provider API endpoint
}

// NewProvider builds the configured transport. An empty or "none" provider
// disables email and returns a nil Provider.
func NewProvider(config Config) (Provider, error) {
	client := observability.NewHTTPClient(sendTimeout, config.BaseURL)

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", "none":
		return nil, nil
	case "postmark":
		return NewPostmarkProvider(config.APIKey, config.From, config.BaseURL, client), nil
	case "mailgun":
		return NewMailgunProvider(config.APIKey, config.Domain, config.From, config.BaseURL, client), nil
	case "resend":
		return NewResendProvider(config.APIKey, config.From, client), nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be one of 'postmark', 'mailgun', 'resend' or 'none'")
	}
}

func readBody(resp *http.Response, provider string) ([]byte, error) {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", provider, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close %s response body: %w", provider, closeErr)
	}
	return body, nil
}
