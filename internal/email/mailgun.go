package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultMailgunBaseURL = "https://api.mailgun.net/v3"

// MailgunProvider posts to the Mailgun messages API. EU domains need
// MAILGUN_BASE_URL set to https://api.eu.mailgun.net/v3.
type MailgunProvider struct {
	apiKey  string
	from    string
	domain  string
	baseURL string
	client  *http.Client
}

type mailgunResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func NewMailgunProvider(apiKey, domain, from, baseURL string, client *http.Client) *MailgunProvider {
	if baseURL == "" {
		baseURL = defaultMailgunBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &MailgunProvider{
		apiKey:  apiKey,
		domain:  strings.TrimSpace(domain),
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (m *MailgunProvider) SendEmail(ctx context.Context, email *Email) error {
	if err := email.validate(); err != nil {
		return err
	}
	if m.domain == "" {
		return fmt.Errorf("mailgun domain is not configured")
	}

	apiURL := fmt.Sprintf("%s/%s/messages", m.baseURL, url.PathEscape(m.domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(mailgunForm(email, m.from).Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	body, err := readBody(resp, "mailgun")
	if err != nil {
		return err
	}

	var result mailgunResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &result) == nil && result.Message != "" {
			return fmt.Errorf("mailgun error (%d): %s", resp.StatusCode, result.Message)
		}
		return fmt.Errorf("mailgun API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// mailgunForm maps Tag to o:tag, ReplyTo to h:Reply-To and each Metadata
// entry to a v: user variable.
func mailgunForm(email *Email, defaultFrom string) url.Values {
	form := url.Values{}
	form.Set("from", firstNonEmpty(email.From, defaultFrom))
	for _, to := range email.To {
		form.Add("to", to)
	}
	form.Set("subject", email.Subject)
	if email.Text != "" {
		form.Set("text", email.Text)
	}
	if email.HTML != "" {
		form.Set("html", email.HTML)
	}
	if email.ReplyTo != "" {
		form.Set("h:Reply-To", email.ReplyTo)
	}
	if email.Tag != "" {
		form.Set("o:tag", email.Tag)
	}
	for key, value := range email.Metadata {
		form.Set("v:"+key, value)
	}
	return form
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
