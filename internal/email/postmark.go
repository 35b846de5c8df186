package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultPostmarkBaseURL = "https://api.postmarkapp.com"

// PostmarkProvider sends through the Postmark email API.
type PostmarkProvider struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

type postmarkEmail struct {
	From     string            `json:"From"`
	To       string            `json:"To"`
	ReplyTo  string            `json:"ReplyTo,omitempty"`
	Subject  string            `json:"Subject"`
	TextBody string            `json:"TextBody,omitempty"`
	HtmlBody string            `json:"HtmlBody,omitempty"`
	Tag      string            `json:"Tag,omitempty"`
	Metadata map[string]string `json:"Metadata,omitempty"`
}

func NewPostmarkProvider(apiKey, from, baseURL string, client *http.Client) *PostmarkProvider {
	if baseURL == "" {
		baseURL = defaultPostmarkBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PostmarkProvider{
		apiKey:  apiKey,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *PostmarkProvider) SendEmail(ctx context.Context, email *Email) error {
	if err := email.validate(); err != nil {
		return err
	}

	payload := postmarkEmail{
		From:     firstNonEmpty(email.From, p.from),
		To:       strings.Join(email.To, ", "),
		Subject:  email.Subject,
		ReplyTo:  email.ReplyTo,
		TextBody: email.Text,
		HtmlBody: email.HTML,
		Tag:      firstNonEmpty(email.Tag, "order"),
		Metadata: email.Metadata,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/email", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	body, err := readBody(resp, "postmark")
	if err != nil {
		return err
	}

	var result postmarkResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &result) == nil && result.ErrorCode != 0 {
			return fmt.Errorf("postmark error (%d): %s", result.ErrorCode, result.Message)
		}
		return fmt.Errorf("postmark API returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if result.ErrorCode != 0 {
		return fmt.Errorf("postmark error (%d): %s", result.ErrorCode, result.Message)
	}
	return nil
}
