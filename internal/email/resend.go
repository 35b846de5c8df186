package email

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	resend "github.com/resend/resend-go/v3"
)

// ResendProvider sends through the Resend SDK. Tag and Metadata become
// Resend tags, which only accept ASCII letters, digits, underscores and dashes.
type ResendProvider struct {
	from   string
	client *resend.Client
}

func NewResendProvider(apiKey, from string, httpClient *http.Client) *ResendProvider {
	client := resend.NewClient(apiKey)
	if httpClient != nil {
		client = resend.NewCustomClient(httpClient, apiKey)
	}
	return &ResendProvider{from: from, client: client}
}

func (r *ResendProvider) SendEmail(ctx context.Context, email *Email) error {
	if err := email.validate(); err != nil {
		return err
	}
	if r.client == nil {
		return fmt.Errorf("resend client not configured")
	}

	sent, err := r.client.Emails.SendWithContext(ctx, resendRequest(email, r.from))
	if err != nil {
		return fmt.Errorf("failed to send email via resend: %w", err)
	}
	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend accepted the request without a message id")
	}
	return nil
}

func resendRequest(email *Email, defaultFrom string) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    firstNonEmpty(email.From, defaultFrom),
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}
	if email.Tag != "" {
		req.Tags = append(req.Tags, resend.Tag{Name: "category", Value: resendTagValue(email.Tag)})
	}

	keys := make([]string, 0, len(email.Metadata))
	for key := range email.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		req.Tags = append(req.Tags, resend.Tag{
			Name:  resendTagValue(key),
			Value: resendTagValue(email.Metadata[key]),
		})
	}
	return req
}

func resendTagValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, value)
}
