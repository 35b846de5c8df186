package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/experina/storefront/internal/email"
	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/models"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendOrderNotification(ctx context.Context, order *models.Order) error
}

type OrderEmailConfig struct {
	From        string
	AdminEmails []string
	ShopName    string
	BaseURL     string
}

// ShopOrderEmailSender renders order templates and hands them to the
// configured provider. A nil provider means email is disabled.
type ShopOrderEmailSender struct {
	provider email.Provider
	renderer *email.Renderer
	config   OrderEmailConfig
	logger   *slog.Logger
}

func NewShopOrderEmailSender(provider email.Provider, renderer *email.Renderer, config OrderEmailConfig, logger *slog.Logger) *ShopOrderEmailSender {
	admins := make([]string, 0, len(config.AdminEmails))
	for _, address := range config.AdminEmails {
		if address = strings.TrimSpace(address); address != "" {
			admins = append(admins, address)
		}
	}
	config.AdminEmails = admins

	return &ShopOrderEmailSender{
		provider: provider,
		renderer: renderer,
		config:   config,
		logger:   logger,
	}
}

func (s *ShopOrderEmailSender) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *ShopOrderEmailSender) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	recipient := strings.TrimSpace(order.Email)
	if recipient == "" {
		return fmt.Errorf("order %s has no customer email", order.Number())
	}
	return s.send(ctx, email.TemplateOrderConfirmation, order, []string{recipient}, s.adminReplyTo())
}

func (s *ShopOrderEmailSender) SendOrderNotification(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if len(s.config.AdminEmails) == 0 {
		s.loggerFromContext(ctx).Debug("no admin recipients configured, skipping order notification", "order", order.Number())
		return nil
	}
	// Staff replies go straight to the customer.
	return s.send(ctx, email.TemplateOrderNotification, order, s.config.AdminEmails, strings.TrimSpace(order.Email))
}

func (s *ShopOrderEmailSender) adminReplyTo() string {
	if len(s.config.AdminEmails) == 0 {
		return ""
	}
	return s.config.AdminEmails[0]
}

func (s *ShopOrderEmailSender) send(ctx context.Context, templateName string, order *models.Order, to []string, replyTo string) error {
	if s.provider == nil {
		s.loggerFromContext(ctx).Info("email disabled, skipping order email", "template", templateName, "order", order.Number())
		return nil
	}
	if s.renderer == nil {
		return fmt.Errorf("email renderer is not configured")
	}

	message, err := s.renderer.Render(templateName, BuildOrderInfo(order, s.config.ShopName, s.config.BaseURL))
	if err != nil {
		return fmt.Errorf("failed to render %s email: %w", templateName, err)
	}
	message.From = s.config.From
	message.To = to
	message.ReplyTo = replyTo
	message.Tag = templateName
	message.Metadata = map[string]string{"order_id": strconv.FormatInt(order.ID, 10)}

	if err := s.provider.SendEmail(ctx, message); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	return nil
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendOrderNotification(context.Context, *models.Order) error {
	return nil
}
