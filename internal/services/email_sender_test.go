package services

import (
	"context"
	"strings"
	"testing"

	"github.com/experina/storefront/internal/email"
	"github.com/experina/storefront/internal/models"
)

type capturingProvider struct {
	sent []*email.Email
}

func (p *capturingProvider) SendEmail(_ context.Context, message *email.Email) error {
	p.sent = append(p.sent, message)
	return nil
}

func newTestSender(t *testing.T, provider email.Provider, admins ...string) *ShopOrderEmailSender {
	t.Helper()

	renderer, err := email.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return NewShopOrderEmailSender(provider, renderer, OrderEmailConfig{
		From:        "shop@example.com",
		AdminEmails: admins,
		ShopName:    "Club Shop",
		BaseURL:     "https://shop.example.com/",
	}, nil)
}

func TestShopOrderEmailSender_Confirmation(t *testing.T) {
	t.Parallel()

	provider := &capturingProvider{}
	sender := newTestSender(t, provider)

	if err := sender.SendOrderConfirmation(context.Background(), testOrder()); err != nil {
		t.Fatalf("SendOrderConfirmation() error = %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}

	message := provider.sent[0]
	if message.From != "shop@example.com" || len(message.To) != 1 || message.To[0] != "ana@example.com" {
		t.Fatalf("unexpected envelope from=%q to=%v", message.From, message.To)
	}
	if message.Tag != email.TemplateOrderConfirmation || message.Metadata["order_id"] != "7" || message.ReplyTo != "" {
		t.Fatalf("unexpected tag=%q metadata=%v reply-to=%q", message.Tag, message.Metadata, message.ReplyTo)
	}
	if message.Subject != "Order no. #07 successfully registered" {
		t.Fatalf("subject = %q", message.Subject)
	}
	if !strings.Contains(message.Text, "Hi Ana,") || !strings.Contains(message.Text, "€ 20.00") {
		t.Fatalf("text body missing greeting or total:\n%s", message.Text)
	}
}

func TestShopOrderEmailSender_Notification(t *testing.T) {
	t.Parallel()

	provider := &capturingProvider{}
	sender := newTestSender(t, provider, " ops@example.com ", "", "sales@example.com")

	if err := sender.SendOrderNotification(context.Background(), testOrder()); err != nil {
		t.Fatalf("SendOrderNotification() error = %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}
	message := provider.sent[0]
	if len(message.To) != 2 || message.To[0] != "ops@example.com" {
		t.Fatalf("unexpected recipients %v", message.To)
	}
	if message.ReplyTo != "ana@example.com" || message.Tag != email.TemplateOrderNotification {
		t.Fatalf("unexpected reply-to=%q tag=%q", message.ReplyTo, message.Tag)
	}
	if !strings.Contains(message.Text, "Ana Silva (ana@example.com)") || !strings.Contains(message.Text, "of total value: € 20.00") {
		t.Fatalf("notification body missing customer or total:\n%s", message.Text)
	}
}

func TestShopOrderEmailSender_SkipsWithoutRecipientsOrProvider(t *testing.T) {
	t.Parallel()

	provider := &capturingProvider{}
	if err := newTestSender(t, provider).SendOrderNotification(context.Background(), testOrder()); err != nil {
		t.Fatalf("SendOrderNotification() without admins error = %v", err)
	}
	if len(provider.sent) != 0 {
		t.Fatal("no email expected without admin recipients")
	}

	if err := newTestSender(t, nil, "ops@example.com").SendOrderConfirmation(context.Background(), testOrder()); err != nil {
		t.Fatalf("disabled provider should be a no-op, got %v", err)
	}
}

func TestShopOrderEmailSender_MissingCustomerEmail(t *testing.T) {
	t.Parallel()

	order := testOrder()
	order.Email = ""
	if err := newTestSender(t, &capturingProvider{}).SendOrderConfirmation(context.Background(), order); err == nil {
		t.Fatal("expected error for order without customer email")
	}
}

func TestBuildOrderInfo_ItemOptions(t *testing.T) {
	t.Parallel()

	order := testOrder()
	order.Items = append(order.Items, models.OrderItem{
		ProductName: "Club Scarf",
		Size:        "L",
		CustomImage: "Club logo",
		Quantity:    1,
		UnitPrice:   price("15.5", 1, 1).Amount,
	})

	info := BuildOrderInfo(order, "Club Shop", "https://shop.example.com/")
	if info.ShopURL != "https://shop.example.com" {
		t.Fatalf("shop url = %q", info.ShopURL)
	}
	if info.Total != "€ 35.50" {
		t.Fatalf("total = %q, want € 35.50", info.Total)
	}
	if got := info.Items[1].Options; got != "Size: L, Image: Club logo" {
		t.Fatalf("options = %q", got)
	}
	if info.Items[1].UnitPrice != "€ 15.50" {
		t.Fatalf("unit price = %q", info.Items[1].UnitPrice)
	}
}
