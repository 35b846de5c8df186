package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"

	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/models"
	"github.com/experina/storefront/internal/observability"
	"github.com/experina/storefront/internal/session"
)

type orderWriter interface {
	CreateWithItems(ctx context.Context, order *models.Order) error
}

type orderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
}

// CheckoutInput is the submitted order form. Form tags name the fields in
// validation errors.
type CheckoutInput struct {
	FirstName  string `form:"first_name" validate:"required,max=50"`
	LastName   string `form:"last_name" validate:"required,max=50"`
	Email      string `form:"email" validate:"required,email,max=254"`
	Address    string `form:"address" validate:"required,max=250"`
	PostalCode string `form:"postal_code" validate:"required,max=20"`
	City       string `form:"city" validate:"required,max=100"`
	Remarks    string `form:"remarks" validate:"max=250"`
}

func (in CheckoutInput) trimmed() CheckoutInput {
	return CheckoutInput{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Address:    strings.TrimSpace(in.Address),
		PostalCode: strings.TrimSpace(in.PostalCode),
		City:       strings.TrimSpace(in.City),
		Remarks:    strings.TrimSpace(in.Remarks),
	}
}

type CheckoutService struct {
	carts    *CartService
	orders   orderWriter
	notifier orderNotifier
	validate *validator.Validate
	logger   *slog.Logger
}

func NewCheckoutService(carts *CartService, orders orderWriter, notifier orderNotifier, logger *slog.Logger) *CheckoutService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Checkout turns the session cart into a persisted order. The cart is cleared
// only after the order and all its items are committed; notifications are
// handed off afterwards and cannot fail the checkout.
func (s *CheckoutService) Checkout(ctx context.Context, sess *session.Session, input CheckoutInput) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("Checkout"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	start := time.Now()
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		span.Status = sentry.SpanStatusInternalError
		meter.Count("checkout.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}
	meter.Count("checkout.started", 1)

	c := s.carts.Load(ctx, sess)
	if c.IsEmpty() {
		recordFailure("empty_cart")
		return nil, ErrEmptyCart
	}

	input = input.trimmed()
	if err := s.validateInput(input); err != nil {
		recordFailure("invalid_input")
		return nil, err
	}

	lines, err := s.carts.Lines(ctx, c)
	if err != nil {
		recordFailure("cart_lines_failed")
		return nil, err
	}

	order := &models.Order{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Address:    input.Address,
		PostalCode: input.PostalCode,
		City:       input.City,
		Remarks:    input.Remarks,
		Items:      make([]models.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		order.Items = append(order.Items, orderItemFromLine(line))
	}

	if err := s.orders.CreateWithItems(ctx, order); err != nil {
		recordFailure("persist_failed")
		logger.Error("failed to persist order", "error", err, "items", len(order.Items))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.carts.Clear(ctx, sess); err != nil {
		logger.Error("order created but cart could not be cleared", "error", err, "order", order.Number())
	}

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, order)
	}

	span.Status = sentry.SpanStatusOK
	meter.Count("checkout.completed", 1, sentry.WithAttributes(
		attribute.Int("items", len(order.Items)),
	))
	meter.Distribution("checkout.duration", float64(time.Since(start).Milliseconds()), sentry.WithUnit(sentry.UnitMillisecond))
	observability.ObserveAmount(ctx, "checkout.order_value", order.Total(), attribute.Int("items", len(order.Items)))
	logger.Info("order created", "order", order.Number(), "items", len(order.Items), "total", order.Total().StringFixed(2))
	return order, nil
}

func (s *CheckoutService) validateInput(input CheckoutInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("failed to validate order form: %w", err)
	}

	validationErr := &ValidationError{}
	for _, fe := range fieldErrors {
		validationErr.add(fe.Field(), fieldMessage(fe))
	}
	if validationErr.empty() {
		return nil
	}
	return validationErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	default:
		return "Enter a valid value."
	}
}

// orderItemFromLine copies a cart line into an order item, preferring the
// live product's name and image over the snapshots taken at add time.
func orderItemFromLine(line CartLine) models.OrderItem {
	item := models.OrderItem{
		ProductName: line.Name(),
		Size:        line.Size,
		Color:       line.Color,
		CustomImage: line.CustomImage,
		CustomColor: line.CustomColor,
		UnitPrice:   line.UnitPrice,
		Quantity:    line.Quantity,
		Image:       line.ImageURL(),
	}
	if line.Product != nil {
		id := line.Product.ID
		item.ProductID = &id
	}
	return item
}
