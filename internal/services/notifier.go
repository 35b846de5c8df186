package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go/attribute"

	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/models"
	"github.com/experina/storefront/internal/observability"
)

type notificationKind string

const (
	notifyCustomer  notificationKind = "order_confirmation"
	notifyOperators notificationKind = "order_notification"
)

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	SendTimeout time.Duration
	// InlineTimeout bounds the single attempt made on the caller's goroutine
	// when the queue cannot take a job.
	InlineTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.InlineTimeout <= 0 {
		c.InlineTimeout = min(10*time.Second, c.SendTimeout)
	}
	return c
}

type notificationJob struct {
	kind   notificationKind
	order  *models.Order
	logger *slog.Logger
}

// NotificationDispatcher delivers order emails off the request path. Each job
// is retried with linear backoff; failures are logged and never reach the
// caller. When the queue is full the job gets one inline attempt.
type NotificationDispatcher struct {
	sender OrderEmailSender
	config DispatcherConfig
	logger *slog.Logger

	// ctx is shared by the workers and canceled when Close gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc

	jobs   chan notificationJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewNotificationDispatcher(sender OrderEmailSender, config DispatcherConfig, logger *slog.Logger) *NotificationDispatcher {
	if sender == nil {
		sender = noopOrderEmailSender{}
	}
	config = config.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	d := &NotificationDispatcher{
		sender: sender,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(chan notificationJob, config.QueueSize),
	}
	for range config.Workers {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// OrderPlaced queues the customer confirmation and the operator notification.
func (d *NotificationDispatcher) OrderPlaced(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	snapshot := *order
	snapshot.Items = append([]models.OrderItem(nil), order.Items...)

	logger := logging.FromContext(ctx, d.logger).With("order", snapshot.Number())
	d.enqueue(ctx, notificationJob{kind: notifyCustomer, order: &snapshot, logger: logger})
	d.enqueue(ctx, notificationJob{kind: notifyOperators, order: &snapshot, logger: logger})
}

func (d *NotificationDispatcher) enqueue(ctx context.Context, job notificationJob) {
	d.mu.RLock()
	if !d.closed {
		select {
		case d.jobs <- job:
			d.mu.RUnlock()
			return
		default:
		}
	}
	d.mu.RUnlock()

	job.logger.Warn("notification queue unavailable, sending inline", "kind", string(job.kind))
	d.deliver(context.WithoutCancel(ctx), job, 1, d.config.InlineTimeout)
}

func (d *NotificationDispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.deliver(d.ctx, job, d.config.MaxAttempts, d.config.SendTimeout)
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, job notificationJob, maxAttempts int, timeout time.Duration) {
	start := time.Now()
	kind := attribute.String("kind", string(job.kind))

	var err error
	attempt := 0
attempts:
	for attempt < maxAttempts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
			break
		}
		attempt++
		err = d.send(ctx, job, timeout)
		if err == nil {
			observability.Count(ctx, "notification.sent", kind)
			observability.ObserveSince(ctx, "notification.duration", start, kind)
			job.logger.Info("order email sent", "kind", string(job.kind), "attempt", attempt)
			return
		}

		job.logger.Warn("order email attempt failed", "kind", string(job.kind), "attempt", attempt, "error", err)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
			break attempts
		case <-time.After(d.config.Backoff * time.Duration(attempt)):
		}
	}

	observability.Count(ctx, "notification.failed", kind)
	job.logger.Error("giving up on order email", "kind", string(job.kind), "attempts", attempt, "error", err)
}

func (d *NotificationDispatcher) send(ctx context.Context, job notificationJob, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, job.logger)

	switch job.kind {
	case notifyCustomer:
		return d.sender.SendOrderConfirmation(ctx, job.order)
	case notifyOperators:
		return d.sender.SendOrderNotification(ctx, job.order)
	default:
		return fmt.Errorf("unknown notification kind: %s", job.kind)
	}
}

// Close stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, in-flight sends and backoffs are canceled and the remaining
// jobs are dropped.
func (d *NotificationDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return errors.Join(errors.New("notification queue not drained"), ctx.Err())
	}
}
