package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/experina/storefront/internal/cache"
	"github.com/experina/storefront/internal/catalog"
	"github.com/experina/storefront/internal/config"
	"github.com/experina/storefront/internal/db"
	"github.com/experina/storefront/internal/email"
	"github.com/experina/storefront/internal/handlers"
	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/services"
	"github.com/experina/storefront/internal/session"
)

const sentryFlushTimeout = 2 * time.Second

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *pgxpool.Pool
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Notifier       *services.NotificationDispatcher
	Handlers       *handlers.Handlers

	sentryEnabled bool
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled, err := initSentry(cfg)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, sentryEnabled)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		flushSentry(sentryEnabled)
		return nil, err
	}

	a := &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		sentryEnabled: sentryEnabled,
	}
	if err := a.init(startupCtx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	if cfg.DBApplySchema {
		if err := db.ApplySchema(ctx, a.DB); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	catalogStore := db.NewCatalogStore(a.DB)
	orderStore := db.NewOrderStore(a.DB)

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:      cfg.CacheProvider,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize cache provider: %w", err)
	}
	a.CacheProvider = cacheProvider

	pricer := catalog.NewPricer()
	catalogService := services.NewCatalogService(catalogStore, cacheProvider, cfg.CatalogCacheTTL, pricer, logger.With("component", "catalog_service"))

	if path := strings.TrimSpace(cfg.CatalogSeedFile); path != "" {
		importer := catalog.NewImporter(catalogStore, logger.With("component", "catalog_importer"))
		if err := importer.ImportFile(ctx, path); err != nil {
			return fmt.Errorf("failed to import catalog seed: %w", err)
		}
		// Shared caches may still hold the previous catalog.
		if err := catalogService.InvalidateCache(ctx); err != nil {
			logger.Warn("catalog cache not invalidated after seed", "error", err)
		}
	}

	sessionStore, err := session.NewStore(ctx, session.Config{
		Provider:      cfg.SessionStoreProvider,
		Capacity:      cfg.SessionCapacity,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	a.SessionManager = session.NewManager(sessionStore, cfg.SecureCookies(), logger.With("component", "session"))

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.EmailAPIKey,
		From:     cfg.EmailFrom,
		Domain:   cfg.MailgunDomain,
		BaseURL:  cfg.MailgunBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize email provider: %w", err)
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to initialize email templates: %w", err)
	}
	if emailProvider == nil {
		logger.Info("email delivery disabled", "provider", cfg.EmailProvider)
	}

	orderEmailer := services.NewShopOrderEmailSender(emailProvider, renderer, services.OrderEmailConfig{
		From:        cfg.EmailFrom,
		AdminEmails: cfg.AdminEmails,
		ShopName:    cfg.ShopName,
		BaseURL:     cfg.BaseURL,
	}, logger.With("component", "order_emailer"))
	a.Notifier = services.NewNotificationDispatcher(orderEmailer, services.DispatcherConfig{
		Workers:     cfg.NotificationWorkers,
		QueueSize:   cfg.NotificationQueueSize,
		MaxAttempts: cfg.NotificationMaxAttempts,
	}, logger.With("component", "notifier"))

	cartService := services.NewCartService(catalogStore, pricer, logger.With("component", "cart_service"))
	checkoutService := services.NewCheckoutService(cartService, orderStore, a.Notifier, logger.With("component", "checkout_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:         cfg,
		DB:             a.DB,
		SessionManager: a.SessionManager,
		Catalog:        catalogService,
		Carts:          cartService,
		Checkout:       checkoutService,
		Pricer:         pricer,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize handlers: %w", err)
	}
	a.Handlers = h
	return nil
}

// Close drains pending notifications and releases resources in reverse
// start order.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := a.Notifier.Close(ctx); err != nil {
			a.Logger.Warn("notifications still pending at shutdown", "error", err)
		}
		cancel()
	}
	if a.SessionManager != nil {
		closeSessionManager(a.Logger, a.SessionManager)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	flushSentry(a.sentryEnabled)
}

func initSentry(cfg *config.Config) (bool, error) {
	if strings.TrimSpace(cfg.SentryDSN) == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.SentryEnvironment,
		EnableTracing:    cfg.SentryTracesSampleRate > 0,
		TracesSampleRate: cfg.SentryTracesSampleRate,
		EnableLogs:       true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

func flushSentry(enabled bool) {
	if enabled {
		sentry.Flush(sentryFlushTimeout)
	}
}

func newLogger(cfg *config.Config, sentryEnabled bool) *slog.Logger {
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	default:
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if sentryEnabled {
		handler = logging.MultiHandler(handler, sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelError},
			LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
		}.NewSentryHandler(context.Background()))
	}
	return slog.New(handler)
}

func closeSessionManager(logger *slog.Logger, manager *session.Manager) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil && logger != nil {
		logger.Warn("failed to close session manager", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
