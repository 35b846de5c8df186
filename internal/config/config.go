package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL   string `env:"DATABASE_URL,required" validate:"required"`
	DBApplySchema bool   `env:"DB_APPLY_SCHEMA" envDefault:"false"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"0" validate:"min=0,max=200"`

	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"0" validate:"min=0"`

	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080" validate:"required,url"`
	ShopName string `env:"SHOP_NAME" envDefault:"Storefront" validate:"required,max=100"`

	CacheProvider        string        `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	SessionStoreProvider string        `env:"SESSION_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisAddr            string        `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=CacheProvider redis,required_if=SessionStoreProvider redis"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`
	RedisDB              int           `env:"REDIS_DB" envDefault:"0" validate:"min=0,max=15"`
	SessionCapacity      int           `env:"SESSION_MEMORY_CAPACITY" envDefault:"10000" validate:"min=1"`
	CatalogCacheTTL      time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m" validate:"min=0"`
	CatalogSeedFile      string        `env:"CATALOG_SEED_FILE"`

	EmailProvider  string   `env:"EMAIL_PROVIDER" envDefault:"none" validate:"omitempty,oneof=none postmark mailgun resend"`
	EmailAPIKey    string   `env:"EMAIL_API_KEY"`
	EmailFrom      string   `env:"EMAIL_FROM" validate:"omitempty,email"`
	MailgunDomain  string   `env:"MAILGUN_DOMAIN"`
	MailgunBaseURL string   `env:"MAILGUN_BASE_URL" validate:"omitempty,url"`
	AdminEmails    []string `env:"ADMIN_EMAILS" envSeparator:"," validate:"dive,email"`

	NotificationWorkers     int `env:"NOTIFICATION_WORKERS" envDefault:"2" validate:"min=1,max=32"`
	NotificationQueueSize   int `env:"NOTIFICATION_QUEUE_SIZE" envDefault:"64" validate:"min=1"`
	NotificationMaxAttempts int `env:"NOTIFICATION_MAX_ATTEMPTS" envDefault:"3" validate:"min=1,max=10"`

	SentryDSN              string  `env:"SENTRY_DSN"`
	SentryEnvironment      string  `env:"SENTRY_ENVIRONMENT" envDefault:"development"`
	SentryTracesSampleRate float64 `env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0" validate:"min=0,max=1"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.EmailEnabled() {
		if strings.TrimSpace(c.EmailAPIKey) == "" {
			return fmt.Errorf("EMAIL_API_KEY is required when EMAIL_PROVIDER is %s", c.EmailProvider)
		}
		if strings.TrimSpace(c.EmailFrom) == "" {
			return fmt.Errorf("EMAIL_FROM is required when EMAIL_PROVIDER is %s", c.EmailProvider)
		}
		if c.EmailProvider == "mailgun" && strings.TrimSpace(c.MailgunDomain) == "" {
			return fmt.Errorf("MAILGUN_DOMAIN is required when EMAIL_PROVIDER is mailgun")
		}
	}

	parsed, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("BASE_URL must be a valid absolute URL")
	}
	if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("BASE_URL must use https outside local development")
	}

	return nil
}

func (c *Config) EmailEnabled() bool {
	return c.EmailProvider != "" && c.EmailProvider != "none"
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	parsed, err := url.Parse(strings.TrimSpace(c.BaseURL))
	return err == nil && strings.EqualFold(parsed.Scheme, "https")
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
