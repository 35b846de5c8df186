package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/experina/storefront/internal/catalog"
	"github.com/experina/storefront/internal/config"
	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/services"
	"github.com/experina/storefront/internal/session"
	"github.com/experina/storefront/ui/views"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers provides HTTP request handlers for the storefront.
type Handlers struct {
	config         *config.Config
	db             Pinger
	sessionManager *session.Manager
	catalog        *services.CatalogService
	carts          *services.CartService
	checkout       *services.CheckoutService
	pricer         *catalog.Pricer
	logger         *slog.Logger
}

type Dependencies struct {
	Config         *config.Config
	DB             Pinger
	SessionManager *session.Manager
	Catalog        *services.CatalogService
	Carts          *services.CartService
	Checkout       *services.CheckoutService
	Pricer         *catalog.Pricer
	Logger         *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.SessionManager == nil {
		return nil, fmt.Errorf("handlers dependencies: sessionManager is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("handlers dependencies: catalog is required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("handlers dependencies: carts is required")
	}
	if deps.Checkout == nil {
		return nil, fmt.Errorf("handlers dependencies: checkout is required")
	}

	pricer := deps.Pricer
	if pricer == nil {
		pricer = catalog.NewPricer()
	}

	return &Handlers{
		config:         deps.Config,
		db:             deps.DB,
		sessionManager: deps.SessionManager,
		catalog:        deps.Catalog,
		carts:          deps.Carts,
		checkout:       deps.Checkout,
		pricer:         pricer,
		logger:         logger.With("component", "handlers"),
	}, nil
}

// HealthCheck answers liveness probes with a fixed payload.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"response": "ok",
	}); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode health response", "error", err)
	}
}

// Readyz reports whether the database accepts connections.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database readiness check failed", "error", err)
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	}); err != nil {
		logger.Error("failed to encode readiness response", "error", err)
	}
}

// SessionMiddleware adds the visitor session to the request context.
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return h.sessionManager.Middleware(next)
}

// NotFound renders the storefront 404 page.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusNotFound, "Page not found", views.NotFoundPage())
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) shopName() string {
	if h.config == nil || h.config.ShopName == "" {
		return "Storefront"
	}
	return h.config.ShopName
}

// renderPage wraps content in the shared layout. Rendering the layout pops
// pending flashes, so it must run after any flash for this response is set.
func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, title string, content templ.Component) {
	ctx := r.Context()
	props := h.layoutProps(ctx, title)
	props.Query = r.URL.Query().Get("q")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Layout(props, content).Render(ctx, w); err != nil {
		h.loggerFromContext(ctx).Error("failed to render page", "title", title, "error", err)
	}
}

func (h *Handlers) layoutProps(ctx context.Context, title string) views.LayoutProps {
	props := views.LayoutProps{
		Title:    title,
		ShopName: h.shopName(),
	}

	if h.catalog != nil {
		categories, err := h.catalog.Categories(ctx)
		if err != nil {
			h.loggerFromContext(ctx).Warn("failed to load navigation categories", "error", err)
		}
		props.Categories = categories
	}

	sess := session.FromContext(ctx)
	if sess == nil {
		return props
	}
	if h.carts != nil {
		props.CartCount = h.carts.Load(ctx, sess).Len()
	}
	for _, flash := range sess.PopFlashes() {
		props.Flashes = append(props.Flashes, views.Flash{Level: flash.Level, Message: flash.Message})
	}
	return props
}

// handleError maps service errors to storefront responses.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrCategoryNotFound):
		h.NotFound(w, r)
	case errors.Is(err, services.ErrInvalidQuantity), errors.Is(err, services.ErrInvalidSelection):
		h.renderPage(w, r, http.StatusBadRequest, "Bad request", views.ErrorPage("The request could not be processed."))
	default:
		h.loggerFromContext(r.Context()).Error("request failed", "error", err)
		h.renderPage(w, r, http.StatusInternalServerError, "Error", views.ErrorPage("Please try again later."))
	}
}
