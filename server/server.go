package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/experina/storefront/internal/config"
	"github.com/experina/storefront/internal/handlers"
	uiassets "github.com/experina/storefront/ui/assets"
)

const (
	readTimeout       = 15 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 1 << 20
)

// Server serves the storefront pages, cart and checkout forms, probes and
// static assets on a single listener.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(logger.With("component", "http_server").Handler(), slog.LevelWarn),
	}

	return s, nil
}

// Run serves until Close is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("storefront listening", "port", s.cfg.Port, "base_url", s.cfg.BaseURL)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	r.HandleFunc("/health-check/", h.HealthCheck).Methods(http.MethodGet).Name("health_check")
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet).Name("readyz")
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", uiassets.Handler())).Methods(http.MethodGet, http.MethodHead).Name("assets")

	shop := r.NewRoute().Subrouter()
	shop.Use(h.SessionMiddleware)
	shop.Use(h.MetricsContext)
	shop.Use(h.RequireSameOrigin)
	registerCatalogRoutes(shop, h)
	registerCartRoutes(shop, h)
	registerOrderRoutes(shop, h)

	return r
}

func registerCatalogRoutes(r *mux.Router, h *handlers.Handlers) {
	r.HandleFunc("/", h.Home).Methods(http.MethodGet).Name("homepage")
	r.HandleFunc("/about/", h.About).Methods(http.MethodGet).Name("about")
	r.HandleFunc("/contact/", h.Contact).Methods(http.MethodGet).Name("contact")
	r.HandleFunc("/search/", h.Search).Methods(http.MethodGet).Name("search")
	r.HandleFunc("/category/{slug}/", h.Category).Methods(http.MethodGet).Name("category")
	r.HandleFunc("/product/{slug}/", h.Product).Methods(http.MethodGet).Name("product")
}

// Cart mutations are POST-only and keyed by product id.
func registerCartRoutes(r *mux.Router, h *handlers.Handlers) {
	r.HandleFunc("/cart/detail/", h.CartDetail).Methods(http.MethodGet).Name("cart.detail")
	r.HandleFunc("/cart/add/{id:[0-9]+}/", h.CartAdd).Methods(http.MethodPost).Name("cart.add")
	r.HandleFunc("/cart/update/{id:[0-9]+}/", h.CartUpdate).Methods(http.MethodPost).Name("cart.update")
	r.HandleFunc("/cart/remove/{id:[0-9]+}/", h.CartRemove).Methods(http.MethodPost).Name("cart.remove")
}

func registerOrderRoutes(r *mux.Router, h *handlers.Handlers) {
	r.HandleFunc("/order/", h.OrderForm).Methods(http.MethodGet).Name("order.create")
	r.HandleFunc("/order/", h.OrderCreate).Methods(http.MethodPost).Name("order.submit")
}
