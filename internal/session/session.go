// Package session provides cookie-backed sessions for storefront visitors.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName = "storefront_session"
	ttl        = 24 * time.Hour
)

// Flash levels.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Data represents the data stored in a session
type Data struct {
	Cart      json.RawMessage `json:"cart,omitempty"`
	Flashes   []Flash         `json:"flashes,omitempty"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
}

// Session is the request-scoped view of a stored session. It is not safe for
// concurrent use; each request loads its own copy and the last save wins.
type Session struct {
	ID       string
	Data     *Data
	isNew    bool
	modified bool
}

func (s *Session) IsNew() bool {
	return s.isNew
}

func (s *Session) Modified() bool {
	return s.modified
}

func (s *Session) Cart() json.RawMessage {
	return s.Data.Cart
}

func (s *Session) SetCart(raw json.RawMessage) {
	s.Data.Cart = raw
	s.modified = true
}

func (s *Session) AddFlash(level, message string) {
	s.Data.Flashes = append(s.Data.Flashes, Flash{Level: level, Message: message})
	s.modified = true
}

// PopFlashes returns and clears pending flashes.
func (s *Session) PopFlashes() []Flash {
	if len(s.Data.Flashes) == 0 {
		return nil
	}
	flashes := s.Data.Flashes
	s.Data.Flashes = nil
	s.modified = true
	return flashes
}

// Manager handles session loading and storage
type Manager struct {
	store  Store
	secure bool
	logger *slog.Logger
}

// Store defines the interface for session storage
type Store interface {
	Get(ctx context.Context, key string) (*Data, bool)
	Set(ctx context.Context, key string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, key string)
	Close() error
}

// NewManager creates a new session manager
func NewManager(store Store, secure bool, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		secure: secure,
		logger: logger,
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Load returns the session referenced by the request cookie, or a fresh
// unsaved session when the cookie is missing, unknown, or expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) *Session {
	if ctx == nil {
		ctx = r.Context()
	}

	cookie, err := r.Cookie(CookieName)
	if err == nil && cookie.Value != "" {
		if data, ok := m.store.Get(ctx, cookie.Value); ok {
			if time.Now().Unix()-data.UpdatedAt <= int64(ttl.Seconds()) {
				return &Session{ID: cookie.Value, Data: data}
			}
			m.store.Delete(ctx, cookie.Value)
		}
	}

	now := time.Now().Unix()
	return &Session{
		ID:    generateSessionID(),
		Data:  &Data{CreatedAt: now, UpdatedAt: now},
		isNew: true,
	}
}

// Save writes a modified session to the store and, for new sessions, sets the
// cookie on w. Unmodified sessions are left alone.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil || !s.modified {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("context is required")
	}

	data := cloneData(s.Data)
	data.UpdatedAt = time.Now().Unix()
	if err := m.store.Set(ctx, s.ID, data, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.Data.UpdatedAt = data.UpdatedAt

	if s.isNew && w != nil {
		http.SetCookie(w, m.cookie(s.ID))
		s.isNew = false
	}
	s.modified = false
	return nil
}

func (m *Manager) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// generateSessionID generates a session ID.
func generateSessionID() string {
	return uuid.NewString()
}

func cloneData(data *Data) *Data {
	if data == nil {
		return nil
	}
	cloned := *data
	if data.Cart != nil {
		cloned.Cart = append(json.RawMessage(nil), data.Cart...)
	}
	if data.Flashes != nil {
		cloned.Flashes = append([]Flash(nil), data.Flashes...)
	}
	return &cloned
}
