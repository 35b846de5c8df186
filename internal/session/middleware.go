package session

import (
	"context"
	"net/http"

	"github.com/experina/storefront/internal/logging"
)

type contextKey string

const ctxKey contextKey = "session"

// Middleware loads the session into the request context and saves it when
// modified. The save runs before the response header is written so new
// sessions can still set their cookie, and once more after the handler for
// changes made after the header went out.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.Load(r.Context(), r)
		ctx := logging.With(WithSession(r.Context(), sess), m.logger, "session_new", sess.IsNew())
		r = r.WithContext(ctx)

		cw := &committingWriter{ResponseWriter: w, commit: func() {
			m.commit(ctx, w, sess)
		}}
		next.ServeHTTP(cw, r)

		if sess.Modified() {
			if cw.wroteHeader {
				m.commit(ctx, nil, sess)
			} else {
				cw.commitOnce()
			}
		}
	})
}

func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, sess *Session) {
	if err := m.Save(ctx, w, sess); err != nil {
		logging.FromContext(ctx, m.logger).Error("failed to save session", "error", err)
	}
}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey, sess)
}

// FromContext retrieves the session from the request context.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	sess, ok := ctx.Value(ctxKey).(*Session)
	if !ok {
		return nil
	}
	return sess
}

type committingWriter struct {
	http.ResponseWriter
	commit      func()
	committed   bool
	wroteHeader bool
}

func (w *committingWriter) commitOnce() {
	if w.committed {
		return
	}
	w.committed = true
	w.commit()
}

func (w *committingWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.commitOnce()
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *committingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
