package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/sessions"
)

type contextKey struct{}

// Session resolves the X-Session-ID header into the caller's UI session.
func Session(registry *sessions.Registry) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(sessions.Header)
			if id == "" {
				writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-ID header is required")
				return
			}
			session, ok := registry.Get(id)
			if !ok {
				writeError(w, http.StatusNotFound, "UNKNOWN_SESSION", "session not found or expired")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession stores session in ctx.
func WithSession(ctx context.Context, session *views.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// SessionFrom returns the session stored by the Session middleware.
func SessionFrom(ctx context.Context) (*views.Session, bool) {
	session, ok := ctx.Value(contextKey{}).(*views.Session)
	return session, ok
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    code,
		"message": message,
	})
}
