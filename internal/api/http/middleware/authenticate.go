package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
)

// SessionValidator resolves a session token to the acting user and
// session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (model.Identity, error)
}

// SessionCookieName is the cookie holding the client's secret session
// token.
const SessionCookieName = "session"

// Authenticate resolves the session cookie and injects the identity into
// the request context. Requests without a valid session are rejected
// before any ceremony logic runs.
type Authenticate struct {
	sessions       SessionValidator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(sessions SessionValidator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{sessions: sessions, contextManager: contextManager, logger: logger}
}

// Handle wraps protected routes.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			m.reject(w, "no session token provided")
			return
		}

		identity, err := m.sessions.Validate(r.Context(), cookie.Value)
		if err != nil {
			m.reject(w, "invalid or expired session")
			return
		}

		ctx := m.contextManager.SetIdentityToContext(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Authenticate) reject(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
