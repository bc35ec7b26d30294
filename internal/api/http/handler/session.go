package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
)

// SessionService covers the session lifecycle operations the HTTP surface
// needs.
type SessionService interface {
	Create(ctx context.Context, userID uuid.UUID, flags model.SessionFlags) (model.Session, string, error)
	Validate(ctx context.Context, token string) (model.Identity, error)
	Invalidate(ctx context.Context, sessionID string) error
	InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error
}

// Session handles current-session inspection and logout requests.
type Session struct {
	service        SessionService
	contextManager model.ContextManager
	cookies        CookieConfig
	logger         *logger.Logger
}

// NewSession creates a new Session handler instance.
func NewSession(service SessionService, contextManager model.ContextManager, cookies CookieConfig, logger *logger.Logger) *Session {
	return &Session{
		service:        service,
		contextManager: contextManager,
		cookies:        cookies,
		logger:         logger,
	}
}

// Create rotates the session: a fresh token is issued for the acting
// user carrying over the current elevation state, and the old session is
// invalidated.
func (h *Session) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	session, token, err := h.service.Create(r.Context(), identity.User.ID, model.SessionFlags{
		TwoFactorVerified: identity.Session.TwoFactorVerified,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.service.Invalidate(r.Context(), identity.Session.ID); err != nil {
		handleError(w, err)
		return
	}

	setSessionCookie(w, h.cookies, token, session.ExpiresAt)
	writeJSON(w, http.StatusCreated, loginResponse{
		User:    toUserResponse(identity.User),
		Session: toSessionResponse(session),
	})
}

// Get returns the acting user and session.
func (h *Session) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(identity.User),
		Session: toSessionResponse(identity.Session),
	})
}

// Delete invalidates the current session and clears the cookie.
func (h *Session) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	if err := h.service.Invalidate(r.Context(), identity.Session.ID); err != nil {
		handleError(w, err)
		return
	}

	clearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll invalidates every session of the acting user, including the
// current one.
func (h *Session) DeleteAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	if err := h.service.InvalidateAllForUser(r.Context(), identity.User.ID); err != nil {
		handleError(w, err)
		return
	}

	clearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}
