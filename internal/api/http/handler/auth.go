package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/service"
)

// AuthService covers password-based account operations.
type AuthService interface {
	Signup(ctx context.Context, email, name, password string) (service.LoginResult, error)
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	ChangePassword(ctx context.Context, identity model.Identity, currentPassword, newPassword string) (service.LoginResult, error)
}

// Auth handles signup, login and password change requests.
type Auth struct {
	service        AuthService
	contextManager model.ContextManager
	cookies        CookieConfig
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler instance.
func NewAuth(service AuthService, contextManager model.ContextManager, cookies CookieConfig, logger *logger.Logger) *Auth {
	return &Auth{
		service:        service,
		contextManager: contextManager,
		cookies:        cookies,
		logger:         logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Name                  string `json:"name"`
	EmailVerified         bool   `json:"emailVerified"`
	RegisteredTOTP        bool   `json:"registeredTOTP"`
	RegisteredPasskey     bool   `json:"registeredPasskey"`
	RegisteredSecurityKey bool   `json:"registeredSecurityKey"`
	Registered2FA         bool   `json:"registered2FA"`
}

type sessionResponse struct {
	ID                string `json:"id"`
	ExpiresAt         string `json:"expiresAt"`
	TwoFactorVerified bool   `json:"twoFactorVerified"`
}

type loginResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:                    u.ID.String(),
		Email:                 u.Email,
		Name:                  u.Name,
		EmailVerified:         u.EmailVerified,
		RegisteredTOTP:        u.RegisteredTOTP,
		RegisteredPasskey:     u.RegisteredPasskey,
		RegisteredSecurityKey: u.RegisteredSecurityKey,
		Registered2FA:         u.Registered2FA,
	}
}

func toSessionResponse(s model.Session) sessionResponse {
	return sessionResponse{
		ID:                s.ID,
		ExpiresAt:         s.ExpiresAt.UTC().Format(time.RFC3339),
		TwoFactorVerified: s.TwoFactorVerified,
	}
}

// Signup registers a new account and starts a session for it.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	setSessionCookie(w, h.cookies, result.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusCreated, loginResponse{
		User:    toUserResponse(result.User),
		Session: toSessionResponse(result.Session),
	})
}

// Login authenticates with email and password and starts a session.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	setSessionCookie(w, h.cookies, result.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(result.User),
		Session: toSessionResponse(result.Session),
	})
}

// ChangePassword replaces the password and rotates every session of the
// user, handing back a fresh one.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword)
	if err != nil {
		handleError(w, err)
		return
	}

	setSessionCookie(w, h.cookies, result.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(result.User),
		Session: toSessionResponse(result.Session),
	})
}
