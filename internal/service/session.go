package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authgate-server/internal/crypto"
	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
)

var sessionTokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Session manages login sessions: opaque token generation, hashed-token
// lookup with expiry and sliding renewal, two-factor elevation and
// invalidation.
type Session struct {
	sessionStore model.SessionStore
	userStore    model.UserStore
	logger       *logger.Logger
}

// NewSession creates a new Session service.
func NewSession(sessionStore model.SessionStore, userStore model.UserStore, logger *logger.Logger) *Session {
	return &Session{
		sessionStore: sessionStore,
		userStore:    userStore,
		logger:       logger,
	}
}

// GenerateToken returns a fresh 20-byte random session token,
// base32-encoded. The token is handed to the client and never persisted.
func (s *Session) GenerateToken() (string, error) {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return strings.ToLower(sessionTokenEncoding.EncodeToString(bytes)), nil
}

// IDFromToken derives the stored session id from a client-held token.
// The derivation is one-way, so ids cannot be forged without the token.
func (s *Session) IDFromToken(token string) string {
	return hex.EncodeToString(crypto.SHA256([]byte(token)))
}

// Create persists a session for the user and returns it with the secret
// token for cookie storage.
func (s *Session) Create(ctx context.Context, userID uuid.UUID, flags model.SessionFlags) (model.Session, string, error) {
	token, err := s.GenerateToken()
	if err != nil {
		return model.Session{}, "", err
	}

	session := model.Session{
		ID:                s.IDFromToken(token),
		UserID:            userID,
		ExpiresAt:         time.Now().Add(model.SessionDuration),
		TwoFactorVerified: flags.TwoFactorVerified,
	}

	created, err := s.sessionStore.Create(ctx, session)
	if err != nil {
		return model.Session{}, "", fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Session service: session created",
		"user_id", userID,
		"two_factor_verified", flags.TwoFactorVerified)

	return created, token, nil
}

// Validate resolves a token to its user and session. Expired sessions are
// deleted on read and reported as ErrNotFound; sessions within the
// renewal window of expiry are extended as a side effect.
func (s *Session) Validate(ctx context.Context, token string) (model.Identity, error) {
	id := s.IDFromToken(token)

	session, err := s.sessionStore.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get session: %w", err)
	}

	user, err := s.userStore.GetByID(ctx, session.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, model.ErrNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get session user: %w", err)
	}

	now := time.Now()
	if session.ExpiresAt.Before(now) {
		if err := s.sessionStore.Delete(ctx, id); err != nil {
			return model.Identity{}, fmt.Errorf("failed to delete expired session: %w", err)
		}
		s.logger.Debug("Session service: expired session deleted", "user_id", session.UserID)
		return model.Identity{}, model.ErrNotFound
	}

	if session.ExpiresAt.Before(now.Add(model.SessionRenewalWindow)) {
		session.ExpiresAt = now.Add(model.SessionDuration)
		if err := s.sessionStore.UpdateExpiresAt(ctx, id, session.ExpiresAt); err != nil {
			return model.Identity{}, fmt.Errorf("failed to extend session: %w", err)
		}
	}

	return model.Identity{User: user, Session: session}, nil
}

// SetTwoFactorVerified marks the session as having completed its second
// factor for the current login lifetime.
func (s *Session) SetTwoFactorVerified(ctx context.Context, sessionID string) error {
	if err := s.sessionStore.SetTwoFactorVerified(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to set session two factor verified: %w", err)
	}
	return nil
}

// Invalidate deletes a single session.
func (s *Session) Invalidate(ctx context.Context, sessionID string) error {
	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// InvalidateAllForUser deletes every session belonging to the user, e.g.
// after a password change.
func (s *Session) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessionStore.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	s.logger.Info("Session service: all sessions invalidated", "user_id", userID)
	return nil
}
