package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
)

// Challenge issues and consumes single-use per-user WebAuthn challenges.
type Challenge struct {
	store  model.ChallengeStore
	logger *logger.Logger
}

// NewChallenge creates a new Challenge service.
func NewChallenge(store model.ChallengeStore, logger *logger.Logger) *Challenge {
	return &Challenge{store: store, logger: logger}
}

// Issue discards any live challenge for the user, stores a fresh
// 32-byte random challenge with a 5-minute TTL and returns it
// base64url-encoded.
func (c *Challenge) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate challenge: %w", err)
	}
	challenge := base64.RawURLEncoding.EncodeToString(bytes)

	if err := c.store.DeleteByUserID(ctx, userID); err != nil {
		return "", fmt.Errorf("failed to delete prior challenges: %w", err)
	}

	err := c.store.Create(ctx, model.WebAuthnChallenge{
		Challenge: challenge,
		UserID:    userID,
		ExpiresAt: time.Now().Add(model.ChallengeDuration),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create challenge: %w", err)
	}

	c.logger.Debug("Challenge service: challenge issued", "user_id", userID)
	return challenge, nil
}

// Consume atomically deletes the live challenge matching both value and
// user and reports whether it existed. A false result covers expired,
// already-consumed and never-issued challenges alike.
func (c *Challenge) Consume(ctx context.Context, challenge string, userID uuid.UUID) (bool, error) {
	consumed, err := c.store.Consume(ctx, challenge, userID)
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return consumed, nil
}
