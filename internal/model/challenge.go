package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChallengeDuration is the TTL of an issued WebAuthn challenge.
const ChallengeDuration = 5 * time.Minute

// ChallengeStore persists single-use per-user WebAuthn challenges.
//
// Consume must be atomic with respect to concurrent calls for the same
// user: at most one caller may observe success for a given row.
type ChallengeStore interface {
	Create(ctx context.Context, challenge WebAuthnChallenge) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// Consume deletes the non-expired row matching both challenge value
	// and user and reports whether such a row existed.
	Consume(ctx context.Context, challenge string, userID uuid.UUID) (bool, error)
}

// WebAuthnChallenge is the anti-replay anchor of a ceremony: issued,
// stored, then deleted exactly once on successful verification.
type WebAuthnChallenge struct {
	Challenge string
	UserID    uuid.UUID
	ExpiresAt time.Time
}
