package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionDuration is the lifetime of a session from creation or renewal.
const SessionDuration = 30 * 24 * time.Hour

// SessionRenewalWindow is how close to expiry a read must be before the
// session is extended by SessionDuration (sliding renewal).
const SessionRenewalWindow = 15 * 24 * time.Hour

// SessionStore persists sessions keyed by their hashed-token id.
type SessionStore interface {
	Create(ctx context.Context, session Session) (Session, error)
	GetByID(ctx context.Context, id string) (Session, error)
	UpdateExpiresAt(ctx context.Context, id string, expiresAt time.Time) error
	SetTwoFactorVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// Session is a server-side login session. ID is hex(sha256(token)) of a
// client-held secret token; the raw token is never persisted, so the id
// cannot be derived without it.
type Session struct {
	ID                string
	UserID            uuid.UUID
	ExpiresAt         time.Time
	TwoFactorVerified bool
}

// SessionFlags are the caller-controlled attributes at session creation.
type SessionFlags struct {
	TwoFactorVerified bool
}
