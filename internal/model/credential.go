package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasskeyCredentialStore persists WebAuthn public-key credentials.
type PasskeyCredentialStore interface {
	Create(ctx context.Context, credential PasskeyCredential) (PasskeyCredential, error)
	GetByID(ctx context.Context, id string) (PasskeyCredential, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]PasskeyCredential, error)
	Delete(ctx context.Context, id string) error
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
}

// PasskeyCredential is a registered passkey. ID is the base64url-encoded
// raw credential id reported by the authenticator. PublicKey holds the
// re-encoded key material: SEC1 uncompressed point for ES256, PKCS#1 DER
// for RS256.
type PasskeyCredential struct {
	ID        string
	UserID    uuid.UUID
	Name      string
	Algorithm int32
	PublicKey []byte
	CreatedAt time.Time
}

// TOTPCredentialStore persists the at-most-one TOTP credential per user.
type TOTPCredentialStore interface {
	// Upsert inserts or replaces the credential keyed by user id.
	// Replacing invalidates all codes issued from the prior secret.
	Upsert(ctx context.Context, credential TOTPCredential) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (TOTPCredential, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// TOTPCredential holds a user's TOTP secret, AEAD-encrypted at rest and
// decrypted only transiently during verification.
type TOTPCredential struct {
	UserID          uuid.UUID
	EncryptedSecret []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
