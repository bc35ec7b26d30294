package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash []byte) error
	SetSecondFactorFlags(ctx context.Context, id uuid.UUID, flags SecondFactorFlags) error
}

// SecondFactorFlags mirrors the per-factor registration columns on the
// user row. Registered2FA is derived: true iff any factor is registered.
type SecondFactorFlags struct {
	RegisteredTOTP        bool
	RegisteredPasskey     bool
	RegisteredSecurityKey bool
	Registered2FA         bool
}

// User represents a stored user with authentication material.
type User struct {
	ID                    uuid.UUID
	Email                 string
	Name                  string
	PasswordHash          []byte
	EncryptedRecoveryCode []byte
	EmailVerified         bool
	RegisteredTOTP        bool
	RegisteredPasskey     bool
	RegisteredSecurityKey bool
	Registered2FA         bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Flags returns the user's current second-factor registration state.
func (u User) Flags() SecondFactorFlags {
	return SecondFactorFlags{
		RegisteredTOTP:        u.RegisteredTOTP,
		RegisteredPasskey:     u.RegisteredPasskey,
		RegisteredSecurityKey: u.RegisteredSecurityKey,
		Registered2FA:         u.Registered2FA,
	}
}
