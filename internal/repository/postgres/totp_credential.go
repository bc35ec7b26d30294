package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authgate-server/internal/model"
)

var _ model.TOTPCredentialStore = (*TOTPCredentialRepository)(nil)

type TOTPCredentialRepository struct {
	db *Connection
}

func NewTOTPCredentialRepository(db *Connection) *TOTPCredentialRepository {
	return &TOTPCredentialRepository{db: db}
}

// Upsert replaces the user's credential in place. Keyed by user_id, so a
// regenerated secret immediately invalidates codes from the prior one.
func (r *TOTPCredentialRepository) Upsert(ctx context.Context, credential model.TOTPCredential) error {
	const query = `
        INSERT INTO totp_credentials (user_id, encrypted_secret, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET encrypted_secret = EXCLUDED.encrypted_secret, updated_at = EXCLUDED.updated_at
    `

	if _, err := r.db.Exec(ctx, query,
		credential.UserID, credential.EncryptedSecret, credential.CreatedAt, credential.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert totp credential: %w", err)
	}
	return nil
}

func (r *TOTPCredentialRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.TOTPCredential, error) {
	const query = `
        SELECT user_id, encrypted_secret, created_at, updated_at
        FROM totp_credentials WHERE user_id = $1
    `

	var credential model.TOTPCredential
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&credential.UserID, &credential.EncryptedSecret, &credential.CreatedAt, &credential.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TOTPCredential{}, model.ErrNotFound
		}
		return model.TOTPCredential{}, fmt.Errorf("failed to get totp credential by user: %w", err)
	}
	return credential, nil
}

func (r *TOTPCredentialRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	const query = `DELETE FROM totp_credentials WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete totp credential: %w", err)
	}
	return nil
}
