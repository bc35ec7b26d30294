package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authgate-server/internal/model"
)

var _ model.PasskeyCredentialStore = (*PasskeyCredentialRepository)(nil)

type PasskeyCredentialRepository struct {
	db *Connection
}

func NewPasskeyCredentialRepository(db *Connection) *PasskeyCredentialRepository {
	return &PasskeyCredentialRepository{db: db}
}

func (r *PasskeyCredentialRepository) Create(ctx context.Context, credential model.PasskeyCredential) (model.PasskeyCredential, error) {
	const query = `
        INSERT INTO passkey_credentials (id, user_id, name, algorithm, public_key, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, user_id, name, algorithm, public_key, created_at
    `

	var saved model.PasskeyCredential
	err := r.db.QueryRow(ctx, query,
		credential.ID, credential.UserID, credential.Name, credential.Algorithm,
		credential.PublicKey, credential.CreatedAt,
	).Scan(&saved.ID, &saved.UserID, &saved.Name, &saved.Algorithm, &saved.PublicKey, &saved.CreatedAt)
	if err != nil {
		return model.PasskeyCredential{}, fmt.Errorf("failed to create passkey credential: %w", err)
	}
	return saved, nil
}

func (r *PasskeyCredentialRepository) GetByID(ctx context.Context, id string) (model.PasskeyCredential, error) {
	const query = `
        SELECT id, user_id, name, algorithm, public_key, created_at
        FROM passkey_credentials WHERE id = $1
    `

	var credential model.PasskeyCredential
	err := r.db.QueryRow(ctx, query, id).Scan(
		&credential.ID, &credential.UserID, &credential.Name,
		&credential.Algorithm, &credential.PublicKey, &credential.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PasskeyCredential{}, model.ErrNotFound
		}
		return model.PasskeyCredential{}, fmt.Errorf("failed to get passkey credential by id: %w", err)
	}
	return credential, nil
}

func (r *PasskeyCredentialRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.PasskeyCredential, error) {
	const query = `
        SELECT id, user_id, name, algorithm, public_key, created_at
        FROM passkey_credentials WHERE user_id = $1
        ORDER BY created_at
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get passkey credentials by user: %w", err)
	}
	defer rows.Close()

	var credentials []model.PasskeyCredential
	for rows.Next() {
		var credential model.PasskeyCredential
		if err := rows.Scan(
			&credential.ID, &credential.UserID, &credential.Name,
			&credential.Algorithm, &credential.PublicKey, &credential.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan passkey credential: %w", err)
		}
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passkey credentials: %w", err)
	}
	return credentials, nil
}

func (r *PasskeyCredentialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM passkey_credentials WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete passkey credential: %w", err)
	}
	return nil
}

func (r *PasskeyCredentialRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM passkey_credentials WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count passkey credentials: %w", err)
	}
	return count, nil
}
