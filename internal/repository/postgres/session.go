package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authgate-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) (model.Session, error) {
	const query = `
        INSERT INTO sessions (id, user_id, expires_at, two_factor_verified)
        VALUES ($1, $2, $3, $4)
        RETURNING id, user_id, expires_at, two_factor_verified
    `

	var saved model.Session
	err := r.db.QueryRow(ctx, query,
		session.ID, session.UserID, session.ExpiresAt, session.TwoFactorVerified,
	).Scan(&saved.ID, &saved.UserID, &saved.ExpiresAt, &saved.TwoFactorVerified)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return saved, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (model.Session, error) {
	const query = `
        SELECT id, user_id, expires_at, two_factor_verified
        FROM sessions WHERE id = $1
    `

	var session model.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.ExpiresAt, &session.TwoFactorVerified,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by id: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) UpdateExpiresAt(ctx context.Context, id string, expiresAt time.Time) error {
	const query = `UPDATE sessions SET expires_at = $2 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, expiresAt); err != nil {
		return fmt.Errorf("failed to update session expiry: %w", err)
	}
	return nil
}

func (r *SessionRepository) SetTwoFactorVerified(ctx context.Context, id string) error {
	const query = `UPDATE sessions SET two_factor_verified = TRUE WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to set session two factor verified: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	const query = `DELETE FROM sessions WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete sessions by user: %w", err)
	}
	return nil
}
