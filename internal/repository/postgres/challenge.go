package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authgate-server/internal/model"
)

var _ model.ChallengeStore = (*ChallengeRepository)(nil)

type ChallengeRepository struct {
	db *Connection
}

func NewChallengeRepository(db *Connection) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge model.WebAuthnChallenge) error {
	const query = `
        INSERT INTO webauthn_challenges (challenge, user_id, expires_at)
        VALUES ($1, $2, $3)
    `

	if _, err := r.db.Exec(ctx, query,
		challenge.Challenge, challenge.UserID, challenge.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	const query = `DELETE FROM webauthn_challenges WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete challenges by user: %w", err)
	}
	return nil
}

// Consume deletes the matching non-expired row in a single statement.
// The row-level delete makes concurrent consumers race safely: exactly
// one observes the returned row.
func (r *ChallengeRepository) Consume(ctx context.Context, challenge string, userID uuid.UUID) (bool, error) {
	const query = `
        DELETE FROM webauthn_challenges
        WHERE challenge = $1 AND user_id = $2 AND expires_at > NOW()
        RETURNING challenge
    `

	var consumed string
	err := r.db.QueryRow(ctx, query, challenge, userID).Scan(&consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return true, nil
}
