package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/domain/reset"
)

type ResetRepository struct {
	s   *Storage
	log *slog.Logger
}

func NewResetRepository(s *Storage, log *slog.Logger) *ResetRepository {
	return &ResetRepository{
		s:   s,
		log: log.With("component", "reset_repository"),
	}
}

func (r *ResetRepository) Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	_, err := r.s.DB().Exec(ctx,
		`INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
		tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// Redeem spends the token with a conditional update, so of two concurrent
// callers only one sees the row come back.
func (r *ResetRepository) Redeem(ctx context.Context, tokenHash, passwordHash string) (int, error) {
	var userID int
	err := r.s.WithTx(ctx, func(ctx context.Context, tx DB) error {
		err := tx.QueryRow(ctx,
			`UPDATE password_resets SET used = TRUE
			 WHERE token_hash = $1 AND NOT used AND expires_at > NOW()
			 RETURNING user_id`, tokenHash).Scan(&userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classify(ctx, tx, tokenHash)
		}
		if err != nil {
			return fmt.Errorf("consume reset token: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID); err != nil {
			return fmt.Errorf("update password hash: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE password_resets SET used = TRUE WHERE user_id = $1 AND NOT used`, userID); err != nil {
			return fmt.Errorf("spend other reset tokens: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *ResetRepository) classify(ctx context.Context, tx DB, tokenHash string) error {
	var used bool
	err := tx.QueryRow(ctx, `SELECT used FROM password_resets WHERE token_hash = $1`, tokenHash).Scan(&used)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return reset.ErrInvalidToken
	case err != nil:
		return fmt.Errorf("lookup reset token: %w", err)
	case used:
		return reset.ErrTokenUsed
	default:
		return reset.ErrInvalidToken
	}
}
