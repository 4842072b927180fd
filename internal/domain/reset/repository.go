package reset

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	// Redeem consumes the token and installs passwordHash in one transaction.
	// It also spends the account's other reset tokens and drops its sessions.
	// Returns ErrTokenUsed for a spent token and ErrInvalidToken otherwise.
	Redeem(ctx context.Context, tokenHash, passwordHash string) (userID int, err error)
}
