package session

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	// Find returns ErrNotFound when no row matches tokenHash.
	Find(ctx context.Context, tokenHash string) (userID int, expiresAt time.Time, err error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID int) error
}
