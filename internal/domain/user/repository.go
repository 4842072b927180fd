package user

import (
	"context"
)

type Repository interface {
	// Create returns ErrUsernameTaken or ErrAdminExists on a uniqueness clash.
	Create(ctx context.Context, username, passwordHash string, isAdmin bool) (int, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int) (User, error)
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
}
