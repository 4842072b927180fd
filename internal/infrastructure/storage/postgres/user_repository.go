package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/domain/user"
)

const singleAdminIndex = "users_single_admin_idx"

type UserRepository struct {
	db  DB
	log *slog.Logger
}

func NewUserRepository(s *Storage, log *slog.Logger) *UserRepository {
	return &UserRepository{
		db:  s.DB(),
		log: log.With("component", "user_repository"),
	}
}

func (r *UserRepository) Create(ctx context.Context, username, passwordHash string, isAdmin bool) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, is_admin) VALUES ($1, $2, $3) RETURNING id`,
		username, passwordHash, isAdmin).Scan(&id)
	if err != nil {
		if code, constraint := violation(err); code == codeUniqueViolation {
			if constraint == singleAdminIndex {
				return 0, user.ErrAdminExists
			}
			return 0, user.ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (user.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username = $1`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (user.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, password_hash, is_admin, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}
