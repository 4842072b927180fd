package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"vaultkeeper/internal/domain/token"
)

const DefaultTTL = 24 * time.Hour

type Servicer interface {
	Create(ctx context.Context, userID int) (string, error)
	Validate(ctx context.Context, token string) (int, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID int) error
}

type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
	log  *slog.Logger
}

func NewService(repo Repository, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With("component", "session_service"),
	}
}

// Create issues a bearer token. Only its hash is stored.
func (s *Service) Create(ctx context.Context, userID int) (string, error) {
	raw, err := token.Generate(token.DefaultLength)
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.repo.Create(ctx, userID, token.Hash(raw), expiresAt); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	s.log.Debug("session created", "user_id", userID)
	return raw, nil
}

// Validate resolves a bearer token to its user. Expired rows are removed on sight.
func (s *Service) Validate(ctx context.Context, raw string) (int, error) {
	if raw == "" {
		return 0, ErrInvalidSession
	}

	hash := token.Hash(raw)
	userID, expiresAt, err := s.repo.Find(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrInvalidSession
		}
		return 0, fmt.Errorf("find session: %w", err)
	}

	if !s.now().Before(expiresAt) {
		if err := s.repo.Delete(ctx, hash); err != nil && !errors.Is(err, ErrNotFound) {
			s.log.Warn("failed to drop expired session", "user_id", userID, "error", err)
		}
		return 0, ErrInvalidSession
	}

	return userID, nil
}

func (s *Service) Delete(ctx context.Context, raw string) error {
	err := s.repo.Delete(ctx, token.Hash(raw))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) DeleteAllForUser(ctx context.Context, userID int) error {
	if err := s.repo.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	s.log.Info("sessions revoked", "user_id", userID)
	return nil
}
