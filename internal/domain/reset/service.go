package reset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"vaultkeeper/internal/domain/token"
	"vaultkeeper/internal/domain/user"
)

const DefaultTTL = time.Hour

type Servicer interface {
	Request(ctx context.Context, username string) error
	Redeem(ctx context.Context, token, newPassword string) error
}

type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

type PasswordPolicy interface {
	ValidatePassword(password string) error
}

type Config struct {
	TTL      time.Duration
	LinkBase string
}

type Service struct {
	repo     Repository
	users    UserFinder
	policy   PasswordPolicy
	hasher   user.PasswordHasher
	notifier Notifier
	cfg      Config
	now      func() time.Time
	log      *slog.Logger
}

func NewService(repo Repository, users UserFinder, policy PasswordPolicy, hasher user.PasswordHasher,
	notifier Notifier, cfg Config, log *slog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Service{
		repo:     repo,
		users:    users,
		policy:   policy,
		hasher:   hasher,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		log:      log.With("component", "reset_service"),
	}
}

// Request issues a single-use reset token and hands its link to the notifier.
// Unknown usernames succeed without doing anything.
func (s *Service) Request(ctx context.Context, username string) error {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.log.Debug("reset requested for unknown user")
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	raw, err := token.Generate(token.DefaultLength)
	if err != nil {
		return err
	}

	if err := s.repo.Create(ctx, u.ID, token.Hash(raw), s.now().Add(s.cfg.TTL)); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	if err := s.notifier.Notify(ctx, u.Username, s.link(raw)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	s.log.Info("password reset issued", "user_id", u.ID)
	return nil
}

// Redeem replaces the account password. The new password is checked and
// hashed before the token is consumed, so a weak password does not burn it.
func (s *Service) Redeem(ctx context.Context, raw, newPassword string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	if err := s.policy.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.repo.Redeem(ctx, token.Hash(raw), hash)
	if err != nil {
		if errors.Is(err, ErrTokenUsed) || errors.Is(err, ErrInvalidToken) {
			return err
		}
		return fmt.Errorf("redeem reset token: %w", err)
	}

	s.log.Info("password reset redeemed", "user_id", userID)
	return nil
}

func (s *Service) link(raw string) string {
	base := s.cfg.LinkBase
	if base == "" {
		return raw
	}
	return base + "?token=" + url.QueryEscape(raw)
}
