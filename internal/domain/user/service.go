package user

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	Register(ctx context.Context, username, password string) (int, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
	SetupAdmin(ctx context.Context, username, password string) (int, error)
	Get(ctx context.Context, id int) (User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsRehash(encoded string) bool
}

type Service struct {
	repo      Repository
	validator Validator
	hasher    PasswordHasher
	log       *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(repo Repository, validator Validator, hasher PasswordHasher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		hasher:    hasher,
		log:       log.With("component", "user_service"),
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (int, error) {
	return s.create(ctx, username, password, false)
}

// SetupAdmin creates the single admin account. A second call fails with
// ErrAdminExists.
func (s *Service) SetupAdmin(ctx context.Context, username, password string) (int, error) {
	return s.create(ctx, username, password, true)
}

func (s *Service) create(ctx context.Context, username, password string, isAdmin bool) (int, error) {
	if err := s.validator.ValidateRegister(username, password); err != nil {
		s.log.Debug("validation failed", "login", username, "error", err)
		return 0, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, username, hash, isAdmin)
	if err != nil {
		if !errors.Is(err, ErrUsernameTaken) && !errors.Is(err, ErrAdminExists) {
			s.log.Error("failed to create user", "login", username, "error", err)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", "user_id", id, "is_admin", isAdmin)
	return id, nil
}

// Authenticate returns ErrInvalidCredentials for every kind of mismatch.
// Unknown usernames still pay for one hash verification.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	if err := s.validator.ValidateLogin(username); err != nil {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.Verify(password, s.dummy())
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, &u, password)
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id int) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) rehash(ctx context.Context, u *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn("rehash failed", "user_id", u.ID, "error", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		s.log.Warn("rehash not stored", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordHash = hash
	s.log.Debug("password hash upgraded", "user_id", u.ID)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
