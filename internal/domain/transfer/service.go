package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/domain/record"
)

type Servicer interface {
	Export(ctx context.Context) (Document, error)
	Import(ctx context.Context, doc Document, truncate bool) (Stats, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  log.With("component", "transfer_service"),
	}
}

func (s *Service) Export(ctx context.Context) (Document, error) {
	users, records, err := s.repo.Export(ctx)
	if err != nil {
		s.log.Error("export failed", "error", err)
		return Document{}, fmt.Errorf("export: %w", err)
	}
	if users == nil {
		users = []UserRow{}
	}
	if records == nil {
		records = []record.WireRecord{}
	}

	s.log.Info("store exported", "users", len(users), "records", len(records))
	return Document{
		Version:    DocumentVersion,
		ExportedAt: s.now().UTC(),
		Users:      users,
		Records:    records,
	}, nil
}

func (s *Service) Import(ctx context.Context, doc Document, truncate bool) (Stats, error) {
	if err := Check(doc, truncate); err != nil {
		return Stats{}, err
	}

	if err := s.repo.Import(ctx, doc, truncate); err != nil {
		if !errors.Is(err, apperr.ErrConflict) && !errors.Is(err, apperr.ErrValidation) {
			s.log.Error("import failed", "truncate", truncate, "error", err)
		}
		return Stats{}, fmt.Errorf("import: %w", err)
	}

	s.log.Info("store imported", "users", len(doc.Users), "records", len(doc.Records), "truncate", truncate)
	return Stats{Users: len(doc.Users), Records: len(doc.Records)}, nil
}

// Check rejects documents that could not be imported as a whole. Owners of
// records must be in the document when the store is truncated first.
func Check(doc Document, truncate bool) error {
	if doc.Version != DocumentVersion {
		return ErrUnsupportedVersion
	}

	ids := make(map[int]struct{}, len(doc.Users))
	names := make(map[string]struct{}, len(doc.Users))
	admins := 0
	for i, u := range doc.Users {
		switch {
		case u.ID <= 0:
			return apperr.Validation(fmt.Sprintf("user %d: id must be positive", i))
		case u.Username == "":
			return apperr.Validation(fmt.Sprintf("user %d: username is required", i))
		case u.PasswordHash == "":
			return apperr.Validation(fmt.Sprintf("user %d: password hash is required", i))
		}
		if _, ok := ids[u.ID]; ok {
			return apperr.Validation(fmt.Sprintf("user %d: duplicate id %d", i, u.ID))
		}
		if _, ok := names[u.Username]; ok {
			return apperr.Validation(fmt.Sprintf("user %d: duplicate username", i))
		}
		ids[u.ID] = struct{}{}
		names[u.Username] = struct{}{}
		if u.IsAdmin {
			admins++
		}
	}
	if admins > 1 {
		return apperr.Validation("at most one admin account is allowed")
	}

	recIDs := make(map[int]struct{}, len(doc.Records))
	for i, r := range doc.Records {
		if r.ID <= 0 {
			return apperr.Validation(fmt.Sprintf("record %d: id must be positive", i))
		}
		if _, ok := recIDs[r.ID]; ok {
			return apperr.Validation(fmt.Sprintf("record %d: duplicate id %d", i, r.ID))
		}
		recIDs[r.ID] = struct{}{}
		if _, ok := ids[r.OwnerID]; truncate && !ok {
			return fmt.Errorf("record %d: %w", i, ErrUnknownOwner)
		}
		if err := record.Validate(r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	return nil
}
