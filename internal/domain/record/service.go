package record

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
)

const (
	// MaxFieldLength bounds one encoded ciphertext.
	MaxFieldLength = 16 * 1024

	// nonce plus GCM tag
	minCiphertextLength = 12 + 16
)

type Servicer interface {
	Create(ctx context.Context, ownerID int, rec WireRecord) (WireRecord, error)
	Get(ctx context.Context, ownerID, recordID int) (WireRecord, error)
	List(ctx context.Context, ownerID int) ([]WireRecord, error)
	Update(ctx context.Context, ownerID int, rec WireRecord) (WireRecord, error)
	Delete(ctx context.Context, ownerID, recordID int) error
}

// Service handles wire records on the server. It checks their shape and
// never decrypts anything.
type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "record_service"),
	}
}

func (s *Service) Create(ctx context.Context, ownerID int, rec WireRecord) (WireRecord, error) {
	if err := Validate(rec); err != nil {
		return WireRecord{}, err
	}

	rec.ID = 0
	rec.OwnerID = ownerID
	if err := s.repo.Create(ctx, &rec); err != nil {
		s.log.Error("failed to create record", "user_id", ownerID, "error", err)
		return WireRecord{}, fmt.Errorf("create record: %w", err)
	}

	s.log.Info("record created", "record_id", rec.ID, "user_id", ownerID)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, ownerID, recordID int) (WireRecord, error) {
	rec, err := s.repo.Get(ctx, ownerID, recordID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to get record", "record_id", recordID, "user_id", ownerID, "error", err)
		}
		return WireRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, ownerID int) ([]WireRecord, error) {
	records, err := s.repo.List(ctx, ownerID)
	if err != nil {
		s.log.Error("failed to list records", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("list records: %w", err)
	}
	if records == nil {
		records = []WireRecord{}
	}
	return records, nil
}

// Update replaces every encrypted field; edits are full re-encryptions.
func (s *Service) Update(ctx context.Context, ownerID int, rec WireRecord) (WireRecord, error) {
	if err := Validate(rec); err != nil {
		return WireRecord{}, err
	}

	rec.OwnerID = ownerID
	if err := s.repo.Update(ctx, &rec); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to update record", "record_id", rec.ID, "user_id", ownerID, "error", err)
		}
		return WireRecord{}, fmt.Errorf("update record: %w", err)
	}

	s.log.Info("record updated", "record_id", rec.ID, "user_id", ownerID)
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, recordID int) error {
	if err := s.repo.Delete(ctx, ownerID, recordID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to delete record", "record_id", recordID, "user_id", ownerID, "error", err)
		}
		return fmt.Errorf("delete record: %w", err)
	}

	s.log.Info("record deleted", "record_id", recordID, "user_id", ownerID)
	return nil
}

// Validate checks the shape of a wire record before it is stored.
func Validate(rec WireRecord) error {
	if rec.NameEncrypted == nil {
		return ErrNameRequired
	}

	for _, f := range Fields {
		enc := *f.Encrypted(&rec)
		if enc == nil {
			continue
		}
		if len(*enc) > MaxFieldLength {
			return fmt.Errorf("%s: %w", f.Wire, ErrFieldTooLarge)
		}
		raw, err := base64.StdEncoding.DecodeString(*enc)
		if err != nil || len(raw) < minCiphertextLength {
			return fmt.Errorf("%s: %w", f.Wire, ErrFieldEncoding)
		}
	}

	return nil
}
