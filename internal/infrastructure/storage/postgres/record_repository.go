package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/domain/record"
)

const recordColumns = `id, owner_id, name_encrypted, email_encrypted, password_encrypted,
	url_encrypted, notes_encrypted, modified_at`

type RecordRepository struct {
	db  DB
	log *slog.Logger
}

func NewRecordRepository(s *Storage, log *slog.Logger) *RecordRepository {
	return &RecordRepository{
		db:  s.DB(),
		log: log.With("component", "record_repository"),
	}
}

func (r *RecordRepository) Create(ctx context.Context, rec *record.WireRecord) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO records (owner_id, name_encrypted, email_encrypted, password_encrypted,
			url_encrypted, notes_encrypted)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, modified_at`,
		rec.OwnerID, rec.NameEncrypted, rec.EmailEncrypted, rec.PasswordEncrypted,
		rec.URLEncrypted, rec.NotesEncrypted,
	).Scan(&rec.ID, &rec.ModifiedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, ownerID, recordID int) (record.WireRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = $1 AND owner_id = $2`,
		recordID, ownerID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record.WireRecord{}, record.ErrNotFound
		}
		return record.WireRecord{}, fmt.Errorf("select record: %w", err)
	}
	return rec, nil
}

func (r *RecordRepository) List(ctx context.Context, ownerID int) ([]record.WireRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+` FROM records WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return collectRecords(rows)
}

func (r *RecordRepository) Update(ctx context.Context, rec *record.WireRecord) error {
	err := r.db.QueryRow(ctx,
		`UPDATE records
		 SET name_encrypted = $1, email_encrypted = $2, password_encrypted = $3,
		     url_encrypted = $4, notes_encrypted = $5, modified_at = NOW()
		 WHERE id = $6 AND owner_id = $7
		 RETURNING modified_at`,
		rec.NameEncrypted, rec.EmailEncrypted, rec.PasswordEncrypted,
		rec.URLEncrypted, rec.NotesEncrypted, rec.ID, rec.OwnerID,
	).Scan(&rec.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record.ErrNotFound
		}
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, ownerID, recordID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM records WHERE id = $1 AND owner_id = $2`, recordID, ownerID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return record.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (record.WireRecord, error) {
	var rec record.WireRecord
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.NameEncrypted, &rec.EmailEncrypted,
		&rec.PasswordEncrypted, &rec.URLEncrypted, &rec.NotesEncrypted, &rec.ModifiedAt)
	return rec, err
}

func collectRecords(rows pgx.Rows) ([]record.WireRecord, error) {
	defer rows.Close()

	records := []record.WireRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
