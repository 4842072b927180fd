package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/domain/record"
	"vaultkeeper/internal/domain/transfer"
)

var (
	userCopyColumns   = []string{"id", "username", "password_hash", "is_admin", "created_at"}
	recordCopyColumns = []string{"id", "owner_id", "name_encrypted", "email_encrypted",
		"password_encrypted", "url_encrypted", "notes_encrypted", "modified_at"}
)

type TransferRepository struct {
	s   *Storage
	now func() time.Time
	log *slog.Logger
}

func NewTransferRepository(s *Storage, log *slog.Logger) *TransferRepository {
	return &TransferRepository{
		s:   s,
		now: time.Now,
		log: log.With("component", "transfer_repository"),
	}
}

// Export reads users and records from one snapshot.
func (r *TransferRepository) Export(ctx context.Context) ([]transfer.UserRow, []record.WireRecord, error) {
	var (
		users   []transfer.UserRow
		records []record.WireRecord
	)
	err := r.s.WithTx(ctx, func(ctx context.Context, tx DB) error {
		if _, err := tx.Exec(ctx, `SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY`); err != nil {
			return fmt.Errorf("set isolation: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT id, username, password_hash, is_admin, created_at FROM users ORDER BY id`)
		if err != nil {
			return fmt.Errorf("select users: %w", err)
		}
		users, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (transfer.UserRow, error) {
			var u transfer.UserRow
			err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
			return u, err
		})
		if err != nil {
			return fmt.Errorf("scan users: %w", err)
		}

		rows, err = tx.Query(ctx, `SELECT `+recordColumns+` FROM records ORDER BY id`)
		if err != nil {
			return fmt.Errorf("select records: %w", err)
		}
		records, err = collectRecords(rows)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return users, records, nil
}

func (r *TransferRepository) Import(ctx context.Context, doc transfer.Document, truncate bool) error {
	now := r.now().UTC()

	err := r.s.WithTx(ctx, func(ctx context.Context, tx DB) error {
		if truncate {
			if _, err := tx.Exec(ctx,
				`TRUNCATE sessions, password_resets, records, users RESTART IDENTITY CASCADE`); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"users"}, userCopyColumns,
			pgx.CopyFromSlice(len(doc.Users), func(i int) ([]any, error) {
				u := doc.Users[i]
				return []any{u.ID, u.Username, u.PasswordHash, u.IsAdmin, orNow(u.CreatedAt, now)}, nil
			})); err != nil {
			return fmt.Errorf("copy users: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"records"}, recordCopyColumns,
			pgx.CopyFromSlice(len(doc.Records), func(i int) ([]any, error) {
				w := doc.Records[i]
				return []any{w.ID, w.OwnerID, w.NameEncrypted, w.EmailEncrypted, w.PasswordEncrypted,
					w.URLEncrypted, w.NotesEncrypted, orNow(w.ModifiedAt, now)}, nil
			})); err != nil {
			return fmt.Errorf("copy records: %w", err)
		}

		for _, table := range []string{"users", "records"} {
			if _, err := tx.Exec(ctx, fmt.Sprintf(
				`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s`,
				table)); err != nil {
				return fmt.Errorf("advance %s sequence: %w", table, err)
			}
		}
		return nil
	})

	switch code, _ := violation(err); code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %v", transfer.ErrDuplicateRow, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %v", transfer.ErrUnknownOwner, err)
	}
	return err
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
