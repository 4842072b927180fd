package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vaultkeeper/internal/domain/record"
)

// Cache keeps the last server listing of each owner so records can be
// read offline. It holds ciphertext only.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	return c, nil
}

func (c *Cache) initTables() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id INTEGER NOT NULL,
			owner_id INTEGER NOT NULL,
			name_encrypted TEXT,
			email_encrypted TEXT,
			password_encrypted TEXT,
			url_encrypted TEXT,
			notes_encrypted TEXT,
			modified_at TEXT NOT NULL,
			PRIMARY KEY (owner_id, id)
		);
	`)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Replace swaps the owner's cached records for recs in one transaction.
func (c *Cache) Replace(ctx context.Context, ownerID int, recs []record.WireRecord) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	for _, r := range recs {
		if err = upsert(ctx, tx, ownerID, r); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *Cache) Put(ctx context.Context, ownerID int, r record.WireRecord) error {
	return upsert(ctx, c.db, ownerID, r)
}

func (c *Cache) Delete(ctx context.Context, ownerID, id int) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM records WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete cached record: %w", err)
	}
	return nil
}

func (c *Cache) List(ctx context.Context, ownerID int) ([]record.WireRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, owner_id, name_encrypted, email_encrypted, password_encrypted,
		       url_encrypted, notes_encrypted, modified_at
		FROM records
		WHERE owner_id = ?
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	defer rows.Close()

	out := make([]record.WireRecord, 0)
	for rows.Next() {
		var (
			r          record.WireRecord
			name       sql.NullString
			email      sql.NullString
			password   sql.NullString
			url        sql.NullString
			notes      sql.NullString
			modifiedAt string
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &name, &email, &password, &url, &notes, &modifiedAt); err != nil {
			return nil, fmt.Errorf("scan cached record: %w", err)
		}
		r.NameEncrypted = fromNull(name)
		r.EmailEncrypted = fromNull(email)
		r.PasswordEncrypted = fromNull(password)
		r.URLEncrypted = fromNull(url)
		r.NotesEncrypted = fromNull(notes)
		r.ModifiedAt, _ = time.Parse(time.RFC3339Nano, modifiedAt)
		out = append(out, r)
	}

	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, ownerID int, r record.WireRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO records (id, owner_id, name_encrypted, email_encrypted,
		    password_encrypted, url_encrypted, notes_encrypted, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, ownerID, toNull(r.NameEncrypted), toNull(r.EmailEncrypted), toNull(r.PasswordEncrypted),
		toNull(r.URLEncrypted), toNull(r.NotesEncrypted), r.ModifiedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cache record %d: %w", r.ID, err)
	}
	return nil
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
