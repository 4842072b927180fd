// Package transfer moves the whole store in and out as one document.
// Records stay encrypted and password hashes stay hashed; user ids are
// kept because the vault key salt is derived from them.
package transfer

import (
	"time"

	"vaultkeeper/internal/domain/record"
)

const DocumentVersion = 1

type Document struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exported_at"`
	Users      []UserRow           `json:"users"`
	Records    []record.WireRecord `json:"records"`
}

type UserRow struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats summarises an import.
type Stats struct {
	Users   int `json:"users"`
	Records int `json:"records"`
}
