package transfer

import (
	"context"

	"vaultkeeper/internal/domain/record"
)

type Repository interface {
	Export(ctx context.Context) ([]UserRow, []record.WireRecord, error)
	// Import writes doc in one transaction. With truncate every existing
	// user, session, reset token and record is removed first.
	// A primary or unique key clash returns ErrDuplicateRow.
	Import(ctx context.Context, doc Document, truncate bool) error
}
