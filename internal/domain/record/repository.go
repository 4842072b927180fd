package record

import (
	"context"
)

// Repository stores wire records. Every method is scoped by owner; a row
// that belongs to someone else is reported as ErrNotFound.
type Repository interface {
	Create(ctx context.Context, rec *WireRecord) error
	Get(ctx context.Context, ownerID, recordID int) (WireRecord, error)
	List(ctx context.Context, ownerID int) ([]WireRecord, error)
	Update(ctx context.Context, rec *WireRecord) error
	Delete(ctx context.Context, ownerID, recordID int) error
}
