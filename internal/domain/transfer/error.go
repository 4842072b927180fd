package transfer

import "vaultkeeper/internal/apperr"

var (
	ErrUnsupportedVersion = apperr.Validation("unsupported document version")
	ErrDuplicateRow       = apperr.Conflict("imported row already exists")
	ErrUnknownOwner       = apperr.Validation("record owner not present")
)
