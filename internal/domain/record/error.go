package record

import (
	"vaultkeeper/internal/apperr"
)

var (
	ErrNotFound      = apperr.NotFound("record not found")
	ErrNameRequired  = apperr.Validation("name_encrypted is required")
	ErrFieldTooLarge = apperr.Validation("encrypted field exceeds size limit")
	ErrFieldEncoding = apperr.Validation("encrypted field is not a valid ciphertext")
)
