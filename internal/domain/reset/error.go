package reset

import "vaultkeeper/internal/apperr"

var (
	ErrInvalidToken = apperr.Authentication("invalid or expired reset token")
	ErrTokenUsed    = apperr.Conflict("reset token already used")
)
