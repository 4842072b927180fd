package session

import "vaultkeeper/internal/apperr"

var (
	ErrNotFound       = apperr.NotFound("session not found")
	ErrInvalidSession = apperr.Authentication("invalid session")
)
