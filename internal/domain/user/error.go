package user

import "vaultkeeper/internal/apperr"

var (
	ErrNotFound           = apperr.NotFound("user not found")
	ErrInvalidCredentials = apperr.Authentication("invalid credentials")
	ErrUsernameTaken      = apperr.Conflict("username already taken")
	ErrAdminExists        = apperr.Conflict("admin account already configured")
)
