package user

import (
	"fmt"
	"unicode"

	"vaultkeeper/internal/apperr"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
	// MaxPasswordLen caps hashing work per request.
	MaxPasswordLen = 256
)

type Validator interface {
	ValidateRegister(login, password string) error
	ValidateLogin(login string) error
	ValidatePassword(password string) error
}

// PasswordValidator enforces the account password policy. The same
// passphrase derives the vault key, so the policy is strict.
type PasswordValidator struct {
	requireSpecialChar bool
	requireDigit       bool
	requireUpper       bool
	requireLower       bool
}

func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		requireSpecialChar: true,
		requireDigit:       true,
		requireUpper:       true,
		requireLower:       true,
	}
}

func (v *PasswordValidator) ValidateRegister(login, password string) error {
	if err := v.ValidateLogin(login); err != nil {
		return apperr.Validation(fmt.Sprintf("login validation failed: %s", err.Error()))
	}

	if err := v.ValidatePassword(password); err != nil {
		return apperr.Validation(fmt.Sprintf("password validation failed: %s", err.Error()))
	}

	return nil
}

func (v *PasswordValidator) ValidateLogin(login string) error {
	if len(login) < MinLoginLen {
		return apperr.Validation(fmt.Sprintf("login must be at least %d characters", MinLoginLen))
	}

	if len(login) > MaxLoginLen {
		return apperr.Validation(fmt.Sprintf("login must be at most %d characters", MaxLoginLen))
	}

	for _, r := range login {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return apperr.Validation("login can only contain letters, digits, '_', '-', '.'")
		}
	}

	return nil
}

func (v *PasswordValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		return apperr.Validation(fmt.Sprintf("password must be at most %d characters", MaxPasswordLen))
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	rules := []struct {
		required bool
		ok       bool
		msg      string
	}{
		{v.requireLower, hasLower, "password must contain at least one lowercase letter"},
		{v.requireUpper, hasUpper, "password must contain at least one uppercase letter"},
		{v.requireDigit, hasDigit, "password must contain at least one digit"},
		{v.requireSpecialChar, hasSpecial, "password must contain at least one special character"},
	}
	for _, r := range rules {
		if r.required && !r.ok {
			return apperr.Validation(r.msg)
		}
	}

	return nil
}
