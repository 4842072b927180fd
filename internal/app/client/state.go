package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"vaultkeeper/internal/apperr"
)

var ErrNotLoggedIn = apperr.Authentication("not logged in")

// AuthState is the login kept between invocations. Only the opaque
// session token is stored; the vault key never touches this file.
type AuthState struct {
	Token    string `json:"token"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type stateFile struct {
	path string
}

func (f stateFile) load() (AuthState, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return AuthState{}, ErrNotLoggedIn
	}
	if err != nil {
		return AuthState{}, fmt.Errorf("read auth state: %w", err)
	}

	var st AuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return AuthState{}, fmt.Errorf("decode auth state: %w", err)
	}
	if st.Token == "" || st.UserID <= 0 {
		return AuthState{}, ErrNotLoggedIn
	}
	return st, nil
}

func (f stateFile) save(st AuthState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write auth state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write auth state: %w", err)
	}
	return nil
}

func (f stateFile) clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove auth state: %w", err)
	}
	return nil
}
