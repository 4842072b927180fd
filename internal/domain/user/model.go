package user

import "time"

type User struct {
	ID           int
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Summary is the part of a user that is returned on login.
type Summary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}
