package user

import "vaultkeeper/internal/domain/user"

type Credentials struct {
	Username string `json:"username" minLength:"1" maxLength:"64"`
	Password string `json:"password" minLength:"1" maxLength:"1024"`
}

type registerInput struct {
	Body Credentials
}

type registerOutput struct {
	Body RegisterResponse
}

type RegisterResponse struct {
	ID int `json:"user_id"`
}

type loginInput struct {
	Body Credentials
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  user.Summary `json:"user"`
}

type meOutput struct {
	Body user.Summary
}

type statusOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Status string `json:"status"`
}
