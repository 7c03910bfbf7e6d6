package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Verify(ctx context.Context, token string) (int64, error)
	Profile(ctx context.Context, id int64) (*ProfileResponse, error)
	Profiles(ctx context.Context, ids []int64) (map[int64]ProfileResponse, error)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  ProfileResponse `json:"user"`
}

type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrUserExists         = errors.New("user_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrNotFound           = errors.New("user_not_found")
)
