package auth

import (
	"github.com/lmorales-dev/shopstream-backend/internal/users"
)

// SignupInput is the registration payload.
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair carries both freshly minted JWTs. The controller turns these
// into cookies; they never appear in response bodies.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is the outcome of signup or login.
type Session struct {
	User   *users.UserDTO
	Tokens TokenPair
}
