package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
)

// AccessTokenClaims is the short-lived credential attached to every request.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims is the long-lived credential exchanged for new access
// tokens. The server additionally tracks exactly one live value per user.
type RefreshTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// ResetTokenClaims is the single-use password-reset credential embedded in
// the emailed link. Its jti must match the server-side marker to be accepted.
type ResetTokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	Purpose string    `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetPurpose is the required purpose claim on reset tokens.
const ResetPurpose = "password_reset"
