package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues the short-lived JWT for the given user.
func MintAccessToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID, role enums.UserRole) (string, error) {
	if cfg.AccessSecret == "" {
		return "", fmt.Errorf("access token secret is required")
	}
	if cfg.AccessTTLMinutes <= 0 {
		return "", fmt.Errorf("access token ttl must be positive")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", role)
	}

	claims := AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTTL())),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := parseWithClaims(cfg, tokenString, cfg.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// MintRefreshToken issues the long-lived JWT whose value is also stored
// server-side as the single live refresh token for the user.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID) (string, error) {
	if cfg.RefreshSecret == "" {
		return "", fmt.Errorf("refresh token secret is required")
	}
	if cfg.RefreshTTLMinutes <= 0 {
		return "", fmt.Errorf("refresh token ttl must be positive")
	}

	claims := RefreshTokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.RefreshTTL())),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, nil
}

// ParseRefreshToken validates the refresh JWT signature and expiry.
func ParseRefreshToken(cfg config.JWTConfig, tokenString string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := parseWithClaims(cfg, tokenString, cfg.RefreshSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// MintResetToken issues the time-boxed password-reset JWT. The returned jti
// is stored server-side so the token can only be redeemed once.
func MintResetToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID) (token string, jti string, err error) {
	if cfg.ResetSecret == "" {
		return "", "", fmt.Errorf("reset token secret is required")
	}
	if cfg.ResetTTLMinutes <= 0 {
		return "", "", fmt.Errorf("reset token ttl must be positive")
	}

	jti = uuid.NewString()
	claims := ResetTokenClaims{
		UserID:  userID,
		Purpose: ResetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ResetTTL())),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.ResetSecret))
	if err != nil {
		return "", "", fmt.Errorf("signing reset token: %w", err)
	}
	return signed, jti, nil
}

// ParseResetToken validates the reset JWT and its purpose claim.
func ParseResetToken(cfg config.JWTConfig, tokenString string) (*ResetTokenClaims, error) {
	claims := &ResetTokenClaims{}
	if err := parseWithClaims(cfg, tokenString, cfg.ResetSecret, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != ResetPurpose {
		return nil, fmt.Errorf("unexpected token purpose %q", claims.Purpose)
	}
	return claims, nil
}

func parseWithClaims(cfg config.JWTConfig, tokenString, secret string, claims jwt.Claims) error {
	if secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	return err
}
