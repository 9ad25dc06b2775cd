package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	redisclient "github.com/lmorales-dev/shopstream-backend/pkg/redis"
)

// ErrInvalidRefreshToken is returned when the presented token does not match
// the single stored value for the user (e.g. after logout, or on reuse).
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// ErrResetTokenConsumed is returned when the reset marker is missing or does
// not match, meaning the link expired or was already redeemed.
var ErrResetTokenConsumed = errors.New("reset token expired or already used")

type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type tokenKeyer interface {
	RefreshTokenKey(userID string) string
	ResetTokenKey(userID string) string
}

// Manager tracks exactly one live refresh token per user, plus the
// single-use password-reset marker. Both live in Redis with explicit TTLs.
type Manager struct {
	store      tokenStore
	keyer      tokenKeyer
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	refreshTTL := cfg.RefreshTTL()
	if refreshTTL <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if refreshTTL <= cfg.AccessTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, cfg.AccessTTL())
	}
	resetTTL := cfg.ResetTTL()
	if resetTTL <= 0 {
		return nil, fmt.Errorf("reset token ttl must be positive")
	}

	return &Manager{
		store:      client,
		keyer:      client,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}, nil
}

// Save overwrites the stored refresh token for the user. Each login replaces
// the previous session.
func (m *Manager) Save(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("refresh token is required")
	}
	return m.store.Set(ctx, m.keyer.RefreshTokenKey(userID), token, m.refreshTTL)
}

// Matches verifies the presented token equals the stored value for the user.
// A syntactically valid token that is not currently stored is rejected.
func (m *Manager) Matches(ctx context.Context, userID, provided string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(provided) == "" {
		return ErrInvalidRefreshToken
	}

	stored, err := m.store.Get(ctx, m.keyer.RefreshTokenKey(userID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return ErrInvalidRefreshToken
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return ErrInvalidRefreshToken
	}
	return nil
}

// Revoke deletes the stored refresh token for the user.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	return m.store.Del(ctx, m.keyer.RefreshTokenKey(userID))
}

// SaveResetMarker stores the reset token's jti so it can be redeemed once
// within the validity window.
func (m *Manager) SaveResetMarker(ctx context.Context, userID, jti string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(jti) == "" {
		return fmt.Errorf("user id and jti are required")
	}
	return m.store.Set(ctx, m.keyer.ResetTokenKey(userID), jti, m.resetTTL)
}

// ConsumeResetMarker validates and deletes the reset marker, enforcing
// single use.
func (m *Manager) ConsumeResetMarker(ctx context.Context, userID, jti string) error {
	key := m.keyer.ResetTokenKey(userID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return ErrResetTokenConsumed
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(jti)) != 1 {
		return ErrResetTokenConsumed
	}
	return m.store.Del(ctx, key)
}
