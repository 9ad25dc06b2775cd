package session

import (
	"context"
	"testing"
	"time"

	redisclient "github.com/lmorales-dev/shopstream-backend/pkg/redis"
)

type stubStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newStubStore() *stubStore {
	return &stubStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = value.(string)
	s.ttls[key] = ttl
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (s *stubStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

type stubKeyer struct{}

func (stubKeyer) RefreshTokenKey(userID string) string { return "refresh:" + userID }
func (stubKeyer) ResetTokenKey(userID string) string   { return "reset:" + userID }

func testManager(store *stubStore) *Manager {
	return &Manager{
		store:      store,
		keyer:      stubKeyer{},
		refreshTTL: 7 * 24 * time.Hour,
		resetTTL:   10 * time.Minute,
	}
}

func TestSaveOverwritesPreviousToken(t *testing.T) {
	store := newStubStore()
	m := testManager(store)
	ctx := context.Background()

	if err := m.Save(ctx, "u1", "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Save(ctx, "u1", "second"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := m.Matches(ctx, "u1", "first"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected replaced token to be rejected, got %v", err)
	}
	if err := m.Matches(ctx, "u1", "second"); err != nil {
		t.Fatalf("expected current token to match, got %v", err)
	}
	if ttl := store.ttls["refresh:u1"]; ttl != 7*24*time.Hour {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestMatchesRejectsUnknownUser(t *testing.T) {
	m := testManager(newStubStore())
	if err := m.Matches(context.Background(), "nobody", "token"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevokeInvalidatesToken(t *testing.T) {
	m := testManager(newStubStore())
	ctx := context.Background()

	if err := m.Save(ctx, "u1", "tok"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Revoke(ctx, "u1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := m.Matches(ctx, "u1", "tok"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestResetMarkerIsSingleUse(t *testing.T) {
	m := testManager(newStubStore())
	ctx := context.Background()

	if err := m.SaveResetMarker(ctx, "u1", "jti-1"); err != nil {
		t.Fatalf("save marker: %v", err)
	}

	if err := m.ConsumeResetMarker(ctx, "u1", "jti-other"); err != ErrResetTokenConsumed {
		t.Fatalf("expected mismatched jti to be rejected, got %v", err)
	}
	if err := m.ConsumeResetMarker(ctx, "u1", "jti-1"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := m.ConsumeResetMarker(ctx, "u1", "jti-1"); err != ErrResetTokenConsumed {
		t.Fatalf("expected second redemption to fail, got %v", err)
	}
}
