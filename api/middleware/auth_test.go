package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/lmorales-dev/shopstream-backend/pkg/auth"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:      "access-secret",
		RefreshSecret:     "refresh-secret",
		ResetSecret:       "reset-secret",
		Issuer:            "shopstream-test",
		AccessTTLMinutes:  15,
		RefreshTTLMinutes: 10080,
		ResetTTLMinutes:   10,
	}
}

func authProbe(t *testing.T, cfg config.JWTConfig) (http.Handler, *string, *string) {
	t.Helper()
	var gotUser, gotRole string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &gotUser, &gotRole
}

func TestAuthAcceptsAccessTokenCookie(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), userID, enums.UserRoleSeller)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler, gotUser, gotRole := authProbe(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if *gotUser != userID.String() {
		t.Fatalf("user id = %q", *gotUser)
	}
	if *gotRole != string(enums.UserRoleSeller) {
		t.Fatalf("role = %q", *gotRole)
	}
}

func TestAuthFallsBackToBearerHeader(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), uuid.New(), enums.UserRoleCustomer)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler, gotUser, _ := authProbe(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if *gotUser == "" {
		t.Fatal("expected user id in context")
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	cfg := testJWTConfig()
	handler, _, _ := authProbe(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "not-a-jwt"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}
}

func TestAuthRejectsTokenSignedWithWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	foreign := cfg
	foreign.AccessSecret = "some-other-secret"
	token, err := pkgauth.MintAccessToken(foreign, time.Now(), uuid.New(), enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler, _, _ := authProbe(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: status = %d", rec.Code)
	}
}

func TestRequireSeller(t *testing.T) {
	handler := RequireSeller(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		role   string
		status int
	}{
		{string(enums.UserRoleSeller), http.StatusOK},
		{string(enums.UserRoleAdmin), http.StatusOK},
		{string(enums.UserRoleCustomer), http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), uuid.NewString(), tc.role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("role %q: status = %d, want %d", tc.role, rec.Code, tc.status)
		}
	}
}
