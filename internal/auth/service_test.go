package auth

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/lmorales-dev/shopstream-backend/internal/users"
	"github.com/lmorales-dev/shopstream-backend/pkg/auth/session"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
)

type memUserStore struct {
	byEmail map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]*models.User{}}
}

func (m *memUserStore) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if _, ok := m.byEmail[dto.Email]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	m.byEmail[dto.Email] = user
	return user, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	for _, user := range m.byEmail {
		if user.ID == id {
			user.PasswordHash = hash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memSessions struct {
	refresh map[string]string
	resets  map[string]string
}

func newMemSessions() *memSessions {
	return &memSessions{refresh: map[string]string{}, resets: map[string]string{}}
}

func (m *memSessions) Save(_ context.Context, userID, token string) error {
	m.refresh[userID] = token
	return nil
}

func (m *memSessions) Matches(_ context.Context, userID, provided string) error {
	if stored, ok := m.refresh[userID]; !ok || stored != provided {
		return session.ErrInvalidRefreshToken
	}
	return nil
}

func (m *memSessions) Revoke(_ context.Context, userID string) error {
	delete(m.refresh, userID)
	return nil
}

func (m *memSessions) SaveResetMarker(_ context.Context, userID, jti string) error {
	m.resets[userID] = jti
	return nil
}

func (m *memSessions) ConsumeResetMarker(_ context.Context, userID, jti string) error {
	if stored, ok := m.resets[userID]; !ok || stored != jti {
		return session.ErrResetTokenConsumed
	}
	delete(m.resets, userID)
	return nil
}

type captureResetMailer struct {
	to   []string
	urls []string
}

func (c *captureResetMailer) SendPasswordReset(to, resetURL string) error {
	c.to = append(c.to, to)
	c.urls = append(c.urls, resetURL)
	return nil
}

func testJWT() config.JWTConfig {
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

func fastPassword() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

type authFixture struct {
	svc      Service
	store    *memUserStore
	sessions *memSessions
	mail     *captureResetMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		store:    newMemUserStore(),
		sessions: newMemSessions(),
		mail:     &captureResetMailer{},
	}
	svc, err := NewService(Params{
		Users:       f.store,
		Sessions:    f.sessions,
		Mailer:      f.mail,
		Logger:      logger.New(logger.Options{ServiceName: "auth-test", Output: os.Stderr}),
		JWT:         testJWT(),
		Password:    fastPassword(),
		FrontendURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *authFixture) signup(t *testing.T) *Session {
	t.Helper()
	sess, err := f.svc.Signup(context.Background(), SignupInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "correcthorse",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return sess
}

func TestSignupCreatesSessionAndStoresRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.signup(t)

	if sess.User.Role != enums.UserRoleCustomer {
		t.Fatalf("default role = %s", sess.User.Role)
	}
	if sess.Tokens.AccessToken == "" || sess.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if stored := f.sessions.refresh[sess.User.ID.String()]; stored != sess.Tokens.RefreshToken {
		t.Fatal("refresh token must be stored server-side")
	}

	stored := f.store.byEmail["bob@example.com"]
	if stored.PasswordHash == "correcthorse" || stored.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
}

func TestSignupValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	cases := []SignupInput{
		{Name: "", Email: "a@b.co", Password: "longenough"},
		{Name: "X", Email: "not-an-email", Password: "longenough"},
		{Name: "X", Email: "a@b.co", Password: "short"},
		{Name: "X", Email: "a@b.co", Password: "longenough", Role: "ghost"},
	}
	for i, input := range cases {
		if _, err := f.svc.Signup(ctx, input); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	if _, err := f.svc.Signup(ctx, SignupInput{Name: "X", Email: "a@b.co", Password: "longenough", Role: "admin"}); !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for admin self-signup, got %v", err)
	}
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)

	_, err := f.svc.Signup(context.Background(), SignupInput{
		Name:     "Other",
		Email:    "bob@example.com",
		Password: "correcthorse",
	})
	if !pkgerrors.Is(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "wrongwrong"}); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"}); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	sess, err := f.svc.Login(ctx, LoginInput{Email: "Bob@Example.com", Password: "correcthorse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Tokens.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
}

func TestLoginReplacesStoredRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	first := f.signup(t)
	ctx := context.Background()

	second, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "correcthorse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// The first session's token verifies cryptographically but is no
	// longer the stored value, so refresh rejects it.
	if _, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected replaced token rejection, got %v", err)
	}

	access, err := f.svc.Refresh(ctx, second.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" {
		t.Fatal("expected new access token")
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.signup(t)
	ctx := context.Background()

	if err := f.svc.Logout(ctx, sess.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.Refresh(ctx, sess.Tokens.RefreshToken); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}

	// Garbage cookies are treated as already logged out.
	if err := f.svc.Logout(ctx, "not-a-jwt"); err != nil {
		t.Fatalf("logout with garbage token: %v", err)
	}
}

func TestPasswordResetFlowIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t)
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "nobody@example.com"); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := f.svc.ForgotPassword(ctx, "bob@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if len(f.mail.urls) != 1 || f.mail.to[0] != "bob@example.com" {
		t.Fatalf("expected one reset email, got %+v", f.mail.to)
	}

	url := f.mail.urls[0]
	token := url[strings.LastIndex(url, "/")+1:]
	if token == "" {
		t.Fatalf("no token in reset url %q", url)
	}

	if err := f.svc.ResetPassword(ctx, token, "short"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := f.svc.ResetPassword(ctx, token, "brandnewpassword"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Second redemption of the same link must fail.
	if err := f.svc.ResetPassword(ctx, token, "anotherpassword"); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected single-use rejection, got %v", err)
	}

	if _, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "correcthorse"}); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("old password must no longer work, got %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "brandnewpassword"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
