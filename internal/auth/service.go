package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/internal/users"
	pkgauth "github.com/lmorales-dev/shopstream-backend/pkg/auth"
	"github.com/lmorales-dev/shopstream-backend/pkg/auth/session"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	"github.com/lmorales-dev/shopstream-backend/pkg/security"
)

const minPasswordLen = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service exposes credential and session operations.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Save(ctx context.Context, userID, token string) error
	Matches(ctx context.Context, userID, provided string) error
	Revoke(ctx context.Context, userID string) error
	SaveResetMarker(ctx context.Context, userID, jti string) error
	ConsumeResetMarker(ctx context.Context, userID, jti string) error
}

type resetMailer interface {
	SendPasswordReset(to, resetURL string) error
}

// Params collects the auth service dependencies.
type Params struct {
	Users       userStore
	Sessions    sessionManager
	Mailer      resetMailer
	Logger      *logger.Logger
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	FrontendURL string
}

type service struct {
	p   Params
	now func() time.Time
}

// NewService constructs the auth service.
func NewService(p Params) (Service, error) {
	switch {
	case p.Users == nil:
		return nil, fmt.Errorf("user store required")
	case p.Sessions == nil:
		return nil, fmt.Errorf("session manager required")
	case p.Mailer == nil:
		return nil, fmt.Errorf("mailer required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case p.FrontendURL == "":
		return nil, fmt.Errorf("frontend url required")
	}
	return &service{p: p, now: time.Now}, nil
}

// Signup registers a new account and opens a session. The role is fixed
// here for the lifetime of the account; admin accounts are provisioned out
// of band, never self-registered.
func (s *service) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailRe.MatchString(email) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if len(input.Password) < minPasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	role := enums.UserRoleCustomer
	if input.Role != "" {
		parsed, err := enums.ParseUserRole(input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		if parsed == enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot self-register")
		}
		role = parsed
	}

	hash, err := security.HashPassword(input.Password, s.p.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user, err := s.p.Users.Create(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert user")
	}

	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a session, replacing any previous
// refresh token for the user.
func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.p.Users.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	return s.openSession(ctx, user)
}

// Logout revokes the stored refresh token. An unparseable cookie is
// treated as already logged out.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := pkgauth.ParseRefreshToken(s.p.JWT, refreshToken)
	if err != nil {
		return nil
	}
	if err := s.p.Sessions.Revoke(ctx, claims.UserID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// token must both verify cryptographically and match the single stored
// value for the user.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token is required")
	}

	claims, err := pkgauth.ParseRefreshToken(s.p.JWT, refreshToken)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	if err := s.p.Sessions.Matches(ctx, claims.UserID.String(), refreshToken); err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking stored session")
	}

	user, err := s.p.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	access, err := pkgauth.MintAccessToken(s.p.JWT, s.now(), user.ID, user.Role)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	return access, nil
}

// Profile returns the authenticated user's record.
func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.p.Users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return users.FromModel(user), nil
}

// ForgotPassword mints a 10-minute single-use reset token, records its jti
// server-side, and emails the reset link.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))

	user, err := s.p.Users.FindByEmail(ctx, normalized)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	token, jti, err := pkgauth.MintResetToken(s.p.JWT, s.now(), user.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting reset token")
	}
	if err := s.p.Sessions.SaveResetMarker(ctx, user.ID.String(), jti); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing reset marker")
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.p.FrontendURL, token)
	if err := s.p.Mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending reset email")
	}
	return nil
}

// ResetPassword redeems a reset token exactly once and overwrites the
// credential hash.
func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	claims, err := pkgauth.ParseResetToken(s.p.JWT, token)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
	}

	if err := s.p.Sessions.ConsumeResetMarker(ctx, claims.UserID.String(), claims.ID); err != nil {
		if errors.Is(err, session.ErrResetTokenConsumed) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "reset token expired or already used")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming reset marker")
	}

	hash, err := security.HashPassword(newPassword, s.p.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}
	if err := s.p.Users.UpdatePasswordHash(ctx, claims.UserID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update password")
	}

	// Force re-login everywhere after a credential change.
	if err := s.p.Sessions.Revoke(ctx, claims.UserID.String()); err != nil {
		s.p.Logger.Warn(ctx, fmt.Sprintf("auth: revoking sessions after reset failed: %v", err))
	}
	return nil
}

func (s *service) openSession(ctx context.Context, user *models.User) (*Session, error) {
	now := s.now()

	access, err := pkgauth.MintAccessToken(s.p.JWT, now, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	refresh, err := pkgauth.MintRefreshToken(s.p.JWT, now, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting refresh token")
	}

	if err := s.p.Sessions.Save(ctx, user.ID.String(), refresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing refresh token")
	}

	return &Session{
		User:   users.FromModel(user),
		Tokens: TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}
