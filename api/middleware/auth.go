package middleware

import (
	"net/http"
	"strings"

	"github.com/lmorales-dev/shopstream-backend/api/responses"
	pkgauth "github.com/lmorales-dev/shopstream-backend/pkg/auth"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
)

// AccessTokenCookie is the cookie the auth controller sets on login.
const AccessTokenCookie = "accessToken"

// Auth validates the access token and seeds the request context with the
// claims. The cookie is the primary transport; an Authorization bearer
// header is accepted as a fallback for non-browser clients and the SSE
// handshake.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFromRequest(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithActor(r.Context(), claims.UserID.String(), string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}

	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
