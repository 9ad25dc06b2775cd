package controllers

import (
	"net/http"
	"time"

	"github.com/lmorales-dev/shopstream-backend/internal/auth"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Tokens travel only as http-only cookies. Secure is flipped on outside
// dev so local storefronts on plain http keep working.
func setSessionCookies(w http.ResponseWriter, cfg *config.Config, tokens auth.TokenPair) {
	setAccessCookie(w, cfg, tokens.AccessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(cfg.JWT.RefreshTTL() / time.Second),
		HttpOnly: true,
		Secure:   cfg.App.IsProd(),
		SameSite: http.SameSiteStrictMode,
	})
}

func setAccessCookie(w http.ResponseWriter, cfg *config.Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.JWT.AccessTTL() / time.Second),
		HttpOnly: true,
		Secure:   cfg.App.IsProd(),
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter, cfg *config.Config) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.App.IsProd(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
