package middleware

import (
	"net/http"
	"time"

	"github.com/go-kanban/internal/domain"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetSessionCookie stores tok in an HTTP-only, same-site cookie that expires
// with the token.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, tok domain.SessionToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(time.Until(tok.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
