package handler

import (
	"net/http"

	"github.com/go-kanban/internal/application/auth"
	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/transport/http/middleware"
)

// AuthHandler handles the login code flow and the session cookie.
type AuthHandler struct {
	svc    auth.Service
	cookie middleware.CookieConfig
}

func NewAuthHandler(svc auth.Service, cookie middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

// RequestCode always answers 202 for a well-formed email so callers cannot
// probe which addresses have accounts.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestCodeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.RequestCode(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "code sent"})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	middleware.SetSessionCookie(w, h.cookie, res.Token)
	expires := res.Token.ExpiresAt
	writeJSON(w, http.StatusOK, SessionEnvelope{
		Subject:       res.Subject,
		Authenticated: true,
		ExpiresAt:     &expires,
		User:          res.User,
	})
}

// Logout drops the cookie. Tokens are stateless, so there is nothing to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	middleware.ClearSessionCookie(w, h.cookie)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s := middleware.SubjectFromContext(r.Context())
	writeJSON(w, http.StatusOK, SessionEnvelope{Subject: s, Authenticated: !s.IsAnonymous()})
}
