package http

import (
	"net/http"
	"time"

	"orgfees/internal/auth"
	"orgfees/internal/core"
)

type AuthHandler struct {
	service      *auth.Service
	secureCookie bool
}

func NewAuthHandler(service *auth.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

type sessionResponse struct {
	User      core.User `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeResult(w, r, "login", nil, err)
		return
	}
	NewResponse().
		Cookie(auth.SessionCookie(session.Token, session.ExpiresAt, h.secureCookie)).
		Data(sessionResponse{User: session.User, ExpiresAt: session.ExpiresAt}).
		Write(w)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Cookie(auth.ClearedCookie(h.secureCookie)).Message("Logged out").Write(w)
}

// handleUpdateMe changes the caller's email or password and replaces the
// session cookie so it carries the new email.
func (h *AuthHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req accountUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	session, err := h.service.UpdateMe(r.Context(), actorOf(r), auth.AccountUpdate{
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeResult(w, r, "update account", nil, err)
		return
	}
	NewResponse().
		Cookie(auth.SessionCookie(session.Token, session.ExpiresAt, h.secureCookie)).
		Data(sessionResponse{User: session.User, ExpiresAt: session.ExpiresAt}).
		Write(w)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), actorOf(r))
	writeResult(w, r, "me", user, err)
}
