package handlers

import (
	"errors"
	"net/http"

	"github.com/lcalzada-xor/airstrike/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/core/services/auth"
)

const sessionMaxAge = 86400

// AuthHandler issues and revokes operator sessions.
type AuthHandler struct {
	Service ports.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service ports.AuthService) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.Service.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrRateLimitExceeded) {
			writeError(w, http.StatusTooManyRequests, "Too many failed attempts")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   sessionMaxAge,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_in", "token": token})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFrom(r); token != "" {
		_ = h.Service.Logout(r.Context(), token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
