package httpapi

import (
	"net/http"
	"strings"

	"github.com/gearup/storefront/internal/auth"
)

type sessionRequest struct {
	IDToken string `json:"idToken"`
}

// POST /api/auth/session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		respondError(w, http.StatusBadRequest, "ID token is required")
		return
	}

	cookie, err := h.Auth.CreateSession(r.Context(), req.IDToken, h.SessionTTL)
	if err != nil {
		h.Logger.Printf("create session: %v", err)
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    cookie,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// DELETE /api/auth/session
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// POST /api/auth/verify-admin
func (h *Handler) VerifyAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if err := auth.RequireAdmin(id); err != nil {
		respondJSON(w, http.StatusForbidden, map[string]interface{}{"isAdmin": false, "error": "Forbidden"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isAdmin": true})
}

// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, IdentityFrom(r.Context()))
}
