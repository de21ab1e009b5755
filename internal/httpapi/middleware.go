package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gearup/storefront/internal/auth"
)

const sessionCookie = "session"

type ctxKey struct{}

func withIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the caller verified by the auth middleware, or nil.
func IdentityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(ctxKey{}).(*auth.Identity)
	return id
}

// RequireBearer rejects requests without a verifiable bearer ID token.
func (h *Handler) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := h.Auth.VerifyIDToken(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireAdmin accepts a session cookie or a bearer ID token and lets only
// admins through.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		if err := auth.RequireAdmin(id); errors.Is(err, auth.ErrForbidden) {
			respondError(w, http.StatusForbidden, "Forbidden")
			return
		} else if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id, err := h.Auth.VerifySession(r.Context(), c.Value)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid session")
			return nil, false
		}
		return id, true
	}

	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	id, err := h.Auth.VerifyIDToken(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	return id, true
}
