package httpapi

import (
	"context"
	"net/http"

	"github.com/daybook/server/internal/app/identity"
	"github.com/daybook/server/internal/platform/auth"
)

type ownerContextKey struct{}

func contextWithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, ownerID)
}

func ownerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerContextKey{}).(string)
	return id
}

// authMiddleware accepts the session cookie or an Authorization bearer
// token and stores the owner id on the request context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := h.Identity.Authenticate(auth.TokenFromRequest(r))
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithOwner(r.Context(), ownerID)))
	})
}

func (h *Handler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, auth.SessionCookie(token, h.Identity.AuthToken.TTL, h.CookieSecure))
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req identity.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	resp, err := h.Identity.Register(r.Context(), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.setSession(w, resp.Token)
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req identity.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	resp, err := h.Identity.Login(r.Context(), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.setSession(w, resp.Token)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, auth.ClearedCookie(h.CookieSecure))
	h.writeMessage(w, http.StatusOK, "Logout successful")
}
