package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/finview/portfolio-tracker/internal/auth"
	"github.com/finview/portfolio-tracker/internal/model"
)

const _sessionCookie = "session_id"

// authedHandler receives the acting user resolved from the session
// cookie; nothing downstream reaches back into ambient auth state.
type authedHandler func(w http.ResponseWriter, r *http.Request, user model.User)

func (h *Handler) withUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(_sessionCookie); err == nil {
			sessionID = c.Value
		}

		user, err := h.auth.UserBySession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, auth.ErrNoSession) {
				h.writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			h.logger.Errorf("%s: can't resolve session", err)
			h.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next(w, r, user)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     _sessionCookie,
		Value:    sessionID,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     _sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
