package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

type activeChecker interface {
	CheckActive(ctx context.Context, sessionID string) error
}

// IdleGuard rejects requests whose session was ended by the idle timer or a logout.
func IdleGuard(sessions activeChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			err := sessions.CheckActive(r.Context(), claims.SessionID)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrSessionExpired), errors.Is(err, domain.ErrNotFound):
				writeJSONError(w, http.StatusUnauthorized, "session expired")
			default:
				slog.Error("idle guard lookup failed", "session_id", claims.SessionID, "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
			}
		})
	}
}
