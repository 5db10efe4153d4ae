package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/session"
	jwtinfra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/jwt"
	"github.com/KenzoYff/evently-ux-platform-94/internal/transport/http/middleware"
)

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// requireClaims writes a 401 when the request carries no verified bearer.
func requireClaims(w http.ResponseWriter, r *http.Request) (*jwtinfra.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return claims, ok
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	env := AuthEnvelope{
		Bearer:       result.Bearer,
		RefreshToken: result.RefreshToken,
		Session:      toSafeSession(result.Session),
		User:         toSafeUser(result.Session.User),
	}
	if result.Session.TwoFactorPending {
		env.Message = "two-factor verification required"
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if !decode(w, r, &req) {
		return
	}
	bearer, newToken, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, RefreshToken: newToken})
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.GetCurrent(r.Context(), claims.SessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: toSafeSession(sess), User: toSafeUser(sess.User)})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Logout(r.Context(), claims.SessionID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// Activity records a tracked client interaction and returns the refreshed idle state.
func (h *SessionHandler) Activity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		Signal string `json:"signal" validate:"required"`
	}
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.RecordActivity(r.Context(), claims.UserID, claims.SessionID, req.Signal)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          st.Status,
		"expires_at":      st.ExpiresAt,
		"timeout_seconds": int(st.Timeout.Seconds()),
	})
}
