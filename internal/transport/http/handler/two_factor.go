package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/auth"
	"github.com/KenzoYff/evently-ux-platform-94/internal/application/verification"
)

// TwoFactorHandler completes the second login step for pending sessions.
type TwoFactorHandler struct {
	svc         auth.Service
	exposeCodes bool
}

// NewTwoFactorHandler builds the handler. exposeCodes echoes issued codes
// back to the client and must stay off outside local development.
func NewTwoFactorHandler(svc auth.Service, exposeCodes bool) *TwoFactorHandler {
	return &TwoFactorHandler{svc: svc, exposeCodes: exposeCodes}
}

func (h *TwoFactorHandler) Request(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	res, err := h.svc.RequestTwoFactor(r.Context(), claims.UserID, claims.SessionID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codeEnvelope("verification code sent", res, h.exposeCodes))
}

func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req auth.VerifyTwoFactorRequest
	if !decode(w, r, &req) {
		return
	}
	bearer, err := h.svc.VerifyTwoFactor(r.Context(), claims.UserID, claims.SessionID, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, Message: "verified"})
}

func codeEnvelope(msg string, res *verification.IssueResult, expose bool) CodeEnvelope {
	env := CodeEnvelope{Message: msg}
	if res == nil {
		return env
	}
	exp := res.ExpiresAt
	env.ExpiresAt = &exp
	env.DeliveryFailed = res.DeliveryFailed
	if expose {
		env.Code = res.Code
	}
	return env
}
