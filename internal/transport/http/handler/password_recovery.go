package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/auth"
	"github.com/go-chi/chi/v5"
)

// PasswordRecoveryHandler handles password recovery flow endpoints.
type PasswordRecoveryHandler struct {
	svc         auth.Service
	exposeCodes bool
}

func NewPasswordRecoveryHandler(svc auth.Service, exposeCodes bool) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc, exposeCodes: exposeCodes}
}

// Action dispatches on {action}: "request" issues a reset code, "reset"
// consumes it and sets the new password.
func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req auth.PasswordRecoveryRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := h.svc.RequestPasswordRecovery(r.Context(), req)
		if err != nil {
			httpError(w, err)
			return
		}
		// Unknown accounts get the same answer so emails cannot be enumerated.
		writeJSON(w, http.StatusOK, codeEnvelope("if the account exists, a code was sent", res, h.exposeCodes))
	case "reset":
		var req auth.ResetPasswordRequest
		if !decode(w, r, &req) {
			return
		}
		if err := h.svc.ResetPassword(r.Context(), req); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
