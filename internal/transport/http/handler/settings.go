package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/settings"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

// SettingsHandler exposes the caller's security and notification preferences.
type SettingsHandler struct {
	svc settings.Service
}

func NewSettingsHandler(svc settings.Service) *SettingsHandler { return &SettingsHandler{svc: svc} }

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.UpdateSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.svc.Update(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
