package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/event"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/go-chi/chi/v5"
)

// EventHandler handles events and their team membership.
type EventHandler struct {
	svc event.Service
}

func NewEventHandler(svc event.Service) *EventHandler { return &EventHandler{svc: svc} }

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	events, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.CreateEventRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Get(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.UpdateEventRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := h.svc.Update(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "event deleted"})
}

func (h *EventHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	members, err := h.svc.Members(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *EventHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.AddMemberRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.svc.AddMember(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *EventHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	err := h.svc.RemoveMember(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "member removed"})
}
