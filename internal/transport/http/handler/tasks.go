package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/task"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/go-chi/chi/v5"
)

// TaskHandler handles the kanban tasks of an event.
type TaskHandler struct {
	svc task.Service
}

func NewTaskHandler(svc task.Service) *TaskHandler { return &TaskHandler{svc: svc} }

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	tasks, err := h.svc.List(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Update(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Move(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.MoveTaskRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Move(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "task deleted"})
}
