package handler

import (
	"net/http"
	"strconv"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/user"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxAvatarForm = 5 << 20

// ChangePasswordRequest is the body of POST /password/change.
type ChangePasswordRequest = domain.ChangePasswordRequest

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.RegisterWithSession(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Bearer:       result.Bearer,
		RefreshToken: result.RefreshToken,
		Session:      toSafeSession(result.Session),
		User:         toSafeUser(result.Session.User),
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}
	users, next, err := h.svc.List(r.Context(), perPage, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	safe := make([]*SafeUser, len(users))
	for i := range users {
		safe[i] = toSafeUser(&users[i])
	}
	writeJSON(w, http.StatusOK, PaginatedUsersEnvelope{PerPage: perPage, NextCursor: next, Data: safe})
}

// Get returns the full profile to its owner and to admins, and the public
// view to everyone else.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	targetID := chi.URLParam(r, "id")
	u, err := h.svc.Get(r.Context(), targetID)
	if err != nil {
		httpError(w, err)
		return
	}
	if claims.UserID == targetID || claims.Role == domain.RoleAdmin {
		writeJSON(w, http.StatusOK, toSafeUser(u))
		return
	}
	writeJSON(w, http.StatusOK, toPublicUser(u))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	actor := user.Actor{UserID: claims.UserID, Role: claims.Role}
	u, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	targetID := chi.URLParam(r, "id")
	if claims.UserID != targetID && claims.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "cannot delete another user")
		return
	}
	if err := h.svc.Delete(r.Context(), targetID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user deleted"})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarForm+1<<10)
	if err := r.ParseMultipartForm(maxAvatarForm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	actor := user.Actor{UserID: claims.UserID, Role: claims.Role}
	u, url, err := h.svc.UploadAvatar(r.Context(), actor, chi.URLParam(r, "id"), user.AvatarInput{
		Reader:      f,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": toSafeUser(u), "url": url})
}
