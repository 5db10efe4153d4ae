package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/document"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/go-chi/chi/v5"
)

// DocumentHandler handles event attachments stored in S3.
type DocumentHandler struct {
	svc     document.Service
	maxSize int64
}

func NewDocumentHandler(svc document.Service, maxSize int64) *DocumentHandler {
	if maxSize <= 0 {
		maxSize = document.DefaultMaxSize
	}
	return &DocumentHandler{svc: svc, maxSize: maxSize}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	docs, err := h.svc.List(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	// Multipart overhead on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form or file larger than %d bytes", h.maxSize))
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	d, err := h.svc.Upload(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), document.UploadInput{
		Reader:      f,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// Download streams the object through the API.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	rc, d, err := h.svc.Download(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Name))
	if d.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	}
	_, _ = io.Copy(w, rc)
}

func (h *DocumentHandler) URL(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	url, err := h.svc.URL(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "document deleted"})
}
