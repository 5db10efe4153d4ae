package handler

import (
	"net/http"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
)

// ListRoles returns the assignable role names.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Roles)
}

// ListStatuses returns the option lists the client renders in its selects.
func ListStatuses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.AllStatuses())
}
