package handler

import (
	"net/http"

	"github.com/go-kanban/internal/domain"
)

// ListRoles returns the role names from lowest to highest.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []domain.Role{domain.RoleGuest, domain.RoleUser, domain.RoleAdmin})
}
