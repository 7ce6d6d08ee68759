package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/auth"
	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
)

type updateRoleRequest struct {
	Role rbac.Role `json:"role"`
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid id")
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}
	if !validRole(req.Role) {
		writeError(w, http.StatusBadRequest, CodeValidationError, "unknown role")
		return
	}

	d := s.gateway.Authorize(actor, authz.Operation{
		Permissions: []rbac.Permission{rbac.ManageUsers, rbac.UpdateUserRoles},
		Mode:        authz.AllOf,
	})
	if !d.Allowed {
		writeDenied(w, d)
		return
	}

	if err := s.users.UpdateRole(r.Context(), userID, req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, "user")
			return
		}
		logging.Error("update user role failed", "user_id", userID, "error", err)
		writeInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": userID, "role": req.Role})
}

func validRole(role rbac.Role) bool {
	for _, r := range rbac.Roles() {
		if r == role {
			return true
		}
	}
	return false
}
