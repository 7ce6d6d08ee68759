package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/auth"
	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
)

type locationResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

// handleListLocations returns every location the actor may pick from: all
// of them for bypass roles, the assigned subset otherwise. The location
// directory itself is not a scoped table, so no gateway scope resolution
// happens here; role presence is still required.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if !actor.HasRole() {
		writeDenied(w, authz.Decision{Reason: authz.ReasonNoRoleAssigned})
		return
	}

	locations, err := s.locations.List(r.Context())
	if err != nil {
		logging.Error("list locations failed", "error", err)
		writeInternal(w)
		return
	}

	items := make([]locationResponse, 0, len(locations))
	for _, loc := range locations {
		if !rbac.IsBypassRole(actor.Role) && !actor.IsAssigned(loc.ID) {
			continue
		}
		items = append(items, locationResponse{ID: loc.ID, Name: loc.Name, Code: loc.Code})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createLocationRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "name and code are required")
		return
	}

	d := s.gateway.Authorize(actor, authz.Operation{
		Permissions: []rbac.Permission{rbac.ManageLocations},
	})
	if !d.Allowed {
		writeDenied(w, d)
		return
	}

	loc := store.Location{ID: uuid.New(), Name: req.Name, Code: req.Code}
	if err := s.locations.Create(r.Context(), loc); err != nil {
		logging.Error("create location failed", "error", err)
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusCreated, locationResponse{ID: loc.ID, Name: loc.Name, Code: loc.Code})
}
