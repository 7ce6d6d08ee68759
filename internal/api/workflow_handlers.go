package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/auth"
	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/queue"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

// workflowResource binds one entity kind to the permissions its generic
// list/create endpoints require. Per-transition guards live in the
// transition tables, not here.
type workflowResource struct {
	kind       workflow.Kind
	viewPerm   rbac.Permission
	createPerm rbac.Permission
}

var (
	ticketResource   = workflowResource{workflow.KindServiceTicket, rbac.ViewTickets, rbac.CreateTicket}
	vehicleResource  = workflowResource{workflow.KindVehicleCase, rbac.ViewVehicles, rbac.CreateVehicleCase}
	batteryResource  = workflowResource{workflow.KindBatteryCase, rbac.ViewBatteries, rbac.CreateBatteryCase}
	movementResource = workflowResource{workflow.KindInventoryMovement, rbac.ViewInventory, rbac.CreateInventoryMovement}
)

func (s *Server) workflowRoutes(res workflowResource) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.handleListEntities(res))
		r.Post("/", s.handleCreateEntity(res))
		r.Get("/{id}", s.handleGetEntity(res))
		r.Post("/{id}/status", s.handleTransition(res))
		r.Get("/{id}/history", s.handleHistory(res))
	}
}

type entityResponse struct {
	ID           uuid.UUID       `json:"id"`
	Kind         workflow.Kind   `json:"kind"`
	Status       workflow.Status `json:"status"`
	LocationID   uuid.UUID       `json:"location_id"`
	TechnicianID *uuid.UUID      `json:"technician_id,omitempty"`
	RequestedBy  *uuid.UUID      `json:"requested_by,omitempty"`
	ApprovedBy   *uuid.UUID      `json:"approved_by,omitempty"`

	// NextStatuses ignores guards and preconditions; the client still has
	// to survive the real checks when it asks.
	NextStatuses []workflow.Status `json:"next_statuses"`
}

func toEntityResponse(e workflow.Entity) entityResponse {
	resp := entityResponse{
		ID:           e.ID,
		Kind:         e.Kind,
		Status:       e.Status,
		LocationID:   e.LocationID,
		TechnicianID: e.TechnicianID,
		ApprovedBy:   e.ApprovedBy,
		NextStatuses: workflow.Reachable(e.Kind, e.Status),
	}
	if e.Kind == workflow.KindInventoryMovement {
		requestedBy := e.RequestedBy
		resp.RequestedBy = &requestedBy
	}
	return resp
}

// requestedLocation reads the optional location_id query param.
func requestedLocation(r *http.Request) (*uuid.UUID, error) {
	raw := r.URL.Query().Get("location_id")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *Server) handleListEntities(res workflowResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.GetActor(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		loc, err := requestedLocation(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationError, "invalid location_id")
			return
		}

		d := s.gateway.Authorize(actor, authz.Operation{
			Permissions:       []rbac.Permission{res.viewPerm},
			RequestedLocation: loc,
		})
		if !d.Allowed {
			writeDenied(w, d)
			return
		}

		limit, offset := parsePagination(r)
		entities, err := s.workflow.List(r.Context(), res.kind, d.Scope, limit, offset)
		if err != nil {
			logging.Error("list entities failed", "kind", res.kind, "error", err)
			writeInternal(w)
			return
		}

		items := make([]entityResponse, 0, len(entities))
		for _, e := range entities {
			items = append(items, toEntityResponse(e))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

type createEntityRequest struct {
	LocationID   *uuid.UUID `json:"location_id"`
	TechnicianID *uuid.UUID `json:"technician_id"`
}

func (s *Server) handleCreateEntity(res workflowResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.GetActor(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		var req createEntityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request body")
			return
		}

		d := s.gateway.Authorize(actor, authz.Operation{
			Permissions:       []rbac.Permission{res.createPerm},
			RequestedLocation: req.LocationID,
			Write:             true,
		})
		if !d.Allowed {
			writeDenied(w, d)
			return
		}

		e := workflow.Entity{
			ID:           uuid.New(),
			Kind:         res.kind,
			Status:       workflow.InitialStatus(res.kind),
			TechnicianID: req.TechnicianID,
		}
		if id, ok := d.Scope.Filter(); ok {
			e.LocationID = id
		}
		if res.kind == workflow.KindInventoryMovement {
			e.RequestedBy = actor.ID
		}

		if err := s.workflow.Create(r.Context(), e); err != nil {
			logging.Error("create entity failed", "kind", res.kind, "error", err)
			writeInternal(w)
			return
		}
		writeJSON(w, http.StatusCreated, toEntityResponse(e))
	}
}

func (s *Server) handleGetEntity(res workflowResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.GetActor(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		if !s.precheckView(w, res, actor) {
			return
		}

		e, found := s.loadEntity(w, r, res)
		if !found {
			return
		}

		// The entity's own location is the requested scope: actors outside
		// it get location_not_permitted instead of the record.
		d := s.gateway.Authorize(actor, authz.Operation{
			Permissions:       []rbac.Permission{res.viewPerm},
			RequestedLocation: &e.LocationID,
		})
		if !d.Allowed {
			writeDenied(w, d)
			return
		}

		writeJSON(w, http.StatusOK, toEntityResponse(e))
	}
}

type transitionRequest struct {
	Status workflow.Status `json:"status"`
	Note   string          `json:"note"`
}

func (s *Server) handleTransition(res workflowResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			writeError(w, http.StatusBadRequest, CodeValidationError, "status is required")
			return
		}
		s.transition(w, r, res, req.Status, req.Note)
	}
}

// transition runs the full authorize-validate-persist pipeline for one
// status change. Concurrent callers both pass validation against their
// snapshots; the conditional update in ApplyTransition picks the winner.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, res workflowResource, requested workflow.Status, note string) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if !s.precheckView(w, res, actor) {
		return
	}

	e, found := s.loadEntity(w, r, res)
	if !found {
		return
	}

	d := s.gateway.Authorize(actor, authz.Operation{
		Permissions:       []rbac.Permission{res.viewPerm},
		RequestedLocation: &e.LocationID,
		Entity:            &e,
		RequestedStatus:   requested,
	})
	if !d.Allowed {
		writeDenied(w, d)
		return
	}

	entry, err := workflow.AttemptTransition(&e, requested, actor, note)
	if err != nil {
		// Authorize already validated; reaching here means the snapshot
		// changed between the two calls. Treat it like a lost race.
		writeError(w, http.StatusConflict, CodeInvalidTransition, err.Error())
		return
	}

	if err := s.workflow.ApplyTransition(r.Context(), e, entry); err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, CodeInvalidTransition, "status changed concurrently, reload and retry")
			return
		}
		logging.Error("apply transition failed", "kind", res.kind, "entity_id", e.ID, "error", err)
		writeInternal(w)
		return
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(res.kind), string(requested)).Inc()
	}
	if s.tasks != nil {
		notice := queue.TransitionNoticePayload{
			EntityKind:     res.kind,
			EntityID:       e.ID,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			ActorID:        actor.ID,
			Note:           note,
		}
		if err := s.tasks.EnqueueTransitionNotice(notice); err != nil {
			// Notification fan-out is best effort; the transition stands.
			logging.Warn("enqueue transition notice failed", "entity_id", e.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, toEntityResponse(e))
}

type historyEntryResponse struct {
	ID             uuid.UUID       `json:"id"`
	PreviousStatus workflow.Status `json:"previous_status"`
	NewStatus      workflow.Status `json:"new_status"`
	ActorID        uuid.UUID       `json:"actor_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Note           string          `json:"note,omitempty"`
}

func (s *Server) handleHistory(res workflowResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.GetActor(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		if !s.precheckView(w, res, actor) {
			return
		}

		e, found := s.loadEntity(w, r, res)
		if !found {
			return
		}

		d := s.gateway.Authorize(actor, authz.Operation{
			Permissions:       []rbac.Permission{res.viewPerm},
			RequestedLocation: &e.LocationID,
		})
		if !d.Allowed {
			writeDenied(w, d)
			return
		}

		entries, err := s.workflow.History(r.Context(), e.ID)
		if err != nil {
			logging.Error("load history failed", "entity_id", e.ID, "error", err)
			writeInternal(w)
			return
		}

		items := make([]historyEntryResponse, 0, len(entries))
		for _, entry := range entries {
			items = append(items, historyEntryResponse{
				ID:             entry.ID,
				PreviousStatus: entry.PreviousStatus,
				NewStatus:      entry.NewStatus,
				ActorID:        entry.ActorID,
				Timestamp:      entry.Timestamp,
				Note:           entry.Note,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// precheckView runs the role and permission gates before any entity
// lookup so a denied actor gets the same response whether or not the id
// exists. Scope and transition checks still run through the gateway
// afterwards, once the entity's location is known.
func (s *Server) precheckView(w http.ResponseWriter, res workflowResource, actor rbac.Actor) bool {
	if !actor.HasRole() {
		writeDenied(w, authz.Decision{Reason: authz.ReasonNoRoleAssigned})
		return false
	}
	if !rbac.HasPermission(actor, res.viewPerm) {
		writeDenied(w, authz.Decision{Reason: authz.ReasonForbidden})
		return false
	}
	return true
}

// loadEntity parses {id} and fetches the entity, writing the error
// response itself on failure.
func (s *Server) loadEntity(w http.ResponseWriter, r *http.Request, res workflowResource) (workflow.Entity, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid id")
		return workflow.Entity{}, false
	}

	e, err := s.workflow.Get(r.Context(), res.kind, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, string(res.kind))
			return workflow.Entity{}, false
		}
		logging.Error("load entity failed", "kind", res.kind, "entity_id", id, "error", err)
		writeInternal(w)
		return workflow.Entity{}, false
	}
	return e, true
}
