package api

import (
	"encoding/json"
	"net/http"

	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

// Movement endpoints reuse the generic workflow pipeline; approve and
// reject are just named transitions, guarded by the movement table's
// inventory.movement.approve edge rather than handler-level checks.

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	s.handleListEntities(movementResource)(w, r)
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	s.handleCreateEntity(movementResource)(w, r)
}

type movementDecisionRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleApproveMovement(w http.ResponseWriter, r *http.Request) {
	s.decideMovement(w, r, true)
}

func (s *Server) handleRejectMovement(w http.ResponseWriter, r *http.Request) {
	s.decideMovement(w, r, false)
}

func (s *Server) decideMovement(w http.ResponseWriter, r *http.Request, approve bool) {
	var req movementDecisionRequest
	if r.Body != nil {
		// The note is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	status := workflow.StatusRejected
	if approve {
		status = workflow.StatusApproved
	}
	s.transition(w, r, movementResource, status, req.Note)
}
