package workflow

import (
	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
)

// NewInventoryMovement builds a pending movement requested by the given
// actor. Approval is a separate act by a (normally distinct) approver;
// the requester's role does not need the approve permission.
func NewInventoryMovement(id, locationID uuid.UUID, requestedBy uuid.UUID) *Entity {
	return &Entity{
		ID:          id,
		Kind:        KindInventoryMovement,
		Status:      InitialStatus(KindInventoryMovement),
		LocationID:  locationID,
		RequestedBy: requestedBy,
	}
}

// ApproveMovement moves a pending movement to approved. Anything already
// out of pending is ErrInvalidTransition regardless of actor, which is
// what makes concurrent approvals at-most-once: the loser of the
// conditional write observes the status change and gets the same error.
func ApproveMovement(m *Entity, actor rbac.Actor, note string) (HistoryEntry, error) {
	return AttemptTransition(m, StatusApproved, actor, note)
}

// RejectMovement moves a pending movement to rejected.
func RejectMovement(m *Entity, actor rbac.Actor, note string) (HistoryEntry, error) {
	return AttemptTransition(m, StatusRejected, actor, note)
}
