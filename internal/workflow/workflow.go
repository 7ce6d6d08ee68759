// Package workflow is the single choke point for entity status changes.
// Every status mutation in the system goes through AttemptTransition
// against a per-kind transition table, so no handler flips a status field
// on its own.
package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition covers unreachable statuses, terminal states,
	// self-transitions and lost conditional-update races uniformly.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden means the actor lacks the transition's guard permission.
	ErrForbidden = errors.New("transition not permitted for actor")
	// ErrPreconditionFailed means the transition is structurally legal but
	// a data precondition on the entity is unmet.
	ErrPreconditionFailed = errors.New("transition precondition failed")
)

// Kind names a workflow entity family.
type Kind string

const (
	KindServiceTicket     Kind = "service_ticket"
	KindVehicleCase       Kind = "vehicle_case"
	KindBatteryCase       Kind = "battery_case"
	KindInventoryMovement Kind = "inventory_movement"
)

// Status values. Kinds share spellings where the meaning matches; the
// transition tables keep them apart.
type Status string

const (
	StatusReported   Status = "reported"
	StatusTriaged    Status = "triaged"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusClosed     Status = "closed"

	StatusReceived  Status = "received"
	StatusDiagnosed Status = "diagnosed"
	StatusInRepair  Status = "in_repair"
	StatusReady     Status = "ready"

	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// InitialStatus is the status a freshly created entity of the kind starts
// in. Unknown kinds return the empty status.
func InitialStatus(kind Kind) Status {
	switch kind {
	case KindServiceTicket:
		return StatusReported
	case KindVehicleCase, KindBatteryCase:
		return StatusReceived
	case KindInventoryMovement:
		return StatusPending
	default:
		return ""
	}
}

// HistoryEntry is one accepted transition. History is append-only; the
// engine writes entries and nothing ever mutates or deletes them.
type HistoryEntry struct {
	ID             uuid.UUID
	EntityID       uuid.UUID
	PreviousStatus Status
	NewStatus      Status
	ActorID        uuid.UUID
	Timestamp      time.Time
	Note           string
}

// Entity is the workflow-relevant slice of a record. Fields past Status
// feed the precondition predicates; which ones are meaningful depends on
// the kind.
type Entity struct {
	ID         uuid.UUID
	Kind       Kind
	Status     Status
	LocationID uuid.UUID

	// Service tickets.
	TechnicianID  *uuid.UUID
	OpenLineItems int

	// Battery and vehicle cases.
	DiagnosticsRecorded bool
	EstimateApproved    bool

	// Inventory movements.
	RequestedBy uuid.UUID
	ApprovedBy  *uuid.UUID

	History []HistoryEntry
}
