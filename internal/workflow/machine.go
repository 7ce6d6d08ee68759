package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
)

// Validate checks whether the actor may move the entity to the requested
// status, without mutating anything. Checks run in a fixed order and the
// first failure wins: table lookup, then guard permission, then
// precondition. Unknown kinds fail the table lookup, so ambiguous input
// always lands on a denial.
func Validate(e *Entity, requested Status, actor rbac.Actor) error {
	table, ok := tables[e.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown entity kind %q", ErrInvalidTransition, e.Kind)
	}

	// Self-transitions are rejected unless a table explicitly lists a
	// status as its own successor (none do), keeping history meaningful.
	edges, ok := table[e.Status]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, e.Status)
	}
	r, ok := edges[requested]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, requested)
	}

	if r.guard != "" && !rbac.HasPermission(actor, r.guard) {
		return fmt.Errorf("%w: requires %s", ErrForbidden, r.guard)
	}

	if r.precondition != nil {
		if err := r.precondition(e); err != nil {
			return err
		}
	}

	return nil
}

// AttemptTransition validates and then applies the transition to the
// in-memory entity, appending a history entry. The caller persists the
// result with a conditional write keyed on entry.PreviousStatus; a lost
// race surfaces there as ErrInvalidTransition.
func AttemptTransition(e *Entity, requested Status, actor rbac.Actor, note string) (HistoryEntry, error) {
	if err := Validate(e, requested, actor); err != nil {
		return HistoryEntry{}, err
	}

	entry := HistoryEntry{
		ID:             uuid.New(),
		EntityID:       e.ID,
		PreviousStatus: e.Status,
		NewStatus:      requested,
		ActorID:        actor.ID,
		Timestamp:      time.Now().UTC(),
		Note:           note,
	}

	e.Status = requested
	e.History = append(e.History, entry)

	if e.Kind == KindInventoryMovement && (requested == StatusApproved || requested == StatusRejected) {
		// approvedBy is set exactly when the movement reaches a terminal
		// status, and the transition table guarantees that happens once.
		actorID := actor.ID
		e.ApprovedBy = &actorID
	}

	return entry, nil
}

// Reachable returns the statuses reachable from the entity's current
// status in one step, ignoring guards and preconditions. Used by the API
// to advertise next actions.
func Reachable(kind Kind, current Status) []Status {
	table, ok := tables[kind]
	if !ok {
		return nil
	}
	edges, ok := table[current]
	if !ok {
		return nil
	}
	out := make([]Status, 0, len(edges))
	for s := range edges {
		out = append(out, s)
	}
	return out
}
