package workflow_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

func manager() rbac.Actor {
	return rbac.Actor{ID: uuid.New(), Role: rbac.RoleManager}
}

func ticket(status workflow.Status) *workflow.Entity {
	return &workflow.Entity{
		ID:     uuid.New(),
		Kind:   workflow.KindServiceTicket,
		Status: status,
	}
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, workflow.StatusReported, workflow.InitialStatus(workflow.KindServiceTicket))
	assert.Equal(t, workflow.StatusReceived, workflow.InitialStatus(workflow.KindVehicleCase))
	assert.Equal(t, workflow.StatusReceived, workflow.InitialStatus(workflow.KindBatteryCase))
	assert.Equal(t, workflow.StatusPending, workflow.InitialStatus(workflow.KindInventoryMovement))
	assert.Equal(t, workflow.Status(""), workflow.InitialStatus(workflow.Kind("purchase_order")))
}

func TestAttemptTransition_ServiceTicket(t *testing.T) {
	t.Run("legal triage appends one history entry", func(t *testing.T) {
		e := ticket(workflow.StatusReported)
		actor := manager()

		entry, err := workflow.AttemptTransition(e, workflow.StatusTriaged, actor, "initial triage")
		require.NoError(t, err)

		assert.Equal(t, workflow.StatusTriaged, e.Status)
		require.Len(t, e.History, 1)
		assert.Equal(t, workflow.StatusReported, entry.PreviousStatus)
		assert.Equal(t, workflow.StatusTriaged, entry.NewStatus)
		assert.Equal(t, actor.ID, entry.ActorID)
		assert.Equal(t, "initial triage", entry.Note)
	})

	t.Run("closed is terminal for any actor", func(t *testing.T) {
		e := ticket(workflow.StatusClosed)
		_, err := workflow.AttemptTransition(e, workflow.StatusInProgress, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

		// Terminal states reject even their own status.
		_, err = workflow.AttemptTransition(e, workflow.StatusClosed, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
		assert.Empty(t, e.History)
	})

	t.Run("self-transition is rejected", func(t *testing.T) {
		e := ticket(workflow.StatusReported)
		_, err := workflow.AttemptTransition(e, workflow.StatusReported, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
		assert.Equal(t, workflow.StatusReported, e.Status)
	})

	t.Run("skipping states is rejected", func(t *testing.T) {
		e := ticket(workflow.StatusReported)
		_, err := workflow.AttemptTransition(e, workflow.StatusDelivered, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})

	t.Run("guard permission is enforced", func(t *testing.T) {
		e := ticket(workflow.StatusReported)
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician} // no tickets.triage
		_, err := workflow.AttemptTransition(e, workflow.StatusTriaged, tech, "")
		assert.ErrorIs(t, err, workflow.ErrForbidden)
		assert.Equal(t, workflow.StatusReported, e.Status)
	})

	t.Run("in_progress requires an assigned technician", func(t *testing.T) {
		e := ticket(workflow.StatusTriaged)
		_, err := workflow.AttemptTransition(e, workflow.StatusInProgress, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrPreconditionFailed)

		techID := uuid.New()
		e.TechnicianID = &techID
		_, err = workflow.AttemptTransition(e, workflow.StatusInProgress, manager(), "")
		assert.NoError(t, err)
	})

	t.Run("completed requires resolved line items", func(t *testing.T) {
		e := ticket(workflow.StatusInProgress)
		e.OpenLineItems = 2
		_, err := workflow.AttemptTransition(e, workflow.StatusCompleted, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrPreconditionFailed)

		e.OpenLineItems = 0
		_, err = workflow.AttemptTransition(e, workflow.StatusCompleted, manager(), "")
		assert.NoError(t, err)
	})

	t.Run("invalid transition beats missing permission", func(t *testing.T) {
		// Ordering: the table is consulted before the guard, so a
		// permissionless actor probing a terminal entity learns nothing
		// beyond invalidity.
		e := ticket(workflow.StatusClosed)
		noRole := rbac.Actor{ID: uuid.New()}
		_, err := workflow.AttemptTransition(e, workflow.StatusTriaged, noRole, "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})
}

func TestAttemptTransition_BatteryCase(t *testing.T) {
	t.Run("diagnosed requires recorded diagnostics", func(t *testing.T) {
		e := &workflow.Entity{ID: uuid.New(), Kind: workflow.KindBatteryCase, Status: workflow.StatusReceived}
		_, err := workflow.AttemptTransition(e, workflow.StatusDiagnosed, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrPreconditionFailed)

		e.DiagnosticsRecorded = true
		_, err = workflow.AttemptTransition(e, workflow.StatusDiagnosed, manager(), "")
		assert.NoError(t, err)
	})

	t.Run("full lifecycle reaches terminal delivered", func(t *testing.T) {
		e := &workflow.Entity{
			ID:                  uuid.New(),
			Kind:                workflow.KindBatteryCase,
			Status:              workflow.StatusReceived,
			DiagnosticsRecorded: true,
		}
		actor := manager()
		for _, next := range []workflow.Status{
			workflow.StatusDiagnosed, workflow.StatusInRepair,
			workflow.StatusCompleted, workflow.StatusDelivered,
		} {
			_, err := workflow.AttemptTransition(e, next, actor, "")
			require.NoError(t, err, "to %s", next)
		}
		assert.Len(t, e.History, 4)

		_, err := workflow.AttemptTransition(e, workflow.StatusDelivered, actor, "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})
}

func TestAttemptTransition_VehicleCase(t *testing.T) {
	t.Run("in_repair requires an approved estimate", func(t *testing.T) {
		e := &workflow.Entity{
			ID:                  uuid.New(),
			Kind:                workflow.KindVehicleCase,
			Status:              workflow.StatusDiagnosed,
			DiagnosticsRecorded: true,
		}
		_, err := workflow.AttemptTransition(e, workflow.StatusInRepair, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrPreconditionFailed)

		e.EstimateApproved = true
		_, err = workflow.AttemptTransition(e, workflow.StatusInRepair, manager(), "")
		assert.NoError(t, err)
	})

	t.Run("cancelled vehicle case is terminal", func(t *testing.T) {
		e := &workflow.Entity{ID: uuid.New(), Kind: workflow.KindVehicleCase, Status: workflow.StatusReceived}
		_, err := workflow.AttemptTransition(e, workflow.StatusCancelled, manager(), "customer withdrew")
		require.NoError(t, err)

		_, err = workflow.AttemptTransition(e, workflow.StatusReceived, manager(), "")
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})
}

func TestValidate_UnknownKind(t *testing.T) {
	e := &workflow.Entity{ID: uuid.New(), Kind: workflow.Kind("mystery"), Status: workflow.StatusPending}
	err := workflow.Validate(e, workflow.StatusApproved, manager())
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestReachable(t *testing.T) {
	assert.ElementsMatch(t,
		[]workflow.Status{workflow.StatusTriaged, workflow.StatusCancelled},
		workflow.Reachable(workflow.KindServiceTicket, workflow.StatusReported))
	assert.Empty(t, workflow.Reachable(workflow.KindServiceTicket, workflow.StatusClosed))
	assert.Empty(t, workflow.Reachable(workflow.Kind("mystery"), workflow.StatusPending))
}
