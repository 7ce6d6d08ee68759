package memstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store/memstore"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

func TestApplyTransition_ConditionalWrite(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	wf := s.Workflow()

	actor := rbac.Actor{ID: uuid.New(), Role: rbac.RoleManager}
	e := workflow.Entity{ID: uuid.New(), Kind: workflow.KindServiceTicket, Status: workflow.StatusReported, LocationID: uuid.New()}
	require.NoError(t, wf.Create(ctx, e))

	entry, err := workflow.AttemptTransition(&e, workflow.StatusTriaged, actor, "")
	require.NoError(t, err)
	require.NoError(t, wf.ApplyTransition(ctx, e, entry))

	stored, err := wf.Get(ctx, workflow.KindServiceTicket, e.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusTriaged, stored.Status)

	// Replaying the same entry must fail: the stored status no longer
	// matches the one the entry was validated against.
	err = wf.ApplyTransition(ctx, e, entry)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	history, err := wf.History(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestConcurrentApproval_AtMostOnce(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	wf := s.Workflow()

	requester := uuid.New()
	movement := workflow.NewInventoryMovement(uuid.New(), uuid.New(), requester)
	require.NoError(t, wf.Create(ctx, *movement))

	approver := rbac.Actor{ID: uuid.New(), Role: rbac.RoleManager}
	rejecter := rbac.Actor{ID: uuid.New(), Role: rbac.RoleAdmin}

	// Both sides validate against the same pending snapshot, then race the
	// conditional write. Exactly one may land.
	var wg sync.WaitGroup
	results := make([]error, 2)

	run := func(idx int, target workflow.Status, actor rbac.Actor) {
		defer wg.Done()
		local, err := wf.Get(ctx, workflow.KindInventoryMovement, movement.ID)
		if err != nil {
			results[idx] = err
			return
		}
		entry, err := workflow.AttemptTransition(&local, target, actor, "")
		if err != nil {
			results[idx] = err
			return
		}
		results[idx] = wf.ApplyTransition(ctx, local, entry)
	}

	wg.Add(2)
	go run(0, workflow.StatusApproved, approver)
	go run(1, workflow.StatusRejected, rejecter)
	wg.Wait()

	var accepted, lost int
	for _, err := range results {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
			lost++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one decision must win")
	assert.Equal(t, 1, lost)

	final, err := wf.Get(ctx, workflow.KindInventoryMovement, movement.ID)
	require.NoError(t, err)
	assert.Contains(t, []workflow.Status{workflow.StatusApproved, workflow.StatusRejected}, final.Status)
	require.NotNil(t, final.ApprovedBy)

	history, err := wf.History(ctx, movement.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, final.Status, history[0].NewStatus)
}

func TestCustomerScopeFilter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	locA, locB := uuid.New(), uuid.New()

	require.NoError(t, s.Customers().Create(ctx, store.Customer{ID: uuid.New(), LocationID: locA, Name: "A1"}))
	require.NoError(t, s.Customers().Create(ctx, store.Customer{ID: uuid.New(), LocationID: locB, Name: "B1"}))

	scoped, err := s.Customers().List(ctx, scope.Scope{Kind: scope.ScopedTo, LocationID: locA}, 50, 0)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "A1", scoped[0].Name)

	all, err := s.Customers().List(ctx, scope.Scope{Kind: scope.Unscoped}, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
