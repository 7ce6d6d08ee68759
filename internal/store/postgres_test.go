package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

// newTestPostgres connects to the database named by TEST_DATABASE_URL and
// resets it through the goose migrations, so the queries below run against
// exactly the schema db/migrations produces. Skipped when the variable is
// unset; point it at a disposable database only.
func newTestPostgres(t *testing.T) *store.Postgres {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, goose.Reset(db, "../../db/migrations"))
	require.NoError(t, goose.Up(db, "../../db/migrations"))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return store.NewPostgres(pool)
}

func TestPostgresApplyTransitionAndHistory(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()
	wf := p.Workflow()

	loc := store.Location{ID: uuid.New(), Name: "North", Code: "north"}
	require.NoError(t, p.Create(ctx, loc))

	actor := rbac.Actor{ID: uuid.New(), Role: rbac.RoleManager, AssignedLocationIDs: []uuid.UUID{loc.ID}}
	e := workflow.Entity{
		ID:         uuid.New(),
		Kind:       workflow.KindServiceTicket,
		Status:     workflow.StatusReported,
		LocationID: loc.ID,
	}
	require.NoError(t, wf.Create(ctx, e))

	entry, err := workflow.AttemptTransition(&e, workflow.StatusTriaged, actor, "walk-in triage")
	require.NoError(t, err)
	require.NoError(t, wf.ApplyTransition(ctx, e, entry))

	got, err := wf.Get(ctx, workflow.KindServiceTicket, e.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusTriaged, got.Status)

	hist, err := wf.History(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, workflow.StatusReported, hist[0].PreviousStatus)
	assert.Equal(t, workflow.StatusTriaged, hist[0].NewStatus)
	assert.Equal(t, actor.ID, hist[0].ActorID)
	assert.Equal(t, "walk-in triage", hist[0].Note)

	// Replaying the same entry must lose the conditional update and leave
	// no second history row behind.
	err = wf.ApplyTransition(ctx, e, entry)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	hist, err = wf.History(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestPostgresMovementApprovalAtMostOnce(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()
	wf := p.Workflow()

	loc := store.Location{ID: uuid.New(), Name: "South", Code: "south"}
	require.NoError(t, p.Create(ctx, loc))

	approver := rbac.Actor{ID: uuid.New(), Role: rbac.RoleManager, AssignedLocationIDs: []uuid.UUID{loc.ID}}
	m := workflow.NewInventoryMovement(uuid.New(), loc.ID, uuid.New())
	require.NoError(t, wf.Create(ctx, *m))

	approve := *m
	approveEntry, err := workflow.ApproveMovement(&approve, approver, "")
	require.NoError(t, err)

	reject := *m
	rejectEntry, err := workflow.RejectMovement(&reject, approver, "")
	require.NoError(t, err)

	// Both decisions validated against the pending snapshot; only the
	// first conditional write can land.
	require.NoError(t, wf.ApplyTransition(ctx, approve, approveEntry))
	err = wf.ApplyTransition(ctx, reject, rejectEntry)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	got, err := wf.Get(ctx, workflow.KindInventoryMovement, m.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, approver.ID, *got.ApprovedBy)
}
