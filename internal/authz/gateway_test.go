package authz_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

func newGateway() *authz.Gateway {
	return authz.NewGateway(scope.NewResolver(true), nil)
}

func TestAuthorize_RoleAndPermission(t *testing.T) {
	g := newGateway()

	t.Run("actor without role is NoRoleAssigned, not Forbidden", func(t *testing.T) {
		d := g.Authorize(rbac.Actor{ID: uuid.New()}, authz.Operation{
			Permissions: []rbac.Permission{rbac.ViewCustomers},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonNoRoleAssigned, d.Reason)
	})

	t.Run("technician updating user roles is Forbidden", func(t *testing.T) {
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician, AssignedLocationIDs: []uuid.UUID{uuid.New()}}
		d := g.Authorize(tech, authz.Operation{
			Permissions: []rbac.Permission{rbac.UpdateUserRoles},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonForbidden, d.Reason)
	})

	t.Run("any-of passes with one held permission", func(t *testing.T) {
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician, AssignedLocationIDs: []uuid.UUID{uuid.New()}}
		d := g.Authorize(tech, authz.Operation{
			Permissions: []rbac.Permission{rbac.UpdateUserRoles, rbac.ViewTickets},
		})
		assert.True(t, d.Allowed)
	})

	t.Run("all-of fails with one missing permission", func(t *testing.T) {
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician, AssignedLocationIDs: []uuid.UUID{uuid.New()}}
		d := g.Authorize(tech, authz.Operation{
			Permissions: []rbac.Permission{rbac.ViewTickets, rbac.CloseTicket},
			Mode:        authz.AllOf,
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonForbidden, d.Reason)
	})
}

func TestAuthorize_Scope(t *testing.T) {
	g := newGateway()

	t.Run("scoped read without location context", func(t *testing.T) {
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician}
		d := g.Authorize(tech, authz.Operation{
			Permissions: []rbac.Permission{rbac.ViewCustomers},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonRequiresSelection, d.Reason)
	})

	t.Run("requested location outside assignments", func(t *testing.T) {
		other := uuid.New()
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician, AssignedLocationIDs: []uuid.UUID{uuid.New()}}
		d := g.Authorize(tech, authz.Operation{
			Permissions:       []rbac.Permission{rbac.ViewCustomers},
			RequestedLocation: &other,
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonLocationNotPermitted, d.Reason)
	})

	t.Run("allow carries the derived scope filter", func(t *testing.T) {
		loc := uuid.New()
		tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician, AssignedLocationIDs: []uuid.UUID{loc}}
		d := g.Authorize(tech, authz.Operation{
			Permissions: []rbac.Permission{rbac.ViewCustomers},
		})
		require.True(t, d.Allowed)
		id, ok := d.Scope.Filter()
		require.True(t, ok)
		assert.Equal(t, loc, id)
	})

	t.Run("admin write without location", func(t *testing.T) {
		admin := rbac.Actor{ID: uuid.New(), Role: rbac.RoleAdmin}
		d := g.Authorize(admin, authz.Operation{
			Permissions: []rbac.Permission{rbac.CreateCustomer},
			Write:       true,
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonRequiresSelection, d.Reason)
	})
}

func TestAuthorize_Transitions(t *testing.T) {
	g := newGateway()
	loc := uuid.New()
	manager := rbac.Actor{ID: uuid.New(), Role: rbac.RoleManager, AssignedLocationIDs: []uuid.UUID{loc}}

	t.Run("legal transition is allowed", func(t *testing.T) {
		e := &workflow.Entity{ID: uuid.New(), Kind: workflow.KindServiceTicket, Status: workflow.StatusReported, LocationID: loc}
		d := g.Authorize(manager, authz.Operation{
			Permissions:     []rbac.Permission{rbac.ViewTickets},
			Entity:          e,
			RequestedStatus: workflow.StatusTriaged,
		})
		assert.True(t, d.Allowed)
	})

	t.Run("illegal transition is InvalidTransition", func(t *testing.T) {
		e := &workflow.Entity{ID: uuid.New(), Kind: workflow.KindServiceTicket, Status: workflow.StatusClosed, LocationID: loc}
		d := g.Authorize(manager, authz.Operation{
			Permissions:     []rbac.Permission{rbac.ViewTickets},
			Entity:          e,
			RequestedStatus: workflow.StatusInProgress,
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonInvalidTransition, d.Reason)
	})

	t.Run("unmet precondition is PreconditionFailed", func(t *testing.T) {
		e := &workflow.Entity{ID: uuid.New(), Kind: workflow.KindServiceTicket, Status: workflow.StatusTriaged, LocationID: loc}
		d := g.Authorize(manager, authz.Operation{
			Permissions:     []rbac.Permission{rbac.ViewTickets},
			Entity:          e,
			RequestedStatus: workflow.StatusInProgress,
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonPreconditionFailed, d.Reason)
	})

	t.Run("permission denial comes before transition validity", func(t *testing.T) {
		// A caller without view rights on a closed ticket sees Forbidden,
		// never InvalidTransition: workflow state must not leak.
		noPerms := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician, AssignedLocationIDs: []uuid.UUID{loc}}
		e := &workflow.Entity{ID: uuid.New(), Kind: workflow.KindServiceTicket, Status: workflow.StatusClosed, LocationID: loc}
		d := g.Authorize(noPerms, authz.Operation{
			Permissions:     []rbac.Permission{rbac.UpdateUserRoles},
			Entity:          e,
			RequestedStatus: workflow.StatusInProgress,
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonForbidden, d.Reason)
	})
}

func TestAuthorize_Idempotent(t *testing.T) {
	g := newGateway()
	tech := rbac.Actor{ID: uuid.New(), Role: rbac.RoleTechnician}
	op := authz.Operation{Permissions: []rbac.Permission{rbac.ViewCustomers}}

	first := g.Authorize(tech, op)
	second := g.Authorize(tech, op)

	assert.Equal(t, first.Allowed, second.Allowed)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.Scope, second.Scope)
}
