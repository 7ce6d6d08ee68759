package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store/memstore"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

// ActorBuilder provides a fluent interface for building test actors.
type ActorBuilder struct {
	actor rbac.Actor
}

// NewActor starts an actor with a fresh ID and no role.
func NewActor() *ActorBuilder {
	return &ActorBuilder{actor: rbac.Actor{ID: uuid.New()}}
}

// WithRole sets the role.
func (b *ActorBuilder) WithRole(role rbac.Role) *ActorBuilder {
	b.actor.Role = role
	return b
}

// AssignedTo appends location assignments.
func (b *ActorBuilder) AssignedTo(locationIDs ...uuid.UUID) *ActorBuilder {
	b.actor.AssignedLocationIDs = append(b.actor.AssignedLocationIDs, locationIDs...)
	return b
}

// Build returns the assembled actor.
func (b *ActorBuilder) Build() rbac.Actor {
	return b.actor
}

// Admin is a bypass-role actor with no explicit assignments.
func Admin() rbac.Actor {
	return NewActor().WithRole(rbac.RoleAdmin).Build()
}

// Manager is a scoped actor assigned to the given locations.
func Manager(locationIDs ...uuid.UUID) rbac.Actor {
	return NewActor().WithRole(rbac.RoleManager).AssignedTo(locationIDs...).Build()
}

// Technician is a scoped actor assigned to the given locations.
func Technician(locationIDs ...uuid.UUID) rbac.Actor {
	return NewActor().WithRole(rbac.RoleTechnician).AssignedTo(locationIDs...).Build()
}

// SeedLocation creates a location in the store and returns its ID.
func SeedLocation(t *testing.T, s *memstore.Store, name, code string) uuid.UUID {
	t.Helper()
	loc := store.Location{ID: uuid.New(), Name: name, Code: code}
	require.NoError(t, s.Create(context.Background(), loc))
	return loc.ID
}

// SeedLocationWithID creates a location under a caller-chosen ID.
func SeedLocationWithID(t *testing.T, s *memstore.Store, id uuid.UUID, name, code string) {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), store.Location{ID: id, Name: name, Code: code}))
}

// SeedUser stores a user matching the actor so auth middleware lookups
// resolve it.
func SeedUser(t *testing.T, s *memstore.Store, actor rbac.Actor, email, passwordHash string) {
	t.Helper()
	s.PutUser(store.User{
		ID:           actor.ID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         actor.Role,
		LocationIDs:  actor.AssignedLocationIDs,
	})
}

// EntityBuilder assembles workflow entities for tests.
type EntityBuilder struct {
	entity workflow.Entity
}

// NewEntity starts an entity of the kind in its initial status.
func NewEntity(kind workflow.Kind, locationID uuid.UUID) *EntityBuilder {
	return &EntityBuilder{entity: workflow.Entity{
		ID:         uuid.New(),
		Kind:       kind,
		Status:     workflow.InitialStatus(kind),
		LocationID: locationID,
	}}
}

// WithStatus overrides the status.
func (b *EntityBuilder) WithStatus(status workflow.Status) *EntityBuilder {
	b.entity.Status = status
	return b
}

// WithTechnician assigns a technician.
func (b *EntityBuilder) WithTechnician(id uuid.UUID) *EntityBuilder {
	b.entity.TechnicianID = &id
	return b
}

// WithOpenLineItems sets the unresolved line item count.
func (b *EntityBuilder) WithOpenLineItems(n int) *EntityBuilder {
	b.entity.OpenLineItems = n
	return b
}

// WithDiagnostics marks diagnostics as recorded.
func (b *EntityBuilder) WithDiagnostics() *EntityBuilder {
	b.entity.DiagnosticsRecorded = true
	return b
}

// WithEstimateApproved marks the estimate as approved.
func (b *EntityBuilder) WithEstimateApproved() *EntityBuilder {
	b.entity.EstimateApproved = true
	return b
}

// RequestedBy sets the movement requester.
func (b *EntityBuilder) RequestedBy(id uuid.UUID) *EntityBuilder {
	b.entity.RequestedBy = id
	return b
}

// Build returns the assembled entity.
func (b *EntityBuilder) Build() workflow.Entity {
	return b.entity
}

// Seed stores the entity and returns it.
func (b *EntityBuilder) Seed(t *testing.T, s *memstore.Store) workflow.Entity {
	t.Helper()
	e := b.Build()
	require.NoError(t, s.Workflow().Create(context.Background(), e))
	return e
}
