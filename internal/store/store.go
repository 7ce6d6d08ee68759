// Package store defines the data-access contracts the engine depends on.
// Implementations must apply the scope filter they are handed and perform
// status writes as conditional updates so concurrent transitions cannot
// silently overwrite each other.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

var ErrNotFound = errors.New("record not found")

// Location is a branch of the shop and the tenancy boundary for every
// scoped row.
type Location struct {
	ID   uuid.UUID
	Name string
	Code string
}

// User is an authenticated account. Role and location assignments are
// re-read per request; they are never cached across requests because an
// admin can revoke an assignment mid-session.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         rbac.Role
	LocationIDs  []uuid.UUID
}

// Actor converts the stored user into the request-scoped identity.
func (u User) Actor() rbac.Actor {
	return rbac.Actor{ID: u.ID, Role: u.Role, AssignedLocationIDs: u.LocationIDs}
}

type Customer struct {
	ID         uuid.UUID
	LocationID uuid.UUID
	Name       string
	Phone      string
	Email      string
	CreatedAt  time.Time
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role) error
	AssignLocation(ctx context.Context, userID, locationID uuid.UUID) error
}

type LocationStore interface {
	List(ctx context.Context) ([]Location, error)
	Create(ctx context.Context, loc Location) error
}

type CustomerStore interface {
	// List applies the scope as a mandatory filter: Unscoped means no
	// location predicate, ScopedTo restricts to one location.
	List(ctx context.Context, sc scope.Scope, limit, offset int32) ([]Customer, error)
	Create(ctx context.Context, c Customer) error
}

// WorkflowStore persists workflow entities and their transition history.
type WorkflowStore interface {
	Get(ctx context.Context, kind workflow.Kind, id uuid.UUID) (workflow.Entity, error)
	List(ctx context.Context, kind workflow.Kind, sc scope.Scope, limit, offset int32) ([]workflow.Entity, error)
	Create(ctx context.Context, e workflow.Entity) error

	// ApplyTransition persists an already-validated transition with a
	// conditional update keyed on entry.PreviousStatus. If the row's
	// status moved underneath the caller the update matches zero rows and
	// workflow.ErrInvalidTransition is returned; the history entry is only
	// written when the update lands. This is what makes approvals
	// at-most-once.
	ApplyTransition(ctx context.Context, e workflow.Entity, entry workflow.HistoryEntry) error

	// History returns the append-only audit trail, oldest first.
	History(ctx context.Context, entityID uuid.UUID) ([]workflow.HistoryEntry, error)
}
