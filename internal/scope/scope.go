// Package scope decides which location a request may see or write. It is
// the single place multi-branch visibility is derived; downstream queries
// trust its output instead of re-deriving tenancy.
package scope

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
)

var ErrLocationNotPermitted = errors.New("location not permitted for this actor")

// Kind is the outcome of scope resolution.
type Kind int

const (
	// Unscoped applies no location filter to the downstream query.
	Unscoped Kind = iota
	// ScopedTo restricts the query (or stamps the write) to one location.
	ScopedTo
	// RequiresSelection means the actor has no usable location context and
	// must pick one explicitly before the operation can proceed.
	RequiresSelection
)

func (k Kind) String() string {
	switch k {
	case Unscoped:
		return "unscoped"
	case ScopedTo:
		return "scoped"
	case RequiresSelection:
		return "requires_selection"
	default:
		return "unknown"
	}
}

// Scope is the effective location filter for one request.
type Scope struct {
	Kind       Kind
	LocationID uuid.UUID // set only when Kind == ScopedTo
}

// Filter reports the location filter to apply, if any.
func (s Scope) Filter() (uuid.UUID, bool) {
	return s.LocationID, s.Kind == ScopedTo
}

// Resolver derives the effective scope for an actor. The enabled flag is
// the process-wide scoping switch; it defaults on and is only turned off
// by an explicit recognized config value.
type Resolver struct {
	enabled bool
}

func NewResolver(enabled bool) *Resolver {
	return &Resolver{enabled: enabled}
}

func (r *Resolver) Enabled() bool {
	return r.enabled
}

// Resolve computes the scope for a read. The requested location is
// client-held advisory state and is re-validated against the actor's
// assignments on every call; it is never trusted blindly.
func (r *Resolver) Resolve(actor rbac.Actor, requested *uuid.UUID) (Scope, error) {
	if !r.enabled {
		return Scope{Kind: Unscoped}, nil
	}

	if rbac.IsBypassRole(actor.Role) {
		// Bypass roles see everything, but an explicit narrowing is honored.
		if requested != nil {
			return Scope{Kind: ScopedTo, LocationID: *requested}, nil
		}
		return Scope{Kind: Unscoped}, nil
	}

	if len(actor.AssignedLocationIDs) == 0 {
		// A scoped actor with no assignment sees nothing rather than
		// defaulting to all data.
		return Scope{Kind: RequiresSelection}, nil
	}

	if requested != nil {
		if !actor.IsAssigned(*requested) {
			return Scope{}, ErrLocationNotPermitted
		}
		return Scope{Kind: ScopedTo, LocationID: *requested}, nil
	}

	if len(actor.AssignedLocationIDs) == 1 {
		return Scope{Kind: ScopedTo, LocationID: actor.AssignedLocationIDs[0]}, nil
	}

	// Multiple assignments and no explicit choice: never guess.
	return Scope{Kind: RequiresSelection}, nil
}

// ResolveWrite computes the scope for an insert into a scoped table. The
// resolved location is stamped onto the new row, so a ScopedTo outcome is
// required: even a bypass-role actor must pick a location to write into.
// With scoping disabled the stamp is optional and follows the request.
func (r *Resolver) ResolveWrite(actor rbac.Actor, requested *uuid.UUID) (Scope, error) {
	if !r.enabled {
		if requested != nil {
			return Scope{Kind: ScopedTo, LocationID: *requested}, nil
		}
		return Scope{Kind: Unscoped}, nil
	}

	if rbac.IsBypassRole(actor.Role) {
		if requested == nil {
			return Scope{Kind: RequiresSelection}, nil
		}
		return Scope{Kind: ScopedTo, LocationID: *requested}, nil
	}

	sc, err := r.Resolve(actor, requested)
	if err != nil {
		return Scope{}, err
	}
	if sc.Kind != ScopedTo {
		return Scope{Kind: RequiresSelection}, nil
	}
	return sc, nil
}
