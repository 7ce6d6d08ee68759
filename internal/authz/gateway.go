// Package authz composes the permission catalog, the location scope
// resolver and the workflow engine into one request guard. Every mutating
// or scope-filtered operation passes through Gateway.Authorize before any
// data access happens.
package authz

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/metrics"
	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

// Reason classifies a denial. Distinct variants let the transport map to
// different responses (role setup redirect vs 403 vs 400 vs 409).
type Reason string

const (
	ReasonNoRoleAssigned       Reason = "no_role_assigned"
	ReasonForbidden            Reason = "forbidden"
	ReasonRequiresSelection    Reason = "requires_selection"
	ReasonLocationNotPermitted Reason = "location_not_permitted"
	ReasonInvalidTransition    Reason = "invalid_transition"
	ReasonPreconditionFailed   Reason = "precondition_failed"
)

// PermissionMode selects how a multi-permission requirement combines.
type PermissionMode int

const (
	// AnyOf allows the operation if at least one required permission is held.
	AnyOf PermissionMode = iota
	// AllOf requires every listed permission.
	AllOf
)

// Operation describes what the caller wants to do. Entity and
// RequestedStatus are only set for status changes.
type Operation struct {
	Permissions []rbac.Permission
	Mode        PermissionMode

	// RequestedLocation is client-held advisory state, revalidated here.
	RequestedLocation *uuid.UUID
	// Write marks an insert into a scoped table; the resolved location is
	// stamped onto the new row, so writes demand an explicit location.
	Write bool

	Entity          *workflow.Entity
	RequestedStatus workflow.Status
}

// Decision is the composite outcome. A denial carries the reason and the
// underlying error; an allowance carries the scope filter the downstream
// query must apply.
type Decision struct {
	Allowed bool
	Scope   scope.Scope
	Reason  Reason
	Err     error
}

// Gateway is stateless apart from its collaborators; identical inputs
// always produce identical decisions.
type Gateway struct {
	resolver *scope.Resolver
	metrics  *metrics.AuthzMetrics
}

func NewGateway(resolver *scope.Resolver, m *metrics.AuthzMetrics) *Gateway {
	return &Gateway{resolver: resolver, metrics: m}
}

// Authorize runs the checks in a fixed order and short-circuits on the
// first failure: role presence, permissions, scope, then (for status
// changes) the transition itself. The ordering keeps workflow state from
// leaking to actors who aren't even allowed to touch the entity.
func (g *Gateway) Authorize(actor rbac.Actor, op Operation) Decision {
	d := g.authorize(actor, op)
	if g.metrics != nil {
		outcome := "allow"
		if !d.Allowed {
			outcome = string(d.Reason)
		}
		g.metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
	}
	return d
}

func (g *Gateway) authorize(actor rbac.Actor, op Operation) Decision {
	if !actor.HasRole() {
		return deny(ReasonNoRoleAssigned, errors.New("actor has no role assigned"))
	}

	if len(op.Permissions) > 0 {
		held := false
		switch op.Mode {
		case AllOf:
			held = rbac.HasAll(actor, op.Permissions...)
		default:
			held = rbac.HasAny(actor, op.Permissions...)
		}
		if !held {
			return deny(ReasonForbidden, errors.New("required permission not held"))
		}
	}

	var (
		sc  scope.Scope
		err error
	)
	if op.Write {
		sc, err = g.resolver.ResolveWrite(actor, op.RequestedLocation)
	} else {
		sc, err = g.resolver.Resolve(actor, op.RequestedLocation)
	}
	if err != nil {
		if errors.Is(err, scope.ErrLocationNotPermitted) {
			return deny(ReasonLocationNotPermitted, err)
		}
		return deny(ReasonForbidden, err)
	}
	if sc.Kind == scope.RequiresSelection {
		return deny(ReasonRequiresSelection, errors.New("no location selected"))
	}

	if op.Entity != nil && op.RequestedStatus != "" {
		if err := workflow.Validate(op.Entity, op.RequestedStatus, actor); err != nil {
			switch {
			case errors.Is(err, workflow.ErrForbidden):
				return deny(ReasonForbidden, err)
			case errors.Is(err, workflow.ErrPreconditionFailed):
				return deny(ReasonPreconditionFailed, err)
			default:
				return deny(ReasonInvalidTransition, err)
			}
		}
	}

	return Decision{Allowed: true, Scope: sc}
}

func deny(reason Reason, err error) Decision {
	return Decision{Allowed: false, Reason: reason, Err: err}
}
