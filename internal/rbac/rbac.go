package rbac

import "github.com/google/uuid"

// Role is a closed enumeration. A user holds exactly one role; an empty
// Role means the account has not been through role setup yet.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleFrontDeskManager Role = "front_desk_manager"
	RoleManager          Role = "manager"
	RoleTechnician       Role = "technician"
)

// Permission is an opaque capability. Runtime code never combines
// permissions; the catalog is the single source of truth.
// Seeded in db/migrations/00002_seed_roles_permissions.sql.
type Permission string

const (
	ViewCustomers  Permission = "customers.view"
	CreateCustomer Permission = "customers.create"
	EditCustomer   Permission = "customers.edit"

	ViewBatteries     Permission = "batteries.view"
	CreateBatteryCase Permission = "batteries.create"
	DiagnoseBattery   Permission = "batteries.diagnose"
	EditBatteryCase   Permission = "batteries.edit"

	ViewVehicles      Permission = "vehicles.view"
	CreateVehicleCase Permission = "vehicles.create"
	EditVehicleCase   Permission = "vehicles.edit"

	ViewTickets    Permission = "tickets.view"
	CreateTicket   Permission = "tickets.create"
	TriageTicket   Permission = "tickets.triage"
	AssignTicket   Permission = "tickets.assign"
	CompleteTicket Permission = "tickets.complete"
	DeliverTicket  Permission = "tickets.deliver"
	CloseTicket    Permission = "tickets.close"
	CancelTicket   Permission = "tickets.cancel"

	ViewInventory            Permission = "inventory.view"
	CreateInventoryMovement  Permission = "inventory.movement.create"
	ApproveInventoryMovement Permission = "inventory.movement.approve"

	ViewBilling     Permission = "billing.view"
	GenerateInvoice Permission = "billing.invoice.generate"

	ManageUsers     Permission = "admin.users.manage"
	UpdateUserRoles Permission = "admin.users.roles"
	ManageLocations Permission = "admin.locations.manage"
)

// Actor is the authenticated identity a request acts as. It is resolved
// once per request from the session and treated as immutable afterwards.
type Actor struct {
	ID                  uuid.UUID
	Role                Role
	AssignedLocationIDs []uuid.UUID
}

// HasRole reports whether the actor finished role setup.
func (a Actor) HasRole() bool {
	return a.Role != ""
}

// IsAssigned reports whether locationID is one of the actor's assignments.
func (a Actor) IsAssigned(locationID uuid.UUID) bool {
	for _, id := range a.AssignedLocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}
