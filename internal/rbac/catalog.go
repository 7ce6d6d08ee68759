package rbac

// catalog maps each role to the permissions it grants. Unknown roles are
// simply absent, so lookups on them fail closed to the empty set.
var catalog = map[Role][]Permission{
	RoleAdmin: {
		ViewCustomers, CreateCustomer, EditCustomer,
		ViewBatteries, CreateBatteryCase, DiagnoseBattery, EditBatteryCase,
		ViewVehicles, CreateVehicleCase, EditVehicleCase,
		ViewTickets, CreateTicket, TriageTicket, AssignTicket,
		CompleteTicket, DeliverTicket, CloseTicket, CancelTicket,
		ViewInventory, CreateInventoryMovement, ApproveInventoryMovement,
		ViewBilling, GenerateInvoice,
		ManageUsers, UpdateUserRoles, ManageLocations,
	},
	RoleFrontDeskManager: {
		ViewCustomers, CreateCustomer, EditCustomer,
		ViewBatteries, CreateBatteryCase,
		ViewVehicles, CreateVehicleCase,
		ViewTickets, CreateTicket, TriageTicket, AssignTicket,
		DeliverTicket, CloseTicket, CancelTicket,
		ViewInventory,
		ViewBilling, GenerateInvoice,
	},
	RoleManager: {
		ViewCustomers, CreateCustomer, EditCustomer,
		ViewBatteries, CreateBatteryCase, DiagnoseBattery, EditBatteryCase,
		ViewVehicles, CreateVehicleCase, EditVehicleCase,
		ViewTickets, CreateTicket, TriageTicket, AssignTicket,
		CompleteTicket, DeliverTicket, CloseTicket, CancelTicket,
		ViewInventory, CreateInventoryMovement, ApproveInventoryMovement,
		ViewBilling, GenerateInvoice,
	},
	RoleTechnician: {
		ViewCustomers,
		ViewBatteries, DiagnoseBattery, EditBatteryCase,
		ViewVehicles, EditVehicleCase,
		ViewTickets, CompleteTicket,
		ViewInventory, CreateInventoryMovement,
	},
}

// bypassRoles see every location unless they explicitly narrow. Kept next
// to the catalog so there is exactly one place that defines the set.
var bypassRoles = map[Role]struct{}{
	RoleAdmin:            {},
	RoleFrontDeskManager: {},
}

// PermissionsFor returns the static permission set of a role. The result
// is a copy; mutating it does not touch the catalog.
func PermissionsFor(role Role) []Permission {
	perms := catalog[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Roles returns every role the catalog knows about.
func Roles() []Role {
	return []Role{RoleAdmin, RoleFrontDeskManager, RoleManager, RoleTechnician}
}

// IsBypassRole reports whether location scoping is bypassed for the role.
func IsBypassRole(role Role) bool {
	_, ok := bypassRoles[role]
	return ok
}

// HasPermission reports whether the actor's role grants the permission.
// An actor with no role holds no permissions.
func HasPermission(actor Actor, p Permission) bool {
	for _, granted := range catalog[actor.Role] {
		if granted == p {
			return true
		}
	}
	return false
}

// HasAny reports whether the actor holds at least one of the permissions.
func HasAny(actor Actor, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(actor, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the actor holds every one of the permissions.
// An empty list is trivially satisfied.
func HasAll(actor Actor, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(actor, p) {
			return false
		}
	}
	return true
}
