package workflow

import (
	"fmt"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
)

// rule describes one allowed (current -> next) edge. The guard permission
// applies to causing this specific transition, separate from general edit
// rights on the entity. The precondition inspects entity data; a non-nil
// error fails the transition with ErrPreconditionFailed.
type rule struct {
	guard        rbac.Permission
	precondition func(*Entity) error
}

// transitionTable maps current status to the set of reachable statuses.
// A status absent from the table is terminal: its outgoing set is empty,
// and that includes re-requesting the terminal status itself.
type transitionTable map[Status]map[Status]rule

var tables = map[Kind]transitionTable{
	KindServiceTicket: {
		StatusReported: {
			StatusTriaged:   {guard: rbac.TriageTicket},
			StatusCancelled: {guard: rbac.CancelTicket},
		},
		StatusTriaged: {
			StatusInProgress: {guard: rbac.AssignTicket, precondition: technicianAssigned},
			StatusCancelled:  {guard: rbac.CancelTicket},
		},
		StatusInProgress: {
			StatusCompleted: {guard: rbac.CompleteTicket, precondition: lineItemsResolved},
			StatusCancelled: {guard: rbac.CancelTicket},
		},
		StatusCompleted: {
			StatusDelivered: {guard: rbac.DeliverTicket},
		},
		StatusDelivered: {
			StatusClosed: {guard: rbac.CloseTicket},
		},
		StatusCancelled: {
			StatusClosed: {guard: rbac.CloseTicket},
		},
	},
	KindVehicleCase: {
		StatusReceived: {
			StatusDiagnosed: {guard: rbac.EditVehicleCase, precondition: diagnosticsRecorded},
			StatusCancelled: {guard: rbac.EditVehicleCase},
		},
		StatusDiagnosed: {
			StatusInRepair:  {guard: rbac.EditVehicleCase, precondition: estimateApproved},
			StatusCancelled: {guard: rbac.EditVehicleCase},
		},
		StatusInRepair: {
			StatusReady:     {guard: rbac.EditVehicleCase},
			StatusCancelled: {guard: rbac.EditVehicleCase},
		},
		StatusReady: {
			StatusDelivered: {guard: rbac.DeliverTicket},
		},
	},
	KindBatteryCase: {
		StatusReceived: {
			StatusDiagnosed: {guard: rbac.DiagnoseBattery, precondition: diagnosticsRecorded},
			StatusCancelled: {guard: rbac.EditBatteryCase},
		},
		StatusDiagnosed: {
			StatusInRepair:  {guard: rbac.EditBatteryCase},
			StatusCancelled: {guard: rbac.EditBatteryCase},
		},
		StatusInRepair: {
			StatusCompleted: {guard: rbac.DiagnoseBattery, precondition: diagnosticsRecorded},
			StatusCancelled: {guard: rbac.EditBatteryCase},
		},
		StatusCompleted: {
			StatusDelivered: {guard: rbac.DeliverTicket},
		},
	},
	KindInventoryMovement: {
		StatusPending: {
			StatusApproved: {guard: rbac.ApproveInventoryMovement},
			StatusRejected: {guard: rbac.ApproveInventoryMovement},
		},
	},
}

func technicianAssigned(e *Entity) error {
	if e.TechnicianID == nil {
		return fmt.Errorf("%w: no technician assigned", ErrPreconditionFailed)
	}
	return nil
}

func lineItemsResolved(e *Entity) error {
	if e.OpenLineItems > 0 {
		return fmt.Errorf("%w: %d line items still open", ErrPreconditionFailed, e.OpenLineItems)
	}
	return nil
}

func diagnosticsRecorded(e *Entity) error {
	if !e.DiagnosticsRecorded {
		return fmt.Errorf("%w: diagnostics not recorded", ErrPreconditionFailed)
	}
	return nil
}

func estimateApproved(e *Entity) error {
	if !e.EstimateApproved {
		return fmt.Errorf("%w: estimate not approved", ErrPreconditionFailed)
	}
	return nil
}
