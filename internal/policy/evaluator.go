// Package policy decides what a staff member may see and change. It is a pure
// function of the caller, the settings snapshot and ownership facts supplied
// by the caller; it never touches storage.
package policy

import "github.com/campus-it/helpdesk/internal/domain"

// Capability names an action gated by the evaluator.
type Capability string

const (
	TicketView       Capability = "ticket.view"
	TicketListAll    Capability = "ticket.list_all"
	TicketSelfAssign Capability = "ticket.self_assign"
	AssetListAll     Capability = "asset.list_all"
	AssetView        Capability = "asset.view"
	AssetCreate      Capability = "asset.create"
	AssetUpdate      Capability = "asset.update"
	AssetDelete      Capability = "asset.delete"
	SettingsManage   Capability = "settings.manage"
	StaffManage      Capability = "staff.manage"
)

// Denial reasons.
const (
	ReasonAnonymous              = "authentication required"
	ReasonNotPermitted           = "you don't have permission to perform this action"
	ReasonSelfAssignmentDisabled = "self-assignment is not allowed"
	ReasonAlreadyAssigned        = "this ticket is already assigned"
	ReasonSystemManagerOnly      = "system manager role required"
)

// Request is the input to Evaluate.
type Request struct {
	// Actor is nil for anonymous callers.
	Actor    *domain.StaffMember
	Settings domain.Settings
	// Owns is true when the ticket is assigned to Actor, or for assets, when
	// the asset is linked to a ticket assigned to Actor.
	Owns bool
	// TicketAssigned is true when the ticket already has a technician.
	TicketAssigned bool
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

type rule func(Request) Decision

var rules = map[Capability]rule{
	TicketView: func(r Request) Decision {
		if r.Settings.TicketVisibility || r.Owns {
			return allow
		}
		return deny(ReasonNotPermitted)
	},
	TicketListAll: func(r Request) Decision {
		if r.Settings.TicketVisibility {
			return allow
		}
		return deny(ReasonNotPermitted)
	},
	TicketSelfAssign: func(r Request) Decision {
		if !r.Settings.TicketSelfAssignment {
			return deny(ReasonSelfAssignmentDisabled)
		}
		if r.TicketAssigned {
			return deny(ReasonAlreadyAssigned)
		}
		return allow
	},
	AssetListAll: func(r Request) Decision {
		if r.Settings.AssetVisibility {
			return allow
		}
		return deny(ReasonNotPermitted)
	},
	AssetView: func(r Request) Decision {
		if r.Settings.AssetVisibility || r.Owns {
			return allow
		}
		return deny(ReasonNotPermitted)
	},
	AssetCreate: modifyAllAssets,
	AssetDelete: modifyAllAssets,
	AssetUpdate: func(r Request) Decision {
		if r.Settings.CanModifyAllAssets {
			return allow
		}
		if r.Settings.CanModifyAssignedAssets && r.Owns {
			return allow
		}
		return deny(ReasonNotPermitted)
	},
	SettingsManage: func(Request) Decision { return deny(ReasonSystemManagerOnly) },
	StaffManage:    func(Request) Decision { return deny(ReasonSystemManagerOnly) },
}

func modifyAllAssets(r Request) Decision {
	if r.Settings.CanModifyAllAssets {
		return allow
	}
	return deny(ReasonNotPermitted)
}

// systemManagerBypass lists capabilities a system manager holds
// unconditionally. Self-assignment is absent: its gates describe the ticket
// and the settings, not the caller.
var systemManagerBypass = map[Capability]bool{
	TicketView:     true,
	TicketListAll:  true,
	AssetListAll:   true,
	AssetView:      true,
	AssetCreate:    true,
	AssetUpdate:    true,
	AssetDelete:    true,
	SettingsManage: true,
	StaffManage:    true,
}

// Evaluate decides whether r.Actor holds capability.
func Evaluate(capability Capability, r Request) Decision {
	if r.Actor == nil {
		return deny(ReasonAnonymous)
	}
	if r.Actor.IsSystemManager() && systemManagerBypass[capability] {
		return allow
	}
	check, ok := rules[capability]
	if !ok {
		return deny(ReasonNotPermitted)
	}
	return check(r)
}

// Allowed is shorthand for Evaluate(...).Allowed.
func Allowed(capability Capability, r Request) bool {
	return Evaluate(capability, r).Allowed
}
