package gate

import (
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// Resource names the gate knows about.
const (
	SectionBoutique  = "boutique"
	SectionHardware  = "hardware"
	SectionFinance   = "finance"
	SectionAudit     = "audit"
	SectionDashboard = "dashboard"
)

// SectionPolicy grants section workers everything inside their own section
// except the manager-reserved actions; managers get it all.
type SectionPolicy struct {
	Section models.Role
}

func (p SectionPolicy) Can(actor *auth.Actor, action Action) bool {
	if actor.IsManager() {
		return true
	}
	if !actor.CanAccess(p.Section) {
		return false
	}
	switch action {
	case ActionHardDelete, ActionReschedule:
		return false
	}
	return true
}

// ManagerOnlyPolicy is for resources nobody below manager touches
// (audit trail, dashboard, staff accounts).
type ManagerOnlyPolicy struct{}

func (ManagerOnlyPolicy) Can(actor *auth.Actor, _ Action) bool {
	return actor.IsManager()
}

// Default wires the standard resource policies for the application.
func Default() *Gate {
	g := New()
	g.Register(SectionBoutique, SectionPolicy{Section: models.RoleBoutique})
	g.Register(SectionHardware, SectionPolicy{Section: models.RoleHardware})
	g.Register(SectionFinance, SectionPolicy{Section: models.RoleFinance})
	g.Register(SectionAudit, ManagerOnlyPolicy{})
	g.Register(SectionDashboard, ManagerOnlyPolicy{})
	return g
}

// ForBusiness maps a business type to its gate resource name.
func ForBusiness(b models.BusinessType) string {
	if b == models.BusinessHardware {
		return SectionHardware
	}
	return SectionBoutique
}
