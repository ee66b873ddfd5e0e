// Package gate is the authorization checkpoint wrapping the ledger core.
// Policies are registered per resource type; handlers call Authorize before
// any business logic runs. The core itself never decides who may do what.
package gate

import (
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
)

type Action string

const (
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionHardDelete Action = "hard_delete"
	ActionPay        Action = "pay"
	ActionReschedule Action = "reschedule"
)

// Policy decides whether an actor may perform an action on a resource type.
type Policy interface {
	Can(actor *auth.Actor, action Action) bool
}

type Gate struct {
	policies map[string]Policy
}

func New() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

func (g *Gate) Register(resource string, p Policy) {
	g.policies[resource] = p
}

// Authorize returns a permission error when the actor is missing, the
// resource has no policy, or the policy denies the action.
func (g *Gate) Authorize(actor *auth.Actor, action Action, resource string) error {
	if actor == nil {
		return apperr.Permissionf("authentication required")
	}
	p, ok := g.policies[resource]
	if !ok {
		return apperr.Permissionf("no policy for %s", resource)
	}
	if !p.Can(actor, action) {
		return apperr.Permissionf("%s may not %s %s", actor.Role, action, resource)
	}
	return nil
}

func (g *Gate) Can(actor *auth.Actor, action Action, resource string) bool {
	return g.Authorize(actor, action, resource) == nil
}
