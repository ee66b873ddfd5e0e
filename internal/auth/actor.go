package auth

import (
	"context"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// Actor is the authenticated identity a request carries into the core.
// It travels in the request context — never in package globals — so every
// service call knows exactly who is acting and under which section/branch.
type Actor struct {
	UserID   uint
	Username string
	Role     models.Role
	// Branch pins boutique workers to one branch; empty means unpinned.
	Branch string
	// IP is recorded on audit rows, nothing else.
	IP string
}

// IsManager reports whether the actor may cross section boundaries.
func (a *Actor) IsManager() bool { return a != nil && a.Role == models.RoleManager }

// CanAccess reports whether the actor may operate in the given section.
func (a *Actor) CanAccess(section models.Role) bool {
	if a == nil {
		return false
	}
	return a.Role == models.RoleManager || a.Role == section
}

type ctxKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom retrieves the actor, if any.
func ActorFrom(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(*Actor)
	return a, ok && a != nil
}
