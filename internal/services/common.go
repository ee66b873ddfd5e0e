package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// actorFrom pulls the acting user out of the context. Every mutating service
// entry point calls this; a missing actor is a permission failure, not a
// panic, because handlers may be wired without the auth middleware in tests.
func actorFrom(ctx context.Context) (*auth.Actor, error) {
	a, ok := auth.ActorFrom(ctx)
	if !ok {
		return nil, apperr.Permissionf("no authenticated actor in request context")
	}
	return a, nil
}

// branchScoped narrows a boutique query to the branches the actor may see:
// their pinned branch plus shared (unbranched) rows. Managers and hardware
// queries pass through untouched.
func branchScoped(q *gorm.DB, actor *auth.Actor, business models.BusinessType) *gorm.DB {
	if business != models.BusinessBoutique || actor == nil || actor.IsManager() || actor.Branch == "" {
		return q
	}
	return q.Where("branch = ? OR branch = '' OR branch IS NULL", actor.Branch)
}

// branchVisible reports whether the actor may touch a row tagged with the
// given branch.
func branchVisible(actor *auth.Actor, business models.BusinessType, branch string) bool {
	if business != models.BusinessBoutique || actor == nil || actor.IsManager() || actor.Branch == "" {
		return true
	}
	return branch == "" || branch == actor.Branch
}

// dateOnly strips the time-of-day so date columns compare cleanly.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses the ISO date strings the HTTP layer hands over. An empty
// string falls back to today.
func ParseDate(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return dateOnly(now()), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validationf("invalid date %q, want YYYY-MM-DD", s)
	}
	return dateOnly(t), nil
}
