package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

func TestAuditRecordAndList(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db, quietLogger())
	ctx := managerCtx()

	svc.Record(ctx, "boutique", models.ActionCreate, "stock", 7, map[string]any{"item_name": "Shirt"})
	svc.Record(ctx, "finance", models.ActionDelete, "loan", 3, nil)

	rows, err := svc.List(ctx, ListAuditInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// newest first
	if rows[0].Entity != "loan" || rows[1].Entity != "stock" {
		t.Fatalf("unexpected order: %s, %s", rows[0].Entity, rows[1].Entity)
	}
	if rows[1].Username != "isaac" {
		t.Fatalf("username: got %q", rows[1].Username)
	}
	if !strings.Contains(rows[1].Details, "Shirt") {
		t.Fatalf("details not serialized: %q", rows[1].Details)
	}

	finance, err := svc.List(ctx, ListAuditInput{Section: "finance"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(finance) != 1 || finance[0].Entity != "loan" {
		t.Fatalf("section filter failed")
	}
}

func TestAuditListRequiresActor(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db, quietLogger())

	_, err := svc.List(context.Background(), ListAuditInput{})
	if apperr.KindOf(err) != apperr.KindPermission {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestAuditFailureDoesNotPropagate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db, quietLogger())

	// dropping the table makes the insert fail; Record must swallow it
	if err := db.Migrator().DropTable(&models.AuditLog{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	svc.Record(managerCtx(), "boutique", models.ActionCreate, "stock", 1, nil)
}
