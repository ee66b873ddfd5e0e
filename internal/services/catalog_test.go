package services

import (
	"testing"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

func newCatalogService(t *testing.T) *CatalogService {
	t.Helper()
	db := setupTestDB(t)
	log := quietLogger()
	return NewCatalogService(db, log, NewAuditService(db, log))
}

func TestAddCategoryDuplicateRejected(t *testing.T) {
	svc := newCatalogService(t)
	ctx := managerCtx()

	if _, err := svc.AddCategory(ctx, models.BusinessBoutique, "Dresses"); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.AddCategory(ctx, models.BusinessBoutique, "Dresses")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// same name under the other business is fine
	if _, err := svc.AddCategory(ctx, models.BusinessHardware, "Dresses"); err != nil {
		t.Fatalf("cross-business name: %v", err)
	}

	cats, err := svc.ListCategories(ctx, models.BusinessBoutique)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 1 {
		t.Fatalf("got %d categories, want 1", len(cats))
	}
}

func TestAddCustomerValidation(t *testing.T) {
	svc := newCatalogService(t)
	ctx := managerCtx()

	_, err := svc.AddCustomer(ctx, AddCustomerInput{Name: "NoPhone", BusinessType: models.BusinessBoutique})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation, got %v", err)
	}

	c, err := svc.AddCustomer(ctx, AddCustomerInput{
		Name: "  Jane  ", Phone: "0700000001", BusinessType: models.BusinessBoutique,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Name != "Jane" {
		t.Fatalf("name not trimmed: %q", c.Name)
	}

	customers, err := svc.ListCustomers(ctx, models.BusinessBoutique)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(customers) != 1 {
		t.Fatalf("got %d customers", len(customers))
	}
}
