package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.StockItem{},
		&models.Customer{}, &models.Sale{}, &models.SaleItem{}, &models.CreditPayment{},
		&models.ReferenceSequence{},
		&models.LoanClient{}, &models.Loan{}, &models.LoanPayment{}, &models.LoanDocument{},
		&models.GroupLoan{}, &models.GroupLoanPayment{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func managerCtx() context.Context {
	return auth.WithActor(context.Background(), &auth.Actor{
		UserID: 1, Username: "isaac", Role: models.RoleManager,
	})
}

func workerCtx(role models.Role, branch string) context.Context {
	return auth.WithActor(context.Background(), &auth.Actor{
		UserID: 2, Username: "worker", Role: role, Branch: branch,
	})
}

// fixedNow pins the service clock for tests that move the calendar.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
