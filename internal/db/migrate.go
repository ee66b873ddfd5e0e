package db

import (
	"errors"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/config"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// Models returns every table the application owns, in dependency order.
// AutoMigrate and the test harness both use this list.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.StockItem{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.CreditPayment{},
		&models.ReferenceSequence{},
		&models.LoanClient{},
		&models.Loan{},
		&models.LoanPayment{},
		&models.LoanDocument{},
		&models.GroupLoan{},
		&models.GroupLoanPayment{},
		&models.AuditLog{},
	}
}

func ConnectAndMigrate(log *logrus.Logger, rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if config.ParseBool("DB_DEBUG", false) {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		log.WithError(err).Warn("retrying DB connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	log.WithField("dsn", MaskDSN(dsn)).Info("database connected")

	// MIGRATIONS=1 runs the sql migrations via golang-migrate; otherwise the
	// AutoMigrate fallback keeps development setups zero-config.
	if config.ParseBool("MIGRATIONS", false) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models() {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	for _, table := range []string{"users", "stock_items", "sales", "loans", "audit_logs"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	return db, nil
}

// runSQLMigrations executes migrations in ./migrations using the
// golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
