package infra

import (
	"fmt"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the configured driver
// ("postgres" or "mysql"). Duplicate-key errors are translated to
// gorm.ErrDuplicatedKey so services can report conflicts.
func NewDatabase(driver, dsn string, autoMigrate bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if autoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations creates / updates every table and then applies the patches
// AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Account{},
		&model.DriverProfile{},
		&model.SponsorProfile{},
		&model.AdminProfile{},
		&model.Association{},
		&model.DriverApplication{},
		&model.AuditLog{},
		&model.ImpersonationLog{},
		&model.StoreSettings{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.Purchase{},
		&model.Notification{},
		&model.Address{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that only PostgreSQL supports.
// On MySQL the application-level checks are the only guard.
func applySchemaPatches(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	patches := []string{
		// at most one open (pending/accepted) application per driver+sponsor
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_driver_applications_open_pair
		    ON driver_applications (driver_code, sponsor_code)
		    WHERE status IN ('pending', 'accepted')`,
		// one default shipping address per driver
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_one_default
		    ON addresses (account_code)
		    WHERE is_default`,
		// maintenance cron scans
		`CREATE INDEX IF NOT EXISTS idx_accounts_reset_token_issued
		    ON accounts (reset_token_issued_at)
		    WHERE reset_token IS NOT NULL`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
