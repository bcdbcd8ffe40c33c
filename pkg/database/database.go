package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rental-service/internal/model"
	"rental-service/pkg/config"
)

var db *gorm.DB

// InitDB initializes the database connection with configuration and runs migrations
func InitDB(cfg *config.Config) error {
	var err error

	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which the billing engine relies on to
	// reclassify constraint races.
	db, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.DB.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return Migrate(db)
}

// Migrate runs migrations for all models. The unique and partial-unique
// indexes declared in the model tags are storage-level guarantees the
// billing engine depends on; AutoMigrate creates them.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.Company{},
		&model.Compound{},
		&model.Apartment{},
		&model.Tenant{},
		&model.Occupancy{},
		&model.Invoice{},
		&model.InvoiceLineItem{},
		&model.InvoiceSequence{},
		&model.Payment{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}
