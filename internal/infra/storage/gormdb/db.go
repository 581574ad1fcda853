package gormdb

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres is the production
// driver; sqlite backs local runs and tests.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres":
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("gormdb: connect postgres: %w", err)
		}
		return db, nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("gormdb: connect sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("gormdb: sqlite handle: %w", err)
		}
		// sqlite supports a single writer connection
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("gormdb: unsupported driver %q", driver)
	}
}

// AutoMigrate creates or updates the four messaging tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userRecord{},
		&conversationRecord{},
		&participantRecord{},
		&messageRecord{},
	); err != nil {
		return fmt.Errorf("gormdb: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
