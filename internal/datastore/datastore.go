// Package datastore opens the ledger database and runs schema migration.
package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/glucosense/glucosense-go/internal/conf"
	"github.com/glucosense/glucosense-go/internal/datastore/entities"
)

// Open connects to the configured database and migrates the alert schema.
func Open(settings conf.DatabaseSettings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch settings.Driver {
	case "sqlite":
		dialector = sqlite.Open(settings.DSN)
	case "mysql":
		dialector = mysql.Open(settings.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", settings.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", settings.Driver, err)
	}

	if err := db.AutoMigrate(
		&entities.AlertEvent{},
		&entities.NotificationAttempt{},
		&entities.EscalationTask{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate alert schema: %w", err)
	}
	return db, nil
}
