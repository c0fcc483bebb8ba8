package database

import (
	"fmt"
	"time"

	"restoran-analytics/internal/config"
	"restoran-analytics/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the Postgres connection, stores it in DB and runs migrations
// when enabled.
func Init(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Info("database migrated")
	}

	DB = db
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.MenuItem{},
		&models.Order{},
		&models.PhoneBlock{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// payload lookups by waiter and type from the POS sync job
	if db.Migrator().HasTable(&models.Order{}) {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_payload_gin ON orders USING gin (payload jsonb_path_ops)").Error; err != nil {
			return fmt.Errorf("creating payload index: %w", err)
		}
	}
	return nil
}
