package database

import (
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
)

var DB *gorm.DB

// Connect opens Postgres through the lib/pq driver and migrates the schema.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.L().Info("database connected")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.L().Info("database migrated")

	DB = db
	return db, nil
}

// Migrate creates or updates every table the backend uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.TripMember{},
		&models.ItineraryItem{},
		&models.Expense{},
		&models.ExpenseShare{},
		&models.Activity{},
		&models.Invitation{},
	)
	if err != nil {
		logger.L().Error("migration failed", zap.Error(err))
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
