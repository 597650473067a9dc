package database

import (
	"fmt"
	"log"

	"github.com/gdg-garage/con-registration-api/internal/config"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tables lists every table the application owns, in migration order.
var Tables = []any{
	&models.User{},
	&models.APIKey{},
	&models.Group{},
	&models.Attendee{},
	&models.HotelRequest{},
	&models.FoodRestrictions{},
	&models.AdminAccount{},
	&models.Job{},
	&models.Shift{},
	&models.Tracking{},
	&models.Email{},
}

func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

// Open picks the gorm dialector for driver ("sqlite" or "postgres").
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Tables...)
}
