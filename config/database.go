package config

import (
	"errors"
	"fmt"
	"time"

	"salonpro-frontdesk/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the Postgres connection pool described by cfg.
func ConnectDB(cfg DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DB_URL is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:  NewGormLogger(log, 200*time.Millisecond),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Salon{},
		&models.User{},
		&models.Location{},
		&models.Customer{},
		&models.Service{},
		&models.Appointment{},
		&models.Activity{},
		&models.WaitlistEntry{},
		&models.ReminderTemplate{},
		&models.ReminderLog{},
	)
}

// NewGormLogger routes gorm's SQL tracing through zerolog.
func NewGormLogger(log zerolog.Logger, slowThreshold time.Duration) logger.Interface {
	return logger.New(gormWriter{log: log}, logger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Str("component", "gorm").Msgf(format, args...)
}
