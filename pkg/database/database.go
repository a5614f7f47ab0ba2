package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/pkg/config"
)

// GormConfig is shared by the Postgres connection and the sqlite test handle.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		PrepareStmt:    false,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pgConfig := postgres.Config{
		DSN:                  cfg.URL,
		PreferSimpleProtocol: true, // pgbouncer friendly
	}

	db, err := gorm.Open(postgres.New(pgConfig), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	slog.Info("Database connected")
	return db, nil
}

// Models lists entities parents first so cascade constraints resolve.
func Models() []interface{} {
	return []interface{}{
		&model.InvestorProfile{},
		&model.Property{},
		&model.CallSession{},
		&model.CallTranscript{},
		&model.DealMatch{},
		&model.LeadNote{},
		&model.StageHistory{},
		&model.Consent{},
		&model.PropertyFeature{},
		&model.PropertyDocument{},
	}
}

func Migrate(db *gorm.DB) error {
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			if err := db.Migrator().CreateTable(m); err != nil {
				return fmt.Errorf("create table for %T: %w", m, err)
			}
			slog.Info("Created table", slog.String("model", fmt.Sprintf("%T", m)))
			continue
		}
		if err := db.Migrator().AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
		slog.Debug("Updated table", slog.String("model", fmt.Sprintf("%T", m)))
	}
	return nil
}
