// Package db opens the Postgres connection, applies the schema and seeds
// the rows the service cannot run without.
package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"autoplate-renamer/internal/config"
)

// PricePerRequestKey is the system_config key holding the per-photo price.
const PricePerRequestKey = "pricePerRequest"

func New(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := runMigrations(gdb); err != nil {
		return nil, err
	}
	log.Info().Int("statements", len(migrationStatements)).Msg("database migrations applied")
	return gdb, nil
}

// Seed creates the initial administrator and the default price when they
// are missing. Existing rows are never touched.
func Seed(ctx context.Context, gdb *gorm.DB, cfg config.SeedConfig, log zerolog.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	res := gdb.WithContext(ctx).Exec(
		`INSERT INTO users (username, email, phone_number, password_hash, role)
		 VALUES (?, ?, ?, ?, 'ADMIN')
		 ON CONFLICT (email) DO NOTHING`,
		"Administrator", cfg.AdminEmail, "0000000000", string(hash),
	)
	if res.Error != nil {
		return fmt.Errorf("seed admin: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Info().Str("email", cfg.AdminEmail).Msg("seeded administrator account")
	}

	if err := gdb.WithContext(ctx).Exec(
		`INSERT INTO system_config (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		PricePerRequestKey, strconv.Itoa(cfg.PricePerRequest),
	).Error; err != nil {
		return fmt.Errorf("seed system config: %w", err)
	}
	return nil
}
