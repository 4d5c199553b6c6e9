package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username           VARCHAR(255) NOT NULL,
		email              VARCHAR(255) NOT NULL,
		phone_number       VARCHAR(50),
		password_hash      VARCHAR(255) NOT NULL,
		role               VARCHAR(50) NOT NULL DEFAULT 'USER',
		input_folder_path  TEXT,
		output_folder_path TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users(email);`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);`,
	`CREATE TABLE IF NOT EXISTS processing_logs (
		id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		username      VARCHAR(255) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		new_name      VARCHAR(255) NOT NULL,
		details       JSONB,
		timestamp     TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_processing_logs_user_id ON processing_logs(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_processing_logs_timestamp ON processing_logs(timestamp);`,
	`CREATE TABLE IF NOT EXISTS system_config (
		key   VARCHAR(50) PRIMARY KEY,
		value VARCHAR(255) NOT NULL
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
