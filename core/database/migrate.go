package database

import (
	"context"
	"fmt"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/utils"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		group_type VARCHAR(50) NOT NULL,
		group_name VARCHAR(100) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		status VARCHAR(10) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS venue_submissions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		venue_date DATE NOT NULL,
		registration_name VARCHAR(100) NOT NULL,
		is_free_submission BOOLEAN NOT NULL DEFAULT FALSE,
		upload_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status VARCHAR(10) NOT NULL DEFAULT 'active'
			CHECK (status IN ('active', 'deleted')),
		approval_status VARCHAR(10) NOT NULL DEFAULT 'approved'
			CHECK (approval_status IN ('approved', 'pending'))
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id BIGSERIAL PRIMARY KEY,
		submission_id BIGINT NOT NULL REFERENCES venue_submissions(id) ON DELETE CASCADE,
		venue_number INT NOT NULL CHECK (venue_number >= 1),
		time_slot VARCHAR(20) NOT NULL,
		plus_one_name VARCHAR(100),
		venue_screenshot VARCHAR(255)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_venue_submissions_user ON venue_submissions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_venue_submissions_date ON venue_submissions(venue_date)`,
	`CREATE INDEX IF NOT EXISTS idx_venues_submission ON venues(submission_id)`,
	`CREATE INDEX IF NOT EXISTS idx_venues_slot ON venues(time_slot, venue_number)`,
}

// Migrate creates the schema when missing and seeds the configured admin
// accounts. Safe to run on every startup.
func Migrate(ctx context.Context, db IDatabase, cfg *config.Config) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("Database:Migrate:Error", "error", err)
			return fmt.Errorf("run migration: %w", err)
		}
	}

	for _, seed := range cfg.Admins {
		if seed.Username == "" || seed.Password == "" {
			continue
		}
		hash, err := utils.HashPassword(seed.Password)
		if err != nil {
			return fmt.Errorf("hash seed admin password: %w", err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO admins (username, password_hash)
			VALUES ($1, $2)
			ON CONFLICT (username) DO NOTHING
		`, seed.Username, hash)
		if err != nil {
			logger.Error("Database:Migrate:SeedAdmin:Error", "error", err, "username", seed.Username)
			return fmt.Errorf("seed admin %s: %w", seed.Username, err)
		}
	}

	logger.Info("Database:Migrate:Done", "admins_seeded", len(cfg.Admins))
	return nil
}
