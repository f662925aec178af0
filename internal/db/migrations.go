package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id              BIGSERIAL PRIMARY KEY,
		vin             TEXT NOT NULL,
		brand           TEXT,
		model           TEXT,
		category        TEXT,
		year            INT,
		country         TEXT,
		manufacturer    TEXT,
		location        TEXT,
		checksum_valid  BOOLEAN NOT NULL DEFAULT false,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_vehicles_vin ON vehicles(vin);`,
	`CREATE TABLE IF NOT EXISTS arrivals (
		id              BIGSERIAL PRIMARY KEY,
		vin             TEXT NOT NULL,
		brand           TEXT,
		model           TEXT,
		category        TEXT,
		checksum_valid  BOOLEAN NOT NULL DEFAULT false,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_arrivals_vin ON arrivals(vin);`,
	`CREATE TABLE IF NOT EXISTS scan_events (
		id              BIGSERIAL PRIMARY KEY,
		session_id      TEXT NOT NULL,
		source          TEXT NOT NULL,
		raw_text        TEXT NOT NULL,
		normalized_vin  TEXT,
		checksum_valid  BOOLEAN NOT NULL DEFAULT false,
		brand           TEXT,
		model           TEXT,
		category        TEXT,
		confidence      NUMERIC(4,3),
		raw_payload     JSONB,
		scanned_at      TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_scan_events_normalized_vin ON scan_events(normalized_vin);`,
	`CREATE INDEX IF NOT EXISTS idx_scan_events_scanned_at ON scan_events(scanned_at);`,
}

// Migrate applies the schema statements in order. Statements are idempotent
// so the service can run them on every start.
func Migrate(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
