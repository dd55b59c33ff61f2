package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'lot_status') THEN
			CREATE TYPE lot_status AS ENUM (
				'DRAFT', 'IN_TECHNICAL_REVIEW', 'IN_ECONOMIC_REVIEW', 'APPROVED',
				'REJECTED', 'IN_PROCESSING', 'SUBMITTED', 'UNDER_EXAMINATION',
				'INTEGRATION_REQUESTED', 'WON', 'LOST', 'DISCARDED'
			);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'registry_status') THEN
			CREATE TYPE registry_status AS ENUM (
				'DRAFT', 'IN_REVIEW', 'SENT', 'ACTIVE', 'EXPIRING',
				'RENEWAL_PROPOSED', 'EXPIRED', 'RENEWED', 'CANCELLED', 'SUSPENDED'
			);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'registry_kind') THEN
			CREATE TYPE registry_kind AS ENUM ('QUOTE', 'CONTRACT');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS tenders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(256) NOT NULL,
		manual_close BOOLEAN NOT NULL DEFAULT FALSE,
		manual_close_reason TEXT,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS lots (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		tender_id UUID NOT NULL REFERENCES tenders(id) ON DELETE CASCADE,
		name VARCHAR(256) NOT NULL,
		status lot_status NOT NULL DEFAULT 'DRAFT',
		rejection_reason TEXT,
		exam_start_date DATE,
		integration_open BOOLEAN NOT NULL DEFAULT FALSE,
		contract_signed_at DATE,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_lots_tender_id ON lots (tender_id);`,
	`CREATE INDEX IF NOT EXISTS idx_lots_status ON lots (status);`,
	`CREATE TABLE IF NOT EXISTS registry_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind registry_kind NOT NULL,
		subject VARCHAR(512) NOT NULL,
		counterparty VARCHAR(256) NOT NULL,
		status registry_status NOT NULL DEFAULT 'DRAFT',
		document_date DATE NOT NULL,
		start_date DATE,
		end_date DATE,
		notice_period_days INTEGER,
		alert_lead_days INTEGER NOT NULL DEFAULT 0,
		auto_renew BOOLEAN NOT NULL DEFAULT FALSE,
		auto_renew_duration_days INTEGER,
		parent_id UUID REFERENCES registry_records(id),
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_registry_records_status ON registry_records (status);`,
	`CREATE INDEX IF NOT EXISTS idx_registry_records_parent_id ON registry_records (parent_id) WHERE parent_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS vehicle_bookings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL,
		user_id UUID NOT NULL,
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_bookings_vehicle_id ON vehicle_bookings (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_bookings_open ON vehicle_bookings (vehicle_id) WHERE end_at IS NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
