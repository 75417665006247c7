package db

import (
	"context"
	"database/sql"
	"fmt"
)

var tableDDL = []struct {
	name string
	ddl  string
}{
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	band_name VARCHAR(255) NOT NULL,
	booking_date CHAR(10) NOT NULL,
	start_time CHAR(5) NOT NULL,
	end_time CHAR(5) NOT NULL,
	room_id VARCHAR(64) NOT NULL DEFAULT '',
	room_bookings JSON NOT NULL,
	is_resident TINYINT(1) NOT NULL DEFAULT 0,
	equipment JSON NOT NULL,
	equipment_bookings JSON NOT NULL,
	payment_type VARCHAR(16) NOT NULL DEFAULT 'cash',
	cash_amount DECIMAL(12,2) NULL,
	card_amount DECIMAL(12,2) NULL,
	total_hours DECIMAL(8,2) NOT NULL DEFAULT 0,
	equipment_hours DECIMAL(8,2) NOT NULL DEFAULT 0,
	total_price DECIMAL(12,2) NOT NULL DEFAULT 0,
	notes TEXT NULL,
	created_at DATETIME NOT NULL,
	created_by VARCHAR(255) NOT NULL DEFAULT '',
	source VARCHAR(16) NOT NULL DEFAULT 'manual',
	status VARCHAR(16) NOT NULL DEFAULT 'active',
	cancelled_at DATETIME NULL,
	cancelled_by VARCHAR(255) NULL,
	report_status VARCHAR(16) NOT NULL DEFAULT 'pending',
	report_id VARCHAR(64) NULL,
	version BIGINT NOT NULL DEFAULT 1,
	updated_at DATETIME NULL,
	KEY idx_bookings_date (booking_date),
	KEY idx_bookings_report (report_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"report_entries", `
CREATE TABLE IF NOT EXISTS report_entries (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	booking_id VARCHAR(64) NULL,
	band_name VARCHAR(255) NOT NULL,
	report_date CHAR(10) NOT NULL,
	room_id VARCHAR(64) NOT NULL DEFAULT '',
	room_name VARCHAR(255) NOT NULL DEFAULT '',
	room_lines JSON NOT NULL,
	start_time CHAR(5) NOT NULL,
	end_time CHAR(5) NOT NULL,
	total_hours DECIMAL(8,2) NOT NULL DEFAULT 0,
	room_price DECIMAL(12,2) NOT NULL DEFAULT 0,
	equipment_price DECIMAL(12,2) NOT NULL DEFAULT 0,
	total_price DECIMAL(12,2) NOT NULL DEFAULT 0,
	payment_type VARCHAR(16) NOT NULL DEFAULT 'cash',
	cash_amount DECIMAL(12,2) NULL,
	card_amount DECIMAL(12,2) NULL,
	is_resident TINYINT(1) NOT NULL DEFAULT 0,
	equipment JSON NOT NULL,
	equipment_hours DECIMAL(8,2) NOT NULL DEFAULT 0,
	equipment_bookings JSON NOT NULL,
	created_by VARCHAR(255) NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NULL,
	source VARCHAR(16) NOT NULL DEFAULT 'manual',
	notes TEXT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	UNIQUE KEY uniq_report_booking (booking_id),
	KEY idx_report_date (report_date),
	KEY idx_report_created_by (created_by)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"app_settings", `
CREATE TABLE IF NOT EXISTS app_settings (
	name VARCHAR(64) NOT NULL PRIMARY KEY,
	body JSON NOT NULL,
	updated_at DATETIME NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"user_roles", `
CREATE TABLE IF NOT EXISTS user_roles (
	email VARCHAR(255) NOT NULL PRIMARY KEY,
	role VARCHAR(16) NOT NULL,
	created_at DATETIME NOT NULL,
	created_by VARCHAR(255) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"staff_users", `
CREATE TABLE IF NOT EXISTS staff_users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	name VARCHAR(255) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE KEY uniq_staff_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"calendar_events", `
CREATE TABLE IF NOT EXISTS calendar_events (
	calendar_id VARCHAR(255) NOT NULL,
	event_id VARCHAR(255) NOT NULL,
	calendar_name VARCHAR(255) NOT NULL DEFAULT '',
	summary VARCHAR(512) NOT NULL,
	description TEXT NULL,
	location VARCHAR(512) NULL,
	room_id VARCHAR(64) NOT NULL DEFAULT '',
	start_at DATETIME NOT NULL,
	end_at DATETIME NOT NULL,
	synced_at DATETIME NOT NULL,
	PRIMARY KEY (calendar_id, event_id),
	KEY idx_calendar_events_start (start_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
}

// Tables lists every table EnsureSchema manages.
func Tables() []string {
	out := make([]string, 0, len(tableDDL))
	for _, t := range tableDDL {
		out = append(out, t.name)
	}
	return out
}

// EnsureSchema creates missing tables and adds the version column to tables
// created before optimistic locking existed.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	for _, t := range tableDDL {
		if HasTable(conn, t.name) {
			continue
		}
		if _, err := conn.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
	}
	for _, table := range []string{"bookings", "report_entries"} {
		if HasColumn(conn, table, "version") {
			continue
		}
		if _, err := conn.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN version BIGINT NOT NULL DEFAULT 1"); err != nil {
			return fmt.Errorf("add version to %s: %w", table, err)
		}
	}
	return nil
}
