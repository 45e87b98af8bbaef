package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'staff' CHECK (role IN ('admin', 'staff')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS assets (
    id            TEXT PRIMARY KEY,
    serial_number TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL,
    brand         TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT 'other' CHECK (category IN
                      ('laptop', 'desktop', 'monitor', 'mobile', 'tablet', 'peripheral', 'network', 'other')),
    notes         TEXT NOT NULL DEFAULT '',
    phone_number  TEXT NOT NULL DEFAULT '',
    is_rental     INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'available' CHECK (status IN
                      ('available', 'assigned', 'broken', 'lost', 'repair', 'pending_vendor', 'pending_recheck')),
    assigned_to   TEXT NOT NULL DEFAULT '',
    employee_id   TEXT,
    department    TEXT,
    position      TEXT,
    assigned_date DATETIME,
    is_central    INTEGER NOT NULL DEFAULT 0,
    location      TEXT NOT NULL DEFAULT '',
    image         BLOB,
    image_mime    TEXT,
    is_deleted    INTEGER NOT NULL DEFAULT 0,
    deleted_at    DATETIME,
    deleted_by    TEXT,
    delete_reason TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_serial ON assets(serial_number);

CREATE TABLE IF NOT EXISTS audit_log (
    id            TEXT PRIMARY KEY,
    asset_id      TEXT NOT NULL,
    asset_name    TEXT NOT NULL DEFAULT '',
    serial_number TEXT NOT NULL DEFAULT '',
    action        TEXT NOT NULL CHECK (action IN
                      ('CREATE', 'ASSIGN', 'RETURN', 'EDIT', 'DELETE', 'BULK_EDIT', 'BULK_STATUS_CHANGE')),
    details       TEXT NOT NULL DEFAULT '',
    performed_by  TEXT NOT NULL,
    timestamp     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_log_asset ON audit_log(asset_id, timestamp);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
