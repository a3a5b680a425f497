package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
)

/*
	To add a new migration:
	1. Append a migration entry with the next version number to migrationsList.
	2. Put its DDL statements in a new function below.
	Applied versions are recorded in schema_migration and never run twice.
*/

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx pgx.Tx) error
}

var migrationsList = []migration{
	{1, "core tables", createCoreTables},
	{2, "indexes", createIndexes},
}

const createMigrationTable = `CREATE TABLE IF NOT EXISTS schema_migration (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL
)`

func applyMigrations(ctx context.Context, db database.PgxIface) error {
	if _, err := db.Exec(ctx, createMigrationTable); err != nil {
		return fmt.Errorf("create schema_migration: %w", err)
	}

	var current int
	err := db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migration`).Scan(&current)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	zap.S().Infof("Current schema version: %d", current)

	for _, m := range migrationsList {
		if m.version <= current {
			continue
		}
		if err := applyOne(ctx, db, m); err != nil {
			return err
		}
		zap.S().Infof("Applied migration %d (%s)", m.version, m.name)
	}
	return nil
}

func applyOne(ctx context.Context, db database.PgxIface, m migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, err)
	}
	defer func() {
		rollbackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errR := tx.Rollback(rollbackCtx); errR != nil && !errors.Is(errR, pgx.ErrTxClosed) {
			zap.S().Errorf("Error rolling back migration %d: %v", m.version, errR)
		}
	}()

	if err := m.apply(ctx, tx); err != nil {
		return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO schema_migration (version, name, applied_at) VALUES ($1, $2, NOW())`,
		m.version, m.name)
	if err != nil {
		return fmt.Errorf("record migration %d: %w", m.version, err)
	}
	return tx.Commit(ctx)
}

// auditColumns is shared by every entity table.
const auditColumns = `
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_user TEXT NOT NULL DEFAULT '',
	created_date_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	modified_user TEXT NOT NULL DEFAULT '',
	modified_date_time TIMESTAMPTZ NOT NULL DEFAULT NOW()`

// linkColumns is shared by every owned-child table.
const linkColumns = `
	linked_object_id BIGINT NOT NULL,
	linked_object_type TEXT NOT NULL`

func createCoreTables(ctx context.Context, tx pgx.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS category (
	id BIGSERIAL PRIMARY KEY,
	object_code TEXT NOT NULL,
	object_name TEXT NOT NULL,
	category_type TEXT NOT NULL,
	parent_id BIGINT REFERENCES category(id),
	hierarchy_path TEXT NOT NULL,` + auditColumns + `
)`,
		`CREATE TABLE IF NOT EXISTS business_partner (
	id BIGSERIAL PRIMARY KEY,
	object_code TEXT NOT NULL,
	object_name TEXT NOT NULL,
	partner_type TEXT NOT NULL,
	tax_number TEXT NOT NULL DEFAULT '',
	category_id BIGINT REFERENCES category(id),` + auditColumns + `
)`,
		`CREATE TABLE IF NOT EXISTS partner_address (
	id BIGSERIAL PRIMARY KEY,` + linkColumns + `,
	object_code TEXT NOT NULL,
	object_name TEXT NOT NULL,
	address_type TEXT NOT NULL,
	street TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	is_primary BOOLEAN NOT NULL DEFAULT FALSE,` + auditColumns + `
)`,
		`CREATE TABLE IF NOT EXISTS partner_contact (
	id BIGSERIAL PRIMARY KEY,` + linkColumns + `,
	object_code TEXT NOT NULL,
	object_name TEXT NOT NULL,
	contact_type TEXT NOT NULL,
	contact_value TEXT NOT NULL DEFAULT '',
	is_primary BOOLEAN NOT NULL DEFAULT FALSE,` + auditColumns + `
)`,
		`CREATE TABLE IF NOT EXISTS invoice (
	id BIGSERIAL PRIMARY KEY,
	object_code TEXT NOT NULL,
	object_name TEXT NOT NULL,
	partner_id BIGINT NOT NULL REFERENCES business_partner(id),
	invoice_date TIMESTAMPTZ NOT NULL,
	due_date TIMESTAMPTZ NOT NULL,
	total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	workflow_status TEXT NOT NULL,` + auditColumns + `
)`,
		`CREATE TABLE IF NOT EXISTS invoice_line (
	id BIGSERIAL PRIMARY KEY,` + linkColumns + `,
	object_code TEXT NOT NULL,
	object_name TEXT NOT NULL,
	line_number INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,` + auditColumns + `
)`,
		`CREATE TABLE IF NOT EXISTS trail_entry (
	id BIGSERIAL PRIMARY KEY,` + linkColumns + `,
	object_code TEXT NOT NULL DEFAULT '',
	object_name TEXT NOT NULL DEFAULT '',
	trail_action TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',` + auditColumns + `
)`,
	}
	for _, statement := range statements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(ctx context.Context, tx pgx.Tx) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_category_path ON category (hierarchy_path)`,
		`CREATE INDEX IF NOT EXISTS idx_category_code ON category (object_code) WHERE is_deleted = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_partner_code ON business_partner (object_code) WHERE is_deleted = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_partner_name ON business_partner (object_name)`,
		`CREATE INDEX IF NOT EXISTS idx_address_owner ON partner_address (linked_object_id, linked_object_type)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_owner ON partner_contact (linked_object_id, linked_object_type)`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_code ON invoice (object_code) WHERE is_deleted = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_status ON invoice (workflow_status)`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_partner ON invoice (partner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_line_owner ON invoice_line (linked_object_id, linked_object_type)`,
		`CREATE INDEX IF NOT EXISTS idx_trail_owner ON trail_entry (linked_object_id, linked_object_type)`,
	}
	for _, statement := range statements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
