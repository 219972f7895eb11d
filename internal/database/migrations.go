package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema. Every statement is idempotent.
// Money columns hold the free-text "<amount> <currency>" strings as entered.
func RunMigrations(ctx context.Context, db Querier) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			budget TEXT,
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Pending',
			project_type TEXT NOT NULL DEFAULT '',
			client_id BIGINT NOT NULL REFERENCES clients(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			payment_date TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			received_amount TEXT,
			transaction_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_project_id ON payments(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_email ON clients(LOWER(email))`,

		`CREATE TABLE IF NOT EXISTS currency_settings (
			id SERIAL PRIMARY KEY,
			currency TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS client_status_settings (
			id SERIAL PRIMARY KEY,
			client_status TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS project_type_settings (
			id SERIAL PRIMARY KEY,
			project_type TEXT NOT NULL UNIQUE
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// Default lookup values inserted by SeedSettings.
var (
	DefaultCurrencies     = []string{"USD", "EUR", "GBP", "SGD"}
	DefaultClientStatuses = []string{"Active", "Inactive", "Lead"}
	DefaultProjectTypes   = []string{"Web", "Mobile", "Design", "Consulting"}
)

// SeedSettings inserts the default currencies, client statuses and project types.
func SeedSettings(ctx context.Context, db Querier) error {
	seeds := []struct {
		query  string
		values []string
	}{
		{`INSERT INTO currency_settings (currency) VALUES ($1) ON CONFLICT (currency) DO NOTHING`, DefaultCurrencies},
		{`INSERT INTO client_status_settings (client_status) VALUES ($1) ON CONFLICT (client_status) DO NOTHING`, DefaultClientStatuses},
		{`INSERT INTO project_type_settings (project_type) VALUES ($1) ON CONFLICT (project_type) DO NOTHING`, DefaultProjectTypes},
	}

	for _, seed := range seeds {
		for _, v := range seed.values {
			if _, err := db.Exec(ctx, seed.query, v); err != nil {
				return fmt.Errorf("failed to seed setting %q: %w", v, err)
			}
		}
	}

	return nil
}
