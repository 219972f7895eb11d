package repository

import (
	"context"
	"fmt"

	"gitlab.com/clientdesk/billing-bot/internal/database"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// SettingsRepository reads the lookup lists used to validate input.
type SettingsRepository struct {
	db database.Querier
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db database.Querier) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads currencies, client statuses and project types, each ordered by id.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var s models.Settings

	if err := r.queryLookup(ctx, `SELECT id, currency FROM currency_settings ORDER BY id`,
		func(id int64, v string) { s.Currencies = append(s.Currencies, models.CurrencySetting{ID: id, Currency: v}) },
	); err != nil {
		return nil, fmt.Errorf("failed to load currency settings: %w", err)
	}

	if err := r.queryLookup(ctx, `SELECT id, client_status FROM client_status_settings ORDER BY id`,
		func(id int64, v string) {
			s.ClientStatuses = append(s.ClientStatuses, models.ClientStatusSetting{ID: id, ClientStatus: v})
		},
	); err != nil {
		return nil, fmt.Errorf("failed to load client settings: %w", err)
	}

	if err := r.queryLookup(ctx, `SELECT id, project_type FROM project_type_settings ORDER BY id`,
		func(id int64, v string) {
			s.ProjectTypes = append(s.ProjectTypes, models.ProjectTypeSetting{ID: id, ProjectType: v})
		},
	); err != nil {
		return nil, fmt.Errorf("failed to load project settings: %w", err)
	}

	return &s, nil
}

func (r *SettingsRepository) queryLookup(ctx context.Context, query string, add func(id int64, v string)) error {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var v string
		if err := rows.Scan(&id, &v); err != nil {
			return err
		}
		add(id, v)
	}
	return rows.Err()
}
