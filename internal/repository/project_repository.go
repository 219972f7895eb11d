package repository

import (
	"context"
	"fmt"

	"gitlab.com/clientdesk/billing-bot/internal/database"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// ProjectRepository handles project database operations.
// Projects are always returned with their payment records attached.
type ProjectRepository struct {
	db       database.Querier
	payments *PaymentRepository
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db database.Querier) *ProjectRepository {
	return &ProjectRepository{db: db, payments: NewPaymentRepository(db)}
}

const projectColumns = `id, name, details, budget, start_time, end_time, status, project_type, client_id`

func scanProject(row interface{ Scan(dest ...any) error }, p *models.Project) error {
	var budget *string
	if err := row.Scan(&p.ID, &p.Name, &p.Details, &budget, &p.StartTime, &p.EndTime,
		&p.Status, &p.ProjectType, &p.ClientID); err != nil {
		return err
	}
	p.Budget = moneyFromText(budget)
	return nil
}

// Create adds a new project and sets its ID. Payment records are not inserted.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.Status == "" {
		project.Status = models.StatusPending
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, details, budget, start_time, end_time, status, project_type, client_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, project.Name, project.Details, moneyText(project.Budget), project.StartTime, project.EndTime,
		project.Status, project.ProjectType, project.ClientID,
	).Scan(&project.ID)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetAll retrieves all projects ordered by id.
func (r *ProjectRepository) GetAll(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	byProject, err := r.payments.GetAllGrouped(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].FinancialRecords = byProject[projects[i].ID]
	}

	return projects, nil
}

// GetByID retrieves a project with its payments.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id), &p)
	if err != nil {
		return nil, notFound(err, "failed to get project %d", id)
	}

	records, err := r.payments.GetByProjectID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.FinancialRecords = records

	return &p, nil
}

// UpdateStatus changes the status of a project.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update status of project %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update status of project %d: %w", id, ErrNotFound)
	}
	return nil
}
