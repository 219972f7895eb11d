package repository

import (
	"context"
	"fmt"

	"gitlab.com/clientdesk/billing-bot/internal/database"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// ClientRepository handles client database operations.
type ClientRepository struct {
	db database.Querier
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db database.Querier) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `
	c.id, c.name, c.company, c.email, c.phone, c.address, c.status,
	ARRAY(SELECT p.id FROM projects p WHERE p.client_id = c.id ORDER BY p.id)`

func scanClient(row interface{ Scan(dest ...any) error }, c *models.Client) error {
	return row.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.Address, &c.Status, &c.ProjectIDs)
}

// Create adds a new client and sets its ID.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (name, company, email, phone, address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, client.Name, client.Company, client.Email, client.Phone, client.Address, client.Status,
	).Scan(&client.ID)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetAll retrieves all clients ordered by id.
func (r *ClientRepository) GetAll(ctx context.Context) ([]models.Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients c ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}

// GetByID retrieves a client by ID.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	var c models.Client
	err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.id = $1`, id), &c)
	if err != nil {
		return nil, notFound(err, "failed to get client %d", id)
	}
	return &c, nil
}

// GetByEmail retrieves a client by email address (case-insensitive).
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	var c models.Client
	err := scanClient(r.db.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM clients c WHERE LOWER(c.email) = LOWER($1) ORDER BY c.id LIMIT 1
	`, email), &c)
	if err != nil {
		return nil, notFound(err, "failed to get client by email")
	}
	return &c, nil
}

// UpdateStatus sets the status of a client, leaving other columns untouched.
func (r *ClientRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE clients SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update status of client %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update status of client %d: %w", id, ErrNotFound)
	}
	return nil
}
