package repository

import (
	"context"

	"gitlab.com/clientdesk/billing-bot/internal/database"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// Store composes the repositories into the data source used by the bot.
type Store struct {
	Clients  *ClientRepository
	Projects *ProjectRepository
	Payments *PaymentRepository
	Settings *SettingsRepository
}

// NewStore creates a Store on db.
func NewStore(db database.Querier) *Store {
	return &Store{
		Clients:  NewClientRepository(db),
		Projects: NewProjectRepository(db),
		Payments: NewPaymentRepository(db),
		Settings: NewSettingsRepository(db),
	}
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.Clients.GetAll(ctx)
}

func (s *Store) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	return s.Clients.GetByID(ctx, id)
}

func (s *Store) UpdateClientStatus(ctx context.Context, id int64, status string) error {
	return s.Clients.UpdateStatus(ctx, id, status)
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.Projects.GetAll(ctx)
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	return s.Projects.GetByID(ctx, id)
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	return s.Projects.UpdateStatus(ctx, id, status)
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.PaymentRecord) error {
	return s.Payments.Create(ctx, payment)
}

func (s *Store) UpdatePayment(ctx context.Context, payment *models.PaymentRecord) error {
	return s.Payments.Update(ctx, payment)
}

func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	return s.Payments.Delete(ctx, id)
}

func (s *Store) GetSettings(ctx context.Context) (*models.Settings, error) {
	return s.Settings.Get(ctx)
}
