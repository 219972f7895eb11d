package bot

import (
	"context"
	"errors"

	"gitlab.com/clientdesk/billing-bot/internal/apiclient"
	"gitlab.com/clientdesk/billing-bot/internal/gemini"
	"gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/repository"
)

// DataSource is the backend the bot reads clients and projects from and
// records payments into. Both the REST client and the Postgres store satisfy it.
type DataSource interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	UpdateClientStatus(ctx context.Context, id int64, status string) error
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	UpdateProjectStatus(ctx context.Context, id int64, status models.ProjectStatus) error
	CreatePayment(ctx context.Context, payment *models.PaymentRecord) error
	UpdatePayment(ctx context.Context, payment *models.PaymentRecord) error
	DeletePayment(ctx context.Context, id int64) error
	GetSettings(ctx context.Context) (*models.Settings, error)
}

var (
	_ DataSource = (*apiclient.Client)(nil)
	_ DataSource = (*repository.Store)(nil)
)

// SlipParser reads payment details from a slip image.
type SlipParser interface {
	ParsePaymentSlip(ctx context.Context, image []byte, mimeType string) (*gemini.SlipData, error)
}

var _ SlipParser = (*gemini.Client)(nil)

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, apiclient.ErrNotFound)
}
