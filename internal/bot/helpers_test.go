package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gitlab.com/clientdesk/billing-bot/internal/config"
	"gitlab.com/clientdesk/billing-bot/internal/gemini"
	"gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/repository"
)

const (
	staffID  int64 = 100
	clientID int64 = 200
	chatID   int64 = 555
)

var errBackend = errors.New("backend unavailable")

// fakeData is an in-memory DataSource.
type fakeData struct {
	mu       sync.Mutex
	clients  []models.Client
	projects []models.Project
	settings models.Settings
	nextID   int64

	// err, when set, is returned by every call.
	err error

	statusUpdates []models.ProjectStatus
	deleted       []int64
}

var _ DataSource = (*fakeData)(nil)

func newFakeData() *fakeData {
	return &fakeData{
		nextID: 1000,
		clients: []models.Client{
			{ID: 1, Name: "Jane Doe", Company: "Acme", Email: "billing@acme.io", Status: "Active", ProjectIDs: []int64{10, 11}},
			{ID: 2, Name: "Bob Beta", Email: "bob@beta.com", Status: "Lead"},
		},
		projects: []models.Project{
			{
				ID: 10, Name: "Website", Budget: models.NewMoneyString("1000 USD"),
				StartTime: "2024-03-05", EndTime: "2024-06-30",
				Status: models.StatusOngoing, ProjectType: "Web", ClientID: 1,
				FinancialRecords: []models.PaymentRecord{
					{ID: 40, PaymentDate: "2024-03-10", Description: "Deposit", ReceivedAmount: models.NewMoneyString("300 USD"), ProjectID: 10},
					{ID: 41, PaymentDate: "2024-04-10", Description: "Milestone 1", ReceivedAmount: models.NewMoneyString("200.50 USD"), ProjectID: 10},
				},
			},
			{
				ID: 11, Name: "App", Budget: models.NewMoneyString("5000 EUR"),
				StartTime: "2023-01-15", Status: models.StatusCompleted, ProjectType: "Mobile", ClientID: 1,
			},
			{
				ID: 12, Name: "Logo", StartTime: "not a date",
				Status: models.StatusPending, ClientID: 2,
			},
		},
		settings: models.Settings{
			Currencies:     []models.CurrencySetting{{ID: 1, Currency: "USD"}, {ID: 2, Currency: "EUR"}},
			ClientStatuses: []models.ClientStatusSetting{{ID: 1, ClientStatus: "Active"}, {ID: 2, ClientStatus: "Lead"}},
			ProjectTypes:   []models.ProjectTypeSetting{{ID: 1, ProjectType: "Web"}, {ID: 2, ProjectType: "Mobile"}},
		},
	}
}

func (f *fakeData) ListClients(context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Client(nil), f.clients...), nil
}

func (f *fakeData) GetClient(_ context.Context, id int64) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.clients {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeData) UpdateClientStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.clients {
		if f.clients[i].ID == id {
			f.clients[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeData) ListProjects(context.Context) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Project, len(f.projects))
	for i, p := range f.projects {
		p.FinancialRecords = append([]models.PaymentRecord(nil), p.FinancialRecords...)
		out[i] = p
	}
	return out, nil
}

func (f *fakeData) GetProject(_ context.Context, id int64) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.projects {
		if p.ID == id {
			p.FinancialRecords = append([]models.PaymentRecord(nil), p.FinancialRecords...)
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeData) UpdateProjectStatus(_ context.Context, id int64, status models.ProjectStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects[i].Status = status
			f.statusUpdates = append(f.statusUpdates, status)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeData) CreatePayment(_ context.Context, payment *models.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.projects {
		if f.projects[i].ID == payment.ProjectID {
			f.nextID++
			payment.ID = f.nextID
			f.projects[i].FinancialRecords = append(f.projects[i].FinancialRecords, *payment)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeData) UpdatePayment(_ context.Context, payment *models.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.projects {
		for j := range f.projects[i].FinancialRecords {
			if f.projects[i].FinancialRecords[j].ID == payment.ID {
				f.projects[i].FinancialRecords[j] = *payment
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (f *fakeData) DeletePayment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.projects {
		records := f.projects[i].FinancialRecords
		for j := range records {
			if records[j].ID == id {
				f.projects[i].FinancialRecords = append(records[:j:j], records[j+1:]...)
				f.deleted = append(f.deleted, id)
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (f *fakeData) GetSettings(context.Context) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := f.settings
	return &s, nil
}

func (f *fakeData) project(id int64) models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ID == id {
			return p
		}
	}
	return models.Project{}
}

func (f *fakeData) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeSlips returns a fixed result from ParsePaymentSlip.
type fakeSlips struct {
	data *gemini.SlipData
	err  error

	gotImage []byte
	gotMIME  string
}

func (f *fakeSlips) ParsePaymentSlip(_ context.Context, image []byte, mimeType string) (*gemini.SlipData, error) {
	f.gotImage = image
	f.gotMIME = mimeType
	return f.data, f.err
}

var testNow = time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		TelegramBotToken:     "test-token",
		WhitelistedUserIDs:   []int64{staffID},
		WhitelistedUsernames: []string{"opslead"},
		ClientBindings:       map[int64]string{clientID: "billing@acme.io"},
		DefaultCurrency:      "USD",
	}
}

// newTestBot builds a Bot around a fresh fakeData without a Telegram connection.
func newTestBot(t *testing.T) (*Bot, *fakeData) {
	t.Helper()
	data := newFakeData()
	b := newBot(testConfig(), data, nil, nil)
	b.now = func() time.Time { return testNow }
	return b, data
}
