package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/clientdesk/billing-bot/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/", "secret-token", time.Second)
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New("  ", "token", time.Second)
	require.Error(t, err)

	c, err := New("https://api.example.com/", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestClient_ListProjects(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "Site", "budget": "1000 USD", "status": "Ongoing", "client_id": 2,
			 "financialRecords": [{"id": 5, "received_amount": "400 USD"}, {"id": 6, "received_amount": null}]}
		]`))
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Site", projects[0].Name)
	require.Len(t, projects[0].FinancialRecords, 2)
	assert.False(t, projects[0].FinancialRecords[1].ReceivedAmount.Valid)
}

func TestClient_GetClient(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client/3", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 3, "name": "Acme", "email": "a@acme.io", "password": "plaintext"}`))
	})

	c, err := client.GetClient(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "a@acme.io", c.Email)
}

func TestClient_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Project not found"}`))
	})

	_, err := client.GetProject(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Project not found", apiErr.Message)
}

func TestClient_ErrorWithoutMessage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.ListClients(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_CreatePayment(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "250.00 USD", body["received_amount"])
		assert.Equal(t, "2024-05-01", body["payment_date"])
		assert.EqualValues(t, 7, body["project_id"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "received_amount": "250.00 USD", "project_id": 7}`))
	})

	payment := &models.PaymentRecord{
		PaymentDate:    "2024-05-01",
		Description:    "Milestone",
		ReceivedAmount: models.NewMoneyString("250.00 USD"),
		ProjectID:      7,
	}
	require.NoError(t, client.CreatePayment(context.Background(), payment))
	assert.Equal(t, int64(42), payment.ID)
}

func TestClient_CreatePaymentWithoutID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.CreatePayment(context.Background(), &models.PaymentRecord{ProjectID: 1})
	require.Error(t, err)
}

func TestClient_Mutations(t *testing.T) {
	t.Parallel()

	type call struct{ method, path, body string }
	var (
		mu    sync.Mutex
		calls []call
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		mu.Lock()
		calls = append(calls, call{method: r.Method, path: r.URL.Path, body: string(raw)})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, client.UpdateProjectStatus(ctx, 7, models.StatusCompleted))
	require.NoError(t, client.UpdatePayment(ctx, &models.PaymentRecord{ID: 5, ReceivedAmount: models.NewMoneyString("10 USD")}))
	require.NoError(t, client.DeletePayment(ctx, 5))
	require.NoError(t, client.UpdateClientStatus(ctx, 3, "Active"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 4)
	assert.Equal(t, call{method: http.MethodPatch, path: "/project/7", body: `{"status":"Completed"}`}, calls[0])
	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, "/payment/5", calls[1].path)
	assert.Equal(t, call{method: http.MethodDelete, path: "/payment/5"}, calls[2])
	assert.Equal(t, call{method: http.MethodPatch, path: "/client/3", body: `{"status":"Active"}`}, calls[3])
}

func TestClient_GetSettings(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/currency-settings/":
			_, _ = w.Write([]byte(`[{"id": 1, "currency": "USD"}, {"id": 2, "currency": "EUR"}]`))
		case "/client-settings/":
			_, _ = w.Write([]byte(`[{"id": 1, "client_status": "Active"}]`))
		case "/project-settings/":
			_, _ = w.Write([]byte(`[{"id": 1, "project_type": "Web"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	s, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Currencies, 2)
	assert.Equal(t, "EUR", s.Currencies[1].Currency)
	assert.Equal(t, "Active", s.ClientStatuses[0].ClientStatus)
	assert.Equal(t, "Web", s.ProjectTypes[0].ProjectType)
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token": "new-token"}`))
	})

	token, err := client.Login(context.Background(), "ops@agency.io", "right")
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, "new-token", client.WithToken(token).token)
	assert.Equal(t, "secret-token", client.token)

	_, err = client.Login(context.Background(), "ops@agency.io", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(server.URL, "", 50*time.Millisecond)
	require.NoError(t, err)

	_, err = client.ListClients(context.Background())
	require.Error(t, err)
}
