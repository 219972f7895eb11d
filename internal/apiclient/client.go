// Package apiclient talks to the clientdesk REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// ErrNotFound is matched by errors.Is for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Is reports 404 responses as ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a REST client for the backend. The session token is fixed at
// construction; there is no retry.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for baseURL. Requests carry token as a bearer credential.
func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("API base URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: trimmed,
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("login failed: no token in response")
	}
	return resp.Token, nil
}

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := c.do(ctx, http.MethodGet, "/clients", nil, &clients); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// GetClient returns one client.
func (c *Client) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/client/%d", id), nil, &client); err != nil {
		return nil, fmt.Errorf("failed to get client %d: %w", id, err)
	}
	return &client, nil
}

type clientStatusRequest struct {
	Status string `json:"status"`
}

// UpdateClientStatus changes only the status of a client. The rest of the
// record, including fields this client never decodes, is left to the backend.
func (c *Client) UpdateClientStatus(ctx context.Context, id int64, status string) error {
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/client/%d", id), clientStatusRequest{Status: status}, nil); err != nil {
		return fmt.Errorf("failed to update status of client %d: %w", id, err)
	}
	return nil
}

// ListProjects returns every project with its payment records.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project with its payment records.
func (c *Client) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/project/%d", id), nil, &project); err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return &project, nil
}

type statusRequest struct {
	Status models.ProjectStatus `json:"status"`
}

// UpdateProjectStatus changes the status of a project.
func (c *Client) UpdateProjectStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/project/%d", id), statusRequest{Status: status}, nil); err != nil {
		return fmt.Errorf("failed to update status of project %d: %w", id, err)
	}
	return nil
}

// CreatePayment records a payment and fills in the id assigned by the backend.
func (c *Client) CreatePayment(ctx context.Context, payment *models.PaymentRecord) error {
	var created models.PaymentRecord
	if err := c.do(ctx, http.MethodPost, "/payment/", payment, &created); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	if created.ID == 0 {
		return errors.New("failed to create payment: no id in response")
	}
	payment.ID = created.ID
	return nil
}

// UpdatePayment replaces a payment record.
func (c *Client) UpdatePayment(ctx context.Context, payment *models.PaymentRecord) error {
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/payment/%d", payment.ID), payment, nil); err != nil {
		return fmt.Errorf("failed to update payment %d: %w", payment.ID, err)
	}
	return nil
}

// DeletePayment removes a payment record.
func (c *Client) DeletePayment(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/payment/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete payment %d: %w", id, err)
	}
	return nil
}

// GetSettings loads the currency, client status and project type lists.
func (c *Client) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := c.do(ctx, http.MethodGet, "/currency-settings/", nil, &settings.Currencies); err != nil {
		return nil, fmt.Errorf("failed to load currency settings: %w", err)
	}
	if err := c.do(ctx, http.MethodGet, "/client-settings/", nil, &settings.ClientStatuses); err != nil {
		return nil, fmt.Errorf("failed to load client settings: %w", err)
	}
	if err := c.do(ctx, http.MethodGet, "/project-settings/", nil, &settings.ProjectTypes); err != nil {
		return nil, fmt.Errorf("failed to load project settings: %w", err)
	}
	return &settings, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
