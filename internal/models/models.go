// Package models defines the domain entities for the client billing bot.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DefaultCurrency is used when a project budget carries no recognizable currency.
const DefaultCurrency = "USD"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Known project statuses.
const (
	StatusPending   ProjectStatus = "Pending"
	StatusOngoing   ProjectStatus = "Ongoing"
	StatusCompleted ProjectStatus = "Completed"
	StatusCancelled ProjectStatus = "Cancelled"
	StatusPause     ProjectStatus = "Pause"
)

// KnownStatuses lists every project status in display order.
var KnownStatuses = []ProjectStatus{
	StatusPending,
	StatusOngoing,
	StatusCompleted,
	StatusCancelled,
	StatusPause,
}

// ParseProjectStatus matches s against the known statuses, ignoring case.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	for _, status := range KnownStatuses {
		if strings.EqualFold(string(status), s) {
			return status, true
		}
	}
	return "", false
}

// IsKnown reports whether the status is one of KnownStatuses.
func (s ProjectStatus) IsKnown() bool {
	for _, status := range KnownStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// MoneyString is a free-text "<amount> <currency>" value as stored by the backend.
// Valid is false when the value was null, missing or not a JSON string.
type MoneyString struct {
	Text  string
	Valid bool
}

// NewMoneyString returns a valid MoneyString holding s.
func NewMoneyString(s string) MoneyString {
	return MoneyString{Text: s, Valid: true}
}

// UnmarshalJSON accepts any JSON value; only strings are considered valid.
func (m *MoneyString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = MoneyString{}
		return nil
	}
	if data[0] != '"' {
		*m = MoneyString{Text: string(data)}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = MoneyString{Text: s, Valid: true}
	return nil
}

// MarshalJSON writes the text as a JSON string, or null when not valid.
func (m MoneyString) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Text)
}

// Client is a customer of the agency.
// The backend also returns a plaintext password; it is intentionally not modelled.
type Client struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Company    string  `json:"company"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	Status     string  `json:"status"`
	ProjectIDs []int64 `json:"projects"`
}

// Project is a billable engagement for a client.
type Project struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Details          string          `json:"details"`
	Budget           MoneyString     `json:"budget"`
	StartTime        string          `json:"start_time"`
	EndTime          string          `json:"end_time"`
	Status           ProjectStatus   `json:"status"`
	ProjectType      string          `json:"project_type"`
	ClientID         int64           `json:"client_id"`
	FinancialRecords []PaymentRecord `json:"financialRecords"`
}

// PaymentRecord is a single payment received against a project.
type PaymentRecord struct {
	ID             int64       `json:"id"`
	PaymentDate    string      `json:"payment_date"`
	Description    string      `json:"description"`
	ReceivedAmount MoneyString `json:"received_amount"`
	Transaction    string      `json:"transaction"`
	ProjectID      int64       `json:"project_id"`
}

// CurrencySetting is an allowed currency code.
type CurrencySetting struct {
	ID       int64  `json:"id"`
	Currency string `json:"currency"`
}

// ClientStatusSetting is an allowed client status label.
type ClientStatusSetting struct {
	ID           int64  `json:"id"`
	ClientStatus string `json:"client_status"`
}

// ProjectTypeSetting is an allowed project type label.
type ProjectTypeSetting struct {
	ID          int64  `json:"id"`
	ProjectType string `json:"project_type"`
}

// Settings bundles the lookup lists used to populate choices.
type Settings struct {
	Currencies     []CurrencySetting
	ClientStatuses []ClientStatusSetting
	ProjectTypes   []ProjectTypeSetting
}

// HasClientStatus reports whether status is an allowed client status (case-insensitive).
func (s Settings) HasClientStatus(status string) (string, bool) {
	for _, cs := range s.ClientStatuses {
		if strings.EqualFold(cs.ClientStatus, status) {
			return cs.ClientStatus, true
		}
	}
	return "", false
}

// dateLayouts are the formats the backend has been seen to emit.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

// ParseDate parses a backend date string. ok is false when no layout matches.
func ParseDate(s string) (t time.Time, ok bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
