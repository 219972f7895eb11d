// Package repository provides database access for domain entities.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// notFound converts pgx.ErrNoRows into ErrNotFound and wraps other errors.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func moneyText(m models.MoneyString) *string {
	if !m.Valid {
		return nil
	}
	s := m.Text
	return &s
}

func moneyFromText(s *string) models.MoneyString {
	if s == nil {
		return models.MoneyString{}
	}
	return models.NewMoneyString(*s)
}
