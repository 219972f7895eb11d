package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/clientdesk/billing-bot/internal/database"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// PaymentRepository handles payment record database operations.
type PaymentRepository struct {
	db database.Querier
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db database.Querier) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, payment_date, description, received_amount, transaction_ref, project_id`

func scanPayments(rows pgx.Rows) ([]models.PaymentRecord, error) {
	defer rows.Close()

	var records []models.PaymentRecord
	for rows.Next() {
		var rec models.PaymentRecord
		var amount *string
		if err := rows.Scan(&rec.ID, &rec.PaymentDate, &rec.Description, &amount,
			&rec.Transaction, &rec.ProjectID); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		rec.ReceivedAmount = moneyFromText(amount)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return records, nil
}

// Create adds a new payment record and sets its ID.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.PaymentRecord) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (project_id, payment_date, description, received_amount, transaction_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, payment.ProjectID, payment.PaymentDate, payment.Description,
		moneyText(payment.ReceivedAmount), payment.Transaction,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByProjectID retrieves the payments of one project in insertion order.
func (r *PaymentRepository) GetByProjectID(ctx context.Context, projectID int64) ([]models.PaymentRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE project_id = $1 ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	return scanPayments(rows)
}

// GetAllGrouped retrieves every payment keyed by project id.
func (r *PaymentRepository) GetAllGrouped(ctx context.Context) (map[int64][]models.PaymentRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY project_id, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}

	records, err := scanPayments(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[int64][]models.PaymentRecord)
	for _, rec := range records {
		grouped[rec.ProjectID] = append(grouped[rec.ProjectID], rec)
	}
	return grouped, nil
}

// Update replaces the editable fields of a payment record.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.PaymentRecord) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		SET payment_date = $2, description = $3, received_amount = $4, transaction_ref = $5, updated_at = NOW()
		WHERE id = $1
	`, payment.ID, payment.PaymentDate, payment.Description, moneyText(payment.ReceivedAmount), payment.Transaction)
	if err != nil {
		return fmt.Errorf("failed to update payment %d: %w", payment.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update payment %d: %w", payment.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a payment record.
func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete payment %d: %w", id, ErrNotFound)
	}
	return nil
}
