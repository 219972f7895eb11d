package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the business counters recorded by the bot.
// A nil *Metrics records nothing.
type Metrics struct {
	invoicesRendered metric.Int64Counter
	paymentsRecorded metric.Int64Counter
	commandErrors    metric.Int64Counter
}

// NewMetrics registers the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	invoices, err := meter.Int64Counter("billing.invoices.rendered",
		metric.WithDescription("Invoices rendered to PDF"))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoices counter: %w", err)
	}

	payments, err := meter.Int64Counter("billing.payments.recorded",
		metric.WithDescription("Payments created through the bot"))
	if err != nil {
		return nil, fmt.Errorf("failed to create payments counter: %w", err)
	}

	cmdErrors, err := meter.Int64Counter("billing.command.errors",
		metric.WithDescription("Commands that failed against the data source"))
	if err != nil {
		return nil, fmt.Errorf("failed to create command errors counter: %w", err)
	}

	return &Metrics{
		invoicesRendered: invoices,
		paymentsRecorded: payments,
		commandErrors:    cmdErrors,
	}, nil
}

// InvoiceRendered counts one rendered invoice.
func (m *Metrics) InvoiceRendered(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesRendered.Add(ctx, 1)
}

// PaymentRecorded counts one new payment; source is "command" or "slip".
func (m *Metrics) PaymentRecorded(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// CommandFailed counts one command that could not be completed.
func (m *Metrics) CommandFailed(ctx context.Context, command string) {
	if m == nil {
		return
	}
	m.commandErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
}
