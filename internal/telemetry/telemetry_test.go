package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("none exporter", func(t *testing.T) {
		p, err := Setup(ctx, Config{Exporter: ExporterNone, ServiceName: "billing-bot"})
		require.NoError(t, err)
		require.NoError(t, p.Shutdown(ctx))
	})

	t.Run("stdout exporter writes spans on shutdown", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := Setup(ctx, Config{Exporter: ExporterStdout, ServiceName: "billing-bot", Writer: &buf})
		require.NoError(t, err)

		_, span := p.Tracer.Tracer("test").Start(ctx, "render-invoice")
		span.End()

		require.NoError(t, p.Shutdown(ctx))
		assert.Contains(t, buf.String(), "render-invoice")
	})

	t.Run("otlp requires endpoint", func(t *testing.T) {
		_, err := Setup(ctx, Config{Exporter: ExporterOTLP})
		require.Error(t, err)
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := Setup(ctx, Config{Exporter: "zipkin"})
		require.Error(t, err)
	})
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.InvoiceRendered(ctx)
	m.InvoiceRendered(ctx)
	m.PaymentRecorded(ctx, "command")
	m.PaymentRecorded(ctx, "slip")
	m.CommandFailed(ctx, "/pay")

	totals := collect(t, reader)
	assert.Equal(t, int64(2), totals["billing.invoices.rendered"])
	assert.Equal(t, int64(2), totals["billing.payments.recorded"])
	assert.Equal(t, int64(1), totals["billing.command.errors"])
}

func TestMetrics_Nil(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.InvoiceRendered(context.Background())
		m.PaymentRecorded(context.Background(), "command")
		m.CommandFailed(context.Background(), "/pay")
	})
}
