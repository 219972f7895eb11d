package dashboard

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"

	"gitlab.com/clientdesk/billing-bot/internal/models"
)

// ErrNothingToChart is returned when every count is zero.
var ErrNothingToChart = errors.New("no projects to chart")

// StatusChart renders a pie chart of project counts per status as PNG.
func StatusChart(counts map[models.ProjectStatus]int) ([]byte, error) {
	var values []float64
	var labels []string
	for _, s := range models.KnownStatuses {
		if n := counts[s]; n > 0 {
			values = append(values, float64(n))
			labels = append(labels, fmt.Sprintf("%s (%d)", s, n))
		}
	}
	return renderPie("Projects by Status", values, labels)
}

// OngoingTypeChart renders a pie chart of ongoing projects per type as PNG.
func OngoingTypeChart(counts map[string]int) ([]byte, error) {
	var values []float64
	var labels []string
	for _, t := range SortedKeys(counts) {
		if n := counts[t]; n > 0 {
			values = append(values, float64(n))
			labels = append(labels, fmt.Sprintf("%s (%d)", t, n))
		}
	}
	return renderPie("Ongoing Projects by Type", values, labels)
}

func renderPie(title string, values []float64, labels []string) ([]byte, error) {
	if len(values) == 0 {
		return nil, ErrNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(labels),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
