package dashboard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/clientdesk/billing-bot/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestStatusChart(t *testing.T) {
	t.Run("renders known statuses", func(t *testing.T) {
		img, err := StatusChart(ByStatus(sampleProjects()))
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(img, pngMagic))
	})

	t.Run("errors when there are no projects", func(t *testing.T) {
		_, err := StatusChart(ByStatus(nil))
		require.ErrorIs(t, err, ErrNothingToChart)
	})

	t.Run("single status", func(t *testing.T) {
		img, err := StatusChart(map[models.ProjectStatus]int{models.StatusPause: 4})
		require.NoError(t, err)
		require.NotEmpty(t, img)
	})
}

func TestOngoingTypeChart(t *testing.T) {
	img, err := OngoingTypeChart(OngoingByType(sampleProjects()))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = OngoingTypeChart(map[string]int{"Web": 0})
	require.ErrorIs(t, err, ErrNothingToChart)
}
