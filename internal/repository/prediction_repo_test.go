package repository

import (
	"path/filepath"
	"testing"

	"iris-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *PredictionRepository {
	t.Helper()

	repo, err := NewPredictionRepository(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndGetRecent(t *testing.T) {
	repo := newTestRepo(t)

	first := models.NewPredictionRecord("req-1", models.Sample{5.1, 3.5, 1.4, 0.2},
		&models.PredictionResult{Prediction: 0, ClassName: "setosa"})
	second := models.NewPredictionRecord("", models.Sample{6.7, 3.0, 5.2, 2.3},
		&models.PredictionResult{Prediction: 2, ClassName: "virginica"})

	require.NoError(t, repo.SavePrediction(first))
	require.NoError(t, repo.SavePrediction(second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	records, err := repo.GetRecentPredictions(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, "virginica", records[0].ClassName)
	assert.Equal(t, models.Sample{6.7, 3.0, 5.2, 2.3}, records[0].Sample())
	assert.Empty(t, records[0].RequestID)

	assert.Equal(t, "req-1", records[1].RequestID)
	assert.Equal(t, 0, records[1].Prediction)

	limited, err := repo.GetRecentPredictions(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetStats(t *testing.T) {
	repo := newTestRepo(t)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.ByClass)

	for _, r := range []models.PredictionResult{
		{Prediction: 0, ClassName: "setosa"},
		{Prediction: 0, ClassName: "setosa"},
		{Prediction: 1, ClassName: "versicolor"},
	} {
		r := r
		require.NoError(t, repo.SavePrediction(models.NewPredictionRecord("", models.Sample{}, &r)))
	}

	stats, err = repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"setosa": 2, "versicolor": 1}, stats.ByClass)
}
