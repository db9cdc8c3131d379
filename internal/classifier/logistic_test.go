package classifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"iris-api/internal/dataset"
)

func fitIris(t *testing.T) (*LogisticRegression, *dataset.Dataset) {
	t.Helper()

	ds, err := dataset.Load()
	require.NoError(t, err)

	model := NewLogisticRegression()
	require.NoError(t, model.Fit(ds.Matrix(), ds.Targets))
	return model, ds
}

func TestFit_Iris(t *testing.T) {
	model, ds := fitIris(t)

	assert.Equal(t, 3, model.Classes())
	assert.LessOrEqual(t, model.Iterations(), DefaultMaxIter)

	accuracy, err := model.Score(ds.Matrix(), ds.Targets)
	require.NoError(t, err)
	assert.Greater(t, accuracy, 0.9)
}

func TestPredict_KnownSamples(t *testing.T) {
	model, _ := fitIris(t)

	tests := []struct {
		name   string
		sample []float64
		want   int
	}{
		{"setosa", []float64{5.1, 3.5, 1.4, 0.2}, 0},
		{"versicolor", []float64{5.7, 2.8, 4.1, 1.3}, 1},
		{"virginica", []float64{6.7, 3.0, 5.2, 2.3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.Predict(tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredictProba(t *testing.T) {
	model, _ := fitIris(t)

	proba, err := model.PredictProba([]float64{5.1, 3.5, 1.4, 0.2})
	require.NoError(t, err)
	require.Len(t, proba, 3)
	assert.InDelta(t, 1.0, floats.Sum(proba), 1e-9)
	assert.Equal(t, 0, floats.MaxIdx(proba))
	for _, p := range proba {
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestFit_Deterministic(t *testing.T) {
	a, _ := fitIris(t)
	b, _ := fitIris(t)

	assert.True(t, mat.Equal(a.weights, b.weights))
	assert.Equal(t, a.intercept, b.intercept)
}

func TestPredict_Errors(t *testing.T) {
	unfitted := NewLogisticRegression()
	_, err := unfitted.Predict([]float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrNotFitted)

	model, _ := fitIris(t)
	_, err = model.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestFit_InvalidInput(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})

	assert.Error(t, NewLogisticRegression().Fit(x, []int{0}))
	assert.Error(t, NewLogisticRegression().Fit(x, []int{0, 0}))
	assert.Error(t, NewLogisticRegression().Fit(x, []int{0, -1}))
}

func TestOptions(t *testing.T) {
	m := NewLogisticRegression(WithC(0.5), WithMaxIter(50), WithTolerance(1e-6))
	assert.Equal(t, 0.5, m.c)
	assert.Equal(t, 50, m.maxIter)
	assert.Equal(t, 1e-6, m.tol)

	// non-positive values keep the defaults
	m = NewLogisticRegression(WithC(0), WithMaxIter(-1), WithTolerance(0))
	assert.Equal(t, DefaultC, m.c)
	assert.Equal(t, DefaultMaxIter, m.maxIter)
	assert.Equal(t, DefaultTolerance, m.tol)
}

func TestPredict_Concurrent(t *testing.T) {
	model, _ := fitIris(t)
	want, err := model.Predict([]float64{6.7, 3.0, 5.2, 2.3})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := model.Predict([]float64{6.7, 3.0, 5.2, 2.3})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
