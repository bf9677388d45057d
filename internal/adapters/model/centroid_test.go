package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingSet() ([][]float64, [][2]string) {
	X := [][]float64{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}
	Y := [][2]string{
		{"XSS", "Low"}, {"XSS", "Low"}, {"XSS", "High"},
		{"SQLi", "High"}, {"SQLi", "High"}, {"SQLi", "Low"},
	}
	return X, Y
}

func TestCentroid_FitPredict(t *testing.T) {
	X, Y := trainingSet()
	c := NewCentroid()
	require.NoError(t, c.Fit(X, Y))

	got, err := c.Predict([][]float64{{0.2, 0.3}, {9, 9}})
	require.NoError(t, err)
	assert.Equal(t, "XSS", got[0][0])
	assert.Equal(t, "SQLi", got[1][0])
	assert.Equal(t, "Low", got[0][1])
	assert.Equal(t, "High", got[1][1])
}

func TestCentroid_Errors(t *testing.T) {
	c := NewCentroid()
	_, err := c.Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrNotTrained)

	assert.Error(t, c.Fit(nil, nil))
	assert.Error(t, c.Fit([][]float64{{1}}, nil))
	assert.Error(t, c.Fit([][]float64{{1}, {1, 2}}, [][2]string{{"a", "b"}, {"a", "b"}}))

	X, Y := trainingSet()
	require.NoError(t, c.Fit(X, Y))
	_, err = c.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestCentroid_TieResolvesToSmallestLabel(t *testing.T) {
	c := NewCentroid()
	require.NoError(t, c.Fit([][]float64{{0}, {2}}, [][2]string{{"b", "x"}, {"a", "x"}}))
	got, err := c.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, "a", got[0][0])
}

func TestFactory_RestoreRoundTrip(t *testing.T) {
	X, Y := trainingSet()
	c := NewCentroid()
	require.NoError(t, c.Fit(X, Y))

	snap, err := c.Snapshot()
	require.NoError(t, err)

	restored, err := Factory{}.Restore(CentroidName, snap)
	require.NoError(t, err)

	probe := [][]float64{{0.4, 0.1}, {10.5, 10.2}, {5, 5}}
	want, err := c.Predict(probe)
	require.NoError(t, err)
	got, err := restored.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFactory_RestoreRejects(t *testing.T) {
	_, err := Factory{}.Restore("random_forest", []byte(`{}`))
	assert.Error(t, err)

	_, err = Factory{}.Restore(CentroidName, []byte(`{"width":2}`))
	assert.Error(t, err)

	_, err = Factory{}.Restore(CentroidName, []byte(`not json`))
	assert.Error(t, err)

	bad := `{"width":2,"outputs":[{"labels":["a"],"centroids":[[1]]},{"labels":["b"],"centroids":[[1,2]]}]}`
	_, err = Factory{}.Restore(CentroidName, []byte(bad))
	assert.Error(t, err)
}
