package accuracy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8848digital/GDP-Forecast/apperr"
)

func TestScore(t *testing.T) {
	m, err := Score([]float64{1, 2, 3, 4}, []float64{2, 2, 1, 4})
	require.NoError(t, err)

	assert.InDelta(t, 0.75, m.MAE, 1e-12)
	assert.InDelta(t, 1.25, m.MSE, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), m.RMSE, 1e-12)
}

func TestScorePerfectFit(t *testing.T) {
	m, err := Score([]float64{5, 6, 7}, []float64{5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)
}

func TestScoreLengthMismatch(t *testing.T) {
	_, err := Score([]float64{1, 2, 3}, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrLengthMismatch))

	_, err = RMSE(nil, nil)
	assert.True(t, errors.Is(err, apperr.ErrData))
}

func TestMean(t *testing.T) {
	got := Mean([]Metrics{
		{MAE: 1, MSE: 2, RMSE: 3},
		{MAE: 3, MSE: 4, RMSE: 5},
	})
	assert.Equal(t, Metrics{MAE: 2, MSE: 3, RMSE: 4}, got)
	assert.Equal(t, Metrics{}, Mean(nil))
}
