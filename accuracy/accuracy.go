// Package accuracy scores fitted values against observations.
package accuracy

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/8848digital/GDP-Forecast/apperr"
)

// Metrics holds in-sample error measures.
type Metrics struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
}

// Score compares actual and fitted element-wise. The vectors must be the
// same length; misaligned input is never truncated.
func Score(actual, fitted []float64) (Metrics, error) {
	if len(actual) != len(fitted) {
		return Metrics{}, apperr.NewLengthMismatchError(len(actual), len(fitted))
	}
	if len(actual) == 0 {
		return Metrics{}, apperr.NewDataError("cannot score an empty series", nil)
	}

	errs := make([]float64, len(actual))
	floats.SubTo(errs, actual, fitted)

	abs := make([]float64, len(errs))
	sq := make([]float64, len(errs))
	for i, e := range errs {
		abs[i] = math.Abs(e)
		sq[i] = e * e
	}

	mse := stat.Mean(sq, nil)
	return Metrics{
		MAE:  stat.Mean(abs, nil),
		MSE:  mse,
		RMSE: math.Sqrt(mse),
	}, nil
}

// RMSE is a shortcut for Score(actual, predicted).RMSE.
func RMSE(actual, predicted []float64) (float64, error) {
	m, err := Score(actual, predicted)
	if err != nil {
		return 0, err
	}
	return m.RMSE, nil
}

// Mean averages metrics across sectors. An empty input yields zero metrics.
func Mean(ms []Metrics) Metrics {
	if len(ms) == 0 {
		return Metrics{}
	}
	var out Metrics
	for _, m := range ms {
		out.MAE += m.MAE
		out.MSE += m.MSE
		out.RMSE += m.RMSE
	}
	n := float64(len(ms))
	out.MAE /= n
	out.MSE /= n
	out.RMSE /= n
	return out
}
