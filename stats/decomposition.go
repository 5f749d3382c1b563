package stats

import (
	"math"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Decomposition is a classical additive decomposition Y = T + S + R.
// Trend and Residual are NaN where the centred moving average is undefined.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
}

// Decompose performs classical additive decomposition with a centred
// moving average trend. It returns nil when the series is shorter than two
// full periods.
func Decompose(series *timeseries.Series, period int) *Decomposition {
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil
	}

	trend := centredMovingAverage(series.Values, period)

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(trend[i]) {
			pattern[i%period] += series.Values[i] - trend[i]
			counts[i%period]++
		}
	}
	mean := 0.0
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
		mean += pattern[i]
	}
	mean /= float64(period)

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period] - mean
		if math.IsNaN(trend[i]) {
			residual[i] = math.NaN()
			continue
		}
		residual[i] = series.Values[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{Trend: trend, Seasonal: seasonal, Residual: residual, Period: period}
}

// centredMovingAverage uses a 2xperiod average for even periods.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5 * (values[i-half] + values[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}
