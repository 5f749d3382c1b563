package forecast

import (
	"fmt"
	"math"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/stats"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// DefaultStationarityAlpha is the ADF p-value above which a series is
// differenced before fitting.
const DefaultStationarityAlpha = 0.05

// Transform is applied to the raw series before fitting, log first.
type Transform struct {
	// Log1p fits on log(1+y).
	Log1p bool
	// Stationarize differences once when ADF cannot reject a unit root.
	Stationarize bool
	// Alpha is the ADF significance level; 0 means DefaultStationarityAlpha.
	Alpha float64
}

// PostProcess toggles the output steps. They run in field order.
type PostProcess struct {
	// Undifference integrates forecast and fitted values back to levels
	// when Stationarize differenced the series.
	Undifference bool `mapstructure:"undifference" yaml:"undifference"`
	// LogBackTransform applies expm1 when the series was log1p-transformed.
	LogBackTransform bool `mapstructure:"log_back_transform" yaml:"log_back_transform"`
	// Floor replaces negative forecasts with the smallest strictly positive
	// raw observation and rejects series without one.
	Floor bool `mapstructure:"floor" yaml:"floor"`
}

// DefaultPostProcess enables every step.
func DefaultPostProcess() PostProcess {
	return PostProcess{Undifference: true, LogBackTransform: true, Floor: true}
}

// Output is the post-processed result for one sector. Actual holds the
// observations on the scale of Fitted, so the two can be scored directly.
type Output struct {
	Forecast    []float64
	Fitted      []float64
	Actual      []float64
	Floor       float64
	Differenced bool
	Model       string
	Warning     error
}

// Run fits spec to the transformed series and produces horizon forecasts.
func Run(series *timeseries.Series, spec model.Spec, horizon int, tr Transform, post PostProcess) (*Output, error) {
	if horizon < 0 {
		return nil, apperr.NewConfigError(fmt.Sprintf("negative horizon %d", horizon), nil)
	}
	if series.Len() == 0 {
		return nil, apperr.NewDataError("empty series", nil).WithContext("sector", series.Sector)
	}

	// Checked before fitting: nothing is forecast for such a series.
	floor, hasFloor := series.MinPositive()
	if post.Floor && !hasFloor {
		return nil, apperr.NewDataError("no strictly positive observation to floor forecasts", nil).
			WithContext("sector", series.Sector)
	}

	work := series
	if tr.Log1p {
		work = work.Log1p()
	}
	levels := work

	differenced := false
	if tr.Stationarize {
		alpha := tr.Alpha
		if alpha <= 0 {
			alpha = DefaultStationarityAlpha
		}
		stationary, _, diffed, err := stats.MakeStationary(work, alpha)
		if err != nil {
			return nil, apperr.NewDataError("stationarity test failed", err).WithContext("sector", series.Sector)
		}
		work, differenced = stationary, diffed
	}

	fitted, err := Fit(work, spec)
	if err != nil {
		return nil, err
	}

	fc, err := fitted.Forecast(horizon)
	if err != nil {
		return nil, apperr.NewModelFitError("forecast failed", err).WithContext("sector", series.Sector)
	}
	out := &Output{
		Forecast:    fc,
		Fitted:      fitted.FittedValues(),
		Actual:      append([]float64(nil), work.Values...),
		Differenced: differenced,
	}
	if w, ok := fitted.(Warner); ok {
		out.Warning = w.Warning()
	}
	if d, ok := fitted.(Describer); ok {
		out.Model = d.Describe()
	}

	if differenced && post.Undifference {
		out.Forecast = integrate(out.Forecast, levels.Values[levels.Len()-1])
		out.Fitted = integrateFitted(out.Fitted, levels.Values)
		out.Actual = append([]float64(nil), levels.Values...)
	}

	// Without undifferencing the values stay on the differenced log scale,
	// where expm1 has no meaning.
	if tr.Log1p && post.LogBackTransform && (!differenced || post.Undifference) {
		out.Forecast = timeseries.Expm1(out.Forecast)
		out.Fitted = timeseries.Expm1(out.Fitted)
		out.Actual = append([]float64(nil), series.Values...)
	}

	for i, v := range out.Forecast {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperr.NewModelFitError(fmt.Sprintf("forecast step %d is not finite", i+1), nil).
				WithContext("sector", series.Sector).
				WithContext("model", out.Model)
		}
	}

	if post.Floor {
		out.Floor = floor
		for i, v := range out.Forecast {
			if v < 0 {
				out.Forecast[i] = floor
			}
		}
	}

	return out, nil
}

// integrate turns forecast differences into levels following last.
func integrate(diffs []float64, last float64) []float64 {
	out := make([]float64, len(diffs))
	level := last
	for i, d := range diffs {
		level += d
		out[i] = level
	}
	return out
}

// integrateFitted maps one-step predictions of differences back onto the
// level scale. The first observation has no prediction and is returned
// unchanged.
func integrateFitted(fittedDiffs, levels []float64) []float64 {
	out := make([]float64, len(levels))
	if len(levels) == 0 {
		return out
	}
	out[0] = levels[0]
	for t := 1; t < len(levels) && t-1 < len(fittedDiffs); t++ {
		out[t] = levels[t-1] + fittedDiffs[t-1]
	}
	return out
}
