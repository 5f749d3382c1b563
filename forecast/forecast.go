package forecast

import (
	"fmt"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/autoarima"
	"github.com/8848digital/GDP-Forecast/expsmoothing"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Fitted is a model fitted to a full series.
type Fitted interface {
	// Forecast returns h values following the training data.
	Forecast(h int) ([]float64, error)
	// FittedValues returns in-sample one-step predictions aligned with the
	// training data.
	FittedValues() []float64
}

// Warner is implemented by fitted models that carry a non-fatal warning.
type Warner interface {
	Warning() error
}

// Describer is implemented by fitted models that can name what was fitted.
type Describer interface {
	Describe() string
}

// Fit fits spec on the whole series.
func Fit(series *timeseries.Series, spec model.Spec) (Fitted, error) {
	if err := spec.Validate(); err != nil {
		return nil, apperr.NewConfigError("invalid model spec", err)
	}

	switch spec.Family {
	case model.HoltWinters:
		return fitHoltWinters(series, *spec.ES)
	case model.AutoArima:
		return fitArima(series, *spec.Arima)
	}
	return nil, apperr.NewConfigError(fmt.Sprintf("unsupported family %q", spec.Family), nil)
}

// HoltWintersConfig maps a catalog spec onto the smoothing model.
func HoltWintersConfig(es model.ExponentialSmoothing) expsmoothing.Config {
	cfg := expsmoothing.Config{
		Trend:    component(es.Trend),
		Seasonal: component(es.Seasonal),
	}
	if cfg.Seasonal != expsmoothing.None {
		cfg.Period = es.SeasonalPeriods
	}
	return cfg
}

func component(c model.Component) expsmoothing.Component {
	switch c {
	case model.Additive:
		return expsmoothing.Additive
	case model.Multiplicative:
		return expsmoothing.Multiplicative
	}
	return expsmoothing.None
}

// ArimaConfig maps a catalog spec onto the auto-ARIMA search.
func ArimaConfig(a model.Arima) *autoarima.Config {
	cfg := autoarima.DefaultConfig()
	cfg.Stepwise = a.Stepwise
	cfg.Seasonal = a.Seasonal
	cfg.SeasonalM = a.Period
	if a.Criterion != "" {
		cfg.Criterion = a.Criterion
	}
	if a.MaxModels > 0 {
		cfg.MaxModels = a.MaxModels
	}
	return cfg
}

type holtWintersFit struct {
	*expsmoothing.Model
	es model.ExponentialSmoothing
}

// Describe names the catalog triple; the period is kept even when the
// seasonal component is None.
func (h holtWintersFit) Describe() string {
	return fmt.Sprintf("HW(%s,%s,%d) alpha=%.3f beta=%.3f gamma=%.3f",
		h.es.Trend, h.es.Seasonal, h.es.SeasonalPeriods, h.Alpha, h.Beta, h.Gamma)
}

func fitHoltWinters(series *timeseries.Series, es model.ExponentialSmoothing) (Fitted, error) {
	cfg := HoltWintersConfig(es)
	if cfg.Seasonal != expsmoothing.None && series.Len() < 2*cfg.Period {
		return nil, apperr.NewDataError(
			fmt.Sprintf("%d points cannot carry seasonal period %d", series.Len(), cfg.Period), nil).
			WithContext("sector", series.Sector)
	}

	m := expsmoothing.New(cfg)
	if err := m.Fit(series.Values); err != nil {
		return nil, apperr.NewModelFitError("holt-winters fit failed", err).WithContext("sector", series.Sector)
	}
	return holtWintersFit{Model: m, es: es}, nil
}

type arimaFit struct {
	*autoarima.Result
}

func (a arimaFit) Forecast(h int) ([]float64, error) {
	return a.Predict(h)
}

// Describe names the selected order, appending the Ljung-Box p-value of
// the residuals when the test could be run.
func (a arimaFit) Describe() string {
	out := fmt.Sprintf("%s aic=%.3f", a.Order(), a.AIC)
	if sum := a.Model.Summary(); sum != nil && sum.LjungBox != nil {
		out += fmt.Sprintf(" ljung_box_p=%.3f", sum.LjungBox.PValue)
	}
	return out
}

func fitArima(series *timeseries.Series, a model.Arima) (Fitted, error) {
	if a.Seasonal && a.Period > 1 && series.Len() < 2*a.Period {
		return nil, apperr.NewDataError(
			fmt.Sprintf("%d points cannot carry seasonal period %d", series.Len(), a.Period), nil).
			WithContext("sector", series.Sector)
	}

	res, err := autoarima.AutoARIMA(series, ArimaConfig(a))
	if err != nil {
		return nil, err
	}
	return arimaFit{res}, nil
}
