// Package arima implements seasonal ARIMA models.
//
// A model of order (p,d,q)(P,D,Q)[m] differences the series d times, then
// seasonally differences it D times at lag m, and fits AR and MA terms at
// lags 1..p, 1..q and m, 2m, ... by conditional sum of squares. The
// optimiser is gonum's Nelder-Mead, started from Yule-Walker AR estimates.
// A mean (a drift once differenced) is estimated when d+D < 2.
//
// # Basic Usage
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, _ := model.Predict(7)
//	fitted := model.FittedValues() // aligned with series.Values
//
// Seasonal orders:
//
//	model := arima.NewSeasonal(arima.Order{P: 1, D: 1, SQ: 1, SD: 1, M: 4})
//
// A period of 0 or 1 drops the seasonal part, so the same order works for
// annual and quarterly data.
//
// # Model Selection
//
// AIC, AICc and BIC are computed from the conditional likelihood; lower
// is better. The autoarima package searches orders automatically.
//
// # Residual Analysis
//
//	summary := model.Summary()
//	if summary.LjungBox != nil && summary.LjungBox.PValue < 0.05 {
//	    // residual autocorrelation left
//	}
package arima
