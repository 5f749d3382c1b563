// Package gdpforecast forecasts sector-level GDP over annual and quarterly
// horizons.
//
// For every sector in a dataset the pipeline picks a model (a tuned
// Holt-Winters configuration, a Holt-Winters grid search scored on a
// holdout, or a stepwise seasonal auto-ARIMA), fits it, forecasts the
// requested periods, scores the fit in-sample and replaces the results
// table for the (kind, family) pair in one transaction.
//
// # Quick Start
//
// Run the command line tool against a workbook:
//
//	go run ./cmd/gdpforecast --type annual_holt_winters \
//		--dataset data/annual_dataset.xlsx --sink sqlite --dsn forecast.db
//
// Or drive the pipeline from Go:
//
//	res, err := pipeline.Execute(ctx, &pipeline.Context{
//		Config:   runCfg,
//		Sink:     sink.NewMemorySink(),
//		Selector: &selection.Selector{Overrides: tuned},
//		Logger:   logger,
//	}, observations)
//
// # Packages
//
//   - timeseries: periods, sector series, CSV and workbook readers, Prepare
//   - model: model specs and the Holt-Winters candidate catalog
//   - selection: overrides, grid search and the per-sector Selector
//   - forecast: fitting, transforms and post-processing for one sector
//   - expsmoothing: Holt-Winters exponential smoothing
//   - arima, autoarima: seasonal ARIMA and the stepwise order search
//   - stats: stationarity tests, differencing and autocorrelation
//   - accuracy: MAE, MSE and RMSE
//   - sink: memory, Postgres and SQLite result stores
//   - pipeline: the concurrent run and its Prometheus metrics
//   - config, logging, apperr: ambient configuration, logging and errors
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package gdpforecast
