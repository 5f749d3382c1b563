// Package autoarima implements automatic ARIMA model selection.
//
// Auto-ARIMA picks the seasonal differencing order from the seasonal
// strength of the series, the differencing order from a KPSS (or ADF)
// test, and then searches AR and MA orders for the lowest information
// criterion.
//
// # Basic Usage
//
//	config := autoarima.DefaultConfig()
//	result, err := autoarima.AutoARIMA(series, config)
//	if err != nil {
//	    return err // no order could be fitted
//	}
//	if w := result.Warning(); w != nil {
//	    log.Warn(w) // the budget ran out, the best order so far is kept
//	}
//
//	fmt.Println(result.Order(), result.AIC)
//	forecasts, _ := result.Predict(7)
//
// # Seasonal Model Selection
//
//	config := autoarima.DefaultConfig()
//	config.Seasonal = true
//	config.SeasonalM = 4 // quarterly
//
// A SeasonalM of 0 or 1 searches non-seasonal orders only, which is how
// annual series are handled.
//
// # Search Methods
//
//   - Stepwise (default): start from a few small orders and move to the
//     best neighbour until none improves.
//   - Grid: every order within the Max* bounds (Stepwise=false).
//
// Both stop once MaxModels fits have been attempted (94 by default) and
// set Result.BudgetExceeded. Orders already tried are never refitted, and
// ties keep the order found first, so the search is deterministic.
package autoarima
