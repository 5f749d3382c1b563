// Package stats provides the statistical tests used to prepare series and
// to pick differencing orders.
//
// # Unit root testing
//
// ADF runs the Augmented Dickey-Fuller test with a constant. Lagged
// differences are chosen by AIC and the p-value comes from the MacKinnon
// response surface:
//
//	res, err := stats.ADF(series, 0, true)
//	if err == nil && res.PValue > 0.05 {
//	    // unit root not rejected
//	}
//
// MakeStationary applies the single-difference rule used on the annual
// ARIMA path:
//
//	out, res, differenced, err := stats.MakeStationary(series, 0.05)
//
// KPSS tests the opposite null (stationarity) and drives NDiffs.
//
// # Seasonality
//
// Decompose performs classical additive decomposition. SeasonalStrength
// and NSDiffs use it to decide on seasonal differencing.
//
// # Diagnostics
//
// ACF, LjungBox and CalculateIC support model diagnostics. OLS is the
// least squares helper shared by the tests.
package stats
