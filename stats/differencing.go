package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

// NDiffs determines the number of first differences required for stationarity.
// testType is "kpss" (default) or "adf". Returns 0..maxD.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		stationary := false
		if testType == "adf" {
			res, err := ADF(current, 0, true)
			stationary = err == nil && res.IsStationary
		} else {
			res := KPSS(current, "c", 0)
			stationary = res != nil && res.IsStationary
		}
		if stationary {
			return d
		}

		current = current.Diff()
		if current.Len() < 6 {
			return d
		}
	}
	return maxD
}

// NSDiffs determines the number of seasonal differences required: one more
// while the seasonal strength F_S is at least 0.64.
func NSDiffs(series *timeseries.Series, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || series.Len() < 2*period {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < 0.64 {
			return d
		}
		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d + 1
		}
	}
	return maxD
}

// SeasonalStrength returns F_S = max(0, 1 - Var(R)/Var(S+R)).
func SeasonalStrength(series *timeseries.Series, period int) float64 {
	decomp := Decompose(series, period)
	if decomp == nil {
		return 0
	}

	var resid, sr []float64
	for i := range decomp.Residual {
		if math.IsNaN(decomp.Residual[i]) {
			continue
		}
		resid = append(resid, decomp.Residual[i])
		sr = append(sr, decomp.Seasonal[i]+decomp.Residual[i])
	}
	if len(sr) < 2 {
		return 0
	}

	varSR := stat.Variance(sr, nil)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-stat.Variance(resid, nil)/varSR)
}

// InformationCriteria holds AIC, AICc, and BIC for a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
