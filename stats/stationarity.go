package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	IsStationary bool
}

// ADF performs the Augmented Dickey-Fuller test for a unit root with a
// constant in the test regression. The null hypothesis is that the series
// has a unit root. When autolag is true the number of lagged differences is
// chosen by AIC between 0 and maxLag on a common sample; otherwise maxLag
// lags are used. maxLag <= 0 selects ceil(12*(n/100)^(1/4)), capped at n/2-2.
func ADF(series *timeseries.Series, maxLag int, autolag bool) (*ADFResult, error) {
	n := series.Len()
	if n < 6 {
		return nil, fmt.Errorf("adf: need at least 6 observations, got %d", n)
	}

	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if limit := n/2 - 2; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return nil, errors.New("adf: sample size too short")
	}

	diff := series.Diff().Values
	usedLag := maxLag

	if autolag {
		// Every candidate is fitted on the sample left after maxLag lags so
		// that AIC values are comparable.
		best := math.Inf(1)
		for lag := 0; lag <= maxLag; lag++ {
			x, y := adfDesign(series.Values, diff, maxLag, lag)
			res, err := OLS(x, y)
			if err != nil {
				continue
			}
			if res.AIC < best {
				best = res.AIC
				usedLag = lag
			}
		}
		if math.IsInf(best, 1) {
			return nil, ErrSingular
		}
	}

	x, y := adfDesign(series.Values, diff, usedLag, usedLag)
	res, err := OLS(x, y)
	if err != nil {
		return nil, err
	}

	// Coefficient 1 is the lagged level.
	if res.StdErrors[1] == 0 || math.IsNaN(res.StdErrors[1]) {
		return nil, errors.New("adf: degenerate regression")
	}
	tStat := res.Coeffs[1] / res.StdErrors[1]
	if math.IsNaN(tStat) || math.IsInf(tStat, 0) {
		return nil, errors.New("adf: non-finite test statistic")
	}

	pValue := MacKinnonP(tStat)

	return &ADFResult{
		Statistic: tStat,
		PValue:    pValue,
		Lags:      usedLag,
		NObs:      len(y),
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: pValue < 0.05,
	}, nil
}

// adfDesign builds the regression Δy_t = α + βy_{t-1} + Σ_{i<=lags} γ_i Δy_{t-i}
// over the rows left after skipping `skip` leading differences.
func adfDesign(levels, diff []float64, skip, lags int) ([][]float64, []float64) {
	nObs := len(diff) - skip
	y := make([]float64, nObs)
	x := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + skip
		y[i] = diff[t]
		row := make([]float64, 2+lags)
		row[0] = 1
		row[1] = levels[t]
		for j := 1; j <= lags; j++ {
			row[1+j] = diff[t-j]
		}
		x[i] = row
	}
	return x, y
}

// MacKinnon (1994) response surface for the constant-only unit root test
// with a single series.
var (
	tauMax    = 2.74
	tauMin    = -18.83
	tauStar   = -1.61
	tauSmallP = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// MacKinnonP returns the approximate p-value of an ADF statistic.
func MacKinnonP(stat float64) float64 {
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coef := tauLargeP
	if stat <= tauStar {
		coef = tauSmallP
	}
	norm := distuv.UnitNormal
	return norm.CDF(polyval(coef, stat))
}

// polyval evaluates c[0] + c[1]x + c[2]x^2 + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// MakeStationary differences the series once when the ADF p-value exceeds
// alpha. It reports whether differencing was applied.
func MakeStationary(series *timeseries.Series, alpha float64) (*timeseries.Series, *ADFResult, bool, error) {
	res, err := ADF(series, 0, true)
	if err != nil {
		return nil, nil, false, err
	}
	if res.PValue > alpha {
		return series.Diff(), res, true, nil
	}
	return series, res, false, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary. regression is "c"
// (level) or "ct" (trend).
func KPSS(series *timeseries.Series, regression string, nlags int) *KPSSResult {
	n := series.Len()
	if n < 4 {
		return nil
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == "ct" {
		x := make([][]float64, n)
		for i := range x {
			x[i] = []float64{1, float64(i)}
		}
		res, err := OLS(x, series.Values)
		if err != nil {
			return nil
		}
		for i, v := range series.Values {
			residuals[i] = v - res.Coeffs[0] - res.Coeffs[1]*float64(i)
		}
	} else {
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1.0 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq, cum := 0.0, 0.0
	for _, r := range residuals {
		cum += r
		etaSq += cum * cum
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	crit := kpssLevelCrit
	if regression == "ct" {
		crit = kpssTrendCrit
	}
	pValue := kpssPValue(kpssStat, crit)

	return &KPSSResult{
		Statistic: kpssStat,
		PValue:    pValue,
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"10%":  crit[0],
			"5%":   crit[1],
			"2.5%": crit[2],
			"1%":   crit[3],
		},
		IsStationary: pValue >= 0.05,
	}
}

var (
	kpssPVals     = []float64{0.10, 0.05, 0.025, 0.01}
	kpssLevelCrit = []float64{0.347, 0.463, 0.574, 0.739}
	kpssTrendCrit = []float64{0.119, 0.146, 0.176, 0.216}
)

// kpssPValue interpolates the KPSS table; values outside it are clamped to
// the 1% and 10% bounds.
func kpssPValue(stat float64, crit []float64) float64 {
	if stat <= crit[0] {
		return kpssPVals[0]
	}
	if stat >= crit[len(crit)-1] {
		return kpssPVals[len(kpssPVals)-1]
	}
	for i := 1; i < len(crit); i++ {
		if stat <= crit[i] {
			frac := (stat - crit[i-1]) / (crit[i] - crit[i-1])
			return kpssPVals[i-1] + frac*(kpssPVals[i]-kpssPVals[i-1])
		}
	}
	return kpssPVals[len(kpssPVals)-1]
}
