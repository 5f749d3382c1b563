package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	return values
}

func randomWalkWithDrift(n int, drift float64, seed int64) []float64 {
	noise := whiteNoise(n, seed)
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + drift + noise[i]
	}
	return values
}

func TestACF(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = 0.8*values[i-1] + (float64(i%10)-5)/10
	}

	acf := ACF(timeseries.New(values), 10)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] <= 0 {
		t.Errorf("Expected positive lag-1 autocorrelation, got %f", acf[1])
	}

	if ACF(timeseries.New([]float64{3, 3, 3}), 2) != nil {
		t.Error("Expected nil ACF for a constant series")
	}
}

func TestOLS(t *testing.T) {
	x := [][]float64{{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}}
	y := []float64{1, 3.1, 4.9, 7.2, 8.8}

	res, err := OLS(x, y)
	if err != nil {
		t.Fatalf("OLS failed: %v", err)
	}
	if math.Abs(res.Coeffs[1]-1.97) > 1e-9 {
		t.Errorf("Expected slope 1.97, got %f", res.Coeffs[1])
	}
	if math.Abs(res.Coeffs[0]-1.06) > 1e-9 {
		t.Errorf("Expected intercept 1.06, got %f", res.Coeffs[0])
	}

	_, err = OLS([][]float64{{1, 2}, {1, 2}, {1, 2}}, []float64{1, 2, 3})
	if err == nil {
		t.Error("Expected singular design error")
	}
}

func TestMacKinnonP(t *testing.T) {
	tests := []struct {
		stat     float64
		expected float64
		tol      float64
	}{
		{-2.86, 0.05, 0.002},
		{-3.43, 0.01, 0.002},
		{-2.57, 0.10, 0.003},
		{3.0, 1.0, 0},
		{-20.0, 0.0, 0},
	}

	for _, tt := range tests {
		p := MacKinnonP(tt.stat)
		if math.Abs(p-tt.expected) > tt.tol {
			t.Errorf("MacKinnonP(%.2f) = %f, expected %f", tt.stat, p, tt.expected)
		}
	}

	// The two response surfaces meet at tau*.
	below := MacKinnonP(tauStar - 1e-9)
	above := MacKinnonP(tauStar + 1e-9)
	if math.Abs(below-above) > 1e-3 {
		t.Errorf("Expected continuity at tau*, got %f vs %f", below, above)
	}
}

func TestADF(t *testing.T) {
	stationary := timeseries.New(whiteNoise(100, 1))
	res, err := ADF(stationary, 0, true)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	if !res.IsStationary {
		t.Errorf("Expected white noise to be stationary, p=%f", res.PValue)
	}

	walk := timeseries.New(randomWalkWithDrift(60, 5, 2))
	res, err = ADF(walk, 0, true)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	if res.IsStationary {
		t.Errorf("Expected random walk to be non-stationary, stat=%f p=%f", res.Statistic, res.PValue)
	}
	if res.Lags < 0 || res.Lags > 10 {
		t.Errorf("Unexpected lag choice %d", res.Lags)
	}
}

func TestADFShortSeries(t *testing.T) {
	// Nine annual points: the maximum lag is capped at 2.
	s := timeseries.New([]float64{210, 215, 205, 230, 228, 240, 236, 250, 255})
	res, err := ADF(s, 0, true)
	if err != nil {
		t.Fatalf("ADF failed on 9 points: %v", err)
	}
	if res.Lags > 2 {
		t.Errorf("Expected at most 2 lags, got %d", res.Lags)
	}
	if res.PValue < 0 || res.PValue > 1 {
		t.Errorf("p-value out of range: %f", res.PValue)
	}

	if _, err := ADF(timeseries.New([]float64{1, 2, 3}), 0, true); err == nil {
		t.Error("Expected error for a 3-point series")
	}
	if _, err := ADF(timeseries.New(make([]float64, 12)), 0, true); err == nil {
		t.Error("Expected error for an all-zero series")
	}
}

func TestMakeStationary(t *testing.T) {
	walk := timeseries.New(randomWalkWithDrift(60, 5, 3))
	out, res, differenced, err := MakeStationary(walk, 0.05)
	if err != nil {
		t.Fatalf("MakeStationary failed: %v", err)
	}
	if !differenced || out.Len() != walk.Len()-1 {
		t.Errorf("Expected one difference (p=%f), got len %d", res.PValue, out.Len())
	}

	noise := timeseries.New(whiteNoise(80, 4))
	out, _, differenced, err = MakeStationary(noise, 0.05)
	if err != nil {
		t.Fatalf("MakeStationary failed: %v", err)
	}
	if differenced || out.Len() != noise.Len() {
		t.Error("Expected stationary series to pass through unchanged")
	}
}

func TestKPSS(t *testing.T) {
	res := KPSS(timeseries.New(whiteNoise(100, 5)), "c", 0)
	if res == nil {
		t.Fatal("KPSS returned nil")
	}
	if !res.IsStationary {
		t.Errorf("Expected white noise to be stationary, stat=%f", res.Statistic)
	}

	trend := make([]float64, 100)
	for i := range trend {
		trend[i] = float64(i)
	}
	res = KPSS(timeseries.New(trend), "c", 0)
	if res == nil || res.IsStationary {
		t.Error("Expected a linear trend to be level non-stationary")
	}
	if res.PValue != 0.01 {
		t.Errorf("Expected clamped p-value 0.01, got %f", res.PValue)
	}
}

func TestKPSSPValueInterpolation(t *testing.T) {
	p := kpssPValue((0.347+0.463)/2, kpssLevelCrit)
	if math.Abs(p-0.075) > 1e-9 {
		t.Errorf("Expected 0.075, got %f", p)
	}
	if kpssPValue(0.01, kpssLevelCrit) != 0.10 {
		t.Error("Expected clamp at 0.10")
	}
}

func TestLjungBox(t *testing.T) {
	n := 100
	values := make([]float64, n)
	noise := whiteNoise(n, 6)
	for i := 1; i < n; i++ {
		values[i] = 0.9*values[i-1] + noise[i]
	}

	res := LjungBox(values, 10, 0)
	if res == nil {
		t.Fatal("LjungBox returned nil")
	}
	if res.PValue > 0.01 {
		t.Errorf("Expected strong autocorrelation to be detected, p=%f", res.PValue)
	}
	if res.DOF != 10 {
		t.Errorf("Expected 10 degrees of freedom, got %d", res.DOF)
	}

	res = LjungBox(whiteNoise(n, 7), 10, 2)
	if res == nil || res.PValue < 0 || res.PValue > 1 {
		t.Error("Expected a valid p-value for white noise")
	}
}

func TestDecompose(t *testing.T) {
	pattern := []float64{10, -10, 5, -5}
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + float64(i) + pattern[i%4]
	}

	d := Decompose(timeseries.New(values), 4)
	if d == nil {
		t.Fatal("Decompose returned nil")
	}
	for i := 0; i < 4; i++ {
		if math.Abs(d.Seasonal[i]-pattern[i]) > 1e-9 {
			t.Errorf("Expected seasonal %f at %d, got %f", pattern[i], i, d.Seasonal[i])
		}
	}
	if !math.IsNaN(d.Trend[0]) || math.IsNaN(d.Trend[10]) {
		t.Error("Expected NaN trend only at the edges")
	}

	if Decompose(timeseries.New(values[:7]), 4) != nil {
		t.Error("Expected nil for fewer than two periods")
	}
}
