// Package arima implements seasonal ARIMA models fitted by conditional sum of squares.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/8848digital/GDP-Forecast/stats"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Order represents the model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period; 0 or 1 disables the seasonal part
}

// String renders ARIMA(p,d,q) or ARIMA(p,d,q)(P,D,Q)[m].
func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// Seasonal reports whether the order has a seasonal part.
func (o Order) Seasonal() bool {
	return o.M > 1 && (o.SP > 0 || o.SD > 0 || o.SQ > 0)
}

// ErrInsufficientData is returned when too few observations remain after
// differencing and lag conditioning to estimate the parameters.
var ErrInsufficientData = errors.New("insufficient data points for the specified order")

// ErrNotFitted is returned by Predict before Fit.
var ErrNotFitted = errors.New("model must be fitted before prediction")

// coefBound keeps every AR and MA coefficient inside (-coefBound, coefBound).
const coefBound = 0.99

const ljungBoxLags = 10

// Model represents a seasonal ARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // Non-seasonal AR coefficients
	MACoeffs  []float64 // Non-seasonal MA coefficients
	SARCoeffs []float64 // Seasonal AR coefficients
	SMACoeffs []float64 // Seasonal MA coefficients
	// Intercept is the mean of the differenced series. It is estimated
	// only when D+SD < 2 and acts as a drift when the series is differenced.
	Intercept        float64
	IncludeIntercept bool
	Variance         float64
	AIC              float64
	AICc             float64 // Corrected AIC for small sample sizes
	BIC              float64
	LogLik           float64

	fitted    bool
	data      []float64
	levels    [][]float64 // data after each differencing step, last is the modelled series
	start     int         // first conditioned index in the differenced series
	residuals []float64   // on the differenced scale
}

// New creates a non-seasonal ARIMA(p, d, q) model.
func New(p, d, q int) *Model {
	return NewSeasonal(Order{P: p, D: d, Q: q})
}

// NewSeasonal creates a model with the given order.
func NewSeasonal(order Order) *Model {
	if order.M <= 1 {
		order.SP, order.SD, order.SQ, order.M = 0, 0, 0, 0
	}
	return &Model{
		Order:     order,
		ARCoeffs:  make([]float64, order.P),
		MACoeffs:  make([]float64, order.Q),
		SARCoeffs: make([]float64, order.SP),
		SMACoeffs: make([]float64, order.SQ),
	}
}

// NumParams returns the number of estimated parameters including the
// intercept and the innovation variance.
func (m *Model) NumParams() int {
	k := m.Order.P + m.Order.Q + m.Order.SP + m.Order.SQ + 1
	if m.IncludeIntercept {
		k++
	}
	return k
}

// Fit fits the model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	o := m.Order
	m.data = append([]float64(nil), series.Values...)
	m.IncludeIntercept = o.D+o.SD < 2

	m.levels = [][]float64{m.data}
	current := series
	for i := 0; i < o.D; i++ {
		current = current.Diff()
		m.levels = append(m.levels, current.Values)
	}
	for i := 0; i < o.SD; i++ {
		current = current.SeasonalDiff(o.M)
		m.levels = append(m.levels, current.Values)
	}
	w := current.Values

	m.start = o.P + o.SP*o.M
	nEff := len(w) - m.start
	if len(w) == 0 || nEff < m.NumParams()+1 {
		return ErrInsufficientData
	}

	if m.IncludeIntercept {
		m.Intercept = stat.Mean(w, nil)
	}

	if err := m.fitCSS(w); err != nil {
		return err
	}
	m.calculateIC(nEff)
	m.fitted = true
	return nil
}

// fitCSS minimises the conditional sum of squares with Nelder-Mead. The
// intercept is fixed at the sample mean; coefficients are optimised in a
// tanh parameterisation bounded by coefBound.
func (m *Model) fitCSS(w []float64) error {
	o := m.Order
	nCoef := o.P + o.Q + o.SP + o.SQ

	x0 := make([]float64, nCoef)
	if o.P > 0 {
		if acf := stats.ACF(timeseries.New(w), o.P); acf != nil {
			for i, phi := range yuleWalker(acf, o.P) {
				x0[i] = math.Atanh(clamp(phi/coefBound, -0.95, 0.95))
			}
		}
	}
	for i := o.P; i < nCoef; i++ {
		x0[i] = math.Atanh(0.1 / coefBound)
	}

	if nCoef > 0 {
		objective := func(x []float64) float64 {
			m.unpack(x)
			sse, _ := m.css(w)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return math.Inf(1)
			}
			return sse
		}

		res, err := optimize.Minimize(
			optimize.Problem{Func: objective},
			x0,
			&optimize.Settings{FuncEvaluations: 300 * nCoef},
			&optimize.NelderMead{},
		)
		if res == nil {
			return fmt.Errorf("css optimisation failed: %w", err)
		}
		m.unpack(res.X)
	}

	sse, resid := m.css(w)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return errors.New("css optimisation produced a non-finite fit")
	}
	m.residuals = resid
	m.Variance = sse / float64(len(w)-m.start)
	return nil
}

func (m *Model) unpack(x []float64) {
	i := 0
	for _, dst := range [][]float64{m.ARCoeffs, m.MACoeffs, m.SARCoeffs, m.SMACoeffs} {
		for j := range dst {
			dst[j] = coefBound * math.Tanh(x[i])
			i++
		}
	}
}

// css returns the conditional sum of squares and the residual series.
// Residuals before the conditioning start are zero.
func (m *Model) css(w []float64) (float64, []float64) {
	n := len(w)
	resid := make([]float64, n)
	sse := 0.0
	for t := m.start; t < n; t++ {
		e := w[t] - m.predictAt(w, resid, t)
		resid[t] = e
		sse += e * e
	}
	return sse, resid
}

// predictAt is the one-step prediction of y[t] from values and residuals
// strictly before t. Missing lags contribute nothing.
func (m *Model) predictAt(y, resid []float64, t int) float64 {
	o := m.Order
	mu := m.Intercept
	pred := mu
	for i := 0; i < o.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - mu)
	}
	for i := 0; i < o.SP; i++ {
		if lag := (i + 1) * o.M; t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - mu)
		}
	}
	for i := 0; i < o.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * resid[t-i-1]
	}
	for i := 0; i < o.SQ; i++ {
		if lag := (i + 1) * o.M; t-lag >= 0 {
			pred += m.SMACoeffs[i] * resid[t-lag]
		}
	}
	return pred
}

// calculateIC calculates AIC, AICc, and BIC from the conditional likelihood.
func (m *Model) calculateIC(nEff int) {
	n := float64(nEff)
	if m.Variance > 0 {
		m.LogLik = -n / 2 * (math.Log(2*math.Pi*m.Variance) + 1)
	} else {
		m.LogLik = math.Inf(1)
	}
	ic := stats.CalculateIC(m.LogLik, nEff, m.NumParams())
	m.AIC, m.AICc, m.BIC = ic.AIC, ic.AICc, ic.BIC
}

// Predict generates forecasts on the original scale for the given number
// of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 0 {
		return nil, errors.New("steps must be non-negative")
	}
	if steps == 0 {
		return []float64{}, nil
	}

	w := m.levels[len(m.levels)-1]
	n := len(w)
	extY := make([]float64, n+steps)
	copy(extY, w)
	extResid := make([]float64, n+steps)
	copy(extResid, m.residuals)

	for t := n; t < n+steps; t++ {
		extY[t] = m.predictAt(extY, extResid, t)
	}

	return m.integrate(extY[n:]), nil
}

// integrate undoes differencing. Seasonal differences were applied last,
// so they are undone first.
func (m *Model) integrate(forecasts []float64) []float64 {
	o := m.Order
	result := append([]float64(nil), forecasts...)

	level := len(m.levels) - 1
	for i := 0; i < o.SD; i++ {
		level--
		result = undiff(result, m.levels[level], o.M)
	}
	for i := 0; i < o.D; i++ {
		level--
		result = undiff(result, m.levels[level], 1)
	}
	return result
}

// undiff inverts a lag-k difference given the history it was taken from.
func undiff(diffs, history []float64, lag int) []float64 {
	out := make([]float64, len(diffs))
	n := len(history)
	for j := range diffs {
		if j < lag {
			out[j] = diffs[j] + history[n-lag+j]
		} else {
			out[j] = diffs[j] + out[j-lag]
		}
	}
	return out
}

// FittedValues returns one-step-ahead in-sample predictions on the scale
// of the input series, aligned with it. Observations consumed by
// differencing or lag conditioning are returned unchanged.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	offset := len(m.data) - len(m.residuals)
	out := make([]float64, len(m.data))
	for t, y := range m.data {
		out[t] = y
		if t >= offset {
			out[t] = y - m.residuals[t-offset]
		}
	}
	return out
}

// Summary describes a fitted model and the Ljung-Box test of its
// conditioned residuals.
type Summary struct {
	Order    Order
	AIC      float64
	AICc     float64
	BIC      float64
	LogLik   float64
	Variance float64
	NObs     int
	// LjungBox is nil when the residuals are too short or constant.
	LjungBox *stats.LjungBoxResult
}

// Summary returns nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	o := m.Order
	return &Summary{
		Order:    o,
		AIC:      m.AIC,
		AICc:     m.AICc,
		BIC:      m.BIC,
		LogLik:   m.LogLik,
		Variance: m.Variance,
		NObs:     len(m.data),
		LjungBox: stats.LjungBox(m.residuals[m.start:], ljungBoxLags, o.P+o.Q+o.SP+o.SQ),
	}
}

// yuleWalker estimates AR coefficients by solving the Toeplitz system
// R phi = r. A singular system yields zeros.
func yuleWalker(acf []float64, order int) []float64 {
	phi := make([]float64, order)
	if order <= 0 || len(acf) <= order {
		return phi
	}

	R := mat.NewSymDense(order, nil)
	r := mat.NewVecDense(order, nil)
	for i := 0; i < order; i++ {
		r.SetVec(i, acf[i+1])
		for j := i; j < order; j++ {
			R.SetSym(i, j, acf[j-i])
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(R, r); err != nil {
		return phi
	}
	for i := range phi {
		phi[i] = sol.AtVec(i)
	}
	return phi
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
