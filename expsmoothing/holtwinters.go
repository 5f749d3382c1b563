// Package expsmoothing implements Holt-Winters exponential smoothing with
// additive or multiplicative trend and seasonality.
package expsmoothing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Component is the form of a trend or seasonal term.
type Component int

const (
	None Component = iota
	Additive
	Multiplicative
)

// String returns "none", "add" or "mul".
func (c Component) String() string {
	switch c {
	case Additive:
		return "add"
	case Multiplicative:
		return "mul"
	default:
		return "none"
	}
}

// Config selects the model form.
type Config struct {
	Trend    Component
	Seasonal Component
	// Period is the seasonal period; ignored when Seasonal is None.
	Period int
}

// ErrFit is wrapped by every fitting failure.
var ErrFit = errors.New("holt-winters fit failed")

// ErrInsufficientData is returned when a seasonal model sees fewer than two
// full periods. It wraps ErrFit.
var ErrInsufficientData = fmt.Errorf("%w: insufficient data", ErrFit)

// Smoothing parameters are kept inside (paramLo, paramHi).
const (
	paramLo = 1e-4
	paramHi = 1 - 1e-4
)

// Model is a fitted Holt-Winters model. Fitted values are one-step-ahead
// predictions over the training data.
type Model struct {
	Config Config

	Alpha float64
	Beta  float64
	Gamma float64
	SSE   float64

	level    float64
	trend    float64
	seasons  []float64
	fitted   []float64
	n        int
	isFitted bool
}

// New creates an unfitted model.
func New(cfg Config) *Model {
	return &Model{Config: cfg}
}

// MinLength returns the shortest series the configuration accepts.
func (c Config) MinLength() int {
	if c.Seasonal != None {
		return 2 * c.Period
	}
	return 3
}

func (c Config) validate(data []float64) error {
	if c.Trend == None && c.Seasonal == None {
		return fmt.Errorf("%w: model needs a trend or a seasonal component", ErrFit)
	}
	if c.Seasonal != None && c.Period < 2 {
		return fmt.Errorf("%w: seasonal period %d", ErrFit, c.Period)
	}
	if len(data) < c.MinLength() {
		return fmt.Errorf("%w: need %d points, got %d", ErrInsufficientData, c.MinLength(), len(data))
	}
	if c.Trend == Multiplicative || c.Seasonal == Multiplicative {
		for _, v := range data {
			if v <= 0 {
				return fmt.Errorf("%w: multiplicative components need strictly positive data", ErrFit)
			}
		}
	}
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite observation", ErrFit)
		}
	}
	return nil
}

// Fit estimates the smoothing parameters by minimising the in-sample sum
// of squared one-step errors with Nelder-Mead.
func (m *Model) Fit(data []float64) error {
	if err := m.Config.validate(data); err != nil {
		return err
	}

	init := m.initialState(data)
	nParams := m.numParams()

	objective := func(x []float64) float64 {
		a, b, g := m.unpack(x)
		st := init.clone()
		sse, _ := st.run(m.Config, data, a, b, g, false)
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.Inf(1)
		}
		return sse
	}

	x0 := make([]float64, nParams)
	starts := []float64{0.5, 0.1, 0.1}
	for i := range x0 {
		x0[i] = logit(starts[i])
	}

	res, err := optimize.Minimize(
		optimize.Problem{Func: objective},
		x0,
		&optimize.Settings{FuncEvaluations: 400 * nParams},
		&optimize.NelderMead{},
	)
	x := x0
	if res != nil {
		x = res.X
	} else if err != nil {
		return fmt.Errorf("%w: %v", ErrFit, err)
	}

	m.Alpha, m.Beta, m.Gamma = m.unpack(x)
	st := init.clone()
	sse, fitted := st.run(m.Config, data, m.Alpha, m.Beta, m.Gamma, true)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return fmt.Errorf("%w: non-finite sum of squared errors", ErrFit)
	}

	m.SSE = sse
	m.level, m.trend, m.seasons = st.level, st.trend, st.seasons
	m.fitted = fitted
	m.n = len(data)
	m.isFitted = true
	return nil
}

// Forecast returns h predictions following the training data.
func (m *Model) Forecast(h int) ([]float64, error) {
	if !m.isFitted {
		return nil, errors.New("model not fitted: call Fit() first")
	}
	if h < 0 {
		return nil, fmt.Errorf("horizon must be non-negative, got %d", h)
	}

	out := make([]float64, h)
	for i := 1; i <= h; i++ {
		var base float64
		switch m.Config.Trend {
		case Additive:
			base = m.level + float64(i)*m.trend
		case Multiplicative:
			base = m.level * math.Pow(m.trend, float64(i))
		default:
			base = m.level
		}

		switch m.Config.Seasonal {
		case Additive:
			base += m.seasons[(m.n+i-1)%m.Config.Period]
		case Multiplicative:
			base *= m.seasons[(m.n+i-1)%m.Config.Period]
		}
		out[i-1] = base
	}
	return out, nil
}

// FittedValues returns the one-step-ahead in-sample predictions.
func (m *Model) FittedValues() []float64 {
	out := make([]float64, len(m.fitted))
	copy(out, m.fitted)
	return out
}

// numParams counts the smoothing parameters being estimated.
func (m *Model) numParams() int {
	n := 1
	if m.Config.Trend != None {
		n++
	}
	if m.Config.Seasonal != None {
		n++
	}
	return n
}

// unpack maps unconstrained optimiser coordinates to (alpha, beta, gamma).
func (m *Model) unpack(x []float64) (alpha, beta, gamma float64) {
	alpha = sigmoid(x[0])
	i := 1
	if m.Config.Trend != None {
		beta = sigmoid(x[i])
		i++
	}
	if m.Config.Seasonal != None {
		gamma = sigmoid(x[i])
	}
	return alpha, beta, gamma
}

type state struct {
	level   float64
	trend   float64
	seasons []float64
}

func (s state) clone() *state {
	seasons := make([]float64, len(s.seasons))
	copy(seasons, s.seasons)
	return &state{level: s.level, trend: s.trend, seasons: seasons}
}

// initialState uses the first season for the level and seasonal indices
// and the change between the first two seasons for the trend. Without
// seasonality the state is set so the first prediction equals y[0].
func (m *Model) initialState(data []float64) state {
	cfg := m.Config
	if cfg.Seasonal == None {
		var st state
		switch cfg.Trend {
		case Additive:
			st.trend = data[1] - data[0]
			st.level = data[0] - st.trend
		case Multiplicative:
			st.trend = data[1] / data[0]
			st.level = data[0] / st.trend
		}
		return st
	}

	p := cfg.Period
	first := stat.Mean(data[:p], nil)
	second := stat.Mean(data[p:2*p], nil)

	st := state{level: first, seasons: make([]float64, p)}
	switch cfg.Trend {
	case Additive:
		st.trend = (second - first) / float64(p)
	case Multiplicative:
		st.trend = math.Pow(second/first, 1/float64(p))
	}

	for i := 0; i < p; i++ {
		if cfg.Seasonal == Additive {
			st.seasons[i] = data[i] - first
		} else {
			st.seasons[i] = data[i] / first
		}
	}
	normalizeSeasons(st.seasons, cfg.Seasonal)
	return st
}

// run applies the smoothing recursions, returning the SSE and, if wanted,
// the one-step predictions.
func (s *state) run(cfg Config, data []float64, alpha, beta, gamma float64, keep bool) (float64, []float64) {
	var fitted []float64
	if keep {
		fitted = make([]float64, len(data))
	}

	sse := 0.0
	for t, y := range data {
		var base float64
		switch cfg.Trend {
		case Additive:
			base = s.level + s.trend
		case Multiplicative:
			base = s.level * s.trend
		default:
			base = s.level
		}

		j := 0
		pred := base
		switch cfg.Seasonal {
		case Additive:
			j = t % cfg.Period
			pred = base + s.seasons[j]
		case Multiplicative:
			j = t % cfg.Period
			pred = base * s.seasons[j]
		}

		e := y - pred
		sse += e * e
		if keep {
			fitted[t] = pred
		}

		prev := s.level
		switch cfg.Seasonal {
		case Additive:
			s.level = alpha*(y-s.seasons[j]) + (1-alpha)*base
			s.seasons[j] = gamma*(y-base) + (1-gamma)*s.seasons[j]
		case Multiplicative:
			s.level = alpha*(y/s.seasons[j]) + (1-alpha)*base
			s.seasons[j] = gamma*(y/base) + (1-gamma)*s.seasons[j]
		default:
			s.level = alpha*y + (1-alpha)*base
		}

		switch cfg.Trend {
		case Additive:
			s.trend = beta*(s.level-prev) + (1-beta)*s.trend
		case Multiplicative:
			s.trend = beta*(s.level/prev) + (1-beta)*s.trend
		}
	}
	return sse, fitted
}

// normalizeSeasons makes additive indices sum to zero and multiplicative
// indices average one.
func normalizeSeasons(seasons []float64, kind Component) {
	avg := stat.Mean(seasons, nil)
	for i := range seasons {
		if kind == Additive {
			seasons[i] -= avg
		} else if avg != 0 {
			seasons[i] /= avg
		}
	}
}

func sigmoid(x float64) float64 {
	return paramLo + (paramHi-paramLo)/(1+math.Exp(-x))
}

func logit(p float64) float64 {
	q := (p - paramLo) / (paramHi - paramLo)
	return math.Log(q / (1 - q))
}
