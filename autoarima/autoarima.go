package autoarima

import (
	"fmt"
	"math"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/arima"
	"github.com/8848digital/GDP-Forecast/stats"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Config holds configuration for auto ARIMA search.
type Config struct {
	MaxP        int    // Maximum AR order (default: 5)
	MaxD        int    // Maximum differencing order (default: 2)
	MaxQ        int    // Maximum MA order (default: 5)
	MaxSP       int    // Maximum seasonal AR order (default: 2)
	MaxSD       int    // Maximum seasonal differencing order (default: 1)
	MaxSQ       int    // Maximum seasonal MA order (default: 2)
	Seasonal    bool   // Whether to consider seasonal models
	SeasonalM   int    // Seasonal period; 0 or 1 disables the seasonal part
	Stepwise    bool   // Use stepwise search instead of exhaustive
	Criterion   string // "aic", "aicc" or "bic" (default: "aic")
	StationTest string // Stationarity test: "adf" or "kpss" (default: "kpss")
	MaxModels   int    // Fits attempted before the search stops; 0 means no limit
}

// DefaultConfig returns the default auto ARIMA configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        5,
		MaxD:        2,
		MaxQ:        5,
		MaxSP:       2,
		MaxSD:       1,
		MaxSQ:       2,
		Seasonal:    false,
		Stepwise:    true,
		Criterion:   "aic",
		StationTest: "kpss",
		MaxModels:   94,
	}
}

// Result represents the result of auto ARIMA model selection.
type Result struct {
	Model *arima.Model

	// Best parameters found
	P  int
	D  int
	Q  int
	SP int
	SD int
	SQ int
	M  int

	// Model metrics
	AIC       float64
	BIC       float64
	LogLik    float64
	Criterion float64

	// Search information
	ModelsEvaluated int // successful fits
	ModelsAttempted int // fits tried, failed ones included
	IsSeasonal      bool
	BudgetExceeded  bool
}

// Order returns the selected order.
func (r *Result) Order() arima.Order {
	return arima.Order{P: r.P, D: r.D, Q: r.Q, SP: r.SP, SD: r.SD, SQ: r.SQ, M: r.M}
}

// Warning returns a search-budget error when the search stopped at
// MaxModels, nil otherwise. The result is usable either way.
func (r *Result) Warning() error {
	if !r.BudgetExceeded {
		return nil
	}
	return apperr.NewSearchBudgetError(
		fmt.Sprintf("stopped after %d fits, keeping %s", r.ModelsAttempted, r.Order())).
		WithContext("attempted", r.ModelsAttempted)
}

// AutoARIMA selects the order minimising the information criterion. The
// search is deterministic for identical input. It fails with a model-fit
// error only when no candidate could be fitted.
func AutoARIMA(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}

	m := 0
	if config.Seasonal && config.SeasonalM > 1 {
		m = config.SeasonalM
	}

	// Seasonal differencing is decided first, then d on the seasonally
	// differenced series.
	sd := 0
	working := series
	if m > 0 {
		sd = stats.NSDiffs(series, m, config.MaxSD)
		for i := 0; i < sd; i++ {
			working = working.SeasonalDiff(m)
		}
	}
	d := stats.NDiffs(working, config.MaxD, config.StationTest)

	s := &searcher{
		series:   series,
		config:   config,
		d:        d,
		sd:       sd,
		m:        m,
		visited:  make(map[arima.Order]bool),
		bestCrit: math.Inf(1),
	}

	switch {
	case config.Stepwise && m > 0:
		s.stepwiseSeasonal()
	case config.Stepwise:
		s.stepwise()
	default:
		s.grid()
	}

	if s.best == nil {
		return nil, apperr.NewModelFitError(
			fmt.Sprintf("no ARIMA order could be fitted (d=%d, D=%d, %d attempted)", d, sd, s.attempted), s.lastErr)
	}

	return &Result{
		Model:           s.best,
		P:               s.bestOrder.P,
		D:               d,
		Q:               s.bestOrder.Q,
		SP:              s.bestOrder.SP,
		SD:              sd,
		SQ:              s.bestOrder.SQ,
		M:               m,
		AIC:             s.best.AIC,
		BIC:             s.best.BIC,
		LogLik:          s.best.LogLik,
		Criterion:       s.bestCrit,
		ModelsEvaluated: s.evaluated,
		ModelsAttempted: s.attempted,
		IsSeasonal:      m > 0,
		BudgetExceeded:  s.exceeded,
	}, nil
}

// searcher tracks the best model and the evaluation budget.
type searcher struct {
	series *timeseries.Series
	config *Config
	d, sd  int
	m      int

	visited   map[arima.Order]bool
	attempted int
	evaluated int
	exceeded  bool
	lastErr   error

	best      *arima.Model
	bestOrder arima.Order
	bestCrit  float64
}

func (s *searcher) criterion(model *arima.Model) float64 {
	switch s.config.Criterion {
	case "bic":
		return model.BIC
	case "aicc":
		return model.AICc
	}
	return model.AIC
}

func (s *searcher) inBounds(o arima.Order) bool {
	c := s.config
	return o.P >= 0 && o.P <= c.MaxP &&
		o.Q >= 0 && o.Q <= c.MaxQ &&
		o.SP >= 0 && o.SP <= c.MaxSP &&
		o.SQ >= 0 && o.SQ <= c.MaxSQ
}

func (s *searcher) budgetLeft() bool {
	if s.config.MaxModels > 0 && s.attempted >= s.config.MaxModels {
		s.exceeded = true
		return false
	}
	return true
}

// try fits one order and reports whether it became the new best. Orders
// already tried are skipped without using budget.
func (s *searcher) try(p, q, sp, sq int) bool {
	o := arima.Order{P: p, D: s.d, Q: q, SP: sp, SD: s.sd, SQ: sq, M: s.m}
	if s.m == 0 {
		o.SP, o.SQ = 0, 0
	}
	if !s.inBounds(o) || s.visited[o] {
		return false
	}
	if !s.budgetLeft() {
		return false
	}
	s.visited[o] = true
	s.attempted++

	model := arima.NewSeasonal(o)
	if err := model.Fit(s.series); err != nil {
		s.lastErr = err
		return false
	}
	crit := s.criterion(model)
	if math.IsNaN(crit) {
		return false
	}
	s.evaluated++

	if crit < s.bestCrit {
		s.bestCrit = crit
		s.best = model
		s.bestOrder = o
		return true
	}
	return false
}

// stepwise performs stepwise search for ARIMA.
func (s *searcher) stepwise() {
	startModels := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 2}}
	for _, spec := range startModels {
		s.try(spec[0], spec[1], 0, 0)
	}
	if s.best == nil {
		return
	}

	improved := true
	for improved && !s.exceeded {
		improved = false
		b := s.bestOrder
		neighbors := [][2]int{
			{b.P + 1, b.Q},
			{b.P - 1, b.Q},
			{b.P, b.Q + 1},
			{b.P, b.Q - 1},
			{b.P + 1, b.Q + 1},
			{b.P - 1, b.Q - 1},
		}
		for _, spec := range neighbors {
			if s.try(spec[0], spec[1], 0, 0) {
				improved = true
			}
		}
	}
}

// stepwiseSeasonal performs stepwise search for SARIMA.
func (s *searcher) stepwiseSeasonal() {
	startModels := [][4]int{
		{0, 0, 0, 0},
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{1, 1, 1, 1},
		{2, 2, 1, 1},
	}
	for _, spec := range startModels {
		s.try(spec[0], spec[1], spec[2], spec[3])
	}
	if s.best == nil {
		return
	}

	improved := true
	for improved && !s.exceeded {
		improved = false
		b := s.bestOrder
		neighbors := [][4]int{
			{b.P + 1, b.Q, b.SP, b.SQ},
			{b.P - 1, b.Q, b.SP, b.SQ},
			{b.P, b.Q + 1, b.SP, b.SQ},
			{b.P, b.Q - 1, b.SP, b.SQ},
			{b.P, b.Q, b.SP + 1, b.SQ},
			{b.P, b.Q, b.SP - 1, b.SQ},
			{b.P, b.Q, b.SP, b.SQ + 1},
			{b.P, b.Q, b.SP, b.SQ - 1},
		}
		for _, spec := range neighbors {
			if s.try(spec[0], spec[1], spec[2], spec[3]) {
				improved = true
			}
		}
	}
}

// grid tries every order within the bounds.
func (s *searcher) grid() {
	maxSP, maxSQ := s.config.MaxSP, s.config.MaxSQ
	if s.m == 0 {
		maxSP, maxSQ = 0, 0
	}
	for p := 0; p <= s.config.MaxP; p++ {
		for q := 0; q <= s.config.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					s.try(p, q, sp, sq)
					if s.exceeded {
						return
					}
				}
			}
		}
	}
}

// Predict generates forecasts using the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	if r.Model == nil {
		return nil, arima.ErrNotFitted
	}
	return r.Model.Predict(steps)
}

// FittedValues returns in-sample one-step predictions aligned with the
// input series.
func (r *Result) FittedValues() []float64 {
	if r.Model == nil {
		return nil
	}
	return r.Model.FittedValues()
}
