// Package model describes the forecasting model families and enumerates the
// candidates each selector searches.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Family is a model family.
type Family string

const (
	HoltWinters Family = "holt_winters"
	AutoArima   Family = "arima"
)

// ParseFamily accepts "holt_winters", "hw", "arima" and "auto_arima".
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "holt_winters", "holtwinters", "hw", "ets":
		return HoltWinters, nil
	case "arima", "auto_arima", "autoarima":
		return AutoArima, nil
	}
	return "", fmt.Errorf("unknown model family %q", s)
}

// Component is the form of a trend or seasonal component.
type Component string

const (
	None           Component = "none"
	Additive       Component = "add"
	Multiplicative Component = "mul"
)

// ParseComponent accepts "add", "mul", "none" and the empty string.
func ParseComponent(s string) (Component, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null":
		return None, nil
	case "add", "additive":
		return Additive, nil
	case "mul", "multiplicative":
		return Multiplicative, nil
	}
	return "", fmt.Errorf("unknown component %q", s)
}

// ExponentialSmoothing configures a Holt-Winters model.
type ExponentialSmoothing struct {
	Trend           Component `json:"trend" yaml:"trend"`
	Seasonal        Component `json:"seasonal" yaml:"seasonal"`
	SeasonalPeriods int       `json:"seasonal_periods" yaml:"seasonal_periods"`
}

// Arima configures the automatic ARIMA search.
type Arima struct {
	Stepwise  bool   `json:"stepwise" yaml:"stepwise"`
	Seasonal  bool   `json:"seasonal" yaml:"seasonal"`
	Period    int    `json:"period" yaml:"period"`
	Criterion string `json:"criterion" yaml:"criterion"`
	MaxModels int    `json:"max_models" yaml:"max_models"`
}

// Spec is a tagged variant: exactly one of ES and Arima is set, matching Family.
type Spec struct {
	Family Family                `json:"family" yaml:"family"`
	ES     *ExponentialSmoothing `json:"exponential_smoothing,omitempty" yaml:"exponential_smoothing,omitempty"`
	Arima  *Arima                `json:"arima,omitempty" yaml:"arima,omitempty"`
}

// NewHoltWinters returns a Holt-Winters spec.
func NewHoltWinters(trend, seasonal Component, periods int) Spec {
	return Spec{Family: HoltWinters, ES: &ExponentialSmoothing{Trend: trend, Seasonal: seasonal, SeasonalPeriods: periods}}
}

// NewArima returns an auto-ARIMA spec.
func NewArima(cfg Arima) Spec {
	return Spec{Family: AutoArima, Arima: &cfg}
}

// Validate checks the variant invariants.
func (s Spec) Validate() error {
	switch s.Family {
	case HoltWinters:
		if s.ES == nil || s.Arima != nil {
			return errors.New("holt_winters spec needs exactly the exponential_smoothing block")
		}
		for _, c := range []Component{s.ES.Trend, s.ES.Seasonal} {
			if c != None && c != Additive && c != Multiplicative {
				return fmt.Errorf("invalid component %q", c)
			}
		}
		if s.ES.Trend == None && s.ES.Seasonal == None {
			return errors.New("holt_winters spec needs a trend or a seasonal component")
		}
		if s.ES.Seasonal != None && s.ES.SeasonalPeriods < 2 {
			return fmt.Errorf("seasonal period must be at least 2, got %d", s.ES.SeasonalPeriods)
		}
	case AutoArima:
		if s.Arima == nil || s.ES != nil {
			return errors.New("arima spec needs exactly the arima block")
		}
		if s.Arima.Period < 1 {
			return fmt.Errorf("arima period must be positive, got %d", s.Arima.Period)
		}
	default:
		return fmt.Errorf("unknown family %q", s.Family)
	}
	return nil
}

// String renders HW(mul,add,3) or ARIMA(stepwise,seasonal,m=4).
func (s Spec) String() string {
	switch {
	case s.Family == HoltWinters && s.ES != nil:
		return fmt.Sprintf("HW(%s,%s,%d)", s.ES.Trend, s.ES.Seasonal, s.ES.SeasonalPeriods)
	case s.Family == AutoArima && s.Arima != nil:
		var flags []string
		if s.Arima.Stepwise {
			flags = append(flags, "stepwise")
		}
		if s.Arima.Seasonal {
			flags = append(flags, "seasonal")
		}
		flags = append(flags, fmt.Sprintf("m=%d", s.Arima.Period))
		return "ARIMA(" + strings.Join(flags, ",") + ")"
	}
	return string(s.Family)
}

// Candidate components in enumeration order.
var componentOrder = []Component{Additive, Multiplicative, None}

// SeasonalPeriods returns the seasonal periods searched for a frequency.
func SeasonalPeriods(freq timeseries.Frequency) []int {
	if freq == timeseries.Quarterly {
		return []int{4}
	}
	return []int{3, 4, 5, 6}
}

// HoltWintersCandidates enumerates (trend, seasonal, periods) with trend as
// the outer loop, seasonal in the middle and periods innermost. The pair
// (None, None) is excluded. The order decides ties in the grid search.
func HoltWintersCandidates(freq timeseries.Frequency) []Spec {
	periods := SeasonalPeriods(freq)
	var out []Spec
	for _, trend := range componentOrder {
		for _, seasonal := range componentOrder {
			if trend == None && seasonal == None {
				continue
			}
			for _, m := range periods {
				out = append(out, NewHoltWinters(trend, seasonal, m))
			}
		}
	}
	return out
}

// DefaultMaxModels bounds the stepwise ARIMA search.
const DefaultMaxModels = 94

// ArimaSearch returns the auto-ARIMA configuration for a frequency: the
// seasonal search with period 1 for annual data (effectively non-seasonal)
// and period 4 for quarterly data.
func ArimaSearch(freq timeseries.Frequency) Spec {
	period := 1
	if freq == timeseries.Quarterly {
		period = 4
	}
	return NewArima(Arima{
		Stepwise:  true,
		Seasonal:  true,
		Period:    period,
		Criterion: "aic",
		MaxModels: DefaultMaxModels,
	})
}

// ParseForecastType splits a forecast type name such as "annual_arima" or
// "quarterly_holt_winters" into its frequency and family.
func ParseForecastType(name string) (timeseries.Frequency, Family, error) {
	kind, family, ok := strings.Cut(strings.ToLower(strings.TrimSpace(name)), "_")
	if !ok {
		return 0, "", fmt.Errorf("unknown forecast type %q", name)
	}
	freq, err := timeseries.ParseFrequency(kind)
	if err != nil {
		return 0, "", fmt.Errorf("forecast type %q: %w", name, err)
	}
	fam, err := ParseFamily(family)
	if err != nil {
		return 0, "", fmt.Errorf("forecast type %q: %w", name, err)
	}
	return freq, fam, nil
}
