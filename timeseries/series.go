// Package timeseries provides the sector series type and its preparation.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is a dense, chronologically ordered sector series.
// Periods and Values are parallel; periods are strictly increasing.
type Series struct {
	Sector    string
	Frequency Frequency
	Periods   []Period
	Values    []float64
}

// New creates an annual series from values, numbered from year 1. It is
// meant for working series that carry no calendar.
func New(values []float64) *Series {
	periods := make([]Period, len(values))
	for i := range periods {
		periods[i] = Year(i + 1)
	}
	return &Series{Frequency: Annual, Periods: periods, Values: values}
}

// NewSeries validates and creates a sector series.
func NewSeries(sector string, freq Frequency, periods []Period, values []float64) (*Series, error) {
	if len(periods) != len(values) {
		return nil, errors.New("periods and values must have the same length")
	}
	for i, p := range periods {
		if p.Frequency() != freq {
			return nil, fmt.Errorf("period %s does not match %s frequency", p, freq)
		}
		if i > 0 && !periods[i-1].Before(p) {
			return nil, fmt.Errorf("periods not strictly increasing at %s", p)
		}
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, fmt.Errorf("non-finite value at %s", p)
		}
	}
	return &Series{Sector: sector, Frequency: freq, Periods: periods, Values: values}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// First returns the first period. It panics on an empty series.
func (s *Series) First() Period {
	return s.Periods[0]
}

// Last returns the last period. It panics on an empty series.
func (s *Series) Last() Period {
	return s.Periods[len(s.Periods)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Median returns the median value of the series.
func (s *Series) Median() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// MinPositive returns the smallest strictly positive value.
// ok is false when the series has no positive value.
func (s *Series) MinPositive() (min float64, ok bool) {
	for _, v := range s.Values {
		if v > 0 && (!ok || v < min) {
			min, ok = v, true
		}
	}
	return min, ok
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the n-th order difference of the series.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 {
		return s.Copy()
	}
	current := s
	for i := 0; i < n; i++ {
		current = current.lagDiff(1)
	}
	return current
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m)
}

func (s *Series) lagDiff(lag int) *Series {
	if lag <= 0 || len(s.Values) <= lag {
		return s.derive(nil, nil)
	}
	result := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		result[i-lag] = s.Values[i] - s.Values[i-lag]
	}
	return s.derive(s.periodsFrom(lag, len(s.Values)), result)
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return s.derive(nil, nil)
	}
	values := make([]float64, end-start)
	copy(values, s.Values[start:end])
	return s.derive(s.periodsFrom(start, end), values)
}

// Split returns the first floor(frac*n) points and the remainder.
func (s *Series) Split(frac float64) (train, test *Series) {
	cut := int(math.Floor(frac * float64(len(s.Values))))
	return s.Slice(0, cut), s.Slice(cut, len(s.Values))
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	return s.derive(s.periodsFrom(0, len(s.Values)), values)
}

// Log1p applies log(1+x). Zero-filled cells stay finite.
func (s *Series) Log1p() *Series {
	result := make([]float64, len(s.Values))
	for i, v := range s.Values {
		result[i] = math.Log1p(v)
	}
	return s.derive(s.periodsFrom(0, len(s.Values)), result)
}

// Expm1 inverts Log1p element-wise on a plain slice.
func Expm1(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Expm1(v)
	}
	return out
}

// AllPositive reports whether every value is strictly positive.
func (s *Series) AllPositive() bool {
	for _, v := range s.Values {
		if v <= 0 {
			return false
		}
	}
	return len(s.Values) > 0
}

func (s *Series) periodsFrom(start, end int) []Period {
	if len(s.Periods) < end {
		return nil
	}
	out := make([]Period, end-start)
	copy(out, s.Periods[start:end])
	return out
}

func (s *Series) derive(periods []Period, values []float64) *Series {
	if values == nil {
		values = []float64{}
	}
	return &Series{
		Sector:    s.Sector,
		Frequency: s.Frequency,
		Periods:   periods,
		Values:    values,
	}
}
