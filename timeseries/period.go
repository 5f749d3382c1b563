package timeseries

import (
	"fmt"
	"strconv"
	"strings"
)

// Frequency is the sampling frequency of a sector series.
type Frequency int

const (
	Annual Frequency = iota + 1
	Quarterly
)

// String returns "annual" or "quarterly".
func (f Frequency) String() string {
	switch f {
	case Annual:
		return "annual"
	case Quarterly:
		return "quarterly"
	default:
		return "unknown"
	}
}

// ParseFrequency is the inverse of String.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "yearly", "a":
		return Annual, nil
	case "quarterly", "q":
		return Quarterly, nil
	}
	return 0, fmt.Errorf("unknown frequency %q", s)
}

// Period identifies a year or a year-quarter. Quarter is 0 for annual periods.
type Period struct {
	Year    int
	Quarter int
}

// Year returns an annual period.
func Year(y int) Period {
	return Period{Year: y}
}

// YearQuarter returns a quarterly period.
func YearQuarter(y, q int) Period {
	return Period{Year: y, Quarter: q}
}

// Frequency infers the frequency from the quarter field.
func (p Period) Frequency() Frequency {
	if p.Quarter == 0 {
		return Annual
	}
	return Quarterly
}

// Key returns a chronological integer usable for sorting and arithmetic.
func (p Period) Key() int {
	if p.Quarter == 0 {
		return p.Year
	}
	return p.Year*4 + p.Quarter - 1
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	return p.Key() < o.Key()
}

// Add moves the period n steps at its own frequency.
func (p Period) Add(n int) Period {
	if p.Quarter == 0 {
		return Period{Year: p.Year + n}
	}
	k := p.Key() + n
	return Period{Year: floorDiv(k, 4), Quarter: k - floorDiv(k, 4)*4 + 1}
}

// Next returns the following period.
func (p Period) Next() Period {
	return p.Add(1)
}

// Steps returns the number of periods from p to o (o - p).
func (p Period) Steps(o Period) int {
	return o.Key() - p.Key()
}

// String renders "2024" or "2024-Q1".
func (p Period) String() string {
	if p.Quarter == 0 {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
}

// ParsePeriod accepts "2019", "2019 Q3", "2019-Q3" and "2019Q3".
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Period{}, fmt.Errorf("empty period")
	}
	idx := strings.Index(s, "Q")
	if idx < 0 {
		y, err := parseYear(s)
		if err != nil {
			return Period{}, err
		}
		return Year(y), nil
	}

	yearPart := strings.TrimRight(strings.TrimSpace(s[:idx]), "- ")
	y, err := parseYear(yearPart)
	if err != nil {
		return Period{}, err
	}
	q, err := strconv.Atoi(strings.TrimSpace(s[idx+1:]))
	if err != nil || q < 1 || q > 4 {
		return Period{}, fmt.Errorf("invalid quarter in period %q", s)
	}
	return YearQuarter(y, q), nil
}

func parseYear(s string) (int, error) {
	// Spreadsheet cells often carry years as floats ("2019.0").
	s = strings.TrimSuffix(s, ".0")
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

// Range returns every period from start to end inclusive.
func Range(start, end Period) []Period {
	n := start.Steps(end) + 1
	if n <= 0 {
		return nil
	}
	out := make([]Period, n)
	for i := range out {
		out[i] = start.Add(i)
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
