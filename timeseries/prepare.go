package timeseries

import (
	"fmt"
	"sort"
	"strings"
)

// Observation is one raw (sector, sub-sector, period, value) record.
type Observation struct {
	Sector    string
	SubSector string
	Period    Period
	Value     float64
}

// Window is an inclusive range of periods.
type Window struct {
	Start Period
	End   Period
}

// Len returns the number of periods in the window.
func (w Window) Len() int {
	return w.Start.Steps(w.End) + 1
}

// Contains reports whether p lies inside the window.
func (w Window) Contains(p Period) bool {
	return !p.Before(w.Start) && !w.End.Before(p)
}

// Validate checks the window bounds share a frequency and are ordered.
func (w Window) Validate() error {
	if w.Start.Frequency() != w.End.Frequency() {
		return fmt.Errorf("window %s..%s mixes frequencies", w.Start, w.End)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("window end %s is before start %s", w.End, w.Start)
	}
	return nil
}

// PrepareOptions controls Prepare.
type PrepareOptions struct {
	Frequency Frequency
	Window    Window
	// Sectors is the allow-list. Empty keeps every sector.
	Sectors []string
}

// Prepare turns raw observations into one dense series per sector:
// sub-sectors are summed, the result is pivoted onto the window with
// missing cells set to zero, and sectors off the allow-list are dropped.
// Series are returned sorted by sector name.
func Prepare(obs []Observation, opts PrepareOptions) ([]*Series, error) {
	if err := opts.Window.Validate(); err != nil {
		return nil, err
	}
	if opts.Window.Start.Frequency() != opts.Frequency {
		return nil, fmt.Errorf("window %s..%s is not %s", opts.Window.Start, opts.Window.End, opts.Frequency)
	}

	allowed := make(map[string]bool, len(opts.Sectors))
	for _, s := range opts.Sectors {
		allowed[NormalizeSector(s)] = true
	}

	periods := Range(opts.Window.Start, opts.Window.End)
	totals := make(map[string][]float64)
	names := make(map[string]string)

	for _, o := range obs {
		key := NormalizeSector(o.Sector)
		if key == "" {
			continue
		}
		if len(allowed) > 0 && !allowed[key] {
			continue
		}
		if o.Period.Frequency() != opts.Frequency || !opts.Window.Contains(o.Period) {
			continue
		}
		row, ok := totals[key]
		if !ok {
			row = make([]float64, len(periods))
			totals[key] = row
			names[key] = strings.TrimSpace(o.Sector)
		}
		row[opts.Window.Start.Steps(o.Period)] += o.Value
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return names[keys[i]] < names[keys[j]] })

	out := make([]*Series, 0, len(keys))
	for _, k := range keys {
		ps := make([]Period, len(periods))
		copy(ps, periods)
		s, err := NewSeries(names[k], opts.Frequency, ps, totals[k])
		if err != nil {
			return nil, fmt.Errorf("sector %s: %w", names[k], err)
		}
		out = append(out, s)
	}
	return out, nil
}

// NormalizeSector folds case and whitespace so sector names from different
// files compare equal.
func NormalizeSector(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
