package config

import (
	"fmt"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/pipeline"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Annual sector allow-lists. Quarterly runs keep every sector in the data.
var annualSectors = []string{
	"Agriculture, Forestry & Fishing",
	"Mining & Quarrying",
	"Manufacturing",
	"Electricity, Gas and Water",
	"Construction",
	"Wholesale & Retail Trade, Restaurants & hotels",
	"Transport, Storage & Communication",
	"Community, Social & Personal Services",
	"Government Activities",
	"Total Riyadh GDP",
}

// DefaultSectors returns the sector allow-list for a run; nil keeps all.
func DefaultSectors(kind timeseries.Frequency, family model.Family) []string {
	if kind != timeseries.Annual {
		return nil
	}
	out := append([]string(nil), annualSectors[:7]...)
	if family == model.AutoArima {
		out = append(out, "Finance, Insurance, Real Estate & Business Services")
	} else {
		out = append(out, "Finance, Insurance and Business services")
	}
	out = append(out, annualSectors[7:9]...)
	if family == model.AutoArima {
		out = append(out, "Gross Domestic Product")
	}
	return append(out, annualSectors[9])
}

type periodDefaults struct {
	windowStart, windowEnd, start, end timeseries.Period
}

func defaultPeriods(kind timeseries.Frequency) periodDefaults {
	if kind == timeseries.Quarterly {
		return periodDefaults{
			windowStart: timeseries.YearQuarter(2015, 1),
			windowEnd:   timeseries.YearQuarter(2023, 4),
			start:       timeseries.YearQuarter(2024, 1),
			end:         timeseries.YearQuarter(2030, 4),
		}
	}
	return periodDefaults{
		windowStart: timeseries.Year(2015),
		windowEnd:   timeseries.Year(2023),
		start:       timeseries.Year(2024),
		end:         timeseries.Year(2030),
	}
}

// Forecast returns the kind and family, taking Type over Kind and Family.
func (r RunConfig) Forecast() (timeseries.Frequency, model.Family, error) {
	if r.Type != "" {
		kind, family, err := model.ParseForecastType(r.Type)
		if err != nil {
			return 0, "", apperr.NewConfigError("invalid run.type", err)
		}
		return kind, family, nil
	}
	kind, err := timeseries.ParseFrequency(r.Kind)
	if err != nil {
		return 0, "", apperr.NewConfigError("invalid run.kind", err)
	}
	family, err := model.ParseFamily(r.Family)
	if err != nil {
		return 0, "", apperr.NewConfigError("invalid run.family", err)
	}
	return kind, family, nil
}

// Resolve turns the raw settings into a pipeline run, filling empty
// periods and sectors with the per-kind defaults.
func (r RunConfig) Resolve() (pipeline.RunConfig, error) {
	kind, family, err := r.Forecast()
	if err != nil {
		return pipeline.RunConfig{}, err
	}
	def := defaultPeriods(kind)

	parse := func(name, raw string, fallback timeseries.Period) (timeseries.Period, error) {
		if raw == "" {
			return fallback, nil
		}
		p, err := timeseries.ParsePeriod(raw)
		if err != nil {
			return timeseries.Period{}, apperr.NewConfigError("invalid run."+name, err)
		}
		if p.Frequency() != kind {
			return timeseries.Period{}, apperr.NewConfigError(fmt.Sprintf("run.%s %s is not %s", name, p, kind), nil)
		}
		return p, nil
	}

	out := pipeline.RunConfig{Kind: kind, Family: family, Post: r.Post}
	if out.Window.Start, err = parse("window_start", r.WindowStart, def.windowStart); err != nil {
		return pipeline.RunConfig{}, err
	}
	if out.Window.End, err = parse("window_end", r.WindowEnd, def.windowEnd); err != nil {
		return pipeline.RunConfig{}, err
	}
	if out.Start, err = parse("start", r.Start, def.start); err != nil {
		return pipeline.RunConfig{}, err
	}
	if out.End, err = parse("end", r.End, def.end); err != nil {
		return pipeline.RunConfig{}, err
	}

	out.Sectors = r.Sectors
	if len(out.Sectors) == 0 {
		out.Sectors = DefaultSectors(kind, family)
	}

	switch r.HistoryRows {
	case "on":
		out.HistoryRows = true
	case "off":
		out.HistoryRows = false
	default:
		out.HistoryRows = pipeline.DefaultHistoryRows(kind, family)
	}

	if err := out.Validate(); err != nil {
		return pipeline.RunConfig{}, err
	}
	return out, nil
}
