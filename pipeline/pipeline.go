package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/8848digital/GDP-Forecast/accuracy"
	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/forecast"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/selection"
	"github.com/8848digital/GDP-Forecast/sink"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// RunConfig is one resolved forecast job.
type RunConfig struct {
	Kind   timeseries.Frequency
	Family model.Family
	// Window is the history used for fitting.
	Window timeseries.Window
	// Start and End bound the forecast periods written, inclusive.
	Start timeseries.Period
	End   timeseries.Period
	// Sectors is the allow-list; empty keeps every sector in the data.
	Sectors []string
	Post    forecast.PostProcess
	// HistoryRows also writes the observed window.
	HistoryRows bool
}

// DefaultHistoryRows is true only for annual Holt-Winters runs.
func DefaultHistoryRows(kind timeseries.Frequency, family model.Family) bool {
	return kind == timeseries.Annual && family == model.HoltWinters
}

// Validate checks the periods agree with Kind and that Start follows the
// window.
func (c RunConfig) Validate() error {
	if _, err := sink.TableName(c.Kind, c.Family); err != nil {
		return apperr.NewConfigError("invalid run", err)
	}
	if err := c.Window.Validate(); err != nil {
		return apperr.NewConfigError("invalid window", err)
	}
	for name, p := range map[string]timeseries.Period{
		"window": c.Window.Start, "start": c.Start, "end": c.End,
	} {
		if p.Frequency() != c.Kind {
			return apperr.NewConfigError(fmt.Sprintf("%s period %s is not %s", name, p, c.Kind), nil)
		}
	}
	if !c.Window.End.Before(c.Start) {
		return apperr.NewConfigError(fmt.Sprintf("forecast start %s must follow window end %s", c.Start, c.Window.End), nil)
	}
	if c.End.Before(c.Start) {
		return apperr.NewConfigError(fmt.Sprintf("forecast end %s is before start %s", c.End, c.Start), nil)
	}
	return nil
}

// Horizon is the number of periods from Start to End.
func (c RunConfig) Horizon() int {
	return c.Start.Steps(c.End) + 1
}

// Transform returns the series transform for the family and kind: annual
// ARIMA is differenced when not stationary, quarterly ARIMA is fitted on
// log1p values.
func (c RunConfig) Transform() forecast.Transform {
	if c.Family != model.AutoArima {
		return forecast.Transform{}
	}
	if c.Kind == timeseries.Quarterly {
		return forecast.Transform{Log1p: true}
	}
	return forecast.Transform{Stationarize: true}
}

// Context carries everything a run needs. Nothing is read from globals.
type Context struct {
	Config   RunConfig
	Sink     sink.Sink
	Selector *selection.Selector
	Logger   logrus.FieldLogger
	// Metrics may be nil.
	Metrics *Metrics
	// Workers bounds concurrent sectors; 0 means runtime.NumCPU().
	Workers int
}

// Outcome is the result for one sector.
type Outcome struct {
	Sector   string
	Spec     model.Spec
	Source   selection.Source
	Model    string
	Metrics  accuracy.Metrics
	Periods  []timeseries.Period
	Forecast []float64
	Warning  error
	Err      error
}

// Result is what Execute wrote.
type Result struct {
	Run      *sink.Run
	Outcomes []Outcome
}

// Succeeded counts sectors without an error.
func (r *Result) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Execute prepares the observations, forecasts every sector concurrently
// and replaces the run's table in one sink write. Sector failures are
// recorded in the run; cancellation and sink errors abort it.
func Execute(ctx context.Context, pc *Context, observations []timeseries.Observation) (*Result, error) {
	cfg := pc.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pc.Sink == nil {
		return nil, apperr.NewConfigError("pipeline has no sink", nil)
	}
	table, _ := sink.TableName(cfg.Kind, cfg.Family)

	runID := uuid.New()
	log := pc.Logger
	if log == nil {
		log = discardLogger()
	}
	log = log.WithFields(logrus.Fields{
		"run_id": runID.String(),
		"kind":   cfg.Kind.String(),
		"family": cfg.Family,
	})

	series, err := timeseries.Prepare(observations, timeseries.PrepareOptions{
		Frequency: cfg.Kind,
		Window:    cfg.Window,
		Sectors:   cfg.Sectors,
	})
	if err != nil {
		pc.Metrics.observeRun(table, statusFailed, 0, 0)
		return nil, apperr.NewDataError("failed to prepare series", err)
	}
	if len(series) == 0 {
		pc.Metrics.observeRun(table, statusFailed, 0, 0)
		return nil, apperr.NewDataError(fmt.Sprintf("no sector has %s observations in %s..%s", cfg.Kind, cfg.Window.Start, cfg.Window.End), nil)
	}
	log.WithField("sectors", len(series)).Info("Starting forecast run")

	selector := selection.Selector{HoldoutFraction: selection.DefaultHoldoutFraction}
	if pc.Selector != nil {
		selector = *pc.Selector
	}
	if selector.Logger == nil {
		selector.Logger = log
	}

	workers := pc.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	outcomes := make([]Outcome, len(series))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range series {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			outcomes[i] = forecastSector(gctx, &selector, cfg, s)
			if err := gctx.Err(); err != nil {
				return err
			}

			o := &outcomes[i]
			sectorLog := log.WithField("sector", s.Sector)
			if o.Err != nil {
				pc.Metrics.observeSector(table, statusFailed, time.Since(started))
				sectorLog.WithError(o.Err).Warn("Sector failed")
				return nil
			}
			pc.Metrics.observeSector(table, statusOK, time.Since(started))
			pc.Metrics.observeSelection(table, string(o.Source))
			if o.Warning != nil {
				sectorLog.WithError(o.Warning).Warn("Sector forecast carries a warning")
			}
			sectorLog.WithFields(logrus.Fields{
				"spec":  o.Spec.String(),
				"model": o.Model,
				"rmse":  o.Metrics.RMSE,
			}).Debug("Sector forecast")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		pc.Metrics.observeRun(table, statusFailed, 0, 0)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		pc.Metrics.observeRun(table, statusFailed, 0, 0)
		return nil, err
	}

	run := &sink.Run{
		ID:        runID,
		Kind:      cfg.Kind,
		Family:    cfg.Family,
		Failures:  map[string]string{},
		Warnings:  map[string]string{},
		CreatedAt: time.Now().UTC(),
	}
	set := sink.NewRowSet()
	var scored []accuracy.Metrics
	for i, o := range outcomes {
		if o.Err != nil {
			run.Failures[o.Sector] = o.Err.Error()
			continue
		}
		if o.Warning != nil {
			run.Warnings[o.Sector] = o.Warning.Error()
		}
		scored = append(scored, o.Metrics)
		if cfg.HistoryRows {
			s := series[i]
			for j, p := range s.Periods {
				set.Add(sink.NewRow(o.Sector, p, s.Values[j], 0, true))
			}
		}
		for j, p := range o.Periods {
			set.Add(sink.NewRow(o.Sector, p, o.Forecast[j], o.Metrics.RMSE, false))
		}
	}
	run.Rows = set.Rows()
	run.Metrics = accuracy.Mean(scored)

	if err := pc.Sink.Replace(ctx, run); err != nil {
		pc.Metrics.observeRun(table, statusFailed, 0, 0)
		log.WithError(err).Error("Failed to write run")
		return nil, err
	}
	pc.Metrics.observeRun(table, statusOK, len(run.Rows), run.Metrics.RMSE)

	log.WithFields(logrus.Fields{
		"table":    table,
		"rows":     len(run.Rows),
		"failures": len(run.Failures),
		"rmse":     run.Metrics.RMSE,
	}).Info("Forecast run written")

	return &Result{Run: run, Outcomes: outcomes}, nil
}

// forecastSector runs select, forecast and score for one series.
func forecastSector(ctx context.Context, selector *selection.Selector, cfg RunConfig, s *timeseries.Series) Outcome {
	o := Outcome{Sector: s.Sector}

	sel, err := selector.Select(ctx, cfg.Family, s)
	if err != nil {
		o.Err = err
		return o
	}
	o.Spec, o.Source = sel.Spec, sel.Source

	// The forecast runs from the window end; periods before Start are
	// dropped.
	lead := cfg.Window.End.Steps(cfg.Start) - 1
	out, err := forecast.Run(s, sel.Spec, lead+cfg.Horizon(), cfg.Transform(), cfg.Post)
	if err != nil {
		o.Err = err
		return o
	}
	o.Model, o.Warning = out.Model, out.Warning

	m, err := accuracy.Score(out.Actual, out.Fitted)
	if err != nil {
		o.Err = err
		return o
	}
	o.Metrics = m
	o.Periods = timeseries.Range(cfg.Start, cfg.End)
	o.Forecast = out.Forecast[lead:]
	return o
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
