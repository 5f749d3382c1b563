package selection

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/8848digital/GDP-Forecast/accuracy"
	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/forecast"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// DefaultHoldoutFraction is the share of the series held out for scoring.
const DefaultHoldoutFraction = 0.2

// Source records where a selection came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceSearch   Source = "search"
	SourceCatalog  Source = "catalog"
)

// Selection is the model chosen for one sector.
type Selection struct {
	Spec model.Spec
	// Score is the holdout RMSE of a grid search; zero otherwise.
	Score     float64
	Evaluated int
	Skipped   int
	Source    Source
}

// GridSearch fits every candidate on the first floor((1-holdout)*n) points,
// forecasts the rest and keeps the lowest holdout RMSE. Ties keep the
// earlier candidate. Candidates that fail to fit are skipped; if none fits
// the error is a model-fit failure.
func GridSearch(ctx context.Context, series *timeseries.Series, candidates []model.Spec, holdoutFraction float64, log logrus.FieldLogger) (*Selection, error) {
	if log == nil {
		log = discardLogger()
	}
	if holdoutFraction <= 0 || holdoutFraction >= 1 {
		holdoutFraction = DefaultHoldoutFraction
	}
	if len(candidates) == 0 {
		return nil, apperr.NewConfigError("no candidates to search", nil)
	}

	train, holdout := series.Split(1 - holdoutFraction)
	if train.Len() == 0 || holdout.Len() == 0 {
		return nil, apperr.NewDataError(
			fmt.Sprintf("series of %d points cannot be split for a holdout", series.Len()), nil).
			WithContext("sector", series.Sector)
	}

	sel := &Selection{Score: math.Inf(1), Source: SourceSearch}
	found := false
	var lastErr error

	for _, spec := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, err := holdoutRMSE(train, holdout, spec)
		if err != nil {
			sel.Skipped++
			lastErr = err
			log.WithFields(logrus.Fields{
				"sector": series.Sector,
				"spec":   spec.String(),
			}).WithError(err).Debug("Candidate skipped")
			continue
		}
		sel.Evaluated++

		if score < sel.Score {
			sel.Score = score
			sel.Spec = spec
			found = true
		}
	}

	if !found {
		return nil, apperr.NewModelFitError(
			fmt.Sprintf("none of %d candidates could be fitted", len(candidates)), lastErr).
			WithContext("sector", series.Sector)
	}
	return sel, nil
}

func holdoutRMSE(train, holdout *timeseries.Series, spec model.Spec) (float64, error) {
	fitted, err := forecast.Fit(train, spec)
	if err != nil {
		return 0, err
	}
	fc, err := fitted.Forecast(holdout.Len())
	if err != nil {
		return 0, err
	}
	score, err := accuracy.RMSE(holdout.Values, fc)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, apperr.NewModelFitError("non-finite holdout RMSE", nil)
	}
	return score, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
