package selection

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Selector picks one spec per sector. Overrides are consulted first; only
// sectors without one run the live search.
type Selector struct {
	Overrides OverrideStore
	// Writer, when set, receives every live Holt-Winters selection so that
	// later runs reuse it.
	Writer          OverrideWriter
	HoldoutFraction float64
	Logger          logrus.FieldLogger
}

// Select returns the spec for a sector series. For AutoArima the live
// "search" is the catalog configuration; the order search itself runs
// when the forecaster fits the model.
func (s *Selector) Select(ctx context.Context, family model.Family, series *timeseries.Series) (*Selection, error) {
	log := s.Logger
	if log == nil {
		log = discardLogger()
	}
	log = log.WithFields(logrus.Fields{
		"sector": series.Sector,
		"family": family,
		"kind":   series.Frequency.String(),
	})

	key := Key{Family: family, Kind: series.Frequency, Sector: series.Sector}
	if s.Overrides != nil {
		spec, ok, err := s.Overrides.Lookup(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Override lookup failed, searching instead")
		}
		if ok && spec.Family == family {
			log.WithField("spec", spec.String()).Debug("Using override")
			return &Selection{Spec: spec, Source: SourceOverride}, nil
		}
	}

	if family == model.AutoArima {
		return &Selection{Spec: model.ArimaSearch(series.Frequency), Source: SourceCatalog}, nil
	}

	sel, err := GridSearch(ctx, series, model.HoltWintersCandidates(series.Frequency), s.HoldoutFraction, log)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"spec":      sel.Spec.String(),
		"rmse":      sel.Score,
		"evaluated": sel.Evaluated,
		"skipped":   sel.Skipped,
	}).Info("Grid search selected model")

	if s.Writer != nil {
		if err := s.Writer.Save(ctx, key, sel.Spec); err != nil {
			log.WithError(err).Warn("Failed to save selection")
		}
	}
	return sel, nil
}
