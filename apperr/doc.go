// Package apperr defines the typed errors shared by the forecasting pipeline.
//
// Every failure raised by a pipeline component is an *AppError whose Type
// tells the orchestrator how to react:
//
//   - DATA: the sector cannot be modelled; it is recorded and skipped.
//   - MODEL_FIT: no candidate model fitted; recorded and skipped.
//   - SEARCH_BUDGET: a warning; the best model found so far is used.
//   - SINK_WRITE: persistence failed; the whole run aborts.
//
// Use errors.Is with the sentinels to classify:
//
//	if errors.Is(err, apperr.ErrData) {
//	    // skip sector
//	}
package apperr
