// Package forecast fits a model.Spec to a sector series and turns the
// fitted model into post-processed forecasts.
//
// Run is the single entry point used by the pipeline:
//
//	out, err := forecast.Run(series, spec, 7,
//	    forecast.Transform{Stationarize: true},
//	    forecast.DefaultPostProcess())
//
// The transform is applied before fitting (log1p first, then one ADF-driven
// difference). Post-processing runs in a fixed order: undifference, expm1,
// then the floor, which replaces negative forecasts with the smallest
// strictly positive raw observation. A series with no positive observation
// is rejected with a data error when the floor is enabled.
//
// Output.Fitted and Output.Actual are always the same length and on the
// same scale, so they can be handed straight to accuracy.Score.
package forecast
