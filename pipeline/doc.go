// Package pipeline runs one forecast job end to end.
//
// Execute prepares the raw observations into one series per sector, then
// for every sector selects a model, fits it, forecasts the requested
// periods and scores the fit in-sample. Sectors run concurrently on a
// bounded errgroup. A failing sector is recorded in the run and skipped;
// the remaining sectors still produce rows.
//
// Nothing reaches the sink until every sector has finished. The full row
// set then replaces the run's table in a single Sink.Replace, so a
// cancelled run leaves the previous results in place.
//
// Metrics exposes Prometheus counters and histograms for runs, sectors and
// selections on a private registry.
package pipeline
