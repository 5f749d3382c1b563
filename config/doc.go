// Package config loads the forecaster settings.
//
// Values come from, lowest precedence first: built-in defaults, a YAML file
// (configs/config.yaml unless --config names one), a dotenv file, GDPF_*
// environment variables with dots replaced by underscores
// (GDPF_SINK_DSN sets sink.dsn) and command-line flags. The result is
// validated with struct tags, and RunConfig.Resolve turns the run section
// into a pipeline.RunConfig with per-kind default periods and sectors.
package config
