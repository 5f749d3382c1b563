package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	// No dotenv file unless a test asks for one.
	require.NoError(t, fs.Parse(append([]string{"--env-file", ""}, args...)))
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(flags(t, "--dataset", "gdp.csv"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gdp.csv", cfg.Dataset.Path)
	assert.Equal(t, "auto", cfg.Dataset.Format)
	assert.Equal(t, "memory", cfg.Sink.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.2, cfg.Run.HoldoutFraction)
	assert.True(t, cfg.Run.Post.Undifference)
	assert.True(t, cfg.Run.Post.LogBackTransform)
	assert.True(t, cfg.Run.Post.Floor)

	run, err := cfg.Run.Resolve()
	require.NoError(t, err)
	assert.Equal(t, timeseries.Annual, run.Kind)
	assert.Equal(t, model.HoltWinters, run.Family)
	assert.Equal(t, timeseries.Year(2015), run.Window.Start)
	assert.Equal(t, timeseries.Year(2023), run.Window.End)
	assert.Equal(t, timeseries.Year(2024), run.Start)
	assert.Equal(t, timeseries.Year(2030), run.End)
	assert.True(t, run.HistoryRows)
	assert.Len(t, run.Sectors, 11)
	assert.Contains(t, run.Sectors, "Finance, Insurance and Business services")
}

func TestLoadFlagsOverride(t *testing.T) {
	cfg, err := Load(flags(t,
		"--dataset", "gdp.xlsx",
		"--type", "quarterly_arima",
		"--sink", "sqlite",
		"--dsn", "forecast.db",
		"--workers", "3",
		"--log-level", "debug",
	))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Sink.Driver)
	assert.Equal(t, "forecast.db", cfg.Sink.DSN)
	assert.Equal(t, 3, cfg.Run.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)

	run, err := cfg.Run.Resolve()
	require.NoError(t, err)
	assert.Equal(t, timeseries.Quarterly, run.Kind)
	assert.Equal(t, model.AutoArima, run.Family)
	assert.Equal(t, timeseries.YearQuarter(2015, 1), run.Window.Start)
	assert.Equal(t, timeseries.YearQuarter(2030, 4), run.End)
	assert.Nil(t, run.Sectors)
	assert.False(t, run.HistoryRows)
	assert.Equal(t, "run=quarterly/arima dataset=gdp.xlsx sink=sqlite", cfg.String())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("GDPF_DATASET_PATH", "env.csv")
	t.Setenv("GDPF_SINK_DRIVER", "postgres")
	t.Setenv("GDPF_SINK_DSN", "postgres://localhost/gdp")
	t.Setenv("GDPF_RUN_SECTORS", "Agriculture, Forestry & Fishing; Construction")
	t.Setenv("GDPF_RUN_POSTPROCESS_FLOOR", "false")

	cfg, err := Load(flags(t))
	require.NoError(t, err)

	assert.Equal(t, "env.csv", cfg.Dataset.Path)
	assert.Equal(t, "postgres", cfg.Sink.Driver)
	assert.Equal(t, "postgres://localhost/gdp", cfg.Sink.DSN)
	assert.Equal(t, []string{"Agriculture, Forestry & Fishing", "Construction"}, cfg.Run.Sectors)
	assert.False(t, cfg.Run.Post.Floor)
}

func TestLoadDotenv(t *testing.T) {
	envFile := writeFile(t, "test.env", "GDPF_DATASET_PATH=dotenv.csv\nGDPF_ENVIRONMENT=test\n")
	// t.Setenv restores the variables godotenv sets; godotenv itself only
	// fills variables that are unset.
	t.Setenv("GDPF_DATASET_PATH", "")
	t.Setenv("GDPF_ENVIRONMENT", "")
	require.NoError(t, os.Unsetenv("GDPF_DATASET_PATH"))
	require.NoError(t, os.Unsetenv("GDPF_ENVIRONMENT"))

	cfg, err := Load(flags(t, "--env-file", envFile))
	require.NoError(t, err)
	assert.Equal(t, "dotenv.csv", cfg.Dataset.Path)
	assert.Equal(t, "test", cfg.Environment)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
environment: production
run:
  kind: quarterly
  family: holt_winters
  window_start: "2016 Q1"
  window_end: "2022 Q4"
  start: "2023 Q1"
  end: "2025 Q4"
  history_rows: "on"
  sectors:
    - Construction
    - "Mining & Quarrying"
dataset:
  path: quarterly.csv
sink:
  driver: sqlite
  dsn: out.db
`)
	cfg, err := Load(flags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)

	run, err := cfg.Run.Resolve()
	require.NoError(t, err)
	assert.Equal(t, timeseries.Quarterly, run.Kind)
	assert.Equal(t, model.HoltWinters, run.Family)
	assert.Equal(t, timeseries.YearQuarter(2016, 1), run.Window.Start)
	assert.Equal(t, timeseries.YearQuarter(2023, 1), run.Start)
	assert.Equal(t, 12, run.Horizon())
	assert.True(t, run.HistoryRows)
	assert.Equal(t, []string{"Construction", "Mining & Quarrying"}, run.Sectors)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(flags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--dataset", "x.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfig))
}

func TestLoadValidation(t *testing.T) {
	tests := map[string][]string{
		"missing dataset":   {},
		"unknown sink":      {"--dataset", "x.csv", "--sink", "mongodb"},
		"postgres no dsn":   {"--dataset", "x.csv", "--sink", "postgres"},
		"unknown type":      {"--dataset", "x.csv", "--type", "monthly_arima"},
		"negative workers":  {"--dataset", "x.csv", "--workers", "-1"},
		"unknown log level": {"--dataset", "x.csv", "--log-level", ""},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(flags(t, args...))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrConfig))
		})
	}
}

func TestResolveRejectsStartInsideWindow(t *testing.T) {
	r := RunConfig{Type: "annual_arima", Start: "2020", HistoryRows: "auto"}
	_, err := r.Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfig))
}

func TestResolveRejectsMixedFrequency(t *testing.T) {
	r := RunConfig{Kind: "annual", Family: "arima", Start: "2024 Q1"}
	_, err := r.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run.start")
}

func TestDefaultSectors(t *testing.T) {
	hw := DefaultSectors(timeseries.Annual, model.HoltWinters)
	arima := DefaultSectors(timeseries.Annual, model.AutoArima)

	assert.Len(t, hw, 11)
	assert.Len(t, arima, 12)
	assert.Contains(t, arima, "Gross Domestic Product")
	assert.Contains(t, arima, "Finance, Insurance, Real Estate & Business Services")
	assert.NotContains(t, hw, "Gross Domestic Product")
	assert.Equal(t, "Total Riyadh GDP", hw[len(hw)-1])
	assert.Nil(t, DefaultSectors(timeseries.Quarterly, model.AutoArima))
}
