package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/forecast"
)

// EnvPrefix prefixes every environment override, e.g. GDPF_SINK_DSN.
const EnvPrefix = "GDPF"

// Config aggregates all configuration settings for the forecaster.
type Config struct {
	// Environment is "development", "production" or "test".
	Environment string `mapstructure:"environment" validate:"oneof=development production test"`
	// LogLevel is any logrus level name.
	LogLevel string `mapstructure:"log_level" validate:"required"`
	// Run describes what to forecast.
	Run RunConfig `mapstructure:"run"`
	// Dataset is the observation file.
	Dataset DatasetConfig `mapstructure:"dataset"`
	// Sink is where results go.
	Sink SinkConfig `mapstructure:"sink"`
	// Redis backs the shared override store.
	Redis RedisConfig `mapstructure:"redis"`
	// OverridesFile is a YAML table of tuned specs; empty disables it.
	OverridesFile string `mapstructure:"overrides_file"`
	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// RunConfig selects the forecast. Type, when set, overrides Kind and
// Family. Empty periods and sectors take per-kind defaults.
type RunConfig struct {
	Type            string               `mapstructure:"type" validate:"omitempty,oneof=annual_arima quarterly_arima annual_holt_winters quarterly_holt_winters"`
	Kind            string               `mapstructure:"kind" validate:"omitempty,oneof=annual quarterly"`
	Family          string               `mapstructure:"family" validate:"omitempty,oneof=holt_winters arima"`
	WindowStart     string               `mapstructure:"window_start"`
	WindowEnd       string               `mapstructure:"window_end"`
	Start           string               `mapstructure:"start"`
	End             string               `mapstructure:"end"`
	Sectors         []string             `mapstructure:"sectors"`
	Workers         int                  `mapstructure:"workers" validate:"gte=0"`
	HistoryRows     string               `mapstructure:"history_rows" validate:"oneof=auto on off"`
	HoldoutFraction float64              `mapstructure:"holdout_fraction" validate:"gt=0,lt=1"`
	Post            forecast.PostProcess `mapstructure:"postprocess"`
	// WriteBack stores live grid-search selections in Redis.
	WriteBack bool `mapstructure:"write_back"`
}

// DatasetConfig locates the observation file.
type DatasetConfig struct {
	Path            string `mapstructure:"path" validate:"required"`
	Format          string `mapstructure:"format" validate:"oneof=auto csv xlsx"`
	SectorColumn    string `mapstructure:"sector_column"`
	SubSectorColumn string `mapstructure:"sub_sector_column"`
	// FirstPeriod numbers wide value columns whose headers are not periods.
	FirstPeriod string `mapstructure:"first_period"`
	SkipRows    int    `mapstructure:"skip_rows" validate:"gte=0"`
}

// SinkConfig selects the result store.
type SinkConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory postgres sqlite"`
	// DSN is a postgres URL or a sqlite file path.
	DSN string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
	// EnsureSchema creates missing tables before writing.
	EnsureSchema bool `mapstructure:"ensure_schema"`
}

// RedisConfig defines the Redis connection.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	// TTLHours bounds how long written-back selections live; 0 keeps them.
	TTLHours int `mapstructure:"ttl_hours" validate:"gte=0"`
}

// BindFlags registers the command-line overrides.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file")
	fs.String("env-file", ".env", "dotenv file loaded before the environment is read")
	fs.String("type", "", "forecast type: annual_arima, quarterly_arima, annual_holt_winters, quarterly_holt_winters")
	fs.String("dataset", "", "dataset path (.csv or .xlsx)")
	fs.String("sink", "", "sink driver: memory, postgres or sqlite")
	fs.String("dsn", "", "sink DSN")
	fs.Int("workers", 0, "sectors processed in parallel (0 = CPU count)")
	fs.String("log-level", "", "log level")
	fs.String("metrics-addr", "", "address for the Prometheus endpoint")
}

var flagKeys = map[string]string{
	"type":         "run.type",
	"dataset":      "dataset.path",
	"sink":         "sink.driver",
	"dsn":          "sink.dsn",
	"workers":      "run.workers",
	"log-level":    "log_level",
	"metrics-addr": "metrics_addr",
}

// Load reads, in increasing precedence, defaults, the config file, a
// dotenv file, the environment and flags. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile, envFile := "", ".env"
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
		if f := fs.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, apperr.NewConfigError("failed to load "+envFile, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, apperr.NewConfigError("bind flag "+name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, apperr.NewConfigError("failed to read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(semicolonList)); err != nil {
		return nil, apperr.NewConfigError("failed to decode config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults initializes the default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("run.type", "")
	v.SetDefault("run.kind", "annual")
	v.SetDefault("run.family", "holt_winters")
	v.SetDefault("run.window_start", "")
	v.SetDefault("run.window_end", "")
	v.SetDefault("run.start", "")
	v.SetDefault("run.end", "")
	v.SetDefault("run.sectors", []string{})
	v.SetDefault("run.workers", 0)
	v.SetDefault("run.history_rows", "auto")
	v.SetDefault("run.holdout_fraction", 0.2)
	v.SetDefault("run.postprocess.undifference", true)
	v.SetDefault("run.postprocess.log_back_transform", true)
	v.SetDefault("run.postprocess.floor", true)
	v.SetDefault("run.write_back", false)

	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.format", "auto")
	v.SetDefault("dataset.sector_column", "sector")
	v.SetDefault("dataset.sub_sector_column", "sub_sector")
	v.SetDefault("dataset.first_period", "")
	v.SetDefault("dataset.skip_rows", 0)

	v.SetDefault("sink.driver", "memory")
	v.SetDefault("sink.dsn", "")
	v.SetDefault("sink.ensure_schema", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_hours", 0)

	v.SetDefault("overrides_file", "")
	v.SetDefault("metrics_addr", "")
}

// Validate checks struct tags and the run periods.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperr.NewConfigError("invalid configuration", err)
	}
	if _, err := c.Run.Resolve(); err != nil {
		return err
	}
	return nil
}

// semicolonList decodes "a;b" strings into slices. Sector names contain
// commas, so the comma split viper applies by default cannot be used.
func semicolonList(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string(nil)) {
		return data, nil
	}
	return splitList(reflect.ValueOf(data).String()), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String names the resolved run, so run.type wins over run.kind and
// run.family.
func (c *Config) String() string {
	run := "invalid"
	if kind, family, err := c.Run.Forecast(); err == nil {
		run = fmt.Sprintf("%s/%s", kind, family)
	}
	return fmt.Sprintf("run=%s dataset=%s sink=%s", run, c.Dataset.Path, c.Sink.Driver)
}
