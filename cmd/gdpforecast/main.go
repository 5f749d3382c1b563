// Command gdpforecast forecasts sector GDP and writes the results to the
// configured sink.
//
// Usage:
//
//	gdpforecast --type annual_holt_winters --dataset data/annual.xlsx --sink sqlite --dsn forecast.db
//
// Every flag can also be set in configs/config.yaml or as a GDPF_*
// environment variable.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/config"
	"github.com/8848digital/GDP-Forecast/logging"
	"github.com/8848digital/GDP-Forecast/pipeline"
	"github.com/8848digital/GDP-Forecast/selection"
	"github.com/8848digital/GDP-Forecast/sink"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

func main() {
	fs := pflag.NewFlagSet("gdpforecast", pflag.ExitOnError)
	config.BindFlags(fs)
	summaryPath := fs.String("summary", "", "write the run summary as JSON to this file")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger, *summaryPath)
	stop()
	if code := reportFailure(logger, err); code != 0 {
		os.Exit(code)
	}
}

// reportFailure logs err and returns the exit code. A cancelled run is
// not a failure of the pipeline and is logged at Info.
func reportFailure(logger logrus.FieldLogger, err error) int {
	switch {
	case err == nil:
		return 0
	case pipeline.IsCanceled(err):
		logger.WithError(err).Info("Forecast run cancelled")
		return 130
	}
	logger.WithError(err).WithField("kind", apperr.TypeOf(err)).Error("Forecast run failed")
	return 1
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, summaryPath string) error {
	runCfg, err := cfg.Run.Resolve()
	if err != nil {
		return err
	}
	logger.WithField("config", cfg.String()).Info("Configuration loaded")

	observations, err := loadDataset(cfg.Dataset)
	if err != nil {
		return err
	}
	logger.WithField("observations", len(observations)).Info("Dataset loaded")

	out, closeSink, err := openSink(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer closeSink()

	selector, closeRedis, err := buildSelector(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	metrics := pipeline.NewMetrics()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Failed to stop metrics server")
			}
		}()
	}

	res, err := pipeline.Execute(ctx, &pipeline.Context{
		Config:   runCfg,
		Sink:     out,
		Selector: selector,
		Logger:   logger,
		Metrics:  metrics,
		Workers:  cfg.Run.Workers,
	}, observations)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, res)
	if summaryPath != "" {
		if err := writeSummary(summaryPath, res); err != nil {
			return apperr.NewInputError("failed to write summary", err)
		}
	}
	return nil
}

func loadDataset(cfg config.DatasetConfig) ([]timeseries.Observation, error) {
	opts := timeseries.DefaultCSVOptions()
	if cfg.SectorColumn != "" {
		opts.SectorColumn = cfg.SectorColumn
	}
	opts.SubSectorColumn = cfg.SubSectorColumn
	opts.SkipRows = cfg.SkipRows
	if cfg.FirstPeriod != "" {
		p, err := timeseries.ParsePeriod(cfg.FirstPeriod)
		if err != nil {
			return nil, apperr.NewConfigError("invalid dataset.first_period", err)
		}
		opts.FirstPeriod = &p
	}

	format := cfg.Format
	if format == "auto" || format == "" {
		format = "csv"
		if strings.EqualFold(filepath.Ext(cfg.Path), ".xlsx") {
			format = "xlsx"
		}
	}

	var (
		obs []timeseries.Observation
		err error
	)
	if format == "xlsx" {
		obs, err = timeseries.LoadWorkbook(cfg.Path, opts)
	} else {
		obs, err = timeseries.LoadCSV(cfg.Path, opts)
	}
	if err != nil {
		return nil, apperr.NewInputError("failed to load dataset "+cfg.Path, err)
	}
	return obs, nil
}

func openSink(ctx context.Context, cfg config.SinkConfig) (sink.Sink, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := sink.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, apperr.NewSinkWriteError("failed to connect to postgres", err)
		}
		s := sink.NewPostgresSink(pool)
		if cfg.EnsureSchema {
			if err := s.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return s, pool.Close, nil
	case "sqlite":
		db, err := sink.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, apperr.NewSinkWriteError("failed to open sqlite", err)
		}
		s := sink.NewSQLiteSink(db)
		if cfg.EnsureSchema {
			if err := s.EnsureSchema(ctx); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return s, func() { _ = db.Close() }, nil
	default:
		return sink.NewMemorySink(), func() {}, nil
	}
}

// buildSelector chains the tuned override file ahead of Redis. An
// unreachable Redis is logged and skipped.
func buildSelector(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*selection.Selector, func(), error) {
	selector := &selection.Selector{
		HoldoutFraction: cfg.Run.HoldoutFraction,
		Logger:          logger,
	}
	var chain selection.Chain
	closeFn := func() {}

	if cfg.OverridesFile != "" {
		tuned, err := selection.LoadOverrides(cfg.OverridesFile)
		if err != nil {
			return nil, nil, apperr.NewConfigError("failed to load overrides", err)
		}
		logger.WithField("overrides", tuned.Len()).Info("Loaded tuned model overrides")
		chain = append(chain, tuned)
	}

	if cfg.Redis.Enabled {
		client, err := openRedis(ctx, cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing without shared overrides")
		} else {
			shared := selection.NewRedisOverrides(client, time.Duration(cfg.Redis.TTLHours)*time.Hour)
			chain = append(chain, shared)
			if cfg.Run.WriteBack {
				selector.Writer = shared
			}
			closeFn = func() { _ = client.Close() }
		}
	}

	if len(chain) > 0 {
		selector.Overrides = chain
	}
	return selector, closeFn, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func serveMetrics(addr string, metrics *pipeline.Metrics, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()
	logger.WithField("addr", addr).Info("Serving metrics")
	return srv
}

type sectorSummary struct {
	Sector  string  `json:"sector"`
	Spec    string  `json:"spec,omitempty"`
	Source  string  `json:"source,omitempty"`
	Model   string  `json:"model,omitempty"`
	RMSE    float64 `json:"rmse"`
	Warning string  `json:"warning,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type runSummary struct {
	RunID     string          `json:"run_id"`
	Table     string          `json:"table"`
	Rows      int             `json:"rows"`
	MAE       float64         `json:"mae"`
	MSE       float64         `json:"mse"`
	RMSE      float64         `json:"rmse"`
	CreatedAt time.Time       `json:"created_at"`
	Sectors   []sectorSummary `json:"sectors"`
}

func summarize(res *pipeline.Result) runSummary {
	table, _ := res.Run.Table()
	s := runSummary{
		RunID:     res.Run.ID.String(),
		Table:     table,
		Rows:      len(res.Run.Rows),
		MAE:       res.Run.Metrics.MAE,
		MSE:       res.Run.Metrics.MSE,
		RMSE:      res.Run.Metrics.RMSE,
		CreatedAt: res.Run.CreatedAt,
	}
	for _, o := range res.Outcomes {
		ss := sectorSummary{Sector: o.Sector}
		if o.Err != nil {
			ss.Error = o.Err.Error()
		} else {
			ss.Spec = o.Spec.String()
			ss.Source = string(o.Source)
			ss.Model = o.Model
			ss.RMSE = o.Metrics.RMSE
		}
		if o.Warning != nil {
			ss.Warning = o.Warning.Error()
		}
		s.Sectors = append(s.Sectors, ss)
	}
	sort.Slice(s.Sectors, func(i, j int) bool { return s.Sectors[i].Sector < s.Sectors[j].Sector })
	return s
}

func printSummary(w io.Writer, res *pipeline.Result) {
	s := summarize(res)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Run %s -> %s: %d rows, %d/%d sectors\n", s.RunID, s.Table, s.Rows, res.Succeeded(), len(res.Outcomes))
	fmt.Fprintf(w, "Mean MAE=%.4f MSE=%.4f RMSE=%.4f\n", s.MAE, s.MSE, s.RMSE)
	fmt.Fprintln(w, strings.Repeat("=", 80))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTOR\tMODEL\tSOURCE\tRMSE\tNOTE")
	for _, ss := range s.Sectors {
		if ss.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", ss.Sector, ss.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%s\n", ss.Sector, ss.Model, ss.Source, ss.RMSE, ss.Warning)
	}
	_ = tw.Flush()
}

func writeSummary(path string, res *pipeline.Result) error {
	data, err := json.MarshalIndent(summarize(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
