package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/8848digital/GDP-Forecast/apperr"
)

// PgxPool is the subset of *pgxpool.Pool the sink uses.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var rowColumns = []string{"name", "sector", "period", "value", "rmse", "historical", "run_id"}

const pgForecastTable = `CREATE TABLE IF NOT EXISTS %s (
	name       TEXT PRIMARY KEY,
	sector     TEXT NOT NULL,
	period     TEXT NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	rmse       DOUBLE PRECISION NOT NULL DEFAULT 0,
	historical BOOLEAN NOT NULL DEFAULT FALSE,
	run_id     UUID NOT NULL
)`

const pgRunsTable = `CREATE TABLE IF NOT EXISTS forecast_runs (
	id         UUID PRIMARY KEY,
	table_name TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	mae        DOUBLE PRECISION NOT NULL,
	mse        DOUBLE PRECISION NOT NULL,
	rmse       DOUBLE PRECISION NOT NULL,
	failures   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const pgInsertHistorical = `INSERT INTO %s (name, sector, period, value, rmse, historical, run_id)
VALUES ($1, $2, $3, $4, $5, TRUE, $6)
ON CONFLICT (name) DO NOTHING`

const pgInsertRun = `INSERT INTO forecast_runs (id, table_name, row_count, mae, mse, rmse, failures, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// PostgresSink writes runs to PostgreSQL in a single transaction.
type PostgresSink struct {
	pool PgxPool
}

// NewPostgresSink wraps a pool.
func NewPostgresSink(pool PgxPool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// OpenPostgres connects a pgx pool and checks it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the forecast tables and the run table.
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	for _, table := range Tables() {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf(pgForecastTable, table)); err != nil {
			return apperr.NewSinkWriteError("create table "+table, err)
		}
	}
	if _, err := p.pool.Exec(ctx, pgRunsTable); err != nil {
		return apperr.NewSinkWriteError("create table "+RunsTable, err)
	}
	return nil
}

// Replace implements Sink: delete, copy forecasts, insert history with
// ON CONFLICT DO NOTHING, record the run, commit. Any failure rolls back.
func (p *PostgresSink) Replace(ctx context.Context, run *Run) (err error) {
	table, err := run.Table()
	if err != nil {
		return apperr.NewSinkWriteError("resolve table", err)
	}
	forecasts, history := split(Dedupe(run.Rows))
	runID := run.ID.String()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return apperr.NewSinkWriteError("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return apperr.NewSinkWriteError("clear "+table, err)
	}

	if len(forecasts) > 0 {
		src := pgx.CopyFromSlice(len(forecasts), func(i int) ([]any, error) {
			r := forecasts[i]
			return []any{r.Key, r.Sector, r.Period.String(), r.Value, r.RMSE, false, runID}, nil
		})
		var n int64
		if n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, rowColumns, src); err != nil {
			return apperr.NewSinkWriteError("copy forecasts into "+table, err)
		}
		if n != int64(len(forecasts)) {
			err = fmt.Errorf("copied %d of %d rows", n, len(forecasts))
			return apperr.NewSinkWriteError("copy forecasts into "+table, err)
		}
	}

	insert := fmt.Sprintf(pgInsertHistorical, table)
	for _, r := range history {
		if _, err = tx.Exec(ctx, insert, r.Key, r.Sector, r.Period.String(), r.Value, r.RMSE, runID); err != nil {
			return apperr.NewSinkWriteError("insert history into "+table, err)
		}
	}

	failures, err := run.failuresJSON()
	if err != nil {
		return apperr.NewSinkWriteError("encode failures", err)
	}
	m := run.Metrics
	if _, err = tx.Exec(ctx, pgInsertRun, runID, table, len(forecasts)+len(history), m.MAE, m.MSE, m.RMSE, failures, run.CreatedAt); err != nil {
		return apperr.NewSinkWriteError("record run", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return apperr.NewSinkWriteError("commit", err)
	}
	return nil
}
