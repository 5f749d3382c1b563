package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/8848digital/GDP-Forecast/apperr"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

const sqliteForecastTable = `CREATE TABLE IF NOT EXISTS %s (
	name       TEXT PRIMARY KEY,
	sector     TEXT NOT NULL,
	period     TEXT NOT NULL,
	value      REAL NOT NULL,
	rmse       REAL NOT NULL DEFAULT 0,
	historical INTEGER NOT NULL DEFAULT 0,
	run_id     TEXT NOT NULL
)`

const sqliteRunsTable = `CREATE TABLE IF NOT EXISTS forecast_runs (
	id         TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	mae        REAL NOT NULL,
	mse        REAL NOT NULL,
	rmse       REAL NOT NULL,
	failures   TEXT NOT NULL,
	created_at DATETIME NOT NULL
)`

// SQLiteSink writes runs to a SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a database file with WAL and a
// busy timeout.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteSink wraps an open database.
func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// EnsureSchema creates the forecast tables and the run table.
func (s *SQLiteSink) EnsureSchema(ctx context.Context) error {
	stmts := make([]string, 0, len(Tables())+1)
	for _, table := range Tables() {
		stmts = append(stmts, fmt.Sprintf(sqliteForecastTable, table))
	}
	stmts = append(stmts, sqliteRunsTable)

	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return apperr.NewSinkWriteError("create schema", err)
		}
	}
	return nil
}

// Replace implements Sink with the same contract as PostgresSink, using
// INSERT OR IGNORE for history.
func (s *SQLiteSink) Replace(ctx context.Context, run *Run) (err error) {
	table, err := run.Table()
	if err != nil {
		return apperr.NewSinkWriteError("resolve table", err)
	}
	forecasts, history := split(Dedupe(run.Rows))
	runID := run.ID.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.NewSinkWriteError("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return apperr.NewSinkWriteError("clear "+table, err)
	}

	if err = insertRows(ctx, tx, "INSERT INTO "+table, forecasts, runID); err != nil {
		return apperr.NewSinkWriteError("insert forecasts into "+table, err)
	}
	if err = insertRows(ctx, tx, "INSERT OR IGNORE INTO "+table, history, runID); err != nil {
		return apperr.NewSinkWriteError("insert history into "+table, err)
	}

	failures, err := run.failuresJSON()
	if err != nil {
		return apperr.NewSinkWriteError("encode failures", err)
	}
	m := run.Metrics
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO forecast_runs (id, table_name, row_count, mae, mse, rmse, failures, created_at) VALUES (?,?,?,?,?,?,?,?)`,
		runID, table, len(forecasts)+len(history), m.MAE, m.MSE, m.RMSE, failures, run.CreatedAt,
	); err != nil {
		return apperr.NewSinkWriteError("record run", err)
	}

	if err = tx.Commit(); err != nil {
		return apperr.NewSinkWriteError("commit", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, verb string, rows []Row, runID string) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, verb+` (name, sector, period, value, rmse, historical, run_id) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Key, r.Sector, r.Period.String(), r.Value, r.RMSE, r.Historical, runID); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable returns a table's rows ordered by sector, then period.
func (s *SQLiteSink) ReadTable(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, sector, period, value, rmse, historical FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r      Row
			period string
		)
		if err := rows.Scan(&r.Key, &r.Sector, &period, &r.Value, &r.RMSE, &r.Historical); err != nil {
			return nil, err
		}
		if r.Period, err = timeseries.ParsePeriod(period); err != nil {
			return nil, fmt.Errorf("row %s: %w", r.Key, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortRows(out)
	return out, nil
}

// RunCount returns the number of recorded runs.
func (s *SQLiteSink) RunCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+RunsTable).Scan(&n)
	return n, err
}
