// Package sink persists forecast runs.
//
// Every run goes to the table named by its kind and family
// (holt_winters_annual, holt_winters_quarterly, arima_annual,
// arima_quarterly) and replaces the table's contents. Rows are keyed by
// "<sector>-<period>". Historical rows never overwrite an existing key, while
// forecast rows always do. A summary of each run, with its mean metrics
// and per-sector failures, goes to forecast_runs.
//
// Three implementations share that contract:
//
//   - MemorySink, for tests and dry runs;
//   - PostgresSink, on pgx: one transaction with COPY for forecast rows and
//     ON CONFLICT DO NOTHING for history;
//   - SQLiteSink, on database/sql with go-sqlite3 and INSERT OR IGNORE.
//
// Failures in the database sinks roll back and surface as
// apperr.ErrSinkWrite.
package sink
