package sink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

func newSQLiteSink(t *testing.T) *SQLiteSink {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "forecast.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLiteSink(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestSQLiteSinkReplace(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteSink(t)

	require.NoError(t, s.Replace(ctx, sampleRun()))

	rows, err := s.ReadTable(ctx, "holt_winters_annual")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Construction-2023", rows[0].Key)
	assert.True(t, rows[0].Historical)
	assert.Equal(t, timeseries.Year(2023), rows[0].Period)
	assert.Equal(t, 95.0, rows[1].Value)
	assert.Equal(t, 2.5, rows[1].RMSE)
	assert.False(t, rows[1].Historical)

	n, err := s.RunCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteSinkReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteSink(t)

	require.NoError(t, s.Replace(ctx, sampleRun()))
	first, err := s.ReadTable(ctx, "holt_winters_annual")
	require.NoError(t, err)

	again := sampleRun()
	again.ID[15] = 0x02
	require.NoError(t, s.Replace(ctx, again))
	second, err := s.ReadTable(ctx, "holt_winters_annual")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSQLiteSinkReplaceDropsOldRows(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteSink(t)

	require.NoError(t, s.Replace(ctx, sampleRun()))

	next := sampleRun()
	next.ID[15] = 0x03
	next.Rows = []Row{NewRow("Construction", timeseries.Year(2030), 150, 1.5, false)}
	require.NoError(t, s.Replace(ctx, next))

	rows, err := s.ReadTable(ctx, "holt_winters_annual")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Construction-2030", rows[0].Key)
}

func TestSQLiteSinkHistoryNeverOverwritesForecast(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteSink(t)

	run := sampleRun()
	run.Rows = append(run.Rows, NewRow("Construction", timeseries.Year(2024), 1, 0, true))
	require.NoError(t, s.Replace(ctx, run))

	rows, err := s.ReadTable(ctx, "holt_winters_annual")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, 95.0, rows[1].Value)
}

func TestSQLiteSinkFailedRunRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteSink(t)

	require.NoError(t, s.Replace(ctx, sampleRun()))

	// Same run id: the forecast_runs insert violates the primary key after
	// the table was already cleared inside the transaction.
	dup := sampleRun()
	dup.Rows = dup.Rows[:1]
	err := s.Replace(ctx, dup)
	require.Error(t, err)

	rows, err := s.ReadTable(ctx, "holt_winters_annual")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
