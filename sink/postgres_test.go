package sink

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8848digital/GDP-Forecast/apperr"
)

const sampleFailures = `{"Manufacturing":"[MODEL_FIT] none of 32 candidates could be fitted"}`

func TestPostgresSinkReplace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run := sampleRun()
	runID := run.ID.String()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holt_winters_annual")).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))
	mock.ExpectCopyFrom(pgx.Identifier{"holt_winters_annual"}, rowColumns).
		WillReturnResult(3)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO holt_winters_annual")).
		WithArgs("Construction-2023", "Construction", "2023", 90.0, 0.0, runID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forecast_runs")).
		WithArgs(runID, "holt_winters_annual", 4, 1.0, 4.0, 2.0, sampleFailures, run.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	s := NewPostgresSink(mock)
	require.NoError(t, s.Replace(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkRollsBackOnCopyFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holt_winters_annual")).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"holt_winters_annual"}, rowColumns).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	s := NewPostgresSink(mock)
	err = s.Replace(context.Background(), sampleRun())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSinkWrite))
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkRollsBackOnRunInsertFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run := sampleRun()
	run.Rows = run.Rows[:1]

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holt_winters_annual")).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"holt_winters_annual"}, rowColumns).
		WillReturnResult(1)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forecast_runs")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	s := NewPostgresSink(mock)
	err = s.Replace(context.Background(), run)
	assert.True(t, errors.Is(err, apperr.ErrSinkWrite))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkBeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	s := NewPostgresSink(mock)
	err = s.Replace(context.Background(), sampleRun())
	assert.True(t, errors.Is(err, apperr.ErrSinkWrite))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	for _, table := range append(Tables(), RunsTable) {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table)).
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	}

	s := NewPostgresSink(mock)
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
