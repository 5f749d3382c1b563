package sink

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8848digital/GDP-Forecast/accuracy"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

func sampleRun() *Run {
	return &Run{
		ID:     uuid.MustParse("7b0c4a4e-7f3e-4d43-9a55-0d5bb1c2a001"),
		Kind:   timeseries.Annual,
		Family: model.HoltWinters,
		Rows: []Row{
			NewRow("Mining & Quarrying", timeseries.Year(2024), 120, 3.5, false),
			NewRow("Construction", timeseries.Year(2023), 90, 0, true),
			NewRow("Construction", timeseries.Year(2024), 95, 2.5, false),
			NewRow("Construction", timeseries.Year(2025), 99, 2.5, false),
		},
		Metrics:   accuracy.Metrics{MAE: 1, MSE: 4, RMSE: 2},
		Failures:  map[string]string{"Manufacturing": "[MODEL_FIT] none of 32 candidates could be fitted"},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRowKey(t *testing.T) {
	assert.Equal(t, "Construction-2024", RowKey("Construction", timeseries.Year(2024)))
	assert.Equal(t, "Construction-2024-Q3", RowKey("Construction", timeseries.YearQuarter(2024, 3)))

	row := NewRow("Construction", timeseries.Year(2024), 1, 2, true)
	assert.Equal(t, "Construction-2024", row.Key)
	assert.True(t, row.Historical)
}

func TestTableName(t *testing.T) {
	tests := []struct {
		kind   timeseries.Frequency
		family model.Family
		want   string
	}{
		{timeseries.Annual, model.HoltWinters, "holt_winters_annual"},
		{timeseries.Quarterly, model.HoltWinters, "holt_winters_quarterly"},
		{timeseries.Annual, model.AutoArima, "arima_annual"},
		{timeseries.Quarterly, model.AutoArima, "arima_quarterly"},
	}
	for _, tt := range tests {
		got, err := TableName(tt.kind, tt.family)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Contains(t, Tables(), got)
	}

	_, err := TableName(timeseries.Annual, model.Family("prophet"))
	assert.Error(t, err)
	_, err = TableName(timeseries.Frequency(9), model.HoltWinters)
	assert.Error(t, err)
}

func TestRowSet(t *testing.T) {
	set := NewRowSet()

	assert.True(t, set.Add(NewRow("A", timeseries.Year(2023), 1, 0, true)))
	assert.False(t, set.Add(NewRow("A", timeseries.Year(2023), 2, 0, true)), "historical duplicate is skipped")
	assert.True(t, set.Add(NewRow("A", timeseries.Year(2023), 3, 0.5, false)), "forecast row takes the key")
	assert.False(t, set.Add(NewRow("A", timeseries.Year(2023), 4, 0, true)))
	assert.True(t, set.Add(NewRow("A", timeseries.Year(2022), 5, 0, true)))

	assert.Equal(t, 2, set.Len())

	rows := set.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "A-2022", rows[0].Key)
	assert.Equal(t, 3.0, rows[1].Value)
	assert.False(t, rows[1].Historical)
}

func TestDedupeOrdersBySectorThenPeriod(t *testing.T) {
	rows := Dedupe(sampleRun().Rows)

	var keys []string
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"Construction-2023", "Construction-2024", "Construction-2025", "Mining & Quarrying-2024"}, keys)
}

func TestMemorySinkReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	require.NoError(t, s.Replace(ctx, sampleRun()))
	assert.Len(t, s.Table("holt_winters_annual"), 4)

	second := sampleRun()
	second.Rows = second.Rows[:1]
	require.NoError(t, s.Replace(ctx, second))

	rows := s.Table("holt_winters_annual")
	require.Len(t, rows, 1)
	assert.Equal(t, "Mining & Quarrying-2024", rows[0].Key)

	runs := s.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "holt_winters_annual", runs[0].Table)
	assert.Equal(t, 4, runs[0].RowCount)
	assert.Nil(t, runs[0].Rows)
	assert.Empty(t, s.Table("arima_annual"))
}

func TestMemorySinkIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	require.NoError(t, s.Replace(ctx, sampleRun()))
	first := s.Table("holt_winters_annual")
	require.NoError(t, s.Replace(ctx, sampleRun()))
	assert.Equal(t, first, s.Table("holt_winters_annual"))
}

func TestMemorySinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemorySink()
	assert.ErrorIs(t, s.Replace(ctx, sampleRun()), context.Canceled)
	assert.Empty(t, s.Runs())
}
