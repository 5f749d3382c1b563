package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/8848digital/GDP-Forecast/accuracy"
	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// RunsTable holds one summary row per run.
const RunsTable = "forecast_runs"

// Row is one persisted value. Historical rows carry observed values and an
// RMSE of zero.
type Row struct {
	Key        string            `json:"name"`
	Sector     string            `json:"sector"`
	Period     timeseries.Period `json:"period"`
	Value      float64           `json:"value"`
	RMSE       float64           `json:"rmse"`
	Historical bool              `json:"historical"`
}

// RowKey returns "<sector>-<period>", e.g. "Construction-2024-Q1".
func RowKey(sector string, p timeseries.Period) string {
	return sector + "-" + p.String()
}

// NewRow builds a row with its key.
func NewRow(sector string, p timeseries.Period, value, rmse float64, historical bool) Row {
	return Row{
		Key:        RowKey(sector, p),
		Sector:     sector,
		Period:     p,
		Value:      value,
		RMSE:       rmse,
		Historical: historical,
	}
}

// Run is everything one pipeline run writes.
type Run struct {
	ID       uuid.UUID
	Kind     timeseries.Frequency
	Family   model.Family
	Rows     []Row
	Metrics  accuracy.Metrics
	Failures map[string]string // sector -> error message
	// Warnings are non-fatal per-sector messages such as an exhausted
	// search budget.
	Warnings  map[string]string
	CreatedAt time.Time
}

// Table returns the destination table of the run.
func (r *Run) Table() (string, error) {
	return TableName(r.Kind, r.Family)
}

func (r *Run) failuresJSON() (string, error) {
	failures := r.Failures
	if failures == nil {
		failures = map[string]string{}
	}
	b, err := json.Marshal(failures)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Sink persists a run, replacing everything previously stored for the
// same (kind, family). Implementations are all-or-nothing.
type Sink interface {
	Replace(ctx context.Context, run *Run) error
}

// TableName maps (kind, family) to its table.
func TableName(kind timeseries.Frequency, family model.Family) (string, error) {
	var prefix string
	switch family {
	case model.HoltWinters:
		prefix = "holt_winters"
	case model.AutoArima:
		prefix = "arima"
	default:
		return "", fmt.Errorf("unknown family %q", family)
	}
	switch kind {
	case timeseries.Annual, timeseries.Quarterly:
		return prefix + "_" + kind.String(), nil
	}
	return "", fmt.Errorf("unknown kind %d", kind)
}

// Tables lists every forecast table.
func Tables() []string {
	return []string{"holt_winters_annual", "holt_winters_quarterly", "arima_annual", "arima_quarterly"}
}

// RowSet collects rows by key. A historical row is dropped when its key is
// already present; a forecast row always takes the key.
type RowSet struct {
	index map[string]int
	rows  []Row
}

// NewRowSet creates an empty set.
func NewRowSet() *RowSet {
	return &RowSet{index: make(map[string]int)}
}

// Add inserts row and reports whether it was kept.
func (s *RowSet) Add(row Row) bool {
	if i, ok := s.index[row.Key]; ok {
		if row.Historical {
			return false
		}
		s.rows[i] = row
		return true
	}
	s.index[row.Key] = len(s.rows)
	s.rows = append(s.rows, row)
	return true
}

// Len returns the number of rows.
func (s *RowSet) Len() int {
	return len(s.rows)
}

// Rows returns the rows ordered by sector, then period.
func (s *RowSet) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	SortRows(out)
	return out
}

// Dedupe applies RowSet semantics to rows.
func Dedupe(rows []Row) []Row {
	set := NewRowSet()
	for _, r := range rows {
		set.Add(r)
	}
	return set.Rows()
}

// SortRows orders rows by sector, then period.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Sector != rows[j].Sector {
			return rows[i].Sector < rows[j].Sector
		}
		return rows[i].Period.Before(rows[j].Period)
	})
}

// split separates forecast rows from historical rows.
func split(rows []Row) (forecasts, history []Row) {
	for _, r := range rows {
		if r.Historical {
			history = append(history, r)
		} else {
			forecasts = append(forecasts, r)
		}
	}
	return forecasts, history
}
