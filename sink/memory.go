package sink

import (
	"context"
	"sync"
)

// RunRecord is the stored summary of a run.
type RunRecord struct {
	Run
	Table    string
	RowCount int
}

// MemorySink keeps tables in memory. Each Replace swaps a whole table.
type MemorySink struct {
	mu     sync.RWMutex
	tables map[string][]Row
	runs   []RunRecord
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{tables: make(map[string][]Row)}
}

// Replace implements Sink.
func (m *MemorySink) Replace(ctx context.Context, run *Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	table, err := run.Table()
	if err != nil {
		return err
	}
	rows := Dedupe(run.Rows)

	record := RunRecord{Run: *run, Table: table, RowCount: len(rows)}
	record.Rows = nil

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = rows
	m.runs = append(m.runs, record)
	return nil
}

// Table returns a copy of a table's rows.
func (m *MemorySink) Table(name string) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[name]
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// Runs returns the run summaries in write order.
func (m *MemorySink) Runs() []RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RunRecord, len(m.runs))
	copy(out, m.runs)
	return out
}
