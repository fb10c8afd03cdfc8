// Package sheet provides the tabular stores that hold the workout tab:
// Google Sheets, a local SQLite file, Postgres, and an in-memory table.
package sheet

import (
	"context"
	"sync"

	"github.com/briangreenhill/sheetcoach/internal/workout"
)

// MemoryStore keeps the tab in process. Useful for dry runs and tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows [][]string
}

// NewMemoryStore returns a store seeded with rows (header first). With no
// rows it starts with the standard header.
func NewMemoryStore(rows ...[]string) *MemoryStore {
	if len(rows) == 0 {
		rows = [][]string{append([]string(nil), workout.StandardHeader...)}
	}
	return &MemoryStore{rows: rows}
}

func (m *MemoryStore) Values(context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *MemoryStore) Header(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		return nil, nil
	}
	return append([]string(nil), m.rows[0]...), nil
}

func (m *MemoryStore) Append(_ context.Context, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, append([]string(nil), row...))
	return nil
}

// Len returns the number of rows including the header
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

var _ workout.Store = (*MemoryStore)(nil)
