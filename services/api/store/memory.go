package store

import (
	"context"
	"sync"
)

// Memory is an in-process backend used for tests and the memory deployment
// mode. Semantics mirror the remote backends: 1-based addressing, header in
// row 1, deletes shift later rows up.
type Memory struct {
	mu     sync.Mutex
	tables map[string][][]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][][]string)}
}

// Rows returns a copy of every row of the table.
func (m *Memory) Rows(_ context.Context, table string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// FindRow scans the given column for the first matching cell.
func (m *Memory) FindRow(_ context.Context, table string, col int, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.tables[table] {
		if cell(row, col) == value {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

// UpdateCell overwrites one cell, growing the row when it is short.
func (m *Memory) UpdateCell(_ context.Context, table string, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if row < 1 || row > len(rows) {
		return ErrRowNotFound
	}
	r := rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	rows[row-1] = r
	return nil
}

// AppendRows adds rows at the end of the table.
func (m *Memory) AppendRows(_ context.Context, table string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.tables[table] = append(m.tables[table], append([]string(nil), row...))
	}
	return nil
}

// DeleteRow removes a row; later rows shift up.
func (m *Memory) DeleteRow(_ context.Context, table string, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if row < 1 || row > len(rows) {
		return ErrRowNotFound
	}
	m.tables[table] = append(rows[:row-1], rows[row:]...)
	return nil
}
