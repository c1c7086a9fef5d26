package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-process RecordStore for local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []Record
	err  error
}

// NewMemoryStore creates a store holding the given records after the header.
func NewMemoryStore(records ...Record) *MemoryStore {
	return &MemoryStore{rows: slices.Clone(records)}
}

// SetError makes every subsequent call fail with err (nil restores normal behavior).
func (m *MemoryStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryStore) Column(_ context.Context, col int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, 0, len(m.rows)+1)
	if col >= 1 && col <= len(Header) {
		out = append(out, Header[col-1])
	}
	for _, r := range m.rows {
		out = append(out, r.Field(col))
	}
	return out, nil
}

func (m *MemoryStore) Row(_ context.Context, pos int) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return Record{}, m.err
	}
	i := pos - FirstDataRow
	if i < 0 || i >= len(m.rows) {
		return Record{}, ErrRowOutOfRange
	}
	return m.rows[i], nil
}

func (m *MemoryStore) Rows(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.rows), nil
}

func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, rec)
	return nil
}

func (m *MemoryStore) DeleteRow(_ context.Context, pos int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	i := pos - FirstDataRow
	if i < 0 || i >= len(m.rows) {
		return ErrRowOutOfRange
	}
	m.rows = slices.Delete(m.rows, i, i+1)
	return nil
}

// Initialize drops every data row.
func (m *MemoryStore) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

// Compile-time interface checks
var (
	_ RecordStore = (*MemoryStore)(nil)
	_ Initializer = (*MemoryStore)(nil)
)
