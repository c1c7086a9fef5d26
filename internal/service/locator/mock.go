package locator

import (
	"context"
	"sync"
)

// MockLocator returns canned locations keyed by IP.
type MockLocator struct {
	mu        sync.Mutex
	locations map[string]Location
	err       error
	calls     []string
}

// NewMockLocator creates a mock with no known addresses.
func NewMockLocator() *MockLocator {
	return &MockLocator{locations: make(map[string]Location)}
}

// Set registers the location returned for ip.
func (m *MockLocator) Set(ip string, loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[ip] = loc
}

// SetError makes every lookup fail with err.
func (m *MockLocator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the IPs looked up so far.
func (m *MockLocator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockLocator) Locate(_ context.Context, ip string) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ip)
	if m.err != nil {
		return Unknown(), m.err
	}
	loc, ok := m.locations[ip]
	if !ok {
		return Unknown(), ErrLookupFailed
	}
	return loc, nil
}

// Compile-time interface check
var _ Locator = (*MockLocator)(nil)
