package auth

import (
	"context"
)

// MockVerifier provides fake token verification for tests.
type MockVerifier struct {
	Operator *Operator
	Error    error
}

// Verify returns the configured operator or error.
func (m *MockVerifier) Verify(_ context.Context, _ string) (*Operator, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Operator, nil
}

// TestAdmin returns an operator holding the admin claim.
func TestAdmin() *Operator {
	return &Operator{UID: "admin-123", Email: "admin@example.com", Admin: true}
}

// Compile-time interface check
var _ Verifier = (*MockVerifier)(nil)
