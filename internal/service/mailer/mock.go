package mailer

import (
	"context"
	"fmt"
	"sync"
)

// MockMailer records messages and fails for selected recipients.
type MockMailer struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[string]bool
	err     error
}

// NewMockMailer creates an empty mock.
func NewMockMailer() *MockMailer {
	return &MockMailer{failFor: make(map[string]bool)}
}

// FailFor makes sends to email fail.
func (m *MockMailer) FailFor(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[email] = true
}

// Allow clears a failure set by FailFor.
func (m *MockMailer) Allow(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failFor, email)
}

// SetError makes every send fail with err.
func (m *MockMailer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns a copy of the delivered messages.
func (m *MockMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func (m *MockMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.failFor[msg.ToEmail] {
		return fmt.Errorf("%w: rejected %s", ErrSendFailed, msg.ToEmail)
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Compile-time interface check
var _ Mailer = (*MockMailer)(nil)
