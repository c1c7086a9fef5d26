package campaign

import (
	"context"
	"sync"
)

// Ledger remembers which recipients of a campaign were already sent to, so a
// retried campaign does not mail them twice.
type Ledger interface {
	Seen(ctx context.Context, campaignID, email string) (bool, error)
	Record(ctx context.Context, campaignID, email string) error
}

// NopLedger remembers nothing.
type NopLedger struct{}

func (NopLedger) Seen(context.Context, string, string) (bool, error) { return false, nil }
func (NopLedger) Record(context.Context, string, string) error { return nil }

// MemoryLedger keeps deliveries for the life of the process.
type MemoryLedger struct {
	mu   sync.RWMutex
	sent map[string]map[string]struct{}
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{sent: make(map[string]map[string]struct{})}
}

func (l *MemoryLedger) Seen(_ context.Context, campaignID, email string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.sent[campaignID][email]
	return ok, nil
}

func (l *MemoryLedger) Record(_ context.Context, campaignID, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.sent[campaignID]
	if !ok {
		set = make(map[string]struct{})
		l.sent[campaignID] = set
	}
	set[email] = struct{}{}
	return nil
}

// Compile-time interface checks
var (
	_ Ledger = NopLedger{}
	_ Ledger = (*MemoryLedger)(nil)
)
