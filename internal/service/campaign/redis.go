package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLedgerTTL = 7 * 24 * time.Hour

// RedisLedger stores each campaign's recipients in a Redis set that expires
// after a retention window.
type RedisLedger struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLedger creates a ledger; non-positive ttl uses seven days.
func NewRedisLedger(client redis.UniversalClient, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &RedisLedger{client: client, ttl: ttl}
}

func ledgerKey(campaignID string) string {
	return fmt.Sprintf("campaign:%s:sent", campaignID)
}

func (l *RedisLedger) Seen(ctx context.Context, campaignID, email string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, ledgerKey(campaignID), email).Result()
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Record(ctx context.Context, campaignID, email string) error {
	key := ledgerKey(campaignID)
	pipe := l.client.TxPipeline()
	pipe.SAdd(ctx, key, email)
	pipe.Expire(ctx, key, l.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

// Compile-time interface check
var _ Ledger = (*RedisLedger)(nil)
