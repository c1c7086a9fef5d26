package campaign

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisto/subscriber-pipeline/internal/testutil"
)

func exerciseLedger(t *testing.T, l Ledger) {
	t.Helper()
	ctx := context.Background()

	seen, err := l.Seen(ctx, "c1", "a@example.com")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, l.Record(ctx, "c1", "a@example.com"))
	require.NoError(t, l.Record(ctx, "c1", "a@example.com"))

	seen, err = l.Seen(ctx, "c1", "a@example.com")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = l.Seen(ctx, "c2", "a@example.com")
	require.NoError(t, err)
	assert.False(t, seen, "ledgers are scoped per campaign")
}

func TestMemoryLedger(t *testing.T) {
	exerciseLedger(t, NewMemoryLedger())
}

func TestRedisLedger(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	exerciseLedger(t, NewRedisLedger(client, time.Hour))

	assert.True(t, mr.Exists("campaign:c1:sent"))
	assert.Equal(t, time.Hour, mr.TTL("campaign:c1:sent"))
}

func TestRedisLedgerUnavailable(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	mr.Close()

	_, err := NewRedisLedger(client, 0).Seen(context.Background(), "c1", "a@example.com")
	assert.Error(t, err)
}

func TestFirestoreLedger(t *testing.T) {
	testutil.SkipIfFirestoreUnavailable(t)
	testutil.SetupEmulator(t)
	testutil.ClearFirestore(t)

	client, err := firestore.NewClient(context.Background(), testutil.ProjectID)
	require.NoError(t, err)
	defer client.Close()

	exerciseLedger(t, NewFirestoreLedger(client))
}

func TestDeliveryIDStable(t *testing.T) {
	assert.Equal(t, deliveryID("c", "a@example.com"), deliveryID("c", "a@example.com"))
	assert.NotEqual(t, deliveryID("c", "a@example.com"), deliveryID("c2", "a@example.com"))
	assert.NotContains(t, deliveryID("c", "a@example.com"), "@")
}
