package tests

import (
	"context"
	"testing"
	"time"

	"quiosco/notify-svc/internal/domain"
	"quiosco/notify-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, *storage.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, storage.NewStore(client, time.Hour)
}

func TestStore_MarkNotified(t *testing.T) {
	mr, store := setupStore(t)
	ctx := context.Background()

	first, err := store.MarkNotified(ctx, 7)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, time.Hour, mr.TTL("notified:7"))

	again, err := store.MarkNotified(ctx, 7)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, store.ClearMarker(ctx, 7))
	reclaimed, err := store.MarkNotified(ctx, 7)
	require.NoError(t, err)
	assert.True(t, reclaimed)
}

func TestStore_PushNotificationTrimsOutbox(t *testing.T) {
	mr, store := setupStore(t)
	ctx := context.Background()

	for i := 1; i <= storage.OutboxLimit+5; i++ {
		require.NoError(t, store.PushNotification(ctx, domain.Notification{OrderID: i, CreatedAt: fixedNow}))
	}

	entries, err := mr.List(storage.OutboxKey)
	require.NoError(t, err)
	assert.Len(t, entries, storage.OutboxLimit)

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, storage.OutboxLimit+5, recent[0].OrderID)
	assert.Equal(t, storage.OutboxLimit+4, recent[1].OrderID)
	assert.Equal(t, fixedNow, recent[0].CreatedAt)
}

func TestStore_RecentCorruptEntry(t *testing.T) {
	mr, store := setupStore(t)
	_, err := mr.Lpush(storage.OutboxKey, "garbage")
	require.NoError(t, err)

	_, err = store.Recent(context.Background(), 10)
	assert.Error(t, err)
}
