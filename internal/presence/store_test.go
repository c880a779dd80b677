package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "boardhub", ttl), mr
}

func TestLastSeenUnknownUser(t *testing.T) {
	store, _ := newStore(t, 0)

	_, ok, err := store.LastSeen(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkOnlineThenOffline(t *testing.T) {
	store, mr := newStore(t, 0)
	ctx := context.Background()

	joined := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return joined }
	require.NoError(t, store.MarkOnline(ctx, "u1"))

	raw, err := mr.Get("boardhub:presence:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"online","last_seen":1714554000}`, raw)

	left := joined.Add(5 * time.Minute)
	store.now = func() time.Time { return left }
	require.NoError(t, store.MarkOffline(ctx, "u1"))

	seen, ok, err := store.LastSeen(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, left, seen)
}

func TestRecordsExpireWithTTL(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.MarkOnline(ctx, "u1"))
	mr.FastForward(2 * time.Hour)

	_, ok, err := store.LastSeen(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastSeenCorruptRecord(t *testing.T) {
	store, mr := newStore(t, 0)
	require.NoError(t, mr.Set("boardhub:presence:u1", "not json"))

	_, _, err := store.LastSeen(context.Background(), "u1")
	require.Error(t, err)
}

func TestNoopStore(t *testing.T) {
	var tracker Tracker = NoopStore{}
	require.NoError(t, tracker.MarkOnline(context.Background(), "u1"))
	_, ok, err := tracker.LastSeen(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
