package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/internal/database/dbtest"
)

func TestSnapshot_FreshAt(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	s := &Snapshot{UpdatedAt: now.Add(-4 * time.Minute)}

	assert.True(t, s.FreshAt(now, 5*time.Minute))
	assert.False(t, s.FreshAt(now, 4*time.Minute))
	assert.False(t, (*Snapshot)(nil).FreshAt(now, time.Hour))
	assert.False(t, (&Snapshot{}).FreshAt(now, time.Hour))
}

func TestRedisSnapshotStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := NewRedisSnapshotStore(client, "", time.Minute)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	updated := time.UnixMilli(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC).UnixMilli())
	require.NoError(t, store.Save(ctx, &Snapshot{Rows: liveRows, UpdatedAt: updated}))
	assert.True(t, mr.Exists("pricing:"+DefaultCacheKey))

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, liveRows, snap.Rows)
	assert.True(t, updated.Equal(snap.UpdatedAt))

	ttl, err := store.TTL(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)
	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "key expires with the TTL")
}

func TestPostgresSnapshotStore_Integration(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	store := NewPostgresSnapshotStore(pool, "", "", 0)

	ttl, err := store.TTL(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, ttl)

	_, err = pool.Exec(ctx, `INSERT INTO config (config_key, value) VALUES ($1, '{"data": 60000}')`, DefaultCacheTimeKey)
	require.NoError(t, err)
	ttl, err = store.TTL(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	updated := time.UnixMilli(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC).UnixMilli())
	require.NoError(t, store.Save(ctx, &Snapshot{Rows: liveRows, UpdatedAt: updated}))
	require.NoError(t, store.Save(ctx, &Snapshot{Rows: liveRows[:2], UpdatedAt: updated}))

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, liveRows[:2], snap.Rows)
	assert.True(t, updated.Equal(snap.UpdatedAt))

	cache := NewCache(StaticSource(liveRows), store).WithClock(func() time.Time { return updated.Add(30 * time.Second) })
	levels, err := cache.Lookup(ctx, "Commuter 125")
	require.NoError(t, err)
	assert.False(t, levels.Exists, "fresh stored snapshot wins over the source")
}
