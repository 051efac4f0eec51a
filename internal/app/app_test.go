package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/config"
	"github.com/vutto/pricing-service/internal/inventory"
)

func TestNew_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "DATABASE_URL not set")
}

func TestInventorySource_File(t *testing.T) {
	src, err := inventorySource(context.Background(), config.InventoryConfig{Source: "file", FilePath: "/data/live.csv"})
	require.NoError(t, err)
	assert.Equal(t, inventory.FileSource{Path: "/data/live.csv"}, src)
}

func TestSnapshotStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tests := []struct {
		name  string
		store string
		redis *redis.Client
		want  any
	}{
		{"memory", "memory", nil, &inventory.MemorySnapshotStore{}},
		{"redis", "redis", client, &inventory.RedisSnapshotStore{}},
		{"redis without a client falls back", "redis", nil, &inventory.PostgresSnapshotStore{}},
		{"postgres", "postgres", nil, &inventory.PostgresSnapshotStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &App{
				Config: &config.Config{Inventory: config.InventoryConfig{SnapshotStore: tt.store}},
				Redis:  tt.redis,
			}
			assert.IsType(t, tt.want, a.snapshotStore())
		})
	}
}
