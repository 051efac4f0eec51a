package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/vutto/pricing-service/internal/database"
)

// Default config table keys.
const (
	DefaultCacheKey     = "LIVE_INVENTORY_CACHE"
	DefaultCacheTimeKey = "LIVE_INVENTORY_CACHE_TIME"
	DefaultTTL          = 5 * time.Minute
)

// Snapshot is a fetched copy of the live inventory rows.
type Snapshot struct {
	Rows      [][]string
	UpdatedAt time.Time
}

// FreshAt reports whether the snapshot is younger than ttl at now.
func (s *Snapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	return s != nil && !s.UpdatedAt.IsZero() && now.Sub(s.UpdatedAt) < ttl
}

// snapshotDocument is the stored form; updatedAt is epoch milliseconds.
type snapshotDocument struct {
	Data      [][]string `json:"data"`
	UpdatedAt int64      `json:"updatedAt"`
}

func encodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(snapshotDocument{Data: s.Rows, UpdatedAt: s.UpdatedAt.UnixMilli()})
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode inventory snapshot: %w", err)
	}
	s := &Snapshot{Rows: doc.Data}
	if doc.UpdatedAt > 0 {
		s.UpdatedAt = time.UnixMilli(doc.UpdatedAt)
	}
	return s, nil
}

// SnapshotStore persists the last fetched snapshot. Load returns nil, nil
// when nothing is stored.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	TTL(ctx context.Context) (time.Duration, error)
}

// PostgresSnapshotStore keeps the snapshot in the config table, next to a
// row holding the TTL in milliseconds.
type PostgresSnapshotStore struct {
	db         database.DBTX
	cacheKey   string
	timeKey    string
	defaultTTL time.Duration
}

// NewPostgresSnapshotStore creates a config-table snapshot store. Empty keys
// and a zero TTL fall back to the defaults.
func NewPostgresSnapshotStore(db database.DBTX, cacheKey, timeKey string, defaultTTL time.Duration) *PostgresSnapshotStore {
	if cacheKey == "" {
		cacheKey = DefaultCacheKey
	}
	if timeKey == "" {
		timeKey = DefaultCacheTimeKey
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &PostgresSnapshotStore{db: db, cacheKey: cacheKey, timeKey: timeKey, defaultTTL: defaultTTL}
}

// Load implements SnapshotStore.
func (p *PostgresSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := p.value(ctx, p.cacheKey)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

// Save implements SnapshotStore.
func (p *PostgresSnapshotStore) Save(ctx context.Context, s *Snapshot) error {
	data, err := encodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("failed to encode inventory snapshot: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO config (config_key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (config_key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, p.cacheKey, data)
	if err != nil {
		return fmt.Errorf("failed to save inventory snapshot: %w", err)
	}
	return nil
}

// TTL implements SnapshotStore. The stored value is {"data": <ms>}.
func (p *PostgresSnapshotStore) TTL(ctx context.Context) (time.Duration, error) {
	raw, err := p.value(ctx, p.timeKey)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return p.defaultTTL, nil
	}
	var doc struct {
		Data float64 `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Data <= 0 {
		return p.defaultTTL, nil
	}
	return time.Duration(doc.Data) * time.Millisecond, nil
}

func (p *PostgresSnapshotStore) value(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := p.db.QueryRow(ctx, `SELECT value FROM config WHERE config_key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return raw, nil
}

// RedisSnapshotStore shares the snapshot between instances. The key expires
// with the TTL, so an expired snapshot simply disappears.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a redis snapshot store.
func NewRedisSnapshotStore(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotStore {
	if key == "" {
		key = DefaultCacheKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSnapshotStore{client: client, key: "pricing:" + key, ttl: ttl}
}

// Load implements SnapshotStore.
func (r *RedisSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory snapshot: %w", err)
	}
	return decodeSnapshot(raw)
}

// Save implements SnapshotStore.
func (r *RedisSnapshotStore) Save(ctx context.Context, s *Snapshot) error {
	data, err := encodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("failed to encode inventory snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save inventory snapshot: %w", err)
	}
	return nil
}

// TTL implements SnapshotStore.
func (r *RedisSnapshotStore) TTL(context.Context) (time.Duration, error) {
	return r.ttl, nil
}

// MemorySnapshotStore keeps the snapshot in process.
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	snap *Snapshot
	ttl  time.Duration
}

// NewMemorySnapshotStore creates an in-process snapshot store.
func NewMemorySnapshotStore(ttl time.Duration) *MemorySnapshotStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemorySnapshotStore{ttl: ttl}
}

// Load implements SnapshotStore.
func (m *MemorySnapshotStore) Load(context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, nil
}

// Save implements SnapshotStore.
func (m *MemorySnapshotStore) Save(_ context.Context, s *Snapshot) error {
	m.mu.Lock()
	m.snap = s
	m.mu.Unlock()
	return nil
}

// TTL implements SnapshotStore.
func (m *MemorySnapshotStore) TTL(context.Context) (time.Duration, error) {
	return m.ttl, nil
}
