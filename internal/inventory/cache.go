package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Live inventory sheet columns.
const (
	colCluster = iota
	colMaxSupply
	colCurrentLevels
	colBefore2018
	colBetween2019To2021
	colAfter2022
)

// Levels is one cluster's row of the live inventory sheet.
type Levels struct {
	MaxSupply         int  `json:"maxSupply"`
	CurrentLevels     int  `json:"currentLevels"`
	Before2018        int  `json:"before2018"`
	Between2019To2021 int  `json:"between2019To2021"`
	After2022         int  `json:"after2022"`
	Exists            bool `json:"exists"`
}

// Cache is a read-through cache over a Source. A fresh stored snapshot is
// served as-is; otherwise a single refresh runs and concurrent callers wait
// for its result. When the refresh fails an expired snapshot is served.
type Cache struct {
	source  Source
	store   SnapshotStore
	group   singleflight.Group
	now     func() time.Time
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewCache creates an inventory cache.
func NewCache(source Source, store SnapshotStore) *Cache {
	return &Cache{
		source:  source,
		store:   store,
		now:     time.Now,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "inventory_cache").Logger(),
	}
}

// WithClock replaces the cache's time source.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Snapshot returns the current rows, refreshing them when expired.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	ttl, err := c.store.TTL(ctx)
	if err != nil {
		return nil, err
	}
	if snap.FreshAt(c.now(), ttl) {
		c.metrics.RecordLookup(true)
		return snap, nil
	}
	c.metrics.RecordLookup(false)
	fresh, err := c.Refresh(ctx)
	if err != nil && snap != nil {
		c.logger.Warn().
			Err(err).
			Time("updated_at", snap.UpdatedAt).
			Msg("Serving stale live inventory")
		return snap, nil
	}
	return fresh, err
}

// Refresh fetches the source and stores a new snapshot. Concurrent calls
// share one fetch.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, shared := c.group.Do("refresh", func() (any, error) {
		start := c.now()
		rows, err := c.source.Rows(ctx)
		c.metrics.RecordRefresh(c.now().Sub(start), err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch live inventory: %w", err)
		}

		snap := &Snapshot{Rows: rows, UpdatedAt: c.now()}
		if err := c.store.Save(ctx, snap); err != nil {
			return nil, err
		}
		c.logger.Info().
			Int("rows", len(rows)).
			Msg("Live inventory refreshed")
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Msg("Joined in-flight inventory refresh")
	}
	return v.(*Snapshot), nil
}

// Lookup returns the levels of a cluster, matched case-insensitively on the
// first column.
func (c *Cache) Lookup(ctx context.Context, cluster string) (Levels, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return Levels{}, err
	}
	return FindLevels(snap.Rows, cluster), nil
}

// FindLevels scans rows for a cluster. Unparseable counts read as 0.
func FindLevels(rows [][]string, cluster string) Levels {
	for _, row := range rows {
		if len(row) == 0 || !strings.EqualFold(strings.TrimSpace(row[colCluster]), strings.TrimSpace(cluster)) {
			continue
		}
		return Levels{
			MaxSupply:         cellInt(row, colMaxSupply),
			CurrentLevels:     cellInt(row, colCurrentLevels),
			Before2018:        cellInt(row, colBefore2018),
			Between2019To2021: cellInt(row, colBetween2019To2021),
			After2022:         cellInt(row, colAfter2022),
			Exists:            true,
		}
	}
	return Levels{}
}

func cellInt(row []string, i int) int {
	if i >= len(row) {
		return 0
	}
	s := strings.ReplaceAll(strings.TrimSpace(row[i]), ",", "")
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
