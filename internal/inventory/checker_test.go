package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/pricing"
)

type fakeCatalog struct {
	variants map[string]*pricing.Variant
	clusters map[int64]*database.Cluster
	active   int
}

func (f *fakeCatalog) TopVariant(_ context.Context, pattern string) (*pricing.Variant, error) {
	if v, ok := f.variants[pattern]; ok {
		return v, nil
	}
	return nil, pricing.ErrNotFound{Message: "Bike not found"}
}

func (f *fakeCatalog) Cluster(_ context.Context, id int64) (*database.Cluster, error) {
	if c, ok := f.clusters[id]; ok {
		return c, nil
	}
	return nil, pricing.ErrNotFound{Message: "Cluster not found"}
}

func (f *fakeCatalog) CountActiveBikes(context.Context, string) (int, error) {
	return f.active, nil
}

func ptr[T any](v T) *T { return &v }

func newTestChecker() *Checker {
	catalog := &fakeCatalog{
		variants: map[string]*pricing.Variant{
			"Honda Activa 6G":   {ID: 1, ClusterID: ptr(int64(1)), MinAllowedYear: ptr(2016)},
			"Hero Splendor":     {ID: 2, ClusterID: ptr(int64(2))},
			"Bajaj Pulsar 150":  {ID: 3, ClusterID: ptr(int64(3)), MaxAllowedYear: ptr(2026)},
			"Royal Enfield Hun": {ID: 4, ClusterID: ptr(int64(9))},
			"TVS XL100":         {ID: 5},
		},
		clusters: map[int64]*database.Cluster{
			1: {ID: 1, Name: "Scooter 110"},
			2: {ID: 2, Name: "Commuter 125"},
			3: {ID: 3, Name: "Cruiser 350"},
		},
		active: 4,
	}
	cache := NewCache(StaticSource(liveRows), NewMemorySnapshotStore(0))
	return NewChecker(catalog, cache)
}

func TestChecker_ModelWarnings(t *testing.T) {
	ctx := context.Background()
	c := newTestChecker()

	t.Run("within limits", func(t *testing.T) {
		inv, err := c.ModelWarnings(ctx, "Honda Activa 6G")
		require.NoError(t, err)
		assert.Empty(t, inv.Warnings)
		assert.Equal(t, 7, *inv.CurrentInventoryLevels)
		assert.Equal(t, 9, *inv.ModelInventoryMaxLevels)
		assert.Equal(t, &pricing.YearInventoryLevels{Before2018: 4, Between2018To2022: 2, After2022: 1}, inv.YearInventoryLevels)
	})

	t.Run("at the limit", func(t *testing.T) {
		inv, err := c.ModelWarnings(ctx, "Hero Splendor")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Current Inventory levels are 2 against the limit set for 2. Avoid procuring this vehicle.",
		}, inv.Warnings)
	})

	t.Run("missing data", func(t *testing.T) {
		inv, err := c.ModelWarnings(ctx, "Bajaj Pulsar 150")
		require.NoError(t, err)
		assert.Equal(t, []string{"Cluster inventory data not found"}, inv.Warnings)
		assert.Nil(t, inv.CurrentInventoryLevels)

		inv, err = c.ModelWarnings(ctx, "Royal Enfield Hun")
		require.NoError(t, err)
		assert.Equal(t, []string{"Cluster data missing."}, inv.Warnings)

		inv, err = c.ModelWarnings(ctx, "TVS XL100")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bike cluster is not defined."}, inv.Warnings)

		inv, err = c.ModelWarnings(ctx, "Unknown Bike")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bike cluster is not defined."}, inv.Warnings)
	})
}

func TestChecker_YearWarnings(t *testing.T) {
	ctx := context.Background()
	c := newTestChecker()

	tests := []struct {
		name      string
		makeModel string
		year      int
		want      []string
	}{
		{
			name:      "bracket below target",
			makeModel: "Honda Activa 6G",
			year:      2020,
			want:      []string{},
		},
		{
			name:      "older bracket at target",
			makeModel: "Honda Activa 6G",
			year:      2018,
			want: []string{
				"For before 2018 we have 4 vehicles against the target of 3. Buy new vehicles as per calculator suggested purchase price only.",
			},
		},
		{
			name:      "outside the year window",
			makeModel: "Honda Activa 6G",
			year:      2016,
			want: []string{
				"Vehicle breaches year criteria.",
				"For before 2018 we have 4 vehicles against the target of 3. Buy new vehicles as per calculator suggested purchase price only.",
			},
		},
		{
			name:      "default max year",
			makeModel: "Honda Activa 6G",
			year:      2024,
			want: []string{
				"Vehicle breaches year criteria.",
			},
		},
		{
			name:      "small cluster uses the overall target",
			makeModel: "Hero Splendor",
			year:      2021,
			want: []string{
				"For Commuter 125 we have 2 vehicles against the overall target of 2. Buy new vehicles as per calculator suggested purchase price only.",
			},
		},
		{
			name:      "cluster without live row",
			makeModel: "Bajaj Pulsar 150",
			year:      2025,
			want:      []string{"Cluster data missing."},
		},
		{
			name:      "no cluster",
			makeModel: "TVS XL100",
			year:      2020,
			want:      []string{"Bike cluster not found"},
		},
		{
			name:      "unknown model",
			makeModel: "Unknown Bike",
			year:      2020,
			want:      []string{"Error fetching year limits"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.YearWarnings(ctx, tt.makeModel, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecker_InflationFor(t *testing.T) {
	ctx := context.Background()
	c := newTestChecker()

	// Scooter 110: target 9, thirds of 3; before 2018 holds 4.
	got, err := c.InflationFor(ctx, "Honda Activa 6G", 2017)
	require.NoError(t, err)
	assert.Equal(t, 1.25, got)

	got, err = c.InflationFor(ctx, "Honda Activa 6G", 2023)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// Commuter 125: target 2 with 2 in stock.
	got, err = c.InflationFor(ctx, "Hero Splendor", 2020)
	require.NoError(t, err)
	assert.Equal(t, 1.25, got)

	got, err = c.InflationFor(ctx, "TVS XL100", 2020)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	n, err := c.ActiveModelInventory(ctx, "honda activa 6g")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

var _ pricing.InventoryChecker = (*Checker)(nil)
