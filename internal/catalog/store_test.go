package catalog

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/internal/database/dbtest"
	"github.com/vutto/pricing-service/internal/parsers/table"
	"github.com/vutto/pricing-service/internal/pricing"
)

func seedCatalog(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx, `
		INSERT INTO bike_feature_cluster (id, cluster_name, max_inventory) VALUES (1, 'Scooter 110', 6);

		INSERT INTO bike_features (id, brand_name, model_name, variant_name, price, price_reduction,
			pace, fuel, vehicle_type, features, bike_feature_cluster_id, min_allowed_year,
			supply_demand_factor_first, supply_demand_factor_first_consecutive, supply_demand_factor_consecutive)
		VALUES
			(1, 'Honda', 'Activa 6G', 'H-Smart', 90000, 2000, 'FAST', 'PETROL', 'scooter',
			 '{"safety": {"abs": "no"}}', 1, 2016, 0.165, -0.01, -0.01),
			(3, 'Honda', 'Activa 6G', 'Limited', 95000, 0, 'EXTREMELY SLOW', 'PETROL', 'scooter',
			 NULL, 1, NULL, NULL, NULL, NULL),
			(4, 'TVS', 'Ntorq 125', 'Drum', 86000, 0, 'FAST', 'PETROL', 'scooter',
			 NULL, NULL, NULL, NULL, NULL, NULL);

		INSERT INTO bike_features (id, brand_name, model_name, variant_name, linked_variant_id,
			linked_variant_price_diff, pace, fuel, vehicle_type, is_active)
		VALUES (2, 'Honda', 'Activa 6G', 'Standard', 1, 6000, 'FAST', 'PETROL', 'scooter', false);

		INSERT INTO bikes (brand_name, model_name, variant_name, registration_year, status) VALUES
			('Honda', 'Activa 6G', 'H-Smart', 2021, 'listed'),
			('Honda', 'Activa 6G', 'Standard', 2020, 'sold'),
			('Honda', 'Activa 6G', 'Standard', 2019, 'procured');

		SELECT setval('bike_feature_cluster_id_seq', 100);
		SELECT setval('bike_features_id_seq', 100);
	`)
	require.NoError(t, err)
}

func TestStore_Integration(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	seedCatalog(t, ctx, pool)

	store := NewStore(pool)

	t.Run("FindVariant", func(t *testing.T) {
		v, err := store.FindVariant(ctx, "Honda Activa 6G", "H-Smart")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.ID)
		assert.Equal(t, 90000.0, v.Price)
		assert.Equal(t, 2000.0, v.PriceReduction)
		require.NotNil(t, v.SDFirst)
		assert.Equal(t, 0.165, *v.SDFirst)
		assert.Equal(t, "no", v.Features["safety"].(map[string]any)["abs"])
		require.NotNil(t, v.MinAllowedYear)
		assert.Equal(t, 2016, *v.MinAllowedYear)

		_, err = store.FindVariant(ctx, "Honda Activa", "H-Smart")
		var nf pricing.ErrNotFound
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("linked variant resolves through the store", func(t *testing.T) {
		v, err := store.VariantByID(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, v.LinkedVariantID)

		price, err := pricing.ResolveNewPrice(ctx, store, v)
		require.NoError(t, err)
		assert.Equal(t, 82000.0, price)
	})

	t.Run("ListByMakeModel orders by price", func(t *testing.T) {
		vs, err := store.ListByMakeModel(ctx, "Honda Activa 6G")
		require.NoError(t, err)
		require.Len(t, vs, 3)
		assert.Equal(t, "Limited", vs[0].Name)
	})

	t.Run("search and lookups", func(t *testing.T) {
		vs, err := store.SearchByMakeModel(ctx, "honda activa 6g")
		require.NoError(t, err)
		assert.Len(t, vs, 3)

		top, err := store.TopVariant(ctx, "Honda Activa 6G")
		require.NoError(t, err)
		assert.Equal(t, int64(3), top.ID)

		paces, err := store.Paces(ctx, "Honda Activa 6G")
		require.NoError(t, err)
		assert.Equal(t, []string{"EXTREMELY SLOW", "FAST"}, paces)

		brands, err := store.Brands(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Honda", "TVS"}, brands)

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 3)

		v, err := store.LikeVariant(ctx, "Activa", "Limited")
		require.NoError(t, err)
		assert.Equal(t, int64(3), v.ID)

		n, err := store.CountActiveBikes(ctx, "honda activa 6g")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		c, err := store.Cluster(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Scooter 110", c.Name)
		assert.Equal(t, 6, c.MaxInventory)
	})

	t.Run("cluster file round trip", func(t *testing.T) {
		res, err := store.ApplyClusterInfo(ctx, []ClusterUpdate{
			{Brand: "TVS", Model: "Ntorq 125", Variant: "Drum", Cluster: "Scooter 125", YearMax: 2025, SDFirst: 0.2325},
			{Brand: "Honda", Model: "Activa 6G", Variant: "H-Smart", Cluster: "Scooter 110"},
			{Brand: "Hero", Model: "Splendor", Variant: "Plus"},
		})
		require.NoError(t, err)
		assert.Equal(t, ApplyResult{Updated: 2, Skipped: 1, ClustersCreated: 1}, res)

		ntorq, err := store.VariantByID(ctx, 4)
		require.NoError(t, err)
		require.NotNil(t, ntorq.ClusterID)
		assert.Equal(t, 2025, *ntorq.MaxAllowedYear)
		assert.Equal(t, 0.2325, *ntorq.SDFirst)

		activa, err := store.VariantByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2016, *activa.MinAllowedYear, "blank cells keep the current value")
		assert.Equal(t, 0.165, *activa.SDFirst)

		tbl, err := store.ClusterInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, ClusterExportColumns, tbl.Header)
		recs := tbl.Records()
		require.Len(t, recs, 4)
		assert.Equal(t, "Scooter 110", recs[0][ColCluster])
		assert.Equal(t, "", recs[1][ColCluster])
		assert.Equal(t, "Scooter 125", recs[3][ColCluster])

		data, err := table.WriteCSV(tbl)
		require.NoError(t, err)
		parsed, err := table.ReadCSV(data)
		require.NoError(t, err)
		updates := ClusterUpdatesFromTable(parsed)
		require.Len(t, updates, 4)
		assert.Equal(t, 2025, updates[3].YearMax)
	})
}
