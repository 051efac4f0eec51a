package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/pricing"
)

const variantColumns = `
	id, brand_name, model_name, variant_name, price, price_reduction,
	linked_variant_id, linked_variant_price_diff, pace, fuel, vehicle_type,
	features, specifications, bike_feature_cluster_id, min_allowed_year,
	max_allowed_year, is_active, supply_demand_factor_first,
	supply_demand_factor_first_consecutive, supply_demand_factor_consecutive,
	supply_demand_factor_later, markup_appreciation_factor,
	proc_vsp_adjustment_factor, min_proc_vsp_difference`

var errBikeNotFound = pricing.ErrNotFound{Message: "Bike not found"}

// Store reads and updates the vehicle catalog (bike_features) and its
// clusters. It satisfies pricing.Catalog.
type Store struct {
	db     database.DBTX
	logger zerolog.Logger
}

// NewStore creates a catalog store over a pool or transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{
		db:     db,
		logger: log.With().Str("component", "catalog_store").Logger(),
	}
}

// FindVariant returns the variant whose "<brand> <model>" equals makeModel
// and whose variant name equals variant.
func (s *Store) FindVariant(ctx context.Context, makeModel, variant string) (*pricing.Variant, error) {
	query := `SELECT ` + variantColumns + `
		FROM bike_features
		WHERE CONCAT(brand_name, ' ', model_name) = $1 AND variant_name = $2
		ORDER BY id
		LIMIT 1`
	return s.queryOne(ctx, query, makeModel, variant)
}

// VariantByID implements pricing.VariantLookup.
func (s *Store) VariantByID(ctx context.Context, id int64) (*pricing.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM bike_features WHERE id = $1`
	return s.queryOne(ctx, query, id)
}

// LikeVariant matches makeModel as a substring. Used by the feature lookup,
// which receives free-text model names.
func (s *Store) LikeVariant(ctx context.Context, makeModel, variant string) (*pricing.Variant, error) {
	query := `SELECT ` + variantColumns + `
		FROM bike_features
		WHERE CONCAT(brand_name, ' ', model_name) LIKE '%' || $1 || '%' AND variant_name = $2
		ORDER BY id
		LIMIT 1`
	return s.queryOne(ctx, query, makeModel, variant)
}

// ListByMakeModel returns every variant of a model, most expensive first.
func (s *Store) ListByMakeModel(ctx context.Context, makeModel string) ([]pricing.Variant, error) {
	query := `SELECT ` + variantColumns + `
		FROM bike_features
		WHERE CONCAT(brand_name, ' ', model_name) = $1
		ORDER BY price DESC, id`
	return s.queryMany(ctx, query, makeModel)
}

// SearchByMakeModel matches a case-insensitive pattern. The caller may pass
// SQL wildcards.
func (s *Store) SearchByMakeModel(ctx context.Context, pattern string) ([]pricing.Variant, error) {
	query := `SELECT ` + variantColumns + `
		FROM bike_features
		WHERE CONCAT(brand_name, ' ', model_name) ILIKE $1
		ORDER BY id`
	return s.queryMany(ctx, query, pattern)
}

// TopVariant returns the most expensive variant matching pattern.
func (s *Store) TopVariant(ctx context.Context, pattern string) (*pricing.Variant, error) {
	query := `SELECT ` + variantColumns + `
		FROM bike_features
		WHERE CONCAT(brand_name, ' ', model_name) LIKE $1
		ORDER BY price DESC, id
		LIMIT 1`
	return s.queryOne(ctx, query, pattern)
}

// Paces returns the distinct paces of a model in price-descending order of
// first appearance.
func (s *Store) Paces(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT pace
		FROM bike_features
		WHERE CONCAT(brand_name, ' ', model_name) LIKE $1
		ORDER BY price DESC, id
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query paces: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	paces := []string{}
	for rows.Next() {
		var pace string
		if err := rows.Scan(&pace); err != nil {
			return nil, fmt.Errorf("failed to scan pace: %w", err)
		}
		if _, ok := seen[pace]; ok {
			continue
		}
		seen[pace] = struct{}{}
		paces = append(paces, pace)
	}
	return paces, rows.Err()
}

// Brands returns the distinct brand names in ascending order.
func (s *Store) Brands(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT brand_name FROM bike_features ORDER BY brand_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	brands, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan brands: %w", err)
	}
	return brands, nil
}

// ListActive returns every active variant.
func (s *Store) ListActive(ctx context.Context) ([]pricing.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM bike_features WHERE is_active ORDER BY id`
	return s.queryMany(ctx, query)
}

// ListAll returns the full catalog, used to resolve linked chains in memory.
func (s *Store) ListAll(ctx context.Context) ([]pricing.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM bike_features ORDER BY id`
	return s.queryMany(ctx, query)
}

// Cluster returns a cluster by id.
func (s *Store) Cluster(ctx context.Context, id int64) (*database.Cluster, error) {
	var c database.Cluster
	err := s.db.QueryRow(ctx, `
		SELECT id, cluster_name, max_inventory, created_at, updated_at
		FROM bike_feature_cluster
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.MaxInventory, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pricing.ErrNotFound{Message: "Cluster not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster %d: %w", id, err)
	}
	return &c, nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*pricing.Variant, error) {
	variants, err := s.queryMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, errBikeNotFound
	}
	return &variants[0], nil
}

func (s *Store) queryMany(ctx context.Context, query string, args ...any) ([]pricing.Variant, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	variants := []pricing.Variant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}
	return variants, nil
}

func scanVariant(row pgx.Row) (pricing.Variant, error) {
	var (
		v              pricing.Variant
		features, spec []byte
	)
	err := row.Scan(
		&v.ID, &v.Brand, &v.Model, &v.Name, &v.Price, &v.PriceReduction,
		&v.LinkedVariantID, &v.LinkedPriceDiff, &v.Pace, &v.Fuel, &v.VehicleType,
		&features, &spec, &v.ClusterID, &v.MinAllowedYear,
		&v.MaxAllowedYear, &v.IsActive, &v.SDFirst,
		&v.SDFirstConsecutive, &v.SDConsecutive,
		&v.SDLater, &v.MarkupAppreciationFactor,
		&v.ProcVSPAdjustmentFactor, &v.MinProcVSPDifference,
	)
	if err != nil {
		return v, fmt.Errorf("failed to scan variant: %w", err)
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &v.Features); err != nil {
			return v, fmt.Errorf("variant %d: invalid features: %w", v.ID, err)
		}
	}
	if len(spec) > 0 {
		if err := json.Unmarshal(spec, &v.Specifications); err != nil {
			return v, fmt.Errorf("variant %d: invalid specifications: %w", v.ID, err)
		}
	}
	return v, nil
}

// CountActiveBikes counts stocked vehicles of a model that are neither sold
// nor delisted.
func (s *Store) CountActiveBikes(ctx context.Context, pattern string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bikes
		WHERE CONCAT(brand_name, ' ', model_name) ILIKE $1
		  AND status NOT IN ('sold', 'delisted')
	`, pattern).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bikes: %w", err)
	}
	return n, nil
}
