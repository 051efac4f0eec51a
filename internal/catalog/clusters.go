package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vutto/pricing-service/internal/parsers/table"
)

// Cluster file columns.
const (
	ColID            = "ID"
	ColBrand         = "Brand name"
	ColModel         = "Model name"
	ColVariant       = "Variant name"
	ColFuel          = "Fuel"
	ColPace          = "Pace"
	ColPrice         = "Price"
	ColPriceRed      = "Price reduction"
	ColSDConsecutive = "Supply demand factor consecutive"
	ColSDFirst       = "Supply demand factor first"
	ColVehicleType   = "Vehicle type"
	ColYearMax       = "Year Max"
	ColYearMin       = "Year Min"
	ColCluster       = "Cluster"
)

// ClusterExportColumns is the column order of the cluster file.
var ClusterExportColumns = []string{
	ColID, ColBrand, ColModel, ColVariant, ColFuel, ColPace, ColPrice, ColPriceRed,
	ColSDConsecutive, ColSDFirst, ColVehicleType, ColYearMax, ColYearMin, ColCluster,
}

// ClusterUpdate is one row of an uploaded cluster file. Zero values keep the
// variant's current setting.
type ClusterUpdate struct {
	Brand         string
	Model         string
	Variant       string
	Cluster       string
	YearMax       int
	YearMin       int
	Pace          string
	SDConsecutive float64
	SDFirst       float64
}

// ClusterUpdatesFromTable reads an uploaded cluster file. Numeric cells that
// do not parse are treated as blank.
func ClusterUpdatesFromTable(t *table.Table) []ClusterUpdate {
	recs := t.Records()
	out := make([]ClusterUpdate, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ClusterUpdate{
			Brand:         rec[ColBrand],
			Model:         rec[ColModel],
			Variant:       rec[ColVariant],
			Cluster:       rec[ColCluster],
			YearMax:       parseIntCell(rec[ColYearMax]),
			YearMin:       parseIntCell(rec[ColYearMin]),
			Pace:          rec[ColPace],
			SDConsecutive: parseFloatCell(rec[ColSDConsecutive]),
			SDFirst:       parseFloatCell(rec[ColSDFirst]),
		})
	}
	return out
}

// ApplyResult summarizes a cluster file import.
type ApplyResult struct {
	Updated         int `json:"updated"`
	Skipped         int `json:"skipped"`
	ClustersCreated int `json:"clustersCreated"`
}

// ApplyClusterInfo updates every variant named in rows, creating missing
// clusters with a zero inventory target. Rows naming an unknown variant are
// skipped. The whole file is applied in one transaction.
func (s *Store) ApplyClusterInfo(ctx context.Context, rows []ClusterUpdate) (ApplyResult, error) {
	var res ApplyResult

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	clusterIDs := make(map[string]int64)
	for _, row := range rows {
		var variantID int64
		err := tx.QueryRow(ctx, `
			SELECT id FROM bike_features
			WHERE brand_name = $1 AND model_name = $2 AND variant_name = $3
			ORDER BY id
			LIMIT 1
		`, row.Brand, row.Model, row.Variant).Scan(&variantID)
		if errors.Is(err, pgx.ErrNoRows) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to look up %s %s %s: %w", row.Brand, row.Model, row.Variant, err)
		}

		var clusterID *int64
		if row.Cluster != "" {
			id, ok := clusterIDs[row.Cluster]
			if !ok {
				var created bool
				id, created, err = findOrCreateCluster(ctx, tx, row.Cluster)
				if err != nil {
					return res, err
				}
				if created {
					res.ClustersCreated++
				}
				clusterIDs[row.Cluster] = id
			}
			clusterID = &id
		}

		_, err = tx.Exec(ctx, `
			UPDATE bike_features SET
				max_allowed_year = COALESCE(NULLIF($2, 0), max_allowed_year),
				min_allowed_year = COALESCE(NULLIF($3, 0), min_allowed_year),
				pace = COALESCE(NULLIF($4, ''), pace),
				supply_demand_factor_consecutive = COALESCE(NULLIF($5, 0::float8), supply_demand_factor_consecutive),
				supply_demand_factor_first = COALESCE(NULLIF($6, 0::float8), supply_demand_factor_first),
				bike_feature_cluster_id = COALESCE($7, bike_feature_cluster_id),
				updated_at = now()
			WHERE id = $1
		`, variantID, row.YearMax, row.YearMin, row.Pace, row.SDConsecutive, row.SDFirst, clusterID)
		if err != nil {
			return res, fmt.Errorf("failed to update variant %d: %w", variantID, err)
		}
		res.Updated++
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("failed to commit cluster import: %w", err)
	}

	s.logger.Info().
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("clusters_created", res.ClustersCreated).
		Msg("Applied cluster file")
	return res, nil
}

func findOrCreateCluster(ctx context.Context, tx pgx.Tx, name string) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO bike_feature_cluster (cluster_name, max_inventory)
		VALUES ($1, 0)
		ON CONFLICT (cluster_name) DO NOTHING
		RETURNING id
	`, name).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to create cluster %q: %w", name, err)
	}

	err = tx.QueryRow(ctx, `SELECT id FROM bike_feature_cluster WHERE cluster_name = $1`, name).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to find cluster %q: %w", name, err)
	}
	return id, false, nil
}

// ClusterInfo returns the cluster file for every variant.
func (s *Store) ClusterInfo(ctx context.Context) (*table.Table, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.brand_name, f.model_name, f.variant_name, f.fuel, f.pace,
		       f.price, f.price_reduction, f.supply_demand_factor_consecutive,
		       f.supply_demand_factor_first, f.vehicle_type, f.max_allowed_year,
		       f.min_allowed_year, c.cluster_name
		FROM bike_features f
		LEFT JOIN bike_feature_cluster c ON f.bike_feature_cluster_id = c.id
		ORDER BY f.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster info: %w", err)
	}
	defer rows.Close()

	t := &table.Table{Header: ClusterExportColumns}
	for rows.Next() {
		var (
			id                    int64
			brand, model, variant string
			fuel, pace, vtype     string
			price, reduction      float64
			sdCons, sdFirst       *float64
			yearMax, yearMin      *int
			cluster               *string
		)
		if err := rows.Scan(&id, &brand, &model, &variant, &fuel, &pace, &price, &reduction,
			&sdCons, &sdFirst, &vtype, &yearMax, &yearMin, &cluster); err != nil {
			return nil, fmt.Errorf("failed to scan cluster info: %w", err)
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(id, 10), brand, model, variant, fuel, pace,
			formatFloat(&price), formatFloat(&reduction), formatFloat(sdCons), formatFloat(sdFirst),
			vtype, formatInt(yearMax), formatInt(yearMin), derefString(cluster),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cluster info: %w", err)
	}
	return t, nil
}

func parseIntCell(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// "2019.0" from spreadsheet exports
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloatCell(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
