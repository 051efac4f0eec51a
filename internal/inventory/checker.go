package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/pricing"
)

// Year window used when a variant has none configured.
const (
	DefaultMaxAllowedYear = 2024
	DefaultMinAllowedYear = 2015
)

// Catalog is the part of the catalog store the checker reads.
type Catalog interface {
	// TopVariant returns the most expensive variant matching a LIKE pattern.
	TopVariant(ctx context.Context, pattern string) (*pricing.Variant, error)
	Cluster(ctx context.Context, id int64) (*database.Cluster, error)
	CountActiveBikes(ctx context.Context, pattern string) (int, error)
}

// Lookuper resolves a cluster's live levels.
type Lookuper interface {
	Lookup(ctx context.Context, cluster string) (Levels, error)
}

// Checker turns live cluster levels into procurement warnings. It satisfies
// pricing.InventoryChecker.
type Checker struct {
	catalog Catalog
	levels  Lookuper
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewChecker creates an inventory checker.
func NewChecker(catalog Catalog, levels Lookuper) *Checker {
	return &Checker{
		catalog: catalog,
		levels:  levels,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "inventory_checker").Logger(),
	}
}

// ModelWarnings checks the cluster of the model's most expensive variant
// against its live stock. Levels are reported only when the cluster has a
// row in the live sheet.
func (c *Checker) ModelWarnings(ctx context.Context, makeModel string) (*pricing.ModelInventory, error) {
	res := &pricing.ModelInventory{Warnings: []string{}}

	bike, err := c.topVariant(ctx, makeModel)
	if err != nil {
		return nil, err
	}
	if bike == nil || bike.ClusterID == nil {
		res.Warnings = append(res.Warnings, "Bike cluster is not defined.")
		c.metrics.RecordWarnings("model", len(res.Warnings))
		return res, nil
	}

	cluster, err := c.cluster(ctx, *bike.ClusterID)
	if err != nil {
		return nil, err
	}
	if cluster == nil {
		res.Warnings = append(res.Warnings, "Cluster data missing.")
		c.metrics.RecordWarnings("model", len(res.Warnings))
		return res, nil
	}

	levels, err := c.levels.Lookup(ctx, cluster.Name)
	if err != nil {
		return nil, err
	}
	if !levels.Exists {
		res.Warnings = append(res.Warnings, "Cluster inventory data not found")
		c.metrics.RecordWarnings("model", len(res.Warnings))
		return res, nil
	}

	current, maxSupply := levels.CurrentLevels, levels.MaxSupply
	res.CurrentInventoryLevels = &current
	res.ModelInventoryMaxLevels = &maxSupply
	res.YearInventoryLevels = &pricing.YearInventoryLevels{
		Before2018:        levels.Before2018,
		Between2018To2022: levels.Between2019To2021,
		After2022:         levels.After2022,
	}
	if current >= maxSupply {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Current Inventory levels are %d against the limit set for %d. Avoid procuring this vehicle.",
			current, maxSupply))
	}
	c.metrics.RecordWarnings("model", len(res.Warnings))
	return res, nil
}

// YearWarnings checks a registration year against the model's allowed
// window and the matching year bracket of its cluster.
func (c *Checker) YearWarnings(ctx context.Context, makeModel string, year int) ([]string, error) {
	bike, err := c.topVariant(ctx, makeModel)
	if err != nil {
		return nil, err
	}
	if bike == nil {
		return []string{"Error fetching year limits"}, nil
	}

	warnings := []string{}
	maxYear, minYear := DefaultMaxAllowedYear, DefaultMinAllowedYear
	if bike.MaxAllowedYear != nil && *bike.MaxAllowedYear != 0 {
		maxYear = *bike.MaxAllowedYear
	}
	if bike.MinAllowedYear != nil && *bike.MinAllowedYear != 0 {
		minYear = *bike.MinAllowedYear
	}
	if maxYear <= year || year <= minYear {
		warnings = append(warnings, "Vehicle breaches year criteria.")
	}

	if bike.ClusterID == nil {
		warnings = append(warnings, "Bike cluster not found")
		c.metrics.RecordWarnings("year", len(warnings))
		return warnings, nil
	}

	cluster, err := c.cluster(ctx, *bike.ClusterID)
	if err != nil {
		return nil, err
	}
	var levels Levels
	if cluster != nil {
		if levels, err = c.levels.Lookup(ctx, cluster.Name); err != nil {
			return nil, err
		}
	}
	if !levels.Exists {
		warnings = append(warnings, "Cluster data missing.")
		c.metrics.RecordWarnings("year", len(warnings))
		return warnings, nil
	}

	if levels.MaxSupply < 3 {
		if levels.CurrentLevels >= levels.MaxSupply {
			warnings = append(warnings, fmt.Sprintf(
				"For %s we have %d vehicles against the overall target of %d. Buy new vehicles as per calculator suggested purchase price only.",
				cluster.Name, levels.CurrentLevels, levels.MaxSupply))
		}
	} else {
		bracket, current := bracketLevel(levels, year)
		limit := pricing.BracketTarget(levels.MaxSupply, bracket)
		if current >= limit {
			warnings = append(warnings, fmt.Sprintf(
				"For %s we have %d vehicles against the target of %d. Buy new vehicles as per calculator suggested purchase price only.",
				bracket, current, limit))
		}
	}
	c.metrics.RecordWarnings("year", len(warnings))
	return warnings, nil
}

// InflationFor returns the margin multiplier for a model and registration
// year. Unknown levels give 1.
func (c *Checker) InflationFor(ctx context.Context, makeModel string, year int) (float64, error) {
	inv, err := c.ModelWarnings(ctx, makeModel)
	if err != nil {
		return 0, err
	}
	return pricing.MarginInflation(inv, year), nil
}

// ActiveModelInventory counts stocked vehicles of a model that are neither
// sold nor delisted. makeModel is an ILIKE pattern.
func (c *Checker) ActiveModelInventory(ctx context.Context, makeModel string) (int, error) {
	return c.catalog.CountActiveBikes(ctx, makeModel)
}

func (c *Checker) topVariant(ctx context.Context, makeModel string) (*pricing.Variant, error) {
	bike, err := c.catalog.TopVariant(ctx, makeModel)
	var nf pricing.ErrNotFound
	if errors.As(err, &nf) {
		return nil, nil
	}
	return bike, err
}

func (c *Checker) cluster(ctx context.Context, id int64) (*database.Cluster, error) {
	cluster, err := c.catalog.Cluster(ctx, id)
	var nf pricing.ErrNotFound
	if errors.As(err, &nf) {
		c.logger.Warn().Int64("cluster_id", id).Msg("Variant references a missing cluster")
		return nil, nil
	}
	return cluster, err
}

func bracketLevel(l Levels, year int) (pricing.YearBracket, int) {
	switch {
	case year <= 2018:
		return pricing.BracketBefore2018, l.Before2018
	case year >= 2022:
		return pricing.BracketAfter2022, l.After2022
	default:
		return pricing.BracketBetween, l.Between2019To2021
	}
}
