package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Catalog is the read side of the vehicle catalog the engine prices against.
type Catalog interface {
	VariantLookup

	// FindVariant returns the variant whose "<brand> <model>" equals makeModel
	// exactly and whose variant name equals variant.
	FindVariant(ctx context.Context, makeModel, variant string) (*Variant, error)

	// ListByMakeModel returns every variant of a model, most expensive first.
	ListByMakeModel(ctx context.Context, makeModel string) ([]Variant, error)
}

// TierSource provides the current margin/markup configuration.
// It returns ErrNotFound when no document is stored.
type TierSource interface {
	Tiers(ctx context.Context) ([]Tier, error)
}

// InventoryChecker turns a model's stock levels into a margin multiplier.
type InventoryChecker interface {
	// InflationFor returns the multiplier for a model and registration year,
	// 1 when levels are unknown.
	InflationFor(ctx context.Context, makeModel string, year int) (float64, error)
}

// Engine orchestrates the calculators against the catalog, the tier
// configuration and the inventory checker.
type Engine struct {
	catalog   Catalog
	tiers     TierSource
	inventory InventoryChecker
	config    *Config
	now       func() time.Time
	metrics   *MetricsRecorder
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewEngine creates a pricing engine. inventory may be nil, in which case no
// margin inflation is ever applied.
func NewEngine(catalog Catalog, tiers TierSource, inventory InventoryChecker, config *Config) *Engine {
	if config == nil {
		config = Defaults()
	}
	return &Engine{
		catalog:   catalog,
		tiers:     tiers,
		inventory: inventory,
		config:    config,
		now:       time.Now,
		metrics:   NewMetricsRecorder(),
		tracer:    otel.Tracer("github.com/vutto/pricing-service/internal/pricing"),
		logger:    log.With().Str("component", "pricing_engine").Logger(),
	}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// pricingInput is what the calculators need once the request has been
// resolved against the catalog or the on-road price.
type pricingInput struct {
	category     Category
	newPrice     float64
	sd           SDFactors
	featureDep   float64
	fuel         string
	pace         string
	appreciation float64
	adjustment   *float64
	minDiff      *float64
}

// CalculateUsedPrices runs the full computation for one request: new price,
// used price, supply price, procurement margin and listing markup.
func (e *Engine) CalculateUsedPrices(ctx context.Context, req Request) (result *Result, err error) {
	path := "catalog"
	if req.MakeModel == "" || req.Variant == "" {
		path = "on_road"
	}

	ctx, span := e.tracer.Start(ctx, "pricing.CalculateUsedPrices", trace.WithAttributes(
		attribute.String("pricing.path", path),
		attribute.String("pricing.make_model", req.MakeModel),
		attribute.String("pricing.variant", req.Variant),
	))
	start := time.Now()
	defer func() {
		e.metrics.RecordCalculation(path, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	in, err := e.resolveInput(ctx, req)
	if err != nil {
		return nil, err
	}

	now := e.now()
	base := UsedPrice(in.category, req.Km, req.Year, req.Month, in.newPrice, req.Owner, in.sd, now)
	used := int64(in.featureDep * float64(base))
	supply := SupplyPrice(used, in.adjustment, in.minDiff)

	tiers, err := e.loadTiers(ctx)
	if err != nil {
		return nil, err
	}

	refurb := req.RefurbCost
	if refurb == 0 {
		refurb = req.RefurbCostPercent * float64(base) / 100
	}

	inflation := 1.0
	if !req.SkipInventoryMarginInflation {
		inflation, err = e.inflation(ctx, req.MakeModel, req.Year)
		if err != nil {
			return nil, err
		}
	}

	tiers = ForCategory(tiers, in.category)
	fuel := strings.ToUpper(in.fuel)
	pace := strings.ToUpper(in.pace)

	margin := MarginFor(tiers, float64(supply), refurb, fuel, pace, inflation)
	markup := MarkupFor(tiers, float64(used), fuel, pace, MarkupInput{
		ListingDate: req.ListingDate,
		MarginValue: margin.MarginValue,
		Offset:      in.appreciation * float64(used),
		Now:         now,
	})

	if !margin.IsMarginRangeSet {
		e.metrics.RecordTierMiss("margin")
	}
	if !markup.IsMarkupRangeSet {
		e.metrics.RecordTierMiss("markup")
	}
	e.metrics.RecordMarginMultiplier(inflation)

	span.SetAttributes(
		attribute.Int64("pricing.new_price", int64(in.newPrice)),
		attribute.Int64("pricing.used_price", used),
	)

	return &Result{
		NewPrice:              int64(in.newPrice),
		UsedPrice:             used,
		UserPriceSupply:       supply,
		PostMarginCalculation: margin,
		PostMarkupCalculation: markup,
	}, nil
}

func (e *Engine) resolveInput(ctx context.Context, req Request) (pricingInput, error) {
	in := pricingInput{featureDep: 1}

	switch {
	case req.MakeModel != "" && req.Variant != "":
		v, err := e.catalog.FindVariant(ctx, req.MakeModel, req.Variant)
		if err != nil {
			return in, err
		}
		vehicleType := v.VehicleType
		if vehicleType == "" {
			vehicleType = req.Type
		}
		in.category = ParseCategory(vehicleType)

		price, err := ResolveNewPrice(ctx, e.catalog, v)
		if err != nil {
			return in, fmt.Errorf("failed to resolve new price: %w", err)
		}
		in.newPrice = math.Trunc(price)

		in.sd, err = ResolveSDFactors(ctx, e.catalog, v)
		if err != nil {
			return in, fmt.Errorf("failed to resolve supply/demand factors: %w", err)
		}

		if req.CustomFeature != nil {
			in.featureDep = FeatureFactor(KeyFeatures(v), req.CustomFeature)
		}
		in.fuel = v.Fuel
		in.pace = v.Pace
		in.appreciation = valueOr(v.MarkupAppreciationFactor, 0)
		in.adjustment = v.ProcVSPAdjustmentFactor
		in.minDiff = v.MinProcVSPDifference

	case req.OnRoadPrice > 0:
		in.category = ParseCategory(req.Type)
		in.newPrice = math.Trunc(req.OnRoadPrice)

	default:
		return in, ErrInvalidInput{
			Field:  "makeModel",
			Reason: "Either new bike price or the bike make and model are required",
		}
	}
	return in, nil
}

// loadTiers reads the margin configuration. A missing document prices
// every request as out of range.
func (e *Engine) loadTiers(ctx context.Context) ([]Tier, error) {
	tiers, err := e.tiers.Tiers(ctx)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			e.logger.Warn().Msg("Margin configuration not found, pricing without tiers")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load margin configuration: %w", err)
	}
	return tiers, nil
}

func (e *Engine) inflation(ctx context.Context, makeModel string, year int) (float64, error) {
	if e.inventory == nil || makeModel == "" {
		return 1, nil
	}
	inflation, err := e.inventory.InflationFor(ctx, makeModel, year)
	if err != nil {
		return 0, fmt.Errorf("failed to check model inventory: %w", err)
	}
	return inflation, nil
}
