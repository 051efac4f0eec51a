package pricing

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
)

// QuoteRequest is the caller-facing pricing request. Without a variant it
// produces a model-level procurement range.
type QuoteRequest struct {
	Request
	AugmentRange bool `json:"augmentRange"`
}

// Quote is the flattened single-variant breakdown.
type Quote struct {
	UsedPrice           int64   `json:"usedPrice"`
	UserPriceSupply     int64   `json:"userPriceSupply"`
	NewPrice            int64   `json:"newPrice"`
	PercentDepreciation float64 `json:"percent_depreciation"`
	MarginResult
	MarkupResult
}

// ProcurementRange is the procurement-only view of a quote.
type ProcurementRange struct {
	IsMarginRangeSet         bool  `json:"isMarginRangeSet"`
	ProcurementPrice         int64 `json:"procurementPrice"`
	ProcurementPriceMaxRange int64 `json:"procurementPriceMaxRange"`
	ProcurementPriceMinRange int64 `json:"procurementPriceMinRange"`
}

// QuoteResult holds exactly one of a variant quote or a model range.
type QuoteResult struct {
	Variant *Quote
	Model   *ProcurementRange
}

// Range returns the procurement fields of the result.
func (r *QuoteResult) Range() ProcurementRange {
	if r.Model != nil {
		return *r.Model
	}
	return ProcurementRange{
		IsMarginRangeSet:         r.Variant.IsMarginRangeSet,
		ProcurementPrice:         r.Variant.ProcurementPrice,
		ProcurementPriceMaxRange: r.Variant.ProcurementPriceMaxRange,
		ProcurementPriceMinRange: r.Variant.ProcurementPriceMinRange,
	}
}

// Payload returns the response body value. With augment only the
// procurement fields are kept.
func (r *QuoteResult) Payload(augment bool) any {
	if augment || r.Variant == nil {
		return r.Range()
	}
	return r.Variant
}

// Validate checks the request bounds and applies defaults.
func (q *QuoteRequest) Validate(cfg *Config) error {
	if q.Km > cfg.MaxKm {
		return ErrInvalidInput{Field: "km", Reason: "Km range doesnt fit vutto criteria"}
	}
	if q.Year < cfg.MinYear {
		return ErrInvalidInput{Field: "year", Reason: fmt.Sprintf("Year can not be less than %d", cfg.MinYear)}
	}
	if q.Month == 0 {
		q.Month = cfg.DefaultMonth
	}
	return nil
}

// Quote validates the request and prices either one variant or every
// variant of a model.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if err := req.Validate(e.config); err != nil {
		return nil, err
	}

	if req.Variant == "" {
		rng, err := e.modelRange(ctx, req.Request)
		if err != nil {
			return nil, err
		}
		return &QuoteResult{Model: rng}, nil
	}

	res, err := e.CalculateUsedPrices(ctx, req.Request)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{Variant: &Quote{
		UsedPrice:           res.UsedPrice,
		UserPriceSupply:     res.UserPriceSupply,
		NewPrice:            res.NewPrice,
		PercentDepreciation: PercentDepreciation(res.NewPrice, res.UsedPrice),
		MarginResult:        res.PostMarginCalculation,
		MarkupResult:        res.PostMarkupCalculation,
	}}, nil
}

// PercentDepreciation is the drop from new to used price as a percentage
// truncated to two decimals. It is 0 for a zero new price.
func PercentDepreciation(newPrice, usedPrice int64) float64 {
	if newPrice == 0 {
		return 0
	}
	return float64((newPrice-usedPrice)*10000/newPrice) / 100
}

// modelRange prices every variant of the model concurrently and widens the
// spread of their procurement prices into a single range.
func (e *Engine) modelRange(ctx context.Context, req Request) (*ProcurementRange, error) {
	variants, err := e.catalog.ListByMakeModel(ctx, req.MakeModel)
	if err != nil {
		return nil, err
	}

	eligible := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Pace == e.config.ExcludedPace {
			continue
		}
		eligible = append(eligible, v)
	}
	e.metrics.RecordAggregateSize(len(eligible))

	prices := make([]int64, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.AggregateConcurrency)
	for i, v := range eligible {
		g.Go(func() error {
			r := req
			r.MakeModel = v.MakeModel()
			r.Variant = v.Name
			r.CustomFeature = nil
			res, err := e.CalculateUsedPrices(gctx, r)
			if err != nil {
				return fmt.Errorf("failed to price %s %s: %w", r.MakeModel, r.Variant, err)
			}
			prices[i] = res.PostMarginCalculation.ProcurementPrice
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return AggregateRange(prices), nil
}

// AggregateRange widens a set of procurement prices into a range. A single
// price gets a -10%/+10% band; several get -5% below the lowest and the
// highest as the ceiling.
func AggregateRange(prices []int64) *ProcurementRange {
	if len(prices) == 0 {
		return &ProcurementRange{}
	}
	lo := float64(slices.Min(prices))
	hi := slices.Max(prices)

	rng := &ProcurementRange{
		IsMarginRangeSet: true,
		ProcurementPrice: hi,
	}
	if len(prices) == 1 {
		rng.ProcurementPriceMinRange = int64(math.Ceil(lo * 0.9))
		rng.ProcurementPriceMaxRange = int64(math.Ceil(float64(hi) * 1.1))
	} else {
		rng.ProcurementPriceMinRange = int64(math.Ceil(lo * 0.95))
		rng.ProcurementPriceMaxRange = hi
	}
	return rng
}
