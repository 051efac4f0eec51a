package pricing

import "math"

// Supply price bounds.
const (
	defaultMinProcVSPDifference = 1500
	maxProcVSPAdjustment        = 10000
)

// MarginResult is the procurement-side pricing outcome.
type MarginResult struct {
	IsMarginRangeSet         bool    `json:"isMarginRangeSet"`
	MarginValue              float64 `json:"marginValue"`
	AdjustedMargin           float64 `json:"adjustedMargin"`
	ProcurementPrice         int64   `json:"procurementPrice"`
	ProcurementPriceMaxRange int64   `json:"procurementPriceMaxRange"`
	ProcurementPriceMinRange int64   `json:"procurementPriceMinRange"`
	MarginMultiplier         float64 `json:"marginMultiplier"`
}

// SupplyPrice derives the procurement-side vehicle selling price by pulling
// the used price down by a variant-level factor, bounded below by the
// minimum difference (1500 when unset) and above by 10000.
func SupplyPrice(usedPrice int64, adjustmentFactor, minDifference *float64) int64 {
	vsp := float64(usedPrice)
	f := vsp * valueOr(adjustmentFactor, 0)

	floor := valueOr(minDifference, 0)
	if floor == 0 {
		floor = defaultMinProcVSPDifference
	}
	f = math.Max(f, floor)
	f = math.Min(f, maxProcVSPAdjustment)

	return roundHalfUp(vsp - f)
}

// MarginFor finds the first tier matching fuel, pace and price and derives
// the procurement price and its range. Without a matching tier the margin is
// zero and every procurement figure is 0. The procurement price never goes
// below 0.
func MarginFor(tiers []Tier, price, rfCost float64, fuel, pace string, inflation float64) MarginResult {
	var margin float64
	tier, ok := findTier(tiers, fuel, pace, price)
	if ok {
		margin = tier.AbsoluteMin
		if tier.MinPercent != 0 {
			pct := tier.MinPercent * price / 100
			if tier.AbsoluteMax != nil {
				pct = math.Min(*tier.AbsoluteMax, pct)
			}
			margin = math.Max(margin, pct)
		}
	}

	res := MarginResult{
		IsMarginRangeSet: ok,
		MarginValue:      margin,
		AdjustedMargin:   margin * inflation,
		MarginMultiplier: inflation,
	}
	if ok {
		// Refurbishment plus margin above the price floors procurement at 0.
		proc := max(int64(price-rfCost-inflation*margin), 0)
		res.ProcurementPrice = proc
		res.ProcurementPriceMaxRange = int64(1.05 * float64(proc))
		res.ProcurementPriceMinRange = int64(0.9 * float64(proc))
	}
	return res
}

// InflationMultiplier scales the margin when stock is at or above target:
// 1.5 at 150% of the target, 1.25 at the target, 1 otherwise.
func InflationMultiplier(current, target int) float64 {
	switch {
	case float64(current) >= float64(target)*1.5:
		return 1.5
	case current >= target:
		return 1.25
	default:
		return 1
	}
}

// MarginInflation picks the inflation multiplier for a registration year from
// a model inventory check. Small clusters (target below 3) compare overall
// stock; larger ones split the target across the three year brackets.
// Unknown levels mean no inflation.
func MarginInflation(inv *ModelInventory, year int) float64 {
	if inv == nil || inv.CurrentInventoryLevels == nil || inv.ModelInventoryMaxLevels == nil {
		return 1
	}
	target := *inv.ModelInventoryMaxLevels
	if target < 3 {
		return InflationMultiplier(*inv.CurrentInventoryLevels, target)
	}
	if inv.YearInventoryLevels == nil {
		return 1
	}
	levels := inv.YearInventoryLevels
	switch {
	case year <= 2018:
		return InflationMultiplier(levels.Before2018, BracketTarget(target, BracketBefore2018))
	case year >= 2022:
		return InflationMultiplier(levels.After2022, BracketTarget(target, BracketAfter2022))
	default:
		return InflationMultiplier(levels.Between2018To2022, BracketTarget(target, BracketBetween))
	}
}

// YearBracket identifies a registration year band of the inventory sheet.
type YearBracket int

const (
	BracketBefore2018 YearBracket = iota
	BracketBetween
	BracketAfter2022
)

// String returns the label used in warnings.
func (b YearBracket) String() string {
	switch b {
	case BracketBefore2018:
		return "before 2018"
	case BracketAfter2022:
		return "after 2022"
	default:
		return "2019-2021"
	}
}

// BracketTarget splits a cluster target into thirds. The remainder goes to
// the oldest bracket first, then to the middle one.
func BracketTarget(target int, b YearBracket) int {
	third := target / 3
	switch b {
	case BracketBefore2018:
		if target%3 > 0 {
			third++
		}
	case BracketBetween:
		if target%3 > 1 {
			third++
		}
	}
	return third
}

// roundHalfUp rounds halves towards positive infinity.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
