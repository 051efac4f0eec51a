package pricing

import (
	"math"
	"time"
)

const priceStep = 250

// MarkupResult is the listing-side pricing outcome.
type MarkupResult struct {
	IsMarkupRangeSet         bool    `json:"isMarkupRangeSet"`
	MarkupValue              float64 `json:"markupValue"`
	ListingPrice             int64   `json:"listingPrice"`
	MinSellingPrice          int64   `json:"minSellingPrice"`
	MSPDiscountLeverage      int64   `json:"mspDiscountLeverage"`
	MarkupAppreciationOffset float64 `json:"markupAppreciationOffset"`
	RevisedPriceDelta        int64   `json:"revisedPriceDelta,omitempty"`
}

// MarkupInput carries the optional markup parameters.
type MarkupInput struct {
	ListingDate *time.Time
	MarginValue float64
	Offset      float64
	Now         time.Time
}

// MarkupFor derives the listing price, minimum selling price and, for listed
// vehicles, the revision delta due on the current day.
func MarkupFor(tiers []Tier, price float64, fuel, pace string, in MarkupInput) MarkupResult {
	var (
		markup       float64
		mspNew       int64
		mspSecondary int64
		delta        int64
	)

	tier, ok := findTier(tiers, fuel, pace, price)
	if ok {
		mspNew = tier.MSPDiscountNew
		mspSecondary = tier.MSPDiscountRevised
		markup = math.Max(tier.AbsoluteMinMarkup, tier.MarkupPercent*price/100)
		if in.ListingDate != nil {
			days := DaysSince(*in.ListingDate, in.Now)
			raw := tier.RevisionMarkup[days-1]*markup + tier.RevisionMargin[days]*in.MarginValue
			delta = roundDown250(raw)
		}
	}

	res := MarkupResult{
		IsMarkupRangeSet:         ok,
		MarkupValue:              markup + in.Offset,
		ListingPrice:             roundUp250(price + markup + in.Offset),
		MSPDiscountLeverage:      mspSecondary,
		MarkupAppreciationOffset: in.Offset,
		RevisedPriceDelta:        delta,
	}
	if ok {
		res.MinSellingPrice = roundUp250(price + markup - float64(mspNew) + in.Offset)
	}
	return res
}

// DaysSince returns the number of whole days elapsed between from and now,
// truncated towards zero.
func DaysSince(from, now time.Time) int {
	return int(now.Sub(from).Hours() / 24)
}

func roundUp250(x float64) int64 {
	return int64(math.Ceil(x/priceStep) * priceStep)
}

func roundDown250(x float64) int64 {
	return int64(math.Floor(x/priceStep) * priceStep)
}
