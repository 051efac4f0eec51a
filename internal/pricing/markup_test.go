package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkupFor(t *testing.T) {
	got := MarkupFor(testTiers(), 60000, "PETROL", "FAST", MarkupInput{Now: fixedNow})

	assert.Equal(t, MarkupResult{
		IsMarkupRangeSet:    true,
		MarkupValue:         4800,
		ListingPrice:        65000,
		MinSellingPrice:     63000,
		MSPDiscountLeverage: 1000,
	}, got)
}

func TestMarkupFor_AbsoluteMinimum(t *testing.T) {
	got := MarkupFor(testTiers(), 20000, "PETROL", "FAST", MarkupInput{Now: fixedNow})
	assert.Equal(t, 2000.0, got.MarkupValue)
	assert.Equal(t, int64(22000), got.ListingPrice)
	assert.Equal(t, int64(21000), got.MinSellingPrice)
	assert.Equal(t, int64(500), got.MSPDiscountLeverage)
}

func TestMarkupFor_AppreciationOffset(t *testing.T) {
	got := MarkupFor(testTiers(), 60000, "PETROL", "FAST", MarkupInput{Offset: 1200, Now: fixedNow})
	assert.Equal(t, 6000.0, got.MarkupValue)
	assert.Equal(t, 1200.0, got.MarkupAppreciationOffset)
	assert.Equal(t, int64(66000), got.ListingPrice)
	assert.Equal(t, int64(64000), got.MinSellingPrice)
}

func TestMarkupFor_RevisionDelta(t *testing.T) {
	listed := fixedNow.Add(-5*24*time.Hour - time.Hour)
	got := MarkupFor(testTiers(), 60000, "PETROL", "FAST", MarkupInput{
		ListingDate: &listed,
		MarginValue: 6000,
		Now:         fixedNow,
	})

	// 0.5 x 4800 + 0.25 x 6000 = 3900, rounded down to 3750.
	assert.Equal(t, int64(3750), got.RevisedPriceDelta)
}

func TestMarkupFor_NoRevisionCoefficients(t *testing.T) {
	listed := fixedNow.Add(-10 * 24 * time.Hour)
	got := MarkupFor(testTiers(), 60000, "PETROL", "FAST", MarkupInput{
		ListingDate: &listed,
		MarginValue: 6000,
		Now:         fixedNow,
	})
	assert.Zero(t, got.RevisedPriceDelta)
}

func TestMarkupFor_NoTier(t *testing.T) {
	got := MarkupFor(testTiers(), 60100, "DIESEL", "FAST", MarkupInput{Now: fixedNow})
	assert.False(t, got.IsMarkupRangeSet)
	assert.Zero(t, got.MarkupValue)
	assert.Equal(t, int64(60250), got.ListingPrice)
	assert.Zero(t, got.MinSellingPrice)
}

func TestRound250(t *testing.T) {
	assert.Equal(t, int64(250), roundUp250(1))
	assert.Equal(t, int64(500), roundUp250(500))
	assert.Equal(t, int64(750), roundUp250(500.01))
	assert.Equal(t, int64(0), roundDown250(249))
	assert.Equal(t, int64(3750), roundDown250(3999))
	assert.Equal(t, int64(-250), roundDown250(-1))
}

func TestDaysSince(t *testing.T) {
	assert.Equal(t, 0, DaysSince(fixedNow.Add(-23*time.Hour), fixedNow))
	assert.Equal(t, 30, DaysSince(fixedNow.AddDate(0, 0, -30), fixedNow))
}

func TestMarkupFor_PricesAreMultiplesOf250(t *testing.T) {
	tiers := testTiers()
	for price := 0.0; price <= 100000; price += 137 {
		for _, offset := range []float64{0, 333.3, 4120} {
			got := MarkupFor(tiers, price, "PETROL", "FAST", MarkupInput{Offset: offset, Now: fixedNow})
			if !got.IsMarkupRangeSet {
				continue
			}
			assert.Zero(t, got.ListingPrice%250, "price=%v offset=%v", price, offset)
			assert.Zero(t, got.MinSellingPrice%250, "price=%v offset=%v", price, offset)
		}
	}
}
