package pricing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRequest_Validate(t *testing.T) {
	cfg := Defaults()

	req := QuoteRequest{Request: Request{Km: 65001, Year: 2020}}
	err := req.Validate(cfg)
	var invalid ErrInvalidInput
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Km range doesnt fit vutto criteria", invalid.Reason)

	req = QuoteRequest{Request: Request{Km: 65000, Year: 2014}}
	err = req.Validate(cfg)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Year can not be less than 2015", invalid.Reason)

	req = QuoteRequest{Request: Request{Km: 1000, Year: 2015}}
	require.NoError(t, req.Validate(cfg))
	assert.Equal(t, 1, req.Month)
}

func TestEngine_Quote_Variant(t *testing.T) {
	engine := newTestEngine(nil)

	res, err := engine.Quote(context.Background(), QuoteRequest{Request: baseRequest("TVS Ntorq 125", "Drum", 1)})
	require.NoError(t, err)
	require.NotNil(t, res.Variant)
	assert.Nil(t, res.Model)

	q := res.Variant
	assert.Equal(t, PercentDepreciation(q.NewPrice, q.UsedPrice), q.PercentDepreciation)
	assert.InDelta(t, 15.35, q.PercentDepreciation, 0.02)

	body, err := json.Marshal(res.Payload(false))
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(body, &flat))
	for _, key := range []string{"usedPrice", "newPrice", "percent_depreciation", "procurementPrice", "listingPrice", "marginMultiplier"} {
		assert.Contains(t, flat, key)
	}
	assert.NotContains(t, flat, "revisedPriceDelta")
}

func TestEngine_Quote_AugmentRange(t *testing.T) {
	engine := newTestEngine(nil)

	res, err := engine.Quote(context.Background(), QuoteRequest{Request: baseRequest("TVS Ntorq 125", "Drum", 1), AugmentRange: true})
	require.NoError(t, err)

	payload, ok := res.Payload(true).(ProcurementRange)
	require.True(t, ok)
	assert.Equal(t, res.Variant.ProcurementPrice, payload.ProcurementPrice)
	assert.Equal(t, res.Variant.ProcurementPriceMinRange, payload.ProcurementPriceMinRange)
}

func TestEngine_Quote_ModelAggregate(t *testing.T) {
	engine := newTestEngine(nil)
	req := baseRequest("Honda Activa 6G", "", 1)

	res, err := engine.Quote(context.Background(), QuoteRequest{Request: req})
	require.NoError(t, err)
	require.NotNil(t, res.Model)

	// The EXTREMELY SLOW variant is left out of the aggregate.
	var prices []int64
	for _, variant := range []string{"H-Smart", "Standard"} {
		r := req
		r.Variant = variant
		one, err := engine.CalculateUsedPrices(context.Background(), r)
		require.NoError(t, err)
		prices = append(prices, one.PostMarginCalculation.ProcurementPrice)
	}
	assert.Equal(t, AggregateRange(prices), res.Model)
	assert.Equal(t, res.Model.ProcurementPrice, res.Model.ProcurementPriceMaxRange)
}

func TestEngine_Quote_UnknownModel(t *testing.T) {
	engine := newTestEngine(nil)

	res, err := engine.Quote(context.Background(), QuoteRequest{Request: baseRequest("Bajaj Chetak", "", 1)})
	require.NoError(t, err)
	assert.Equal(t, ProcurementRange{}, *res.Model)
}

func TestAggregateRange(t *testing.T) {
	assert.Equal(t, &ProcurementRange{
		IsMarginRangeSet:         true,
		ProcurementPrice:         50001,
		ProcurementPriceMinRange: 45001,
		ProcurementPriceMaxRange: 55002,
	}, AggregateRange([]int64{50001}))

	assert.Equal(t, &ProcurementRange{
		IsMarginRangeSet:         true,
		ProcurementPrice:         60000,
		ProcurementPriceMinRange: 38001,
		ProcurementPriceMaxRange: 60000,
	}, AggregateRange([]int64{60000, 40001, 50000}))

	assert.Equal(t, &ProcurementRange{}, AggregateRange(nil))
}

func TestPercentDepreciation(t *testing.T) {
	assert.Equal(t, 15.35, PercentDepreciation(86000, 72799))
	assert.Equal(t, 0.0, PercentDepreciation(0, 100))
}
