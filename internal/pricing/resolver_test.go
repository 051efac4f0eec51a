package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func linkedChain() Index {
	return NewIndex([]Variant{
		{
			ID: 1, Price: 100000, PriceReduction: 5000,
			SDFirst: ptr(0.2), SDFirstConsecutive: ptr(0.1), SDConsecutive: ptr(0.05), SDLater: ptr(0.01),
		},
		{
			ID: 2, Price: 1, LinkedVariantID: ptr(int64(1)), LinkedPriceDiff: 2000,
			SDFirst: ptr(0.3), SDFirstConsecutive: ptr(0.0), SDConsecutive: ptr(0.3),
		},
		{
			ID: 3, Price: 1, LinkedVariantID: ptr(int64(2)), LinkedPriceDiff: 1000,
			SDFirst: ptr(0.4), SDFirstConsecutive: ptr(0.4), SDConsecutive: ptr(0.4),
		},
	})
}

func TestResolveNewPrice(t *testing.T) {
	ctx := context.Background()
	idx := linkedChain()

	tests := []struct {
		id       int64
		wantNew  float64
		wantList float64
	}{
		{1, 95000, 100000},
		{2, 93000, 98000},
		{3, 92000, 97000},
	}

	for _, tt := range tests {
		v := idx[tt.id]

		got, err := ResolveNewPrice(ctx, idx, v)
		require.NoError(t, err)
		assert.Equal(t, tt.wantNew, got, "new price of %d", tt.id)

		got, err = ResolveListPrice(ctx, idx, v)
		require.NoError(t, err)
		assert.Equal(t, tt.wantList, got, "list price of %d", tt.id)
	}
}

func TestResolveSDFactors(t *testing.T) {
	ctx := context.Background()
	idx := linkedChain()

	// Variant 3 carries a complete set.
	got, err := ResolveSDFactors(ctx, idx, idx[3])
	require.NoError(t, err)
	assert.Equal(t, SDFactors{First: 0.4, FirstConsecutive: 0.4, Consecutive: 0.4}, got)

	// Variant 2 has a zero factor and falls back to its parent.
	got, err = ResolveSDFactors(ctx, idx, idx[2])
	require.NoError(t, err)
	assert.Equal(t, SDFactors{First: 0.2, FirstConsecutive: 0.1, Consecutive: 0.05, Later: 0.01}, got)
}

func TestResolveSDFactors_RootWithoutFactors(t *testing.T) {
	idx := NewIndex([]Variant{
		{ID: 1, SDFirst: ptr(0.2)},
		{ID: 2, LinkedVariantID: ptr(int64(1))},
	})

	got, err := ResolveSDFactors(context.Background(), idx, idx[2])
	require.NoError(t, err)
	assert.Equal(t, SDFactors{First: 0.2}, got)
}

func TestResolveNewPrice_Cycle(t *testing.T) {
	idx := NewIndex([]Variant{
		{ID: 1, Price: 1000, LinkedVariantID: ptr(int64(2))},
		{ID: 2, Price: 1000, LinkedVariantID: ptr(int64(1))},
	})

	_, err := ResolveNewPrice(context.Background(), idx, idx[1])
	var integrity ErrDataIntegrity
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, int64(1), integrity.VariantID)
	assert.Contains(t, integrity.Reason, "cycle")
}

func TestResolveNewPrice_MissingParent(t *testing.T) {
	idx := NewIndex([]Variant{
		{ID: 1, Price: 1000, LinkedVariantID: ptr(int64(42))},
	})

	_, err := ResolveNewPrice(context.Background(), idx, idx[1])
	var integrity ErrDataIntegrity
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "linked variant not found", integrity.Reason)
}

func TestResolveNewPrice_DepthBound(t *testing.T) {
	variants := make([]Variant, 0, maxLinkDepth+2)
	variants = append(variants, Variant{ID: 0, Price: 100000})
	for i := int64(1); i <= maxLinkDepth+1; i++ {
		variants = append(variants, Variant{ID: i, LinkedVariantID: ptr(i - 1), LinkedPriceDiff: 1})
	}
	idx := NewIndex(variants)

	_, err := ResolveNewPrice(context.Background(), idx, idx[maxLinkDepth+1])
	var integrity ErrDataIntegrity
	require.ErrorAs(t, err, &integrity)

	got, err := ResolveNewPrice(context.Background(), idx, idx[maxLinkDepth])
	require.NoError(t, err)
	assert.Equal(t, float64(100000-maxLinkDepth), got)
}
