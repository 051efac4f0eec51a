package pricing

import (
	"context"
	"errors"
)

// maxLinkDepth bounds linked-variant chains.
const maxLinkDepth = 64

// VariantLookup resolves a variant by id. Implementations return ErrNotFound
// when no such variant exists.
type VariantLookup interface {
	VariantByID(ctx context.Context, id int64) (*Variant, error)
}

// Index is an in-memory VariantLookup over a full variant set, used when a
// batch would otherwise hit the store once per chain step.
type Index map[int64]*Variant

// NewIndex builds an Index from a variant slice.
func NewIndex(variants []Variant) Index {
	idx := make(Index, len(variants))
	for i := range variants {
		idx[variants[i].ID] = &variants[i]
	}
	return idx
}

// VariantByID implements VariantLookup.
func (idx Index) VariantByID(_ context.Context, id int64) (*Variant, error) {
	v, ok := idx[id]
	if !ok {
		return nil, ErrNotFound{Message: "Bike not found"}
	}
	return v, nil
}

// ResolveNewPrice returns the effective new price of v: the chain root's
// price minus its price reduction, minus every linked price diff on the way.
func ResolveNewPrice(ctx context.Context, lookup VariantLookup, v *Variant) (float64, error) {
	return resolvePrice(ctx, lookup, v, true)
}

// ResolveListPrice is ResolveNewPrice without the root price reduction. It is
// the price shown in the catalog list.
func ResolveListPrice(ctx context.Context, lookup VariantLookup, v *Variant) (float64, error) {
	return resolvePrice(ctx, lookup, v, false)
}

func resolvePrice(ctx context.Context, lookup VariantLookup, v *Variant, withReduction bool) (float64, error) {
	var diffs float64
	err := walkChain(ctx, lookup, v, func(cur *Variant) bool {
		if cur.LinkedVariantID != nil {
			diffs += cur.LinkedPriceDiff
			return true
		}
		return false
	}, func(root *Variant) {
		price := root.Price
		if withReduction {
			price -= root.PriceReduction
		}
		diffs = price - diffs
	})
	if err != nil {
		return 0, err
	}
	return diffs, nil
}

// ResolveSDFactors returns the first variant's supply/demand factors in the
// chain that has first, first-consecutive and consecutive all set. When none
// does, the chain root's factors are returned with missing values as 0.
func ResolveSDFactors(ctx context.Context, lookup VariantLookup, v *Variant) (SDFactors, error) {
	var found *Variant
	err := walkChain(ctx, lookup, v, func(cur *Variant) bool {
		if cur.hasOwnSDFactors() {
			found = cur
			return false
		}
		return cur.LinkedVariantID != nil
	}, func(last *Variant) {
		if found == nil {
			found = last
		}
	})
	if err != nil {
		return SDFactors{}, err
	}
	return SDFactors{
		First:            valueOr(found.SDFirst, 0),
		FirstConsecutive: valueOr(found.SDFirstConsecutive, 0),
		Consecutive:      valueOr(found.SDConsecutive, 0),
		Later:            valueOr(found.SDLater, 0),
	}, nil
}

// walkChain follows linked parents from v while next returns true, then calls
// done with the variant where the walk stopped. Cycles, missing parents and
// chains deeper than maxLinkDepth are data-integrity errors.
func walkChain(ctx context.Context, lookup VariantLookup, v *Variant, next func(*Variant) bool, done func(*Variant)) error {
	visited := make(map[int64]struct{})
	cur := v
	for depth := 0; ; depth++ {
		if depth > maxLinkDepth {
			return ErrDataIntegrity{VariantID: v.ID, Reason: "linked variant chain too deep"}
		}
		visited[cur.ID] = struct{}{}
		if !next(cur) {
			done(cur)
			return nil
		}

		parentID := *cur.LinkedVariantID
		if _, seen := visited[parentID]; seen {
			return ErrDataIntegrity{VariantID: v.ID, Reason: "linked variant chain contains a cycle"}
		}
		parent, err := lookup.VariantByID(ctx, parentID)
		if err != nil {
			var nf ErrNotFound
			if errors.As(err, &nf) {
				return ErrDataIntegrity{VariantID: cur.ID, Reason: "linked variant not found"}
			}
			return err
		}
		cur = parent
	}
}
