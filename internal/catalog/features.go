package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vutto/pricing-service/internal/pricing"
)

// IdentifyingFeatures is the order in which variants of one model are told
// apart. Earlier keys narrow first.
var IdentifyingFeatures = []string{
	"technology.gpsNavigation",
	"additionalFeatures.ridingModes",
	"comfortConvinience.startType",
	"safety.abs",
	"safety.ledLights",
	"instrumentCluster.odometer",
	"instrumentCluster.speedometer",
	"brakesWheels.rearBrakeType",
	"brakesWheels.frontBrakeType",
	"brakesWheels.wheelType",
}

// FlattenFeatures returns the variant's features and specifications as one
// map with dotted keys. Specifications win on clashes.
func FlattenFeatures(v *pricing.Variant) map[string]any {
	out := make(map[string]any)
	flatten(v.Features, "", out)
	flatten(v.Specifications, "", out)
	return out
}

func flatten(obj map[string]any, prefix string, out map[string]any) {
	for k, val := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flatten(nested, key, out)
			continue
		}
		out[key] = val
	}
}

// cleanValue normalizes a feature cell. Placeholder strings count as blank.
func cleanValue(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	switch s {
	case "null", "undefined", "na":
		return ""
	}
	return s
}

// PossibleVariant identifies a catalog variant.
type PossibleVariant struct {
	Brand   string `json:"brand_name"`
	Model   string `json:"model_name"`
	Variant string `json:"variant_name"`
}

// IdentifyVariant narrows the variants of one model by the requested feature
// values, one feature at a time in IdentifyingFeatures order, and returns the
// cheapest survivor. A feature that would eliminate every candidate is
// ignored and ends the narrowing.
func IdentifyVariant(variants []pricing.Variant, featureData map[string]any) (PossibleVariant, error) {
	if len(variants) == 0 {
		return PossibleVariant{}, errBikeNotFound
	}

	flat := make([]map[string]any, len(variants))
	for i := range variants {
		flat[i] = FlattenFeatures(&variants[i])
	}

	candidates := make([]int, len(variants))
	for i := range candidates {
		candidates[i] = i
	}

	for _, feature := range IdentifyingFeatures {
		if len(candidates) <= 1 {
			break
		}
		want := matchKey(featureData[feature])
		var kept []int
		for _, i := range candidates {
			if matchKey(flat[i][feature]) == want {
				kept = append(kept, i)
			}
		}
		if len(kept) == 0 {
			break
		}
		candidates = kept
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return variants[candidates[a]].Price < variants[candidates[b]].Price
	})
	best := variants[candidates[0]]
	return PossibleVariant{Brand: best.Brand, Model: best.Model, Variant: best.Name}, nil
}

// FeatureOptions is the set of values a caller can choose from to tell the
// variants of a model apart.
type FeatureOptions struct {
	DifferentiationRequired bool                `json:"differentiationRequired"`
	Options                 map[string][]string `json:"featureOptions"`
}

// ModelFeatureOptions collects, per identifying feature, the distinct
// cleaned values across variants in first-seen order. A single variant needs
// no differentiation and yields no options.
func ModelFeatureOptions(variants []pricing.Variant) (FeatureOptions, error) {
	if len(variants) == 0 {
		return FeatureOptions{}, errBikeNotFound
	}
	out := FeatureOptions{
		DifferentiationRequired: len(variants) > 1,
		Options:                 map[string][]string{},
	}
	if !out.DifferentiationRequired {
		return out, nil
	}

	seen := make(map[string]map[string]struct{}, len(IdentifyingFeatures))
	for i := range variants {
		flat := FlattenFeatures(&variants[i])
		for _, feature := range IdentifyingFeatures {
			if seen[feature] == nil {
				seen[feature] = map[string]struct{}{}
				out.Options[feature] = []string{}
			}
			val := cleanValue(flat[feature])
			if _, ok := seen[feature][val]; ok {
				continue
			}
			seen[feature][val] = struct{}{}
			out.Options[feature] = append(out.Options[feature], val)
		}
	}
	return out, nil
}

// VariantFeatures is the feature lookup response for one variant.
type VariantFeatures struct {
	Features    map[string]string `json:"features"`
	VehicleType string            `json:"vehicleType"`
}

// BikeListItem is one row of the catalog list.
type BikeListItem struct {
	Make    string  `json:"make"`
	Model   string  `json:"model"`
	Variant string  `json:"variant"`
	Price   float64 `json:"price"`
	Pace    string  `json:"pace"`
}

// BikeList formats variants for the catalog list. Prices are list prices,
// resolved through lookup without the price reduction.
func BikeList(ctx context.Context, lookup pricing.VariantLookup, variants []pricing.Variant) ([]BikeListItem, error) {
	items := make([]BikeListItem, 0, len(variants))
	for i := range variants {
		v := &variants[i]
		price, err := pricing.ResolveListPrice(ctx, lookup, v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve list price: %w", err)
		}
		items = append(items, BikeListItem{
			Make:    v.Brand,
			Model:   v.Model,
			Variant: v.Name,
			Price:   price,
			Pace:    v.Pace,
		})
	}
	return items, nil
}

// Variations counts, for every model with more than three variants, how many
// variants share each combination of identifying feature values.
func Variations(variants []pricing.Variant) map[string][]int {
	byModel := make(map[string][]*pricing.Variant)
	var order []string
	for i := range variants {
		key := variants[i].MakeModel()
		if _, ok := byModel[key]; !ok {
			order = append(order, key)
		}
		byModel[key] = append(byModel[key], &variants[i])
	}

	out := make(map[string][]int)
	for _, model := range order {
		group := byModel[model]
		if len(group) <= 3 {
			continue
		}
		counts := make(map[string]int)
		var keys []string
		for _, v := range group {
			flat := FlattenFeatures(v)
			var b strings.Builder
			for _, feature := range IdentifyingFeatures {
				b.WriteString(feature)
				b.WriteByte(':')
				b.WriteString(cleanValue(flat[feature]))
				b.WriteByte(' ')
			}
			key := b.String()
			if _, ok := counts[key]; !ok {
				keys = append(keys, key)
			}
			counts[key]++
		}
		for _, key := range keys {
			out[model] = append(out[model], counts[key])
		}
	}
	return out
}
