package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// KeyFeatures merges every feature and specification group of a variant one
// level deep and keeps only the tracked keys. Groups are merged in name order,
// specifications after features, so later groups win on key clashes.
func KeyFeatures(v *Variant) map[string]string {
	merged := make(map[string]any)
	for _, groups := range []map[string]any{v.Features, v.Specifications} {
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			group, ok := groups[name].(map[string]any)
			if !ok {
				continue
			}
			for k, val := range group {
				merged[k] = val
			}
		}
	}

	out := make(map[string]string, len(trackedFeatures))
	for _, key := range trackedFeatures {
		if val, ok := merged[key]; ok {
			out[key] = featureString(val)
		}
	}
	return out
}

// FeatureFactor returns the multiplicative adjustment for moving from the
// catalog feature values to the caller's overrides. Without overrides it is 1.
func FeatureFactor(catalog, custom map[string]string) float64 {
	if len(custom) == 0 {
		return 1
	}
	factor := 1.0
	for _, key := range trackedFeatures {
		m, ok := featureMatrices[key]
		if !ok {
			continue
		}
		from := m.index(catalog[key])
		to := m.index(custom[key])
		factor *= m.Table[from][to]
	}
	return factor
}

// index returns the position of value in the matrix, falling back to 0.
func (m featureMatrix) index(value string) int {
	value = strings.ToLower(value)
	for i, v := range m.Values {
		if v == value {
			return i
		}
	}
	return 0
}

func featureString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
