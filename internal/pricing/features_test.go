package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ntorqFeatures() *Variant {
	return &Variant{
		Features: map[string]any{
			"safety":             map[string]any{"abs": "CBS", "ledLights": "Yes"},
			"comfortConvinience": map[string]any{"startType": "Kick and Electric"},
		},
		Specifications: map[string]any{
			"brakesWheels": map[string]any{
				"wheelType":      "Steel",
				"rearBrakeType":  "Drum",
				"frontBrakeType": "Drum",
			},
			"engine": map[string]any{"fuelSystem": "Fuel Injection"},
			"weight": 116,
		},
	}
}

func TestKeyFeatures(t *testing.T) {
	got := KeyFeatures(ntorqFeatures())

	assert.Equal(t, map[string]string{
		"abs":            "CBS",
		"startType":      "Kick and Electric",
		"wheelType":      "Steel",
		"fuelSystem":     "Fuel Injection",
		"rearBrakeType":  "Drum",
		"frontBrakeType": "Drum",
	}, got)
}

func TestKeyFeatures_NoGroups(t *testing.T) {
	assert.Empty(t, KeyFeatures(&Variant{}))
}

func TestFeatureFactor(t *testing.T) {
	catalog := map[string]string{
		"abs":            "No",
		"startType":      "Electric Start",
		"wheelType":      "Alloy",
		"rearBrakeType":  "Drum",
		"frontBrakeType": "Disc",
	}

	tests := []struct {
		name   string
		custom map[string]string
		want   float64
	}{
		{"no overrides", nil, 1},
		{"abs upgrade", map[string]string{
			"abs": "Dual Channel ABS", "startType": "Electric Start", "wheelType": "Alloy",
			"rearBrakeType": "Drum", "frontBrakeType": "Disc",
		}, 1.04},
		{"kick start only", map[string]string{
			"abs": "No", "startType": "Kick Start", "wheelType": "Alloy",
			"rearBrakeType": "Drum", "frontBrakeType": "Disc",
		}, 0.88},
		{"missing keys fall back to the first value", map[string]string{"abs": "no"}, 0.98 * 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FeatureFactor(catalog, tt.custom), 1e-9)
		})
	}
}

func TestFeatureFactor_MatchingCatalogIsNeutral(t *testing.T) {
	custom := map[string]string{
		"abs":            "CBS",
		"startType":      "Kick and Electric",
		"wheelType":      "Steel",
		"rearBrakeType":  "Drum",
		"frontBrakeType": "Drum",
	}
	got := FeatureFactor(KeyFeatures(ntorqFeatures()), custom)
	assert.InDelta(t, 1.0, got, 1e-9)
}
