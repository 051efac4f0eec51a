package pricing

import (
	"strings"
	"time"
)

// Category is the vehicle category used to pick depreciation tables.
type Category string

const (
	CategorySports   Category = "sports"
	CategoryCommuter Category = "commuter"
	CategoryCruiser  Category = "cruiser"
	CategoryScooter  Category = "scooter"
	CategoryElectric Category = "electric"
	CategoryMoped    Category = "moped"
)

// Categories lists every known vehicle category.
var Categories = []Category{
	CategorySports,
	CategoryCommuter,
	CategoryCruiser,
	CategoryScooter,
	CategoryElectric,
	CategoryMoped,
}

// ParseCategory normalizes a raw vehicle type. Unknown values are kept as-is
// (lowercased) so callers can still price them with neutral km depreciation.
func ParseCategory(raw string) Category {
	return Category(strings.ToLower(strings.TrimSpace(raw)))
}

// IsKnown reports whether c is one of the configured categories.
func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Variant is a catalog vehicle variant (one row of the bike catalog).
type Variant struct {
	ID              int64          `json:"id"`
	Brand           string         `json:"brand_name"`
	Model           string         `json:"model_name"`
	Name            string         `json:"variant_name"`
	Price           float64        `json:"price"`
	PriceReduction  float64        `json:"price_reduction"`
	LinkedVariantID *int64         `json:"linked_variant_id,omitempty"`
	LinkedPriceDiff float64        `json:"linked_variant_price_diff"`
	Pace            string         `json:"pace"`
	Fuel            string         `json:"fuel"`
	VehicleType     string         `json:"vehicle_type"`
	Features        map[string]any `json:"features,omitempty"`
	Specifications  map[string]any `json:"specifications,omitempty"`
	ClusterID       *int64         `json:"bike_feature_cluster_id,omitempty"`
	MinAllowedYear  *int           `json:"min_allowed_year,omitempty"`
	MaxAllowedYear  *int           `json:"max_allowed_year,omitempty"`
	IsActive        bool           `json:"is_active"`

	SDFirst            *float64 `json:"supply_demand_factor_first,omitempty"`
	SDFirstConsecutive *float64 `json:"supply_demand_factor_first_consecutive,omitempty"`
	SDConsecutive      *float64 `json:"supply_demand_factor_consecutive,omitempty"`
	SDLater            *float64 `json:"supply_demand_factor_later,omitempty"`

	MarkupAppreciationFactor *float64 `json:"markup_appreciation_factor,omitempty"`
	ProcVSPAdjustmentFactor  *float64 `json:"proc_vsp_adjustment_factor,omitempty"`
	MinProcVSPDifference     *float64 `json:"min_proc_vsp_difference,omitempty"`
}

// MakeModel returns the "<brand> <model>" key used by every catalog lookup.
func (v *Variant) MakeModel() string {
	return v.Brand + " " + v.Model
}

// hasOwnSDFactors reports whether the variant carries the three factors that
// make it independent of its linked parent. Zero counts as unset.
func (v *Variant) hasOwnSDFactors() bool {
	return nonZero(v.SDFirst) && nonZero(v.SDFirstConsecutive) && nonZero(v.SDConsecutive)
}

// SDFactors holds the supply/demand factors applied per ownership year band.
type SDFactors struct {
	First            float64 `json:"sdFactor"`
	FirstConsecutive float64 `json:"firstConsecutive"`
	Consecutive      float64 `json:"consecutive"`
	Later            float64 `json:"later"`
}

// Request is the input of a full used-price computation.
type Request struct {
	MakeModel                    string            `json:"makeModel"`
	Variant                      string            `json:"variant"`
	Type                         string            `json:"type"`
	Km                           int               `json:"km"`
	Year                         int               `json:"year"`
	Month                        int               `json:"month"`
	Owner                        int               `json:"owner"`
	RefurbCost                   float64           `json:"refurbCost"`
	RefurbCostPercent            float64           `json:"refurbCostPercent"`
	OnRoadPrice                  float64           `json:"onRoadPrice"`
	CustomFeature                map[string]string `json:"customFeature,omitempty"`
	ListingDate                  *time.Time        `json:"listingDate,omitempty"`
	SkipInventoryMarginInflation bool              `json:"skipInventoryMarginInflation"`
}

// Result is the composite pricing object returned by CalculateUsedPrices.
type Result struct {
	NewPrice              int64        `json:"newPrice"`
	UsedPrice             int64        `json:"usedPrice"`
	UserPriceSupply       int64        `json:"userPriceSupply"`
	PostMarginCalculation MarginResult `json:"postMarginCalculation"`
	PostMarkupCalculation MarkupResult `json:"postMarkupCalculation"`
}

// YearInventoryLevels buckets a cluster's current stock by registration year.
type YearInventoryLevels struct {
	Before2018        int `json:"before2018"`
	Between2018To2022 int `json:"between2018To2022"`
	After2022         int `json:"after2022"`
}

// ModelInventory is the outcome of a model-level inventory check.
// Levels are nil when the cluster or its live inventory row is unknown.
type ModelInventory struct {
	Warnings                []string             `json:"warnings"`
	CurrentInventoryLevels  *int                 `json:"currentInventoryLevels,omitempty"`
	ModelInventoryMaxLevels *int                 `json:"modelInventoryMaxLevels,omitempty"`
	YearInventoryLevels     *YearInventoryLevels `json:"yearInventoryLevels,omitempty"`
}

func nonZero(f *float64) bool {
	return f != nil && *f != 0
}

func valueOr(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}
