package pricing

import (
	"strconv"
	"strings"
)

// Margin document column names. The document is edited as a spreadsheet, so
// the keys are the sheet headers.
const (
	ColFuel               = "fuel"
	ColPace               = "pace"
	ColRangeLow           = "range low"
	ColRangeHigh          = "range high"
	ColAbsoluteMin        = "absolute min"
	ColAbsoluteMax        = "absolute max"
	ColMinPercent         = "min percent"
	ColAbsoluteMinMarkup  = "absolute min markup"
	ColMarkupPercent      = "markup %"
	ColMSPDiscountNew     = "MSP Discount (New Listing)"
	ColMSPDiscountRevised = "MSP Discount (When revised listing price < calc price)"
	ColVehicleType        = "vehicle type"
)

// Tier is one margin/markup configuration row, scoped to a fuel, a pace
// and an inclusive price range.
type Tier struct {
	Fuel      string
	Pace      string
	RangeLow  *float64
	RangeHigh *float64

	// VehicleType scopes the tier to one category. Empty applies to all.
	VehicleType Category

	AbsoluteMin float64
	AbsoluteMax *float64
	MinPercent  float64

	AbsoluteMinMarkup float64
	MarkupPercent     float64

	MSPDiscountNew     int64
	MSPDiscountRevised int64

	// Revision coefficients keyed by days since listing.
	RevisionMarkup map[int]float64
	RevisionMargin map[int]float64
}

// TierFromRow converts a raw document row into a Tier. Cells that do not
// parse as numbers are treated as unset.
func TierFromRow(row map[string]any) Tier {
	t := Tier{
		Fuel:               cellString(row[ColFuel]),
		Pace:               cellString(row[ColPace]),
		VehicleType:        ParseCategory(cellString(row[ColVehicleType])),
		RangeLow:           cellFloat(row[ColRangeLow]),
		RangeHigh:          cellFloat(row[ColRangeHigh]),
		AbsoluteMin:        valueOr(cellFloat(row[ColAbsoluteMin]), 0),
		AbsoluteMax:        cellFloat(row[ColAbsoluteMax]),
		MinPercent:         valueOr(cellFloat(row[ColMinPercent]), 0),
		AbsoluteMinMarkup:  valueOr(cellFloat(row[ColAbsoluteMinMarkup]), 0),
		MarkupPercent:      valueOr(cellFloat(row[ColMarkupPercent]), 0),
		MSPDiscountNew:     int64(valueOr(cellFloat(row[ColMSPDiscountNew]), 0)),
		MSPDiscountRevised: int64(valueOr(cellFloat(row[ColMSPDiscountRevised]), 0)),
		RevisionMarkup:     map[int]float64{},
		RevisionMargin:     map[int]float64{},
	}

	for key, raw := range row {
		day, kind, ok := ParseRevisionColumn(key)
		if !ok {
			continue
		}
		v := cellFloat(raw)
		if v == nil {
			continue
		}
		if kind == "markup" {
			t.RevisionMarkup[day] = *v
		} else {
			t.RevisionMargin[day] = *v
		}
	}
	return t
}

// TiersFromRows converts a whole document.
func TiersFromRows(rows []map[string]any) []Tier {
	tiers := make([]Tier, 0, len(rows))
	for _, row := range rows {
		tiers = append(tiers, TierFromRow(row))
	}
	return tiers
}

// Matches reports whether the tier covers an upper-cased fuel and pace and
// a price inside its inclusive range. Tiers without a range never match.
func (t Tier) Matches(fuel, pace string, price float64) bool {
	if t.RangeLow == nil || t.RangeHigh == nil {
		return false
	}
	return strings.ToUpper(t.Fuel) == fuel &&
		strings.ToUpper(t.Pace) == pace &&
		*t.RangeLow <= price && price <= *t.RangeHigh
}

// ForCategory keeps the tiers that apply to a vehicle category. Tiers tagged
// with the category come first so they win over untagged tiers covering the
// same range; document order is kept within each group.
func ForCategory(tiers []Tier, c Category) []Tier {
	out := make([]Tier, 0, len(tiers))
	var untagged []Tier
	for _, t := range tiers {
		switch {
		case t.VehicleType == "":
			untagged = append(untagged, t)
		case t.VehicleType == c:
			out = append(out, t)
		}
	}
	return append(out, untagged...)
}

// findTier returns the first matching tier in document order.
func findTier(tiers []Tier, fuel, pace string, price float64) (Tier, bool) {
	for _, t := range tiers {
		if t.Matches(fuel, pace, price) {
			return t, true
		}
	}
	return Tier{}, false
}

// RevisionColumn returns the document column for a day coefficient.
func RevisionColumn(day int, kind string) string {
	return "revision_" + strconv.Itoa(day) + "_" + kind
}

// ParseRevisionColumn splits a revision column into its day and kind
// ("markup" or "margin").
func ParseRevisionColumn(key string) (int, string, bool) {
	rest, ok := strings.CutPrefix(key, "revision_")
	if !ok {
		return 0, "", false
	}
	dayPart, kind, ok := strings.Cut(rest, "_")
	if !ok || (kind != "markup" && kind != "margin") {
		return 0, "", false
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil {
		return 0, "", false
	}
	return day, kind, true
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(featureString(v))
}

func cellFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		s = strings.TrimSuffix(s, "%")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
