package database

import (
	"time"
)

// Cluster groups catalog variants that share an inventory target
type Cluster struct {
	ID           int64     `json:"id"`
	Name         string    `json:"cluster_name"`
	MaxInventory int       `json:"max_inventory"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Bike is a vehicle held in stock
type Bike struct {
	ID                  int64      `json:"id"`
	RegNo               string     `json:"reg_no"`
	BrandName           string     `json:"brand_name"`
	ModelName           string     `json:"model_name"`
	VariantName         string     `json:"variant_name"`
	VehicleType         string     `json:"vehicle_type"` // from the linked catalog variant
	KmDriven            int        `json:"km_driven"`
	RegistrationYear    int        `json:"registration_year"`
	RegistrationMonth   int        `json:"registration_month"`
	Ownership           int        `json:"ownership"`
	Status              string     `json:"status"` // listed, sold, delisted, ...
	ListedAt            *time.Time `json:"listed_at"`
	Price               *int64     `json:"price"`
	MSP                 *int64     `json:"msp"`
	Discount            *int64     `json:"discount"`
	InitialListingPrice *int64     `json:"initial_listing_price"`
	ProcurementID       *string    `json:"procurement_id"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// MakeModel returns the "<brand> <model>" catalog key of the bike
func (b *Bike) MakeModel() string {
	return b.BrandName + " " + b.ModelName
}

// CurrentPrice returns the listed price, 0 when unset
func (b *Bike) CurrentPrice() int64 {
	if b.Price == nil {
		return 0
	}
	return *b.Price
}

// ProcurementDetails holds the refurbishment estimates recorded at purchase
type ProcurementDetails struct {
	ProcID                 string   `json:"proc_id"`
	ActualRefurbInvoice    *float64 `json:"actual_refurb_invoice"`
	EstimatedRefurbJobCard *float64 `json:"estimated_refurb_job_card"`
	RFCInspection          *float64 `json:"rfc_inspection"`
	InsuranceEstimated     *float64 `json:"insurance_estimated"`
}

// Refurb cost sources, most reliable first
const (
	RefurbActualInvoice   = "actual_refurb_invoice"
	RefurbJobCardEstimate = "estimated_refurb_job_card"
	RefurbRFCInspection   = "estimated_rfc_inspection"
)

// Refurb returns the most reliable non-zero refurbishment cost and its source.
// Details may be nil.
func (p *ProcurementDetails) Refurb() (int64, string) {
	if p == nil {
		return 0, RefurbRFCInspection
	}
	switch {
	case p.ActualRefurbInvoice != nil && *p.ActualRefurbInvoice != 0:
		return int64(*p.ActualRefurbInvoice), RefurbActualInvoice
	case p.EstimatedRefurbJobCard != nil && *p.EstimatedRefurbJobCard != 0:
		return int64(*p.EstimatedRefurbJobCard), RefurbJobCardEstimate
	case p.RFCInspection != nil:
		return int64(*p.RFCInspection), RefurbRFCInspection
	}
	return 0, RefurbRFCInspection
}
