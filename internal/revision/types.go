// Package revision creates and resolves price revision requests for listed
// vehicles: the initial listing price, scheduled revisions as a listing
// ages, and manual overrides.
package revision

import (
	"strings"
	"time"

	"github.com/vutto/pricing-service/internal/pricing"
)

// Status is the resolution of a price request. Pending requests have none.
type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusModified Status = "MODIFIED"
)

// ParseStatus matches a status case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusAccepted, StatusRejected, StatusModified:
		return st, true
	}
	return "", false
}

// RequestType says what created a price request.
type RequestType string

const (
	TypeListing      RequestType = "LISTING"
	TypeRevision     RequestType = "REVISION"
	TypeModification RequestType = "MODIFICATION"
	TypeManual       RequestType = "MANUAL"
)

// SetsInitialListingPrice reports whether accepting the request also resets
// the vehicle's initial listing price.
func (t RequestType) SetsInitialListingPrice() bool {
	return t == TypeListing || t == TypeModification
}

// SystemUser is recorded as the actor of automatic decisions.
const SystemUser = "VIA_SYSTEM"

// MinPriceDifference is the smallest change worth a human review.
const MinPriceDifference = 250

// PriceRequest is one row of price_revision_request.
type PriceRequest struct {
	ID                 int64           `json:"id"`
	BikeID             int64           `json:"bike_id"`
	RequestType        RequestType     `json:"request_type"`
	Status             *Status         `json:"status"`
	IsActive           bool            `json:"is_active"`
	CurrentListedPrice int64           `json:"current_listed_price"`
	SuggestedPrice     int64           `json:"suggested_price"`
	ModifiedPrice      *int64          `json:"modified_price"`
	Markup             float64         `json:"markup"`
	MSP                int64           `json:"msp"`
	Refurb             int64           `json:"refurb"`
	RefurbCostType     string          `json:"refurb_cost_type"`
	Insurance          *float64        `json:"insurance"`
	Kms                int             `json:"kms"`
	Make               string          `json:"make"`
	Model              string          `json:"model"`
	Variant            string          `json:"variant"`
	Owner              int             `json:"owner"`
	RegistrationYear   int             `json:"registration_year"`
	RegistrationMonth  int             `json:"registration_month"`
	RegNo              string          `json:"reg_no"`
	BikeStatus         string          `json:"bike_status"`
	CalculatorPrices   *pricing.Result `json:"calculator_prices"`
	Reason             *string         `json:"reason"`
	RequestCreatedBy   *string         `json:"request_created_by"`
	ChangedBy          *string         `json:"status_changed_by_user_email"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Decision is the outcome of resolving a pending request.
type Decision struct {
	RequestID     int64
	Status        Status
	ChangedBy     string
	Reason        *string
	ModifiedPrice *int64

	// Bike is set when the decision changes the listed price.
	Bike *PriceUpdate
}

// PriceUpdate is the new pricing of a vehicle after an approved request.
type PriceUpdate struct {
	BikeID   int64
	Price    int64
	MSP      int64
	Discount *int64
	// InitialListingPrice is left unchanged when nil.
	InitialListingPrice *int64
}

// Summary reports one batch scan.
type Summary struct {
	Scanned      int `json:"scanned"`
	Created      int `json:"created"`
	AutoRejected int `json:"autoRejected"`
	Alerted      int `json:"alerted"`
	Failed       int `json:"failed"`
}
