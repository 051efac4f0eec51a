package revision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/notify"
	"github.com/vutto/pricing-service/internal/pricing"
)

// Repository is the persistence the revision flows need. Store implements it.
type Repository interface {
	ListBikes(ctx context.Context, statuses ...string) ([]database.Bike, error)
	Bike(ctx context.Context, id int64) (*database.Bike, error)
	ProcurementDetails(ctx context.Context, procID *string) (*database.ProcurementDetails, error)
	CreateRequest(ctx context.Context, r *PriceRequest) error
	PendingRequest(ctx context.Context, id int64) (*PriceRequest, error)
	ApplyDecision(ctx context.Context, d Decision) error
}

// Pricer computes a full pricing breakdown. *pricing.Engine implements it.
type Pricer interface {
	CalculateUsedPrices(ctx context.Context, req pricing.Request) (*pricing.Result, error)
}

// Service creates and resolves price requests.
type Service struct {
	repo     Repository
	pricer   Pricer
	notifier notify.Notifier
	minDiff  int64
	now      func() time.Time
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewService creates a revision service. A minDiff of 0 uses
// MinPriceDifference.
func NewService(repo Repository, pricer Pricer, notifier notify.Notifier, minDiff int64) *Service {
	if minDiff <= 0 {
		minDiff = MinPriceDifference
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &Service{
		repo:     repo,
		pricer:   pricer,
		notifier: notifier,
		minDiff:  minDiff,
		now:      time.Now,
		metrics:  NewMetricsRecorder(),
		logger:   log.With().Str("component", "price_revision").Logger(),
	}
}

// WithClock replaces the service's time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateListingRequest prices a vehicle for listing and opens a LISTING (or
// MODIFICATION) request. A suggestion too close to the current price is
// rejected on the spot; otherwise the team is alerted.
func (s *Service) CreateListingRequest(ctx context.Context, bikeID int64, isModification bool) (*PriceRequest, error) {
	bike, err := s.repo.Bike(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	proc, err := s.repo.ProcurementDetails(ctx, bike.ProcurementID)
	if err != nil {
		return nil, err
	}
	refurb, refurbType := proc.Refurb()

	result, err := s.pricer.CalculateUsedPrices(ctx, pricingRequest(bike, float64(refurb), nil))
	if err != nil {
		return nil, fmt.Errorf("failed to price bike %d: %w", bike.ID, err)
	}

	requestType := TypeListing
	if isModification {
		requestType = TypeModification
	}
	r := newRequest(bike, result, requestType, proc)
	r.Refurb, r.RefurbCostType = refurb, refurbType
	r.SuggestedPrice = result.PostMarkupCalculation.ListingPrice

	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, err
	}
	s.metrics.RecordRequest(r.RequestType)

	rejected, err := s.rejectIfMinor(ctx, r, bike)
	if err != nil {
		return nil, err
	}
	if !rejected {
		s.alert(ctx, "Bike has a new price listing request", bikeDetails(bike, r.SuggestedPrice))
	}
	return r, nil
}

// CreateManualRequest records a price chosen by a person and applies it
// immediately.
func (s *Service) CreateManualRequest(ctx context.Context, bikeID int64, reason, email string, userPrice int64) (*PriceRequest, error) {
	if userPrice <= 0 {
		return nil, pricing.ErrInvalidInput{Field: "userPrice", Reason: "Invalid new price. Please try again with a valid price"}
	}
	bike, err := s.repo.Bike(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	proc, err := s.repo.ProcurementDetails(ctx, bike.ProcurementID)
	if err != nil {
		return nil, err
	}
	refurb, refurbType := proc.Refurb()

	result, err := s.pricer.CalculateUsedPrices(ctx, pricingRequest(bike, float64(refurb), nil))
	if err != nil {
		return nil, fmt.Errorf("failed to price bike %d: %w", bike.ID, err)
	}

	r := newRequest(bike, result, TypeManual, proc)
	r.Refurb, r.RefurbCostType = refurb, refurbType
	r.SuggestedPrice = result.PostMarkupCalculation.ListingPrice
	r.ModifiedPrice = &userPrice
	r.Reason = optional(reason)
	r.RequestCreatedBy = optional(email)

	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, err
	}
	s.metrics.RecordRequest(r.RequestType)

	if err := s.ChangeStatus(ctx, ChangeStatusInput{
		RequestID:     r.ID,
		Status:        string(StatusAccepted),
		ModifiedPrice: userPrice,
		Email:         email,
	}); err != nil {
		return nil, err
	}
	accepted := StatusAccepted
	r.Status = &accepted

	s.alert(ctx, "Bike has been applied with a new manual price request", bikeDetails(bike, r.SuggestedPrice))
	return r, nil
}

// ChangeStatusInput is a decision on a pending request.
type ChangeStatusInput struct {
	RequestID     int64  `json:"priceRequestId"`
	Status        string `json:"status"`
	ModifiedPrice int64  `json:"modifiedPrice"`
	Email         string `json:"email"`
	Reason        string `json:"reason"`
}

// ChangeStatus resolves a pending request. ACCEPTED and MODIFIED reprice
// the vehicle; REJECTED only records the decision.
func (s *Service) ChangeStatus(ctx context.Context, in ChangeStatusInput) error {
	req, err := s.repo.PendingRequest(ctx, in.RequestID)
	if err != nil {
		return err
	}

	status, known := ParseStatus(in.Status)
	if (status == StatusModified || req.RequestType == TypeManual) && in.ModifiedPrice <= 0 {
		return pricing.ErrInvalidInput{Field: "modifiedPrice", Reason: "Invalid new price. Please try again with a valid price"}
	}

	bike, err := s.repo.Bike(ctx, req.BikeID)
	if err != nil {
		return err
	}

	d := Decision{
		RequestID: req.ID,
		Status:    status,
		ChangedBy: in.Email,
	}
	switch {
	case !known:
		return pricing.ErrInvalidInput{Field: "status", Reason: "Unknown status sent for price request"}
	case status == StatusAccepted:
		price := req.SuggestedPrice
		if req.RequestType == TypeManual && req.ModifiedPrice != nil {
			price = *req.ModifiedPrice
		}
		d.Bike = priceUpdate(bike, req, price)
	case status == StatusRejected:
		d.Reason = optional(in.Reason)
	case status == StatusModified:
		price := in.ModifiedPrice
		d.ModifiedPrice = &price
		d.Reason = optional(in.Reason)
		d.Bike = priceUpdate(bike, req, price)
	}

	if err := s.repo.ApplyDecision(ctx, d); err != nil {
		return err
	}
	s.metrics.RecordDecision(status, in.Email == SystemUser)
	s.logger.Info().
		Int64("request_id", req.ID).
		Int64("bike_id", req.BikeID).
		Str("status", string(status)).
		Str("by", in.Email).
		Msg("Price request resolved")
	return nil
}

// rejectIfMinor auto-rejects a request whose suggestion is within minDiff
// of the current price.
func (s *Service) rejectIfMinor(ctx context.Context, r *PriceRequest, bike *database.Bike) (bool, error) {
	diff := r.SuggestedPrice - bike.CurrentPrice()
	if diff < 0 {
		diff = -diff
	}
	if diff >= s.minDiff {
		return false, nil
	}
	err := s.ChangeStatus(ctx, ChangeStatusInput{
		RequestID: r.ID,
		Status:    string(StatusRejected),
		Email:     SystemUser,
		Reason:    fmt.Sprintf("Price difference is less than %d", s.minDiff),
	})
	if err != nil {
		return false, err
	}
	rejected := StatusRejected
	r.Status = &rejected
	return true, nil
}

func (s *Service) alert(ctx context.Context, subject, body string) {
	if err := s.notifier.Send(ctx, subject, body); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to send alert")
	}
}

// priceUpdate derives the vehicle fields set by an approved price. The
// discount is what the price gives away from the initial listing price.
func priceUpdate(bike *database.Bike, req *PriceRequest, price int64) *PriceUpdate {
	u := &PriceUpdate{BikeID: bike.ID, Price: price, MSP: req.MSP}
	if ilp := bike.InitialListingPrice; ilp != nil && *ilp > price {
		discount := *ilp - price
		u.Discount = &discount
	}
	if req.RequestType.SetsInitialListingPrice() {
		u.InitialListingPrice = &price
	}
	return u
}

// pricingRequest builds the calculator input for a stocked vehicle. Stored
// ownership counts previous owners, the calculator counts the next one.
func pricingRequest(bike *database.Bike, refurb float64, listingDate *time.Time) pricing.Request {
	month := bike.RegistrationMonth
	if month == 0 {
		month = 1
	}
	return pricing.Request{
		MakeModel:                    bike.MakeModel(),
		Variant:                      bike.VariantName,
		Type:                         bike.VehicleType,
		Km:                           bike.KmDriven,
		Year:                         bike.RegistrationYear,
		Month:                        month,
		Owner:                        bike.Ownership + 1,
		RefurbCost:                   refurb,
		ListingDate:                  listingDate,
		SkipInventoryMarginInflation: true,
	}
}

func newRequest(bike *database.Bike, result *pricing.Result, t RequestType, proc *database.ProcurementDetails) *PriceRequest {
	r := &PriceRequest{
		BikeID:             bike.ID,
		RequestType:        t,
		CurrentListedPrice: bike.CurrentPrice(),
		Markup:             result.PostMarkupCalculation.MarkupValue,
		MSP:                result.PostMarkupCalculation.MinSellingPrice,
		Kms:                bike.KmDriven,
		Make:               bike.BrandName,
		Model:              bike.ModelName,
		Variant:            bike.VariantName,
		Owner:              bike.Ownership,
		RegistrationYear:   bike.RegistrationYear,
		RegistrationMonth:  bike.RegistrationMonth,
		RegNo:              bike.RegNo,
		BikeStatus:         bike.Status,
		CalculatorPrices:   result,
	}
	if proc != nil {
		r.Insurance = proc.InsuranceEstimated
	}
	return r
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
