package revision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/pricing"
)

// Scan defaults.
const (
	DefaultStaleListingDays = 30
	DefaultAlertPeriodDays  = 7
)

// ScanConfig tunes the batch scan.
type ScanConfig struct {
	// StaleListingDays stops revisions for older listings; they get a
	// reminder instead.
	StaleListingDays int
	// AlertPeriodDays spaces the reminders.
	AlertPeriodDays int
}

// Scanner walks every listed vehicle and opens REVISION requests for those
// whose markup schedule has a delta due.
type Scanner struct {
	svc    *Service
	config ScanConfig
	logger zerolog.Logger
}

// NewScanner creates a scanner on top of a service.
func NewScanner(svc *Service, cfg ScanConfig) *Scanner {
	if cfg.StaleListingDays <= 0 {
		cfg.StaleListingDays = DefaultStaleListingDays
	}
	if cfg.AlertPeriodDays <= 0 {
		cfg.AlertPeriodDays = DefaultAlertPeriodDays
	}
	return &Scanner{
		svc:    svc,
		config: cfg,
		logger: log.With().Str("component", "revision_scanner").Logger(),
	}
}

// Run scans once. Vehicles are handled one at a time; a failure is logged
// and counted, and the scan moves on.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	bikes, err := s.svc.repo.ListBikes(ctx, "listed")
	if err != nil {
		s.svc.metrics.RecordScan(time.Since(start), sum, err)
		return sum, fmt.Errorf("failed to list listed bikes: %w", err)
	}

	now := s.svc.now()
	var revised []revisionRow
	for i := range bikes {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		bike := &bikes[i]
		sum.Scanned++
		if bike.ListedAt == nil {
			continue
		}

		days := pricing.DaysSince(*bike.ListedAt, now)
		if days >= s.config.StaleListingDays {
			if (days-s.config.StaleListingDays)%s.config.AlertPeriodDays == 0 {
				subject, body := staleListingAlert(bike, s.config.StaleListingDays)
				s.svc.alert(ctx, subject, body)
				sum.Alerted++
			}
			continue
		}

		r, err := s.revise(ctx, bike)
		if err != nil {
			sum.Failed++
			s.logger.Error().Err(err).Int64("bike_id", bike.ID).Msg("Failed to revise bike price")
			continue
		}
		if r == nil {
			continue
		}
		sum.Created++
		if r.Status != nil {
			sum.AutoRejected++
			continue
		}
		revised = append(revised, revisionRow{bike: *bike, suggested: r.SuggestedPrice})
	}

	if len(revised) > 0 {
		s.svc.alert(ctx, "Bikes have a new price revision request", revisionSummary(revised))
		sum.Alerted += len(revised)
	}

	s.svc.metrics.RecordScan(time.Since(start), sum, nil)
	s.logger.Info().
		Int("scanned", sum.Scanned).
		Int("created", sum.Created).
		Int("auto_rejected", sum.AutoRejected).
		Int("alerted", sum.Alerted).
		Int("failed", sum.Failed).
		Dur("duration", time.Since(start)).
		Msg("Price revision scan finished")
	return sum, nil
}

// revise prices a listed vehicle as of its listing date and opens a
// REVISION request when a delta is due. It returns nil when none is.
func (s *Scanner) revise(ctx context.Context, bike *database.Bike) (*PriceRequest, error) {
	result, err := s.svc.pricer.CalculateUsedPrices(ctx, pricingRequest(bike, 0, bike.ListedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to price bike: %w", err)
	}
	markup := result.PostMarkupCalculation
	if markup.RevisedPriceDelta == 0 {
		return nil, nil
	}

	proc, err := s.svc.repo.ProcurementDetails(ctx, bike.ProcurementID)
	if err != nil {
		return nil, err
	}
	r := newRequest(bike, result, TypeRevision, proc)
	r.Refurb, r.RefurbCostType = proc.Refurb()
	r.SuggestedPrice = markup.ListingPrice - markup.RevisedPriceDelta

	if err := s.svc.repo.CreateRequest(ctx, r); err != nil {
		return nil, err
	}
	s.svc.metrics.RecordRequest(r.RequestType)

	if _, err := s.svc.rejectIfMinor(ctx, r, bike); err != nil {
		return nil, err
	}
	return r, nil
}
