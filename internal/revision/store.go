package revision

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/pricing"
)

const bikeColumns = `
	b.id, b.reg_no, b.brand_name, b.model_name, b.variant_name,
	COALESCE(bf.vehicle_type, ''), b.km_driven, b.registration_year,
	b.registration_month, b.ownership, b.status, b.listed_at, b.price, b.msp,
	b.discount, b.initial_listing_price, b.procurement_id, b.updated_at`

const bikeFrom = `
	FROM bikes b
	LEFT JOIN bike_features bf ON bf.id = b.bike_feature_id`

var (
	errBikeNotFound    = pricing.ErrNotFound{Message: "Bike not found"}
	errRequestNotFound = pricing.ErrNotFound{Message: "Valid price request not found."}
)

// Store persists price requests and applies approved prices to vehicles.
type Store struct {
	db *sql.DB
}

// NewStore creates a revision store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListBikes returns vehicles in any of the given statuses, by id.
func (s *Store) ListBikes(ctx context.Context, statuses ...string) ([]database.Bike, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bikeColumns+bikeFrom+` WHERE b.status = ANY($1) ORDER BY b.id`,
		pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("failed to query bikes: %w", err)
	}
	defer rows.Close()

	bikes := []database.Bike{}
	for rows.Next() {
		b, err := scanBike(rows)
		if err != nil {
			return nil, err
		}
		bikes = append(bikes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bikes: %w", err)
	}
	return bikes, nil
}

// Bike returns a vehicle by id.
func (s *Store) Bike(ctx context.Context, id int64) (*database.Bike, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bikeColumns+bikeFrom+` WHERE b.id = $1`, id)
	b, err := scanBike(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errBikeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBike(row scanner) (database.Bike, error) {
	var b database.Bike
	err := row.Scan(
		&b.ID, &b.RegNo, &b.BrandName, &b.ModelName, &b.VariantName,
		&b.VehicleType, &b.KmDriven, &b.RegistrationYear,
		&b.RegistrationMonth, &b.Ownership, &b.Status, &b.ListedAt, &b.Price, &b.MSP,
		&b.Discount, &b.InitialListingPrice, &b.ProcurementID, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return b, err
	}
	if err != nil {
		return b, fmt.Errorf("failed to scan bike: %w", err)
	}
	return b, nil
}

// ProcurementDetails returns the refurbishment estimates of a purchase, or
// nil when procID is empty or unknown.
func (s *Store) ProcurementDetails(ctx context.Context, procID *string) (*database.ProcurementDetails, error) {
	if procID == nil || *procID == "" {
		return nil, nil
	}
	p := database.ProcurementDetails{ProcID: *procID}
	err := s.db.QueryRowContext(ctx, `
		SELECT actual_refurb_invoice, estimated_refurb_job_card, rfc_inspection, insurance_estimated
		FROM procurement_details
		WHERE proc_id = $1
	`, *procID).Scan(&p.ActualRefurbInvoice, &p.EstimatedRefurbJobCard, &p.RFCInspection, &p.InsuranceEstimated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query procurement details: %w", err)
	}
	return &p, nil
}

// CreateRequest deactivates the vehicle's open requests and inserts r as
// the active one, in one transaction. r.ID is set on success.
func (s *Store) CreateRequest(ctx context.Context, r *PriceRequest) error {
	prices, err := json.Marshal(r.CalculatorPrices)
	if err != nil {
		return fmt.Errorf("failed to encode calculator prices: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE price_revision_request
		SET is_active = false, updated_at = now()
		WHERE bike_id = $1 AND is_active
	`, r.BikeID); err != nil {
		return fmt.Errorf("failed to deactivate price requests: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO price_revision_request (
			bike_id, request_type, is_active, current_listed_price, suggested_price,
			modified_price, markup, msp, refurb, refurb_cost_type, insurance, kms,
			make, model, variant, owner, registration_year, registration_month,
			reg_no, bike_status, calculator_prices, reason, request_created_by
		) VALUES (
			$1, $2, true, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		RETURNING id, created_at, updated_at
	`,
		r.BikeID, string(r.RequestType), r.CurrentListedPrice, r.SuggestedPrice,
		r.ModifiedPrice, r.Markup, r.MSP, r.Refurb, r.RefurbCostType, r.Insurance, r.Kms,
		r.Make, r.Model, r.Variant, r.Owner, r.RegistrationYear, r.RegistrationMonth,
		r.RegNo, r.BikeStatus, string(prices), r.Reason, r.RequestCreatedBy,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert price request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price request: %w", err)
	}
	r.IsActive = true
	return nil
}

// PendingRequest returns an active request that has no status yet.
func (s *Store) PendingRequest(ctx context.Context, id int64) (*PriceRequest, error) {
	r := PriceRequest{IsActive: true}
	var requestType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bike_id, request_type, suggested_price, modified_price, COALESCE(msp, 0)
		FROM price_revision_request
		WHERE id = $1 AND is_active AND status IS NULL
	`, id).Scan(&r.ID, &r.BikeID, &requestType, &r.SuggestedPrice, &r.ModifiedPrice, &r.MSP)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price request %d: %w", id, err)
	}
	r.RequestType = RequestType(requestType)
	return &r, nil
}

// ApplyDecision records the decision and, when it carries one, the new
// vehicle price, in one transaction.
func (s *Store) ApplyDecision(ctx context.Context, d Decision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if u := d.Bike; u != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bikes SET
				price = $2,
				msp = $3,
				discount = $4,
				initial_listing_price = COALESCE($5, initial_listing_price),
				price_request_approved = true,
				last_price_update_at = now(),
				updated_at = now()
			WHERE id = $1
		`, u.BikeID, u.Price, u.MSP, u.Discount, u.InitialListingPrice); err != nil {
			return fmt.Errorf("failed to update bike %d price: %w", u.BikeID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE price_revision_request SET
			status = $2,
			status_changed_by_user_email = $3,
			reason = COALESCE($4, reason),
			modified_price = COALESCE($5, modified_price),
			updated_at = now()
		WHERE id = $1
	`, d.RequestID, string(d.Status), d.ChangedBy, d.Reason, d.ModifiedPrice); err != nil {
		return fmt.Errorf("failed to update price request %d: %w", d.RequestID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price decision: %w", err)
	}
	return nil
}
