package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/internal/pricing"
	"github.com/vutto/pricing-service/internal/revision"
)

type fakeRevisionService struct {
	listing  []int64
	decision revision.ChangeStatusInput
	err      error
}

func (f *fakeRevisionService) CreateListingRequest(_ context.Context, bikeID int64, isModification bool) (*revision.PriceRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.listing = append(f.listing, bikeID)
	t := revision.TypeListing
	if isModification {
		t = revision.TypeModification
	}
	return &revision.PriceRequest{ID: 11, BikeID: bikeID, RequestType: t, SuggestedPrice: 78000}, nil
}

func (f *fakeRevisionService) CreateManualRequest(_ context.Context, bikeID int64, reason, email string, userPrice int64) (*revision.PriceRequest, error) {
	if userPrice <= 0 {
		return nil, pricing.ErrInvalidInput{Field: "userPrice", Reason: "Invalid new price. Please try again with a valid price"}
	}
	return &revision.PriceRequest{ID: 12, BikeID: bikeID, RequestType: revision.TypeManual, ModifiedPrice: &userPrice}, f.err
}

func (f *fakeRevisionService) ChangeStatus(_ context.Context, in revision.ChangeStatusInput) error {
	f.decision = in
	return f.err
}

type fakeScanner struct {
	summary revision.Summary
	err     error
}

func (f *fakeScanner) Run(context.Context) (revision.Summary, error) {
	return f.summary, f.err
}

func newRevisionFixture(svc *fakeRevisionService, scanner *fakeScanner) *engineFixture {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRevisionRoutes(router.Group("/internal"), NewRevisionHandler(svc, scanner))
	return &engineFixture{router: router}
}

func TestCreateListingRequest(t *testing.T) {
	svc := &fakeRevisionService{}
	f := newRevisionFixture(svc, &fakeScanner{})

	w := f.do(t, http.MethodPost, "/internal/revision/listing", map[string]any{"bikeId": 42, "isModification": true})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Bikes sent successfully", body["message"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "MODIFICATION", result["request_type"])
	assert.Equal(t, 78000.0, result["suggested_price"])
	assert.Equal(t, []int64{42}, svc.listing)

	w = f.do(t, http.MethodPost, "/internal/revision/listing", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = pricing.ErrNotFound{Message: "Bike not found"}
	w = f.do(t, http.MethodPost, "/internal/revision/listing", map[string]any{"bikeId": 7})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Bike not found", decode(t, w)["error"])
}

func TestCreateManualRequest(t *testing.T) {
	f := newRevisionFixture(&fakeRevisionService{}, &fakeScanner{})

	w := f.do(t, http.MethodPost, "/internal/revision/manual", ManualRequest{BikeID: 42, Reason: "dent", Email: "ops@vutto.in", UserPrice: 70000})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, 70000.0, result["modified_price"])

	w = f.do(t, http.MethodPost, "/internal/revision/manual", ManualRequest{BikeID: 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid new price. Please try again with a valid price", decode(t, w)["error"])
}

func TestChangeStatus(t *testing.T) {
	svc := &fakeRevisionService{}
	f := newRevisionFixture(svc, &fakeScanner{})

	w := f.do(t, http.MethodPost, "/internal/revision/status", map[string]any{
		"priceRequestId": 11, "status": "MODIFIED", "modifiedPrice": 76000, "email": "ops@vutto.in",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Price request action completed successfully", decode(t, w)["message"])
	assert.Equal(t, revision.ChangeStatusInput{RequestID: 11, Status: "MODIFIED", ModifiedPrice: 76000, Email: "ops@vutto.in"}, svc.decision)

	svc.err = pricing.ErrNotFound{Message: "Valid price request not found."}
	w = f.do(t, http.MethodPost, "/internal/revision/status", map[string]any{"priceRequestId": 11, "status": "ACCEPTED"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.err = pricing.ErrInvalidInput{Field: "status", Reason: "Unknown status sent for price request"}
	w = f.do(t, http.MethodPost, "/internal/revision/status", map[string]any{"priceRequestId": 11, "status": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunRevisionScan(t *testing.T) {
	scanner := &fakeScanner{summary: revision.Summary{Scanned: 7, Created: 2, AutoRejected: 1, Alerted: 2, Failed: 1}}
	f := newRevisionFixture(&fakeRevisionService{}, scanner)

	w := f.do(t, http.MethodPost, "/internal/webhook/price-revisions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Webhook executed successfully", body["message"])
	assert.Equal(t, map[string]any{
		"scanned": 7.0, "created": 2.0, "autoRejected": 1.0, "alerted": 2.0, "failed": 1.0,
	}, body["data"])

	scanner.err = errors.New("failed to list bikes: timeout")
	w = f.do(t, http.MethodPost, "/internal/webhook/price-revisions", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
