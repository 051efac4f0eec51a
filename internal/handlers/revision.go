package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/internal/revision"
)

// RevisionService creates and resolves price requests.
// *revision.Service implements it.
type RevisionService interface {
	CreateListingRequest(ctx context.Context, bikeID int64, isModification bool) (*revision.PriceRequest, error)
	CreateManualRequest(ctx context.Context, bikeID int64, reason, email string, userPrice int64) (*revision.PriceRequest, error)
	ChangeStatus(ctx context.Context, in revision.ChangeStatusInput) error
}

// RevisionScanner runs one batch revision scan. *revision.Scanner implements it.
type RevisionScanner interface {
	Run(ctx context.Context) (revision.Summary, error)
}

// RevisionHandler serves the price request endpoints.
type RevisionHandler struct {
	service RevisionService
	scanner RevisionScanner
}

// NewRevisionHandler creates a revision handler.
func NewRevisionHandler(service RevisionService, scanner RevisionScanner) *RevisionHandler {
	return &RevisionHandler{service: service, scanner: scanner}
}

// RegisterRevisionRoutes registers the price request routes under r.
func RegisterRevisionRoutes(r *gin.RouterGroup, h *RevisionHandler) {
	r.POST("/revision/listing", h.CreateListingRequest)
	r.POST("/revision/manual", h.CreateManualRequest)
	r.POST("/revision/status", h.ChangeStatus)
	r.POST("/webhook/price-revisions", h.RunRevisionScan)
}

// ListingRequest asks for a listing price for a vehicle.
type ListingRequest struct {
	BikeID         int64 `json:"bikeId" binding:"required"`
	IsModification bool  `json:"isModification"`
}

// CreateListingRequest prices a vehicle and opens a listing request
// @Summary Create listing price request
// @Tags revision
// @Accept json
// @Produce json
// @Param request body ListingRequest true "Vehicle"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Bike not found"
// @Router /internal/revision/listing [post]
func (h *RevisionHandler) CreateListingRequest(c *gin.Context) {
	var req ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateListingRequest(c.Request.Context(), req.BikeID, req.IsModification)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Bikes sent successfully",
		"result":  result,
	})
}

// ManualRequest is a price chosen by a person.
type ManualRequest struct {
	BikeID    int64  `json:"bikeId" binding:"required"`
	Reason    string `json:"reason"`
	Email     string `json:"email"`
	UserPrice int64  `json:"userPrice"`
}

// CreateManualRequest records and applies a manual price
// @Summary Create manual price request
// @Tags revision
// @Accept json
// @Produce json
// @Param request body ManualRequest true "Vehicle and price"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid new price"
// @Failure 404 {object} map[string]string "Bike not found"
// @Router /internal/revision/manual [post]
func (h *RevisionHandler) CreateManualRequest(c *gin.Context) {
	var req ManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateManualRequest(c.Request.Context(), req.BikeID, req.Reason, req.Email, req.UserPrice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Bikes sent successfully",
		"result":  result,
	})
}

// ChangeStatus accepts, rejects or modifies a pending request
// @Summary Resolve price request
// @Tags revision
// @Accept json
// @Produce json
// @Param request body revision.ChangeStatusInput true "Decision"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Unknown status or missing price"
// @Failure 404 {object} map[string]string "Valid price request not found"
// @Router /internal/revision/status [post]
func (h *RevisionHandler) ChangeStatus(c *gin.Context) {
	var in revision.ChangeStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.service.ChangeStatus(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Price request action completed successfully",
	})
}

// RunRevisionScan runs the batch revision scan synchronously
// POST /internal/webhook/price-revisions
func (h *RevisionHandler) RunRevisionScan(c *gin.Context) {
	summary, err := h.scanner.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().
		Int("created", summary.Created).
		Int("failed", summary.Failed).
		Msg("Revision webhook completed")

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Webhook executed successfully",
		"data":    summary,
	})
}
