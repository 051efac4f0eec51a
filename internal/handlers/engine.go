package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vutto/pricing-service/internal/catalog"
	"github.com/vutto/pricing-service/internal/marginconfig"
	"github.com/vutto/pricing-service/internal/parsers/table"
	"github.com/vutto/pricing-service/internal/pricing"
)

// maxUploadSize caps margin and cluster file uploads.
const maxUploadSize = 10 << 20

// CatalogStore is the catalog access the engine endpoints need.
// *catalog.Store implements it.
type CatalogStore interface {
	ListActive(ctx context.Context) ([]pricing.Variant, error)
	ListAll(ctx context.Context) ([]pricing.Variant, error)
	LikeVariant(ctx context.Context, makeModel, variant string) (*pricing.Variant, error)
	SearchByMakeModel(ctx context.Context, pattern string) ([]pricing.Variant, error)
	Paces(ctx context.Context, pattern string) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
	CountActiveBikes(ctx context.Context, pattern string) (int, error)
	ClusterInfo(ctx context.Context) (*table.Table, error)
	ApplyClusterInfo(ctx context.Context, rows []catalog.ClusterUpdate) (catalog.ApplyResult, error)
}

// MarginStore is the margin document access. *marginconfig.Store implements it.
type MarginStore interface {
	Document(ctx context.Context) ([]marginconfig.Row, error)
	UpdateVehicleType(ctx context.Context, vehicleType string, rows []marginconfig.Row) error
	Replace(ctx context.Context, rows []marginconfig.Row, source string) error
	AllowedActions(ctx context.Context, email string) ([]string, error)
}

// Quoter prices a request. *pricing.Engine implements it.
type Quoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.QuoteResult, error)
}

// WarningChecker runs the inventory checks. *inventory.Checker implements it.
type WarningChecker interface {
	ModelWarnings(ctx context.Context, makeModel string) (*pricing.ModelInventory, error)
	YearWarnings(ctx context.Context, makeModel string, year int) ([]string, error)
}

// EngineHandler serves the pricing engine endpoints.
type EngineHandler struct {
	catalog  CatalogStore
	margins  MarginStore
	quoter   Quoter
	warnings WarningChecker
}

// NewEngineHandler creates an engine handler.
func NewEngineHandler(catalog CatalogStore, margins MarginStore, quoter Quoter, warnings WarningChecker) *EngineHandler {
	return &EngineHandler{
		catalog:  catalog,
		margins:  margins,
		quoter:   quoter,
		warnings: warnings,
	}
}

// RegisterEngineRoutes registers the engine routes under r.
func RegisterEngineRoutes(r *gin.RouterGroup, h *EngineHandler) {
	engine := r.Group("/engine")
	{
		engine.GET("/bike/list", h.ListBikes)
		engine.POST("/bike/used-price", h.UsedPrice)
		engine.POST("/bike/features", h.VariantFeatures)
		engine.GET("/bike/inventory", h.ActiveModelInventory)

		engine.GET("/margin/all", h.AllMargins)
		engine.POST("/margin/update", h.UpdateMargin)
		engine.GET("/margin/file", h.DownloadMarginFile)
		engine.POST("/margin/file", h.UploadMarginFile)

		engine.GET("/cluster/file", h.DownloadClusterFile)
		engine.POST("/cluster/file", h.UploadClusterFile)

		engine.POST("/variant/identify", h.IdentifyVariant)
		engine.GET("/variant/options", h.VariantOptions)

		engine.GET("/model/warnings", h.ModelWarnings)
		engine.GET("/year/warnings", h.YearWarnings)
		engine.GET("/model/pace", h.ModelPace)
		engine.GET("/user/role", h.AllowedActions)
		engine.GET("/brands", h.Brands)
	}
}

// ListBikes returns every active variant with its resolved list price
// @Summary List active variants
// @Tags engine
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/engine/bike/list [get]
func (h *EngineHandler) ListBikes(c *gin.Context) {
	ctx := c.Request.Context()

	active, err := h.catalog.ListActive(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	all, err := h.catalog.ListAll(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := catalog.BikeList(ctx, pricing.NewIndex(all), active)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            http.StatusOK,
		"message":           "Bikes sent successfully",
		"formattedBikeData": items,
	})
}

// UsedPrice prices one variant, or every variant of a model when no variant
// is given
// @Summary Calculate used price
// @Description Returns the depreciation, margin and markup breakdown. With augmentRange only procurement fields are returned.
// @Tags engine
// @Accept json
// @Produce json
// @Param request body pricing.QuoteRequest true "Vehicle details"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Variant not found"
// @Failure 422 {object} map[string]string "Broken linked variant chain"
// @Router /internal/engine/bike/used-price [post]
func (h *EngineHandler) UsedPrice(c *gin.Context) {
	var req pricing.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.quoter.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Price calculated & sent successfully",
		"data":    result.Payload(req.AugmentRange),
	})
}

// VariantRequest names a variant by free-text model and exact variant name.
type VariantRequest struct {
	MakeModel string `json:"makeModel" binding:"required"`
	Variant   string `json:"variant" binding:"required"`
}

// VariantFeatures returns the tracked key features of a variant
// POST /internal/engine/bike/features
func (h *EngineHandler) VariantFeatures(c *gin.Context) {
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, err := h.catalog.LikeVariant(c.Request.Context(), req.MakeModel, req.Variant)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      http.StatusOK,
		"message":     "Bikes sent successfully",
		"features":    pricing.KeyFeatures(v),
		"vehicleType": v.VehicleType,
	})
}

// ModelQuery selects a model by case-insensitive pattern.
type ModelQuery struct {
	MakeModel string `form:"makeModel" binding:"required"`
}

// ActiveModelInventory counts the unsold vehicles of a model
// GET /internal/engine/bike/inventory?makeModel=
func (h *EngineHandler) ActiveModelInventory(c *gin.Context) {
	var q ModelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.catalog.CountActiveBikes(c.Request.Context(), q.MakeModel)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Fetched variant options",
		"count":   n,
	})
}

// AllMargins returns the margin document
// @Summary Get margin document
// @Tags margins
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Margins not found"
// @Router /internal/engine/margin/all [get]
func (h *EngineHandler) AllMargins(c *gin.Context) {
	rows, err := h.margins.Document(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Margins fetched successfully",
		"data":    rows,
	})
}

// UpdateMarginRequest replaces the tiers of one vehicle type.
type UpdateMarginRequest struct {
	VehicleType    string              `json:"vehicleType" binding:"required"`
	UpdatedMargins []marginconfig.Row `json:"updatedMargins"`
}

// UpdateMargin replaces the tier rows of one vehicle type
// @Summary Update margins for a vehicle type
// @Tags margins
// @Accept json
// @Produce json
// @Param request body UpdateMarginRequest true "Vehicle type and its tier rows"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid margin document"
// @Failure 404 {object} map[string]string "Vehicle type or margins not found"
// @Router /internal/engine/margin/update [post]
func (h *EngineHandler) UpdateMargin(c *gin.Context) {
	var req UpdateMarginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.margins.UpdateVehicleType(c.Request.Context(), req.VehicleType, req.UpdatedMargins); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Margins updated successfully",
	})
}

// FileQuery selects the download format.
type FileQuery struct {
	Format string `form:"format"`
}

// DownloadMarginFile exports the margin document as CSV or XLSX
// GET /internal/engine/margin/file?format=csv|xlsx
func (h *EngineHandler) DownloadMarginFile(c *gin.Context) {
	format, ok := formatFromQuery(c)
	if !ok {
		return
	}

	rows, err := h.margins.Document(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := marginconfig.Export(rows, format)
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, "margins", format, data)
}

// UploadMarginFile replaces the margin document with an edited file
// POST /internal/engine/margin/file (multipart field "file")
func (h *EngineHandler) UploadMarginFile(c *gin.Context) {
	name, data, ok := readUpload(c)
	if !ok {
		return
	}

	rows, err := marginconfig.Import(data, table.FormatFromFilename(name))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.margins.Replace(c.Request.Context(), rows, "upload:"+name); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Margins updated successfully",
	})
}

// DownloadClusterFile exports every variant with its cluster settings
// GET /internal/engine/cluster/file?format=csv|xlsx
func (h *EngineHandler) DownloadClusterFile(c *gin.Context) {
	format, ok := formatFromQuery(c)
	if !ok {
		return
	}

	t, err := h.catalog.ClusterInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := table.Write(t, format, "Clusters")
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, "cluster_info", format, data)
}

// UploadClusterFile applies an edited cluster file to the catalog
// POST /internal/engine/cluster/file (multipart field "file")
func (h *EngineHandler) UploadClusterFile(c *gin.Context) {
	name, data, ok := readUpload(c)
	if !ok {
		return
	}

	t, err := table.Read(data, table.FormatFromFilename(name))
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.catalog.ApplyClusterInfo(c.Request.Context(), catalog.ClusterUpdatesFromTable(t))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Bikes and Clusters updated successfully",
		"data":    result,
	})
}

// IdentifyRequest carries the features a caller observed on a vehicle.
type IdentifyRequest struct {
	MakeModel   string         `json:"makeModel" binding:"required"`
	FeatureData map[string]any `json:"featureData"`
}

// IdentifyVariant guesses the variant of a model from observed features
// @Summary Identify variant
// @Tags variants
// @Accept json
// @Produce json
// @Param request body IdentifyRequest true "Model and observed feature values"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Bike not found"
// @Router /internal/engine/variant/identify [post]
func (h *EngineHandler) IdentifyVariant(c *gin.Context) {
	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	variants, err := h.catalog.SearchByMakeModel(c.Request.Context(), req.MakeModel)
	if err != nil {
		respondError(c, err)
		return
	}
	possible, err := catalog.IdentifyVariant(variants, req.FeatureData)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          http.StatusOK,
		"message":         "Fetched variants",
		"possibleVariant": possible,
	})
}

// VariantOptions lists the feature values that tell a model's variants apart
// GET /internal/engine/variant/options?makeModel=
func (h *EngineHandler) VariantOptions(c *gin.Context) {
	var q ModelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	variants, err := h.catalog.SearchByMakeModel(c.Request.Context(), q.MakeModel)
	if err != nil {
		respondError(c, err)
		return
	}
	opts, err := catalog.ModelFeatureOptions(variants)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                  http.StatusOK,
		"message":                 "Fetched variant options",
		"differentiationRequired": opts.DifferentiationRequired,
		"featureOptions":          opts.Options,
	})
}

// ModelWarnings reports the cluster inventory of a model
// @Summary Model inventory warnings
// @Tags inventory
// @Produce json
// @Param makeModel query string true "Make and model"
// @Success 200 {object} map[string]interface{}
// @Router /internal/engine/model/warnings [get]
func (h *EngineHandler) ModelWarnings(c *gin.Context) {
	var q ModelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.warnings.ModelWarnings(c.Request.Context(), q.MakeModel)
	if err != nil {
		respondError(c, err)
		return
	}
	dataFetched(c, inv)
}

// YearQuery selects a model and registration year.
type YearQuery struct {
	MakeModel string `form:"makeModel" binding:"required"`
	Year      int    `form:"year" binding:"required"`
}

// YearWarnings checks a registration year against the model's limits and
// its cluster's year bracket
// @Summary Model year warnings
// @Tags inventory
// @Produce json
// @Param makeModel query string true "Make and model"
// @Param year query int true "Registration year"
// @Success 200 {object} map[string]interface{}
// @Router /internal/engine/year/warnings [get]
func (h *EngineHandler) YearWarnings(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	warnings, err := h.warnings.YearWarnings(c.Request.Context(), q.MakeModel, q.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	dataFetched(c, warnings)
}

// ModelPace lists the paces of a model's variants
// GET /internal/engine/model/pace?makeModel=
func (h *EngineHandler) ModelPace(c *gin.Context) {
	var q ModelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	paces, err := h.catalog.Paces(c.Request.Context(), q.MakeModel)
	if err != nil {
		respondError(c, err)
		return
	}
	dataFetched(c, paces)
}

// AllowedActions returns the calculator roles granted to an email
// GET /internal/engine/user/role?email=
func (h *EngineHandler) AllowedActions(c *gin.Context) {
	email := c.Query("email")

	roles, err := h.margins.AllowedActions(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	dataFetched(c, roles)
}

// Brands lists the distinct catalog brands
// GET /internal/engine/brands
func (h *EngineHandler) Brands(c *gin.Context) {
	brands, err := h.catalog.Brands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   brands,
	})
}

func dataFetched(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Data fetched successfully",
		"data":    data,
	})
}

func formatFromQuery(c *gin.Context) (table.Format, bool) {
	var q FileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return "", false
	}
	format, err := table.ParseFormat(q.Format)
	if err != nil {
		badRequest(c, err)
		return "", false
	}
	return format, true
}

func sendFile(c *gin.Context, name string, format table.Format, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	c.Data(http.StatusOK, table.ContentType(format), data)
}

// readUpload reads the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return "", nil, false
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return "", nil, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return "", nil, false
	}
	return header.Filename, data, true
}
