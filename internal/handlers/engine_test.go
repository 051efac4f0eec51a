package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/internal/catalog"
	"github.com/vutto/pricing-service/internal/marginconfig"
	"github.com/vutto/pricing-service/internal/parsers/table"
	"github.com/vutto/pricing-service/internal/pricing"
)

type fakeCatalog struct {
	variants []pricing.Variant
	paces    []string
	brands   []string
	active   int
	applied  []catalog.ClusterUpdate
	err      error
}

func (f *fakeCatalog) ListActive(context.Context) ([]pricing.Variant, error) {
	var out []pricing.Variant
	for _, v := range f.variants {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out, f.err
}

func (f *fakeCatalog) ListAll(context.Context) ([]pricing.Variant, error) {
	return f.variants, f.err
}

func (f *fakeCatalog) LikeVariant(_ context.Context, makeModel, variant string) (*pricing.Variant, error) {
	for i := range f.variants {
		if f.variants[i].MakeModel() == makeModel && f.variants[i].Name == variant {
			return &f.variants[i], nil
		}
	}
	return nil, pricing.ErrNotFound{Message: "Bike not found"}
}

func (f *fakeCatalog) SearchByMakeModel(_ context.Context, pattern string) ([]pricing.Variant, error) {
	var out []pricing.Variant
	for _, v := range f.variants {
		if v.MakeModel() == pattern {
			out = append(out, v)
		}
	}
	return out, f.err
}

func (f *fakeCatalog) Paces(context.Context, string) ([]string, error) { return f.paces, f.err }
func (f *fakeCatalog) Brands(context.Context) ([]string, error)        { return f.brands, f.err }

func (f *fakeCatalog) CountActiveBikes(context.Context, string) (int, error) {
	return f.active, f.err
}

func (f *fakeCatalog) ClusterInfo(context.Context) (*table.Table, error) {
	return &table.Table{
		Header: []string{catalog.ColBrand, catalog.ColModel, catalog.ColVariant, catalog.ColCluster},
		Rows:   [][]string{{"Honda", "Activa 6G", "H-Smart", "Scooter 110"}},
	}, f.err
}

func (f *fakeCatalog) ApplyClusterInfo(_ context.Context, rows []catalog.ClusterUpdate) (catalog.ApplyResult, error) {
	f.applied = rows
	return catalog.ApplyResult{Updated: len(rows)}, f.err
}

type fakeMargins struct {
	rows        []marginconfig.Row
	updatedType string
	source      string
	roles       map[string][]string
	err         error
}

func (f *fakeMargins) Document(context.Context) ([]marginconfig.Row, error) {
	if f.rows == nil {
		return nil, pricing.ErrNotFound{Message: "Margins not found"}
	}
	return f.rows, f.err
}

func (f *fakeMargins) UpdateVehicleType(_ context.Context, vehicleType string, rows []marginconfig.Row) error {
	if !pricing.ParseCategory(vehicleType).IsKnown() {
		return pricing.ErrNotFound{Message: "Vehicle type not found"}
	}
	f.updatedType = vehicleType
	f.rows = rows
	return f.err
}

func (f *fakeMargins) Replace(_ context.Context, rows []marginconfig.Row, source string) error {
	f.rows = rows
	f.source = source
	return f.err
}

func (f *fakeMargins) AllowedActions(_ context.Context, email string) ([]string, error) {
	return marginconfig.RolesFor(f.roles, email), f.err
}

type fakeQuoter struct {
	result *pricing.QuoteResult
	err    error
	got    pricing.QuoteRequest
}

func (f *fakeQuoter) Quote(_ context.Context, req pricing.QuoteRequest) (*pricing.QuoteResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeWarnings struct {
	inv      *pricing.ModelInventory
	warnings []string
	year     int
}

func (f *fakeWarnings) ModelWarnings(context.Context, string) (*pricing.ModelInventory, error) {
	return f.inv, nil
}

func (f *fakeWarnings) YearWarnings(_ context.Context, _ string, year int) ([]string, error) {
	f.year = year
	return f.warnings, nil
}

type engineFixture struct {
	catalog  *fakeCatalog
	margins  *fakeMargins
	quoter   *fakeQuoter
	warnings *fakeWarnings
	router   *gin.Engine
}

func newEngineFixture() *engineFixture {
	parent := int64(1)
	f := &engineFixture{
		catalog: &fakeCatalog{
			variants: []pricing.Variant{
				{ID: 1, Brand: "Honda", Model: "Activa 6G", Name: "H-Smart", Price: 90000, PriceReduction: 2000, Pace: "FAST", IsActive: true,
					VehicleType: "scooter", Features: map[string]any{"safety": map[string]any{"abs": "CBS"}}},
				{ID: 2, Brand: "Honda", Model: "Activa 6G", Name: "Standard", LinkedVariantID: &parent, LinkedPriceDiff: 6000, Pace: "FAST", IsActive: true},
				{ID: 3, Brand: "Honda", Model: "Activa 6G", Name: "Old", Price: 70000},
			},
			paces:  []string{"FAST"},
			brands: []string{"Honda", "TVS"},
			active: 4,
		},
		margins:  &fakeMargins{roles: map[string][]string{"approver": {"ops@vutto.in"}}},
		quoter:   &fakeQuoter{},
		warnings: &fakeWarnings{},
	}

	gin.SetMode(gin.TestMode)
	f.router = gin.New()
	RegisterEngineRoutes(f.router.Group("/internal"), NewEngineHandler(f.catalog, f.margins, f.quoter, f.warnings))
	return f
}

func (f *engineFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *engineFixture) upload(t *testing.T, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestListBikes(t *testing.T) {
	f := newEngineFixture()

	w := f.do(t, http.MethodGet, "/internal/engine/bike/list", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Bikes sent successfully", body["message"])
	items := body["formattedBikeData"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, 90000.0, items[0].(map[string]any)["price"])
	assert.Equal(t, 84000.0, items[1].(map[string]any)["price"], "linked variant resolves against its parent list price")
}

func TestUsedPrice(t *testing.T) {
	quote := &pricing.QuoteResult{Variant: &pricing.Quote{
		UsedPrice: 61000,
		NewPrice:  90000,
		MarginResult: pricing.MarginResult{
			IsMarginRangeSet:         true,
			ProcurementPrice:         55000,
			ProcurementPriceMaxRange: 56000,
			ProcurementPriceMinRange: 54000,
		},
		MarkupResult: pricing.MarkupResult{IsMarkupRangeSet: true, ListingPrice: 68000},
	}}

	t.Run("full breakdown", func(t *testing.T) {
		f := newEngineFixture()
		f.quoter.result = quote

		w := f.do(t, http.MethodPost, "/internal/engine/bike/used-price", map[string]any{
			"makeModel": "Honda Activa 6G", "variant": "H-Smart", "km": 12000, "year": 2021, "owner": 1,
		})
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		assert.Equal(t, "Price calculated & sent successfully", body["message"])
		data := body["data"].(map[string]any)
		assert.Equal(t, 61000.0, data["usedPrice"])
		assert.Equal(t, 68000.0, data["listingPrice"])
		assert.Equal(t, "H-Smart", f.quoter.got.Variant)
		assert.Equal(t, 12000, f.quoter.got.Km)
	})

	t.Run("augmented range keeps procurement fields only", func(t *testing.T) {
		f := newEngineFixture()
		f.quoter.result = quote

		w := f.do(t, http.MethodPost, "/internal/engine/bike/used-price", map[string]any{
			"makeModel": "Honda Activa 6G", "variant": "H-Smart", "augmentRange": true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		data := decode(t, w)["data"].(map[string]any)
		assert.Len(t, data, 4)
		assert.Equal(t, 55000.0, data["procurementPrice"])
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"invalid input", pricing.ErrInvalidInput{Field: "km", Reason: "Km range doesnt fit vutto criteria"}, http.StatusBadRequest, "Km range doesnt fit vutto criteria"},
		{"not found", pricing.ErrNotFound{Message: "Bike not found"}, http.StatusNotFound, "Bike not found"},
		{"broken chain", pricing.ErrDataIntegrity{VariantID: 7, Reason: "linked variant cycle"}, http.StatusUnprocessableEntity, "variant 7: linked variant cycle"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture()
			f.quoter.err = tc.err

			w := f.do(t, http.MethodPost, "/internal/engine/bike/used-price", map[string]any{"makeModel": "Honda Activa 6G"})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decode(t, w)["error"])
		})
	}
}

func TestVariantFeatures(t *testing.T) {
	f := newEngineFixture()

	w := f.do(t, http.MethodPost, "/internal/engine/bike/features", VariantRequest{MakeModel: "Honda Activa 6G", Variant: "H-Smart"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "scooter", body["vehicleType"])
	assert.Equal(t, map[string]any{"abs": "CBS"}, body["features"])

	w = f.do(t, http.MethodPost, "/internal/engine/bike/features", VariantRequest{MakeModel: "Honda Activa 6G", Variant: "Nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/internal/engine/bike/features", map[string]string{"makeModel": "Honda Activa 6G"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMargins(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		f := newEngineFixture()
		w := f.do(t, http.MethodGet, "/internal/engine/margin/all", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Margins not found", decode(t, w)["error"])
	})

	t.Run("update one vehicle type", func(t *testing.T) {
		f := newEngineFixture()
		w := f.do(t, http.MethodPost, "/internal/engine/margin/update", UpdateMarginRequest{
			VehicleType:    "Scooter",
			UpdatedMargins: []marginconfig.Row{{"fuel": "PETROL", "pace": "FAST", "range low": 0.0, "range high": 50000.0}},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Margins updated successfully", decode(t, w)["message"])
		assert.Equal(t, "Scooter", f.margins.updatedType)

		w = f.do(t, http.MethodGet, "/internal/engine/margin/all", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["data"], 1)
	})

	t.Run("unknown vehicle type", func(t *testing.T) {
		f := newEngineFixture()
		w := f.do(t, http.MethodPost, "/internal/engine/margin/update", UpdateMarginRequest{VehicleType: "truck"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Vehicle type not found", decode(t, w)["error"])
	})
}

func TestMarginFile(t *testing.T) {
	csv := []byte("fuel,pace,range low,range high,absolute min,markup %\nPETROL,FAST,0,50000,3000,12\n")

	t.Run("upload replaces the document", func(t *testing.T) {
		f := newEngineFixture()
		w := f.upload(t, "/internal/engine/margin/file", "margins.csv", csv)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.Len(t, f.margins.rows, 1)
		assert.Equal(t, 50000.0, f.margins.rows[0]["range high"])
		assert.Equal(t, "PETROL", f.margins.rows[0]["fuel"])
		assert.Equal(t, "upload:margins.csv", f.margins.source)
	})

	t.Run("invalid document", func(t *testing.T) {
		f := newEngineFixture()
		w := f.upload(t, "/internal/engine/margin/file", "margins.csv", []byte("fuel,pace\nPETROL,FAST\n"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["error"], "invalid margin document")
		assert.Nil(t, f.margins.rows)
	})

	t.Run("missing file", func(t *testing.T) {
		f := newEngineFixture()
		w := f.do(t, http.MethodPost, "/internal/engine/margin/file", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("download csv and xlsx", func(t *testing.T) {
		f := newEngineFixture()
		f.margins.rows = []marginconfig.Row{{"fuel": "PETROL", "pace": "FAST", "range low": 0.0, "range high": 50000.0}}

		w := f.do(t, http.MethodGet, "/internal/engine/margin/file", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="margins.csv"`)
		assert.Contains(t, w.Body.String(), "PETROL,FAST,0,50000")

		w = f.do(t, http.MethodGet, "/internal/engine/margin/file?format=xlsx", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, table.ContentType(table.FormatXLSX), w.Header().Get("Content-Type"))
		rows, err := marginconfig.Import(w.Body.Bytes(), table.FormatXLSX)
		require.NoError(t, err)
		assert.Equal(t, f.margins.rows, rows)

		w = f.do(t, http.MethodGet, "/internal/engine/margin/file?format=pdf", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestClusterFile(t *testing.T) {
	f := newEngineFixture()

	w := f.do(t, http.MethodGet, "/internal/engine/cluster/file", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Honda,Activa 6G,H-Smart,Scooter 110")

	w = f.upload(t, "/internal/engine/cluster/file", "clusters.csv", w.Body.Bytes())
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Bikes and Clusters updated successfully", body["message"])
	assert.Equal(t, 1.0, body["data"].(map[string]any)["updated"])
	require.Len(t, f.catalog.applied, 1)
	assert.Equal(t, "Scooter 110", f.catalog.applied[0].Cluster)
}

func TestVariantIdentification(t *testing.T) {
	f := newEngineFixture()

	w := f.do(t, http.MethodPost, "/internal/engine/variant/identify", IdentifyRequest{
		MakeModel:   "Honda Activa 6G",
		FeatureData: map[string]any{"safety.abs": "cbs"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	possible := decode(t, w)["possibleVariant"].(map[string]any)
	assert.Equal(t, "H-Smart", possible["variant_name"])

	w = f.do(t, http.MethodPost, "/internal/engine/variant/identify", IdentifyRequest{MakeModel: "Hero Splendor"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/internal/engine/variant/options?makeModel=Honda+Activa+6G", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["differentiationRequired"])
	assert.Contains(t, body["featureOptions"], "safety.abs")

	w = f.do(t, http.MethodGet, "/internal/engine/variant/options", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryEndpoints(t *testing.T) {
	f := newEngineFixture()
	current, limit := 7, 6
	f.warnings.inv = &pricing.ModelInventory{
		Warnings:                []string{"Current Inventory levels are 7 against the limit set for 6. Avoid procuring this vehicle."},
		CurrentInventoryLevels:  &current,
		ModelInventoryMaxLevels: &limit,
	}
	f.warnings.warnings = []string{"Vehicle breaches year criteria."}

	w := f.do(t, http.MethodGet, "/internal/engine/bike/inventory?makeModel=Honda+Activa+6G", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.0, decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/internal/engine/model/warnings?makeModel=Honda+Activa+6G", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Data fetched successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, 7.0, data["currentInventoryLevels"])
	assert.Len(t, data["warnings"], 1)

	w = f.do(t, http.MethodGet, "/internal/engine/year/warnings?makeModel=Honda+Activa+6G&year=2014", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Vehicle breaches year criteria."}, decode(t, w)["data"])
	assert.Equal(t, 2014, f.warnings.year)

	w = f.do(t, http.MethodGet, "/internal/engine/year/warnings?makeModel=Honda+Activa+6G&year=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogLookups(t *testing.T) {
	f := newEngineFixture()

	w := f.do(t, http.MethodGet, "/internal/engine/model/pace?makeModel=Honda+Activa+6G", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"FAST"}, decode(t, w)["data"])

	w = f.do(t, http.MethodGet, "/internal/engine/user/role?email=OPS@vutto.in", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"approver"}, decode(t, w)["data"])

	w = f.do(t, http.MethodGet, "/internal/engine/user/role?email=someone@else.in", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["data"])

	w = f.do(t, http.MethodGet, "/internal/engine/brands", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 200.0, body["status"])
	assert.Equal(t, []any{"Honda", "TVS"}, body["data"])
	assert.NotContains(t, body, "message")
}
