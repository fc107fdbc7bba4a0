package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"studycost/core/catalog"
	"studycost/core/types"
	"studycost/export"
	"studycost/internal/config"
	"studycost/providers/static"
)

// failingFetcher always errors, for degraded-catalog tests
type failingFetcher struct{}

func (f *failingFetcher) Source() string { return "failing" }

func (f *failingFetcher) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	return nil, context.DeadlineExceeded
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	provider := static.NewProvider(nil)
	provider.Put(&types.Catalog{
		Category: types.CategoryServiceFee,
		Currency: types.CurrencyIDR,
		Options: []types.PriceOption{
			{Code: "standard", Label: "Standard", Amount: decimal.NewFromInt(1500000)},
			{Code: "premium", Label: "Premium", Amount: decimal.NewFromInt(3000000)},
		},
	})
	provider.Put(&types.Catalog{
		Category: types.CategoryInsurance,
		Currency: types.CurrencyIDR,
		Options: []types.PriceOption{
			{Code: "basic", Label: "Basic", Amount: decimal.NewFromInt(350000)},
		},
	})
	provider.Put(&types.Catalog{
		Category: types.CategoryVisa,
		Currency: types.CurrencyIDR,
		Options: []types.PriceOption{
			{Code: "student", Label: "Student visa", Amount: decimal.NewFromInt(1200000)},
		},
	})
	provider.Put(&types.Catalog{
		Category: types.CategoryAddon,
		Currency: types.CurrencyIDR,
		Options: []types.PriceOption{
			{Code: "airport_pickup", Label: "Airport pickup", Amount: decimal.NewFromInt(500000)},
			{Code: "housing", Label: "Housing search", Amount: decimal.NewFromInt(750000)},
		},
	})

	refresher := catalog.NewRefresher(provider)
	refresher.RefreshAll(context.Background(), types.WellKnownCategories()...)

	return NewServer("test", refresher, &Options{
		Archive: export.NewMemoryArchive(),
		Consult: config.ConsultConfig{
			Phone:   "6281234567890",
			Message: "Halo, saya ingin konsultasi biaya studi.",
		},
	})
}

func postJSON(t *testing.T, srv *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// TestEstimateEndpoint proves a full selection aggregates across all four
// categories plus tuition and formats the total in rupiah.
func TestEstimateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/v1/estimate", map[string]interface{}{
		"service_fee_key":  "standard",
		"insurance_key":    "basic",
		"visa_key":         "student",
		"addons":           map[string]bool{"airport_pickup": true},
		"tuition_per_term": 0,
		"term_count":       0,
		"exchange_rate":    1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	// 1500000 + 350000 + 1200000 + 500000
	if got := resp.Result.Total.String(); got != "3550000" {
		t.Errorf("total = %s, want 3550000", got)
	}
	if resp.Formatted.Total != "Rp 3.550.000" {
		t.Errorf("formatted total = %q, want %q", resp.Formatted.Total, "Rp 3.550.000")
	}
	if resp.Metadata.RequestID == "" {
		t.Error("expected a request ID")
	}
	if len(resp.Metadata.InputHash) != 64 {
		t.Errorf("input hash length = %d, want 64", len(resp.Metadata.InputHash))
	}
}

// TestEstimateStaleKeyResolvesToZero proves an option key absent from the
// current catalog contributes nothing instead of failing the request.
func TestEstimateStaleKeyResolvesToZero(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/v1/estimate", map[string]interface{}{
		"service_fee_key": "retired_package",
		"insurance_key":   "basic",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Result.ServiceFeeAmount.IsZero() {
		t.Errorf("service fee = %s, want 0", resp.Result.ServiceFeeAmount)
	}
	if got := resp.Result.Total.String(); got != "350000" {
		t.Errorf("total = %s, want 350000", got)
	}
}

// TestEstimateMalformedNumbersCoerce proves junk numeric fields decode as
// zero rather than rejecting the request.
func TestEstimateMalformedNumbersCoerce(t *testing.T) {
	srv := newTestServer(t)

	body := `{"insurance_key":"basic","tuition_per_term":"abc","exchange_rate":{"bad":true}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got := resp.Result.Total.String(); got != "350000" {
		t.Errorf("total = %s, want 350000", got)
	}
}

func TestEstimateInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEstimateValidationFailure(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/v1/estimate", map[string]interface{}{
		"term_count": 999,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

// TestEstimateDegradedCategoryWarns proves a fetch failure in one category
// surfaces as a warning while the estimate still succeeds.
func TestEstimateDegradedCategoryWarns(t *testing.T) {
	refresher := catalog.NewRefresher(&failingFetcher{})
	refresher.Refresh(context.Background(), types.CategoryVisa)
	srv := NewServer("test", refresher, nil)

	rec := postJSON(t, srv, "/api/v1/estimate", map[string]interface{}{
		"visa_key": "student",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Result.Total.IsZero() {
		t.Errorf("total = %s, want 0", resp.Result.Total)
	}
	found := false
	for _, w := range resp.Warnings {
		if w.Category == "VISA" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a VISA warning, got %v", resp.Warnings)
	}
}

func TestListCatalogs(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalogs", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Catalogs []CatalogResponse `json:"catalogs"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 4 {
		t.Errorf("count = %d, want 4", resp.Count)
	}
}

func TestGetCatalogNormalizesCase(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalogs/service_fee", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp CatalogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Category != "SERVICE_FEE" {
		t.Errorf("category = %q, want SERVICE_FEE", resp.Category)
	}
	if len(resp.Options) != 2 {
		t.Errorf("options = %d, want 2", len(resp.Options))
	}
}

func TestRefreshCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalogs/INSURANCE/refresh", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp CatalogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Degraded {
		t.Error("did not expect a degraded catalog")
	}
	if len(resp.Options) != 1 {
		t.Errorf("options = %d, want 1", len(resp.Options))
	}
}

func TestConsultLink(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/consult-link", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ConsultLinkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "https://wa.me/6281234567890?text=") {
		t.Errorf("unexpected link: %q", resp.URL)
	}
	if strings.Contains(resp.URL, " ") {
		t.Errorf("link must be fully encoded: %q", resp.URL)
	}
}

func TestConsultLinkUnconfigured(t *testing.T) {
	refresher := catalog.NewRefresher(static.NewProvider(nil))
	srv := NewServer("test", refresher, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/consult-link", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestExportText(t *testing.T) {
	srv := newTestServer(t)

	data, _ := json.Marshal(map[string]interface{}{
		"service_fee_key": "standard",
		"insurance_key":   "basic",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate/export?format=text", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Estimasi Biaya Studi") {
		t.Errorf("missing title in export:\n%s", body)
	}
	if !strings.Contains(body, "Rp 1.850.000") {
		t.Errorf("missing total in export:\n%s", body)
	}
}

// TestExportArchivesAndCompares proves an export is archived and two
// archived exports can be compared by total.
func TestExportArchivesAndCompares(t *testing.T) {
	srv := newTestServer(t)

	exportOnce := func(body map[string]interface{}) string {
		t.Helper()
		rec := postJSON(t, srv, "/api/v1/estimate/export?client_id=budi", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			ArchiveID string `json:"archive_id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.ArchiveID == "" {
			t.Fatal("expected an archive ID")
		}
		return resp.ArchiveID
	}

	oldID := exportOnce(map[string]interface{}{"insurance_key": "basic"})
	newID := exportOnce(map[string]interface{}{"insurance_key": "basic", "visa_key": "student"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+oldID, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get export status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+oldID+"/compare/"+newID, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("compare status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var cmp export.CompareResult
	if err := json.Unmarshal(rec.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("decoding comparison: %v", err)
	}
	if got := cmp.Delta.String(); got != "1200000" {
		t.Errorf("delta = %s, want 1200000", got)
	}
}

func TestGetExportUnknownID(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/nope", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/version"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	handler := srv.Handler(false, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "studycost_requests_total") {
		t.Errorf("missing request counter:\n%s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler(true, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/estimate", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS header")
	}
}
