// Package api - HTTP layer for the estimation service
// The API is only responsible for input ingestion, validation, and output
// serialization. It never performs cost logic; that lives in core/estimate.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycost/core/catalog"
	"studycost/core/currency"
	"studycost/core/estimate"
	"studycost/core/types"
	"studycost/db"
	"studycost/export"
	"studycost/internal/config"
	"studycost/internal/logging"
)

// CacheInvalidator drops cached catalog entries after a refresh
type CacheInvalidator interface {
	Invalidate(ctx context.Context, category types.Category)
}

// Options are the optional server collaborators
type Options struct {
	// Store serves snapshot listings; nil disables those endpoints
	Store db.CatalogStore

	// Invalidator is notified when a category is refreshed
	Invalidator CacheInvalidator

	// Archive records exported estimates; nil disables archiving
	Archive export.Archive

	// Consult configures the consultation deep link
	Consult config.ConsultConfig
}

// Server is the API server
type Server struct {
	refresher *catalog.Refresher
	store     db.CatalogStore
	inval     CacheInvalidator
	archive   export.Archive
	consult   config.ConsultConfig
	validate  *validator.Validate
	mux       *http.ServeMux
	version   string
	log       *zap.Logger

	// Metrics
	mu             sync.RWMutex
	requestCount   int64
	errorCount     int64
	totalLatencyMs int64
}

// NewServer creates the API server over a catalog refresher
func NewServer(version string, refresher *catalog.Refresher, opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}
	s := &Server{
		refresher: refresher,
		store:     opts.Store,
		inval:     opts.Invalidator,
		archive:   opts.Archive,
		consult:   opts.Consult,
		validate:  validator.New(),
		mux:       http.NewServeMux(),
		version:   version,
		log:       logging.Named("api"),
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /api/v1/estimate", s.handleEstimate)
	s.mux.HandleFunc("POST /api/v1/estimate/export", s.handleExport)
	s.mux.HandleFunc("GET /api/v1/exports/{id}", s.handleGetExport)
	s.mux.HandleFunc("GET /api/v1/exports/{old}/compare/{new}", s.handleCompareExports)
	s.mux.HandleFunc("GET /api/v1/catalogs", s.handleListCatalogs)
	s.mux.HandleFunc("GET /api/v1/catalogs/{category}", s.handleGetCatalog)
	s.mux.HandleFunc("POST /api/v1/catalogs/{category}/refresh", s.handleRefreshCatalog)
	s.mux.HandleFunc("GET /api/v1/snapshots/{category}", s.handleListSnapshots)
	s.mux.HandleFunc("GET /api/v1/consult-link", s.handleConsultLink)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
}

// Handler returns the full handler with middleware applied
func (s *Server) Handler(enableCORS bool, allowedOrigins []string) http.Handler {
	var handler http.Handler = s.mux
	handler = s.corsMiddleware(handler, enableCORS, allowedOrigins)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// ServeHTTP implements http.Handler without CORS, for embedding and tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleEstimate handles POST /api/v1/estimate
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, ok := s.decodeEstimateRequest(w, r)
	if !ok {
		return
	}

	resp := s.buildEstimateResponse(req, start)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleExport handles POST /api/v1/estimate/export
// The summary document is rendered server-side; rasterization to PDF is the
// caller's concern. An export failure never touches estimate state.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, ok := s.decodeEstimateRequest(w, r)
	if !ok {
		return
	}

	resp := s.buildEstimateResponse(req, start)
	summary := export.BuildSummary(resp.Result)

	archiveID := ""
	if s.archive != nil {
		record := &export.ArchivedEstimate{
			ClientID: r.URL.Query().Get("client_id"),
			Result:   resp.Result,
			Summary:  summary,
		}
		if err := s.archive.Save(r.Context(), record); err != nil {
			// Archiving must never block the export itself
			s.log.Warn("archiving estimate failed", zap.Error(err))
		} else {
			archiveID = record.ID
		}
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, summary.RenderText())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary":    summary,
		"archive_id": archiveID,
	})
}

// handleGetExport handles GET /api/v1/exports/{id}
func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "estimate archive not configured")
		return
	}
	record, err := s.archive.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// handleCompareExports handles GET /api/v1/exports/{old}/compare/{new}
func (s *Server) handleCompareExports(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "estimate archive not configured")
		return
	}
	result, err := s.archive.Compare(r.Context(), r.PathValue("old"), r.PathValue("new"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleListCatalogs handles GET /api/v1/catalogs
func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	snapshot := s.refresher.Snapshot()

	responses := make([]CatalogResponse, 0, len(snapshot))
	for _, category := range types.WellKnownCategories() {
		responses = append(responses, s.catalogResponse(category, snapshot.Get(category)))
	}
	for category, cat := range snapshot {
		if isWellKnown(category) {
			continue
		}
		responses = append(responses, s.catalogResponse(category, cat))
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"catalogs": responses,
		"count":    len(responses),
	})
}

// handleGetCatalog handles GET /api/v1/catalogs/{category}
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	category := types.Category(strings.ToUpper(r.PathValue("category")))
	cat := s.refresher.Catalog(category)
	if cat == nil {
		// Never fetched; fetch on demand so first reads work
		cat = s.refresher.Refresh(r.Context(), category)
	}
	s.writeJSON(w, http.StatusOK, s.catalogResponse(category, cat))
}

// handleRefreshCatalog handles POST /api/v1/catalogs/{category}/refresh
func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	category := types.Category(strings.ToUpper(r.PathValue("category")))

	if s.inval != nil {
		s.inval.Invalidate(r.Context(), category)
	}
	cat := s.refresher.Refresh(r.Context(), category)

	s.writeJSON(w, http.StatusOK, s.catalogResponse(category, cat))
}

// handleListSnapshots handles GET /api/v1/snapshots/{category}
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "SNAPSHOT_STORE_DISABLED", "snapshot store not configured")
		return
	}

	category := types.Category(strings.ToUpper(r.PathValue("category")))
	snapshots, err := s.store.ListSnapshots(r.Context(), category)
	if err != nil {
		s.countError()
		s.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// handleConsultLink handles GET /api/v1/consult-link
func (s *Server) handleConsultLink(w http.ResponseWriter, r *http.Request) {
	if s.consult.Phone == "" {
		s.writeError(w, http.StatusServiceUnavailable, "CONSULT_DISABLED", "no consultation destination configured")
		return
	}

	link := url.URL{
		Scheme:   "https",
		Host:     "wa.me",
		Path:     "/" + s.consult.Phone,
		RawQuery: url.Values{"text": {s.consult.Message}}.Encode(),
	}
	s.writeJSON(w, http.StatusOK, ConsultLinkResponse{URL: link.String()})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version":     s.version,
		"engine":      "studycost",
		"api_version": "v1",
	})
}

// handleMetrics handles GET /metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	avgLatency := float64(0)
	if s.requestCount > 0 {
		avgLatency = float64(s.totalLatencyMs) / float64(s.requestCount)
	}

	metrics := fmt.Sprintf(`# HELP studycost_requests_total Total requests
# TYPE studycost_requests_total counter
studycost_requests_total %d

# HELP studycost_errors_total Total errors
# TYPE studycost_errors_total counter
studycost_errors_total %d

# HELP studycost_latency_avg_ms Average latency
# TYPE studycost_latency_avg_ms gauge
studycost_latency_avg_ms %.2f
`, s.requestCount, s.errorCount, avgLatency)

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(metrics))
}

// decodeEstimateRequest parses and validates the shared estimate body
func (s *Server) decodeEstimateRequest(w http.ResponseWriter, r *http.Request) (*EstimateRequest, bool) {
	var req EstimateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.countError()
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return nil, false
	}
	if err := s.validate.Struct(&req); err != nil {
		s.countError()
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return nil, false
	}
	return &req, true
}

// buildEstimateResponse computes the estimate against the current catalog
// snapshot and assembles the response
func (s *Server) buildEstimateResponse(req *EstimateRequest, start time.Time) *EstimateResponse {
	snapshot := s.refresher.Snapshot()
	result := estimate.Compute(req.ToSelection(), snapshot)

	var warnings []CategoryWarning
	for _, category := range types.WellKnownCategories() {
		if msg, failed := s.refresher.LastFailure(category); failed {
			warnings = append(warnings, CategoryWarning{
				Category: category.String(),
				Message:  msg,
			})
		}
	}

	return &EstimateResponse{
		Success: true,
		Result:  result,
		Formatted: FormattedAmounts{
			TuitionTotal: currency.FormatDecimal(result.TuitionTotal),
			ServiceFee:   currency.FormatDecimal(result.ServiceFeeAmount),
			Insurance:    currency.FormatDecimal(result.InsuranceAmount),
			Visa:         currency.FormatDecimal(result.VisaAmount),
			AddonsTotal:  currency.FormatDecimal(result.AddonsTotal),
			Subtotal:     currency.FormatDecimal(result.Subtotal),
			Total:        currency.FormatDecimal(result.Total),
		},
		Warnings: warnings,
		Metadata: ResponseMetadata{
			RequestID:     uuid.NewString(),
			InputHash:     inputHash(req),
			EngineVersion: s.version,
			DurationMs:    time.Since(start).Milliseconds(),
		},
	}
}

// catalogResponse shapes one category's catalog for the wire
func (s *Server) catalogResponse(category types.Category, cat *types.Catalog) CatalogResponse {
	resp := CatalogResponse{
		Category: category.String(),
		Options:  []types.PriceOption{},
	}
	if cat != nil {
		resp.Source = cat.Source
		resp.FetchedAt = cat.FetchedAt
		if cat.Options != nil {
			resp.Options = cat.Options
		}
	}
	if msg, failed := s.refresher.LastFailure(category); failed {
		resp.Degraded = true
		resp.Message = msg
	}
	return resp
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func (s *Server) countError() {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()
}

// inputHash computes a deterministic hash of the canonical request JSON
func inputHash(req *EstimateRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func isWellKnown(category types.Category) bool {
	for _, known := range types.WellKnownCategories() {
		if category == known {
			return true
		}
	}
	return false
}
