// Package api - Request and response types
package api

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"

	"studycost/core/estimate"
	"studycost/core/types"
)

// LenientNumber is a JSON number that coerces malformed input to zero
// instead of failing the whole request. It accepts numbers and numeric
// strings; anything else decodes as zero, matching the aggregation
// boundary's coerce-to-zero policy.
type LenientNumber struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler
func (n *LenientNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		n.Decimal = decimal.Zero
		return nil
	}
	n.Decimal = d
	return nil
}

// EstimateRequest is the API estimate request body
type EstimateRequest struct {
	// ServiceFeeKey references an option in the SERVICE_FEE catalog
	ServiceFeeKey string `json:"service_fee_key,omitempty" validate:"max=64"`

	// InsuranceKey references an option in the INSURANCE catalog
	InsuranceKey string `json:"insurance_key,omitempty" validate:"max=64"`

	// VisaKey references an option in the VISA catalog
	VisaKey string `json:"visa_key,omitempty" validate:"max=64"`

	// Addons maps addon codes to their active flag
	Addons map[string]bool `json:"addons,omitempty" validate:"max=100"`

	// TuitionPerTerm is the tuition amount per term
	TuitionPerTerm LenientNumber `json:"tuition_per_term"`

	// TermCount is the number of terms
	TermCount int `json:"term_count" validate:"gte=0,lte=120"`

	// ExchangeRate scales the subtotal; omit for 1
	ExchangeRate LenientNumber `json:"exchange_rate"`
}

// ToSelection converts the request into a selection
func (r *EstimateRequest) ToSelection() *estimate.Selection {
	sel := estimate.NewSelection()
	sel.SetServiceFee(r.ServiceFeeKey)
	sel.SetInsurance(r.InsuranceKey)
	sel.SetVisa(r.VisaKey)
	for code, active := range r.Addons {
		sel.SetAddon(code, active)
	}
	sel.SetTuitionPerTerm(r.TuitionPerTerm.Decimal)
	sel.SetTermCount(r.TermCount)
	sel.SetExchangeRate(r.ExchangeRate.Decimal)
	return sel
}

// FormattedAmounts carries the display strings for an estimate
type FormattedAmounts struct {
	TuitionTotal string `json:"tuition_total"`
	ServiceFee   string `json:"service_fee"`
	Insurance    string `json:"insurance"`
	Visa         string `json:"visa"`
	AddonsTotal  string `json:"addons_total"`
	Subtotal     string `json:"subtotal"`
	Total        string `json:"total"`
}

// CategoryWarning is an informational per-category degradation notice
type CategoryWarning struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ResponseMetadata carries request bookkeeping
type ResponseMetadata struct {
	RequestID     string `json:"request_id"`
	InputHash     string `json:"input_hash"`
	EngineVersion string `json:"engine_version"`
	DurationMs    int64  `json:"duration_ms"`
}

// EstimateResponse is the API estimate response
type EstimateResponse struct {
	// Success indicates if estimation succeeded
	Success bool `json:"success"`

	// Result is the computed breakdown
	Result estimate.Result `json:"result"`

	// Formatted carries display strings for every amount
	Formatted FormattedAmounts `json:"formatted"`

	// Warnings lists categories currently degraded to empty catalogs
	Warnings []CategoryWarning `json:"warnings,omitempty"`

	// Metadata carries request bookkeeping
	Metadata ResponseMetadata `json:"metadata"`
}

// CatalogResponse is one category's catalog
type CatalogResponse struct {
	Category  string              `json:"category"`
	Source    string              `json:"source,omitempty"`
	FetchedAt time.Time           `json:"fetched_at,omitempty"`
	Options   []types.PriceOption `json:"options"`
	Degraded  bool                `json:"degraded,omitempty"`
	Message   string              `json:"message,omitempty"`
}

// ConsultLinkResponse is the outbound consultation deep link
type ConsultLinkResponse struct {
	URL string `json:"url"`
}
