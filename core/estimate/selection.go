// Package estimate computes cost estimates from user selections.
package estimate

import (
	"github.com/shopspring/decimal"
)

// Selection holds the user-chosen option keys per category, the tuition
// inputs, and the exchange-rate multiplier. It is session-scoped, mutable,
// and never persisted; the derived Result is recomputed from it on demand.
type Selection struct {
	// ServiceFeeKey references an option in the SERVICE_FEE catalog; empty
	// means no selection
	ServiceFeeKey string `json:"service_fee_key,omitempty"`

	// InsuranceKey references an option in the INSURANCE catalog
	InsuranceKey string `json:"insurance_key,omitempty"`

	// VisaKey references an option in the VISA catalog
	VisaKey string `json:"visa_key,omitempty"`

	// Addons maps addon codes to their active flag
	Addons map[string]bool `json:"addons,omitempty"`

	// TuitionPerTerm is the tuition amount per term in the base currency
	TuitionPerTerm decimal.Decimal `json:"tuition_per_term"`

	// TermCount is the number of terms, zero when unset
	TermCount int `json:"term_count"`

	// ExchangeRate scales the subtotal; non-positive values fall back to 1
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{
		Addons:       make(map[string]bool),
		ExchangeRate: decimal.NewFromInt(1),
	}
}

// SetServiceFee selects a service fee option; empty clears the selection
func (s *Selection) SetServiceFee(code string) {
	s.ServiceFeeKey = code
}

// SetInsurance selects an insurance option; empty clears the selection
func (s *Selection) SetInsurance(code string) {
	s.InsuranceKey = code
}

// SetVisa selects a visa option; empty clears the selection
func (s *Selection) SetVisa(code string) {
	s.VisaKey = code
}

// SetAddon sets or clears one addon flag without touching other fields
func (s *Selection) SetAddon(code string, active bool) {
	if s.Addons == nil {
		s.Addons = make(map[string]bool)
	}
	if active {
		s.Addons[code] = true
	} else {
		delete(s.Addons, code)
	}
}

// ToggleAddon flips one addon flag
func (s *Selection) ToggleAddon(code string) {
	s.SetAddon(code, !s.Addons[code])
}

// SetTuitionPerTerm sets the tuition amount per term
func (s *Selection) SetTuitionPerTerm(amount decimal.Decimal) {
	s.TuitionPerTerm = amount
}

// SetTermCount sets the number of terms
func (s *Selection) SetTermCount(count int) {
	s.TermCount = count
}

// SetExchangeRate sets the exchange-rate multiplier
func (s *Selection) SetExchangeRate(rate decimal.Decimal) {
	s.ExchangeRate = rate
}
