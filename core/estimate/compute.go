// Package estimate - Pure estimate aggregation
package estimate

import (
	"github.com/shopspring/decimal"

	"studycost/core/types"
)

// Result is the derived estimate. It is recomputed on every input change
// and never mutated directly.
type Result struct {
	// TuitionTotal is TuitionPerTerm multiplied by TermCount
	TuitionTotal decimal.Decimal `json:"tuition_total"`

	// ServiceFeeAmount is the resolved SERVICE_FEE selection, zero on miss
	ServiceFeeAmount decimal.Decimal `json:"service_fee_amount"`

	// InsuranceAmount is the resolved INSURANCE selection, zero on miss
	InsuranceAmount decimal.Decimal `json:"insurance_amount"`

	// VisaAmount is the resolved VISA selection, zero on miss
	VisaAmount decimal.Decimal `json:"visa_amount"`

	// AddonsTotal is the sum of active addons present in the ADDON catalog
	AddonsTotal decimal.Decimal `json:"addons_total"`

	// Subtotal is the sum of the four contributions before scaling
	Subtotal decimal.Decimal `json:"subtotal"`

	// ExchangeRate is the multiplier actually applied
	ExchangeRate decimal.Decimal `json:"exchange_rate"`

	// Total is Subtotal scaled by ExchangeRate, rounded half-up to whole
	// currency units
	Total decimal.Decimal `json:"total"`

	// Currency is the result currency
	Currency types.Currency `json:"currency"`
}

// Compute derives an estimate from a selection against a catalog snapshot.
//
// The function is total: it never signals an error. Unset or stale option
// keys resolve to zero, addon codes missing from the catalog are silently
// ignored, and malformed numeric inputs are coerced to zero at this
// boundary. A usable estimate always beats a hard failure in a calculator.
func Compute(selection *Selection, catalogs types.CatalogSet) Result {
	if selection == nil {
		selection = NewSelection()
	}

	tuition := coerceNonNegative(selection.TuitionPerTerm)
	terms := selection.TermCount
	if terms < 0 {
		terms = 0
	}
	tuitionTotal := tuition.Mul(decimal.NewFromInt(int64(terms)))

	serviceFee := catalogs.Resolve(types.CategoryServiceFee, selection.ServiceFeeKey)
	insurance := catalogs.Resolve(types.CategoryInsurance, selection.InsuranceKey)
	visa := catalogs.Resolve(types.CategoryVisa, selection.VisaKey)
	addons := addonsTotal(selection, catalogs.Get(types.CategoryAddon))

	subtotal := tuitionTotal.Add(serviceFee).Add(insurance).Add(visa).Add(addons)

	rate := selection.ExchangeRate
	if !rate.IsPositive() {
		rate = decimal.NewFromInt(1)
	}

	// Round half-up to the nearest whole currency unit. All contributions
	// are non-negative and the rate is positive, so Total >= 0 holds.
	total := subtotal.Mul(rate).Round(0)

	return Result{
		TuitionTotal:     tuitionTotal,
		ServiceFeeAmount: serviceFee,
		InsuranceAmount:  insurance,
		VisaAmount:       visa,
		AddonsTotal:      addons,
		Subtotal:         subtotal,
		ExchangeRate:     rate,
		Total:            total,
		Currency:         types.CurrencyIDR,
	}
}

// addonsTotal sums the catalog amounts of every addon flagged active.
// Flags whose code has no catalog entry contribute nothing.
func addonsTotal(selection *Selection, catalog *types.Catalog) decimal.Decimal {
	total := decimal.Zero
	for code, active := range selection.Addons {
		if !active {
			continue
		}
		amount, ok := catalog.Lookup(code)
		if !ok {
			continue
		}
		total = total.Add(amount)
	}
	return total
}

// coerceNonNegative clamps negative amounts to zero. Inputs are guarded
// upstream by min=0 constraints, but the aggregation boundary enforces the
// invariant regardless.
func coerceNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
