// Package types defines the shared domain types for cost estimation.
package types

// Currency represents a currency code
type Currency string

const (
	CurrencyIDR Currency = "IDR"
	CurrencyUSD Currency = "USD"
	CurrencyAUD Currency = "AUD"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Category identifies a pricing category. The enumeration is open: providers
// may introduce new categories, and they flow through normalization and
// storage untouched. Only the four well-known roles below participate in
// estimate aggregation.
type Category string

const (
	// CategoryServiceFee is the single-choice agency service fee
	CategoryServiceFee Category = "SERVICE_FEE"

	// CategoryInsurance is the single-choice insurance plan
	CategoryInsurance Category = "INSURANCE"

	// CategoryVisa is the single-choice visa processing fee
	CategoryVisa Category = "VISA"

	// CategoryAddon holds independently toggle-able extras
	CategoryAddon Category = "ADDON"
)

// String returns the string representation
func (c Category) String() string {
	return string(c)
}

// WellKnownCategories lists the categories the aggregator resolves against
func WellKnownCategories() []Category {
	return []Category{CategoryServiceFee, CategoryInsurance, CategoryVisa, CategoryAddon}
}
