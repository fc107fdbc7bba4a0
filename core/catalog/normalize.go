// Package catalog normalizes raw provider payloads into canonical catalogs.
// Downstream code never sees provider-specific shapes: everything past this
// boundary is a []types.PriceOption.
package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"studycost/core/types"
)

// Field aliases accepted from provider payloads. Providers disagree on
// naming; the first non-empty alias wins.
var (
	codeKeys   = []string{"code", "value", "key", "id", "sku"}
	labelKeys  = []string{"label", "name", "title"}
	amountKeys = []string{"amount", "price", "nominal", "harga", "amount_minor"}
)

// NormalizePayload converts a raw catalog response body into a catalog.
// The payload is either a bare JSON array of option records or an object
// carrying a "data" array. Anything else (error objects, nulls, scalars)
// normalizes to an empty catalog rather than failing: the calculator must
// render "no options", not crash.
func NormalizePayload(category types.Category, payload []byte) *types.Catalog {
	records := extractRecords(payload)
	return NormalizeRecords(category, records)
}

// NormalizeRecords converts decoded option records into a catalog. Records
// without a usable code are dropped; a missing or non-numeric amount
// defaults to zero.
func NormalizeRecords(category types.Category, records []map[string]interface{}) *types.Catalog {
	options := make([]types.PriceOption, 0, len(records))
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		code := firstString(rec, codeKeys)
		if code == "" {
			continue
		}
		// First occurrence wins for duplicate codes
		if seen[code] {
			continue
		}
		seen[code] = true

		label := firstString(rec, labelKeys)
		if label == "" {
			label = code
		}

		options = append(options, types.PriceOption{
			Code:   code,
			Label:  label,
			Amount: firstAmount(rec, amountKeys),
		})
	}

	return &types.Catalog{
		Category:  category,
		Options:   options,
		Currency:  types.CurrencyIDR,
		FetchedAt: time.Now().UTC(),
	}
}

// extractRecords handles the array-or-envelope duality of provider payloads
func extractRecords(payload []byte) []map[string]interface{} {
	var bare []map[string]interface{}
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare
	}

	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		return envelope.Data
	}

	return nil
}

// firstString returns the first non-empty string value among the aliases
func firstString(rec map[string]interface{}, keys []string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		case json.Number:
			return s.String()
		case float64:
			return decimal.NewFromFloat(s).String()
		}
	}
	return ""
}

// firstAmount returns the first parseable non-negative amount among the
// aliases, defaulting to zero. Coercing malformed amounts to zero is a
// deliberate leniency: a bad row must degrade, not poison the catalog.
func firstAmount(rec map[string]interface{}, keys []string) decimal.Decimal {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if amount, ok := toDecimal(v); ok {
			if amount.IsNegative() {
				return decimal.Zero
			}
			return amount
		}
	}
	return decimal.Zero
}

// toDecimal coerces the JSON value shapes providers actually send
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	}
	return decimal.Zero, false
}
