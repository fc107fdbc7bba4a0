// Package catalog - Normalization boundary tests
package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"studycost/core/types"
)

// TestNormalizeBareArray proves a bare JSON array normalizes into options
func TestNormalizeBareArray(t *testing.T) {
	payload := []byte(`[
		{"code":"STD","label":"Standard","amount":500000},
		{"code":"PRM","label":"Premium","amount":1250000}
	]`)

	cat := NormalizePayload(types.CategoryServiceFee, payload)

	if cat.Len() != 2 {
		t.Fatalf("Expected 2 options, got %d", cat.Len())
	}
	amount, ok := cat.Lookup("PRM")
	if !ok || !amount.Equal(decimal.NewFromInt(1250000)) {
		t.Errorf("Expected PRM = 1250000, got %s (found=%v)", amount, ok)
	}
}

// TestNormalizeDataEnvelope proves the {"data":[...]} shape is accepted
func TestNormalizeDataEnvelope(t *testing.T) {
	payload := []byte(`{"data":[{"code":"VIS1","label":"Student visa","amount":300000}],"total":1}`)

	cat := NormalizePayload(types.CategoryVisa, payload)

	if cat.Len() != 1 {
		t.Fatalf("Expected 1 option, got %d", cat.Len())
	}
	if cat.Options[0].Label != "Student visa" {
		t.Errorf("Expected label preserved, got %q", cat.Options[0].Label)
	}
}

// TestNormalizeErrorObject proves a non-array payload degrades to an empty
// catalog instead of failing
func TestNormalizeErrorObject(t *testing.T) {
	for _, payload := range []string{
		`{"error":"upstream unavailable"}`,
		`null`,
		`"oops"`,
		`42`,
		``,
	} {
		cat := NormalizePayload(types.CategoryAddon, []byte(payload))
		if cat == nil {
			t.Fatalf("Expected a catalog for payload %q, got nil", payload)
		}
		if cat.Len() != 0 {
			t.Errorf("Expected empty catalog for payload %q, got %d options", payload, cat.Len())
		}
	}
}

// TestNormalizeMissingAmountDefaultsToZero proves absent or malformed
// amounts coerce to zero
func TestNormalizeMissingAmountDefaultsToZero(t *testing.T) {
	payload := []byte(`[
		{"code":"NOAMT","label":"No amount"},
		{"code":"BAD","label":"Bad amount","amount":"abc"},
		{"code":"NEG","label":"Negative","amount":-500}
	]`)

	cat := NormalizePayload(types.CategoryInsurance, payload)

	for _, code := range []string{"NOAMT", "BAD", "NEG"} {
		amount, ok := cat.Lookup(code)
		if !ok {
			t.Fatalf("Expected option %s to survive normalization", code)
		}
		if !amount.IsZero() {
			t.Errorf("Expected %s amount coerced to zero, got %s", code, amount)
		}
	}
}

// TestNormalizeFieldAliases proves provider-specific field names resolve
func TestNormalizeFieldAliases(t *testing.T) {
	payload := []byte(`[
		{"value":"A","name":"Alias code","price":1000},
		{"id":"B","title":"Id code","harga":"2500"}
	]`)

	cat := NormalizePayload(types.CategoryServiceFee, payload)

	if amount, _ := cat.Lookup("A"); !amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected A = 1000, got %s", amount)
	}
	if amount, _ := cat.Lookup("B"); !amount.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("Expected B = 2500 from string amount, got %s", amount)
	}
}

// TestNormalizeSkipsRecordsWithoutCode proves unkeyed records are dropped
func TestNormalizeSkipsRecordsWithoutCode(t *testing.T) {
	payload := []byte(`[{"label":"orphan","amount":100},{"code":"OK","amount":200}]`)

	cat := NormalizePayload(types.CategoryAddon, payload)

	if cat.Len() != 1 || cat.Options[0].Code != "OK" {
		t.Errorf("Expected only the keyed record, got %+v", cat.Options)
	}
}

// TestNormalizeDuplicateCodesFirstWins proves duplicate codes keep the first row
func TestNormalizeDuplicateCodesFirstWins(t *testing.T) {
	payload := []byte(`[{"code":"X","amount":100},{"code":"X","amount":999}]`)

	cat := NormalizePayload(types.CategoryAddon, payload)

	if cat.Len() != 1 {
		t.Fatalf("Expected 1 option, got %d", cat.Len())
	}
	if amount, _ := cat.Lookup("X"); !amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected first row to win, got %s", amount)
	}
}

// TestNormalizeLabelFallsBackToCode proves a missing label displays the code
func TestNormalizeLabelFallsBackToCode(t *testing.T) {
	payload := []byte(`[{"code":"RAW","amount":100}]`)

	cat := NormalizePayload(types.CategoryAddon, payload)

	if cat.Options[0].Label != "RAW" {
		t.Errorf("Expected label fallback to code, got %q", cat.Options[0].Label)
	}
}
