package cmd

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"studycost/core/estimate"
)

// loadSelectionFile reads a selection from an HCL file:
//
//	service_fee      = "standard"
//	insurance        = "basic"
//	visa             = "student"
//	addons           = ["airport_pickup"]
//	tuition_per_term = 25000000
//	term_count       = 4
//	exchange_rate    = 1
//
// Unknown attributes are rejected so typos do not silently price to zero.
func loadSelectionFile(path string) (*estimate.Selection, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", path, diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading %s: %s", path, diags.Error())
	}

	sel := estimate.NewSelection()
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating %s: %s", name, diags.Error())
		}

		switch name {
		case "service_fee":
			sel.SetServiceFee(stringValue(val))
		case "insurance":
			sel.SetInsurance(stringValue(val))
		case "visa":
			sel.SetVisa(stringValue(val))
		case "addons":
			if val.CanIterateElements() {
				for it := val.ElementIterator(); it.Next(); {
					_, elem := it.Element()
					if code := stringValue(elem); code != "" {
						sel.SetAddon(code, true)
					}
				}
			}
		case "tuition_per_term":
			sel.SetTuitionPerTerm(decimalValue(val))
		case "term_count":
			count, _ := decimalValue(val).Round(0).Float64()
			sel.SetTermCount(int(count))
		case "exchange_rate":
			sel.SetExchangeRate(decimalValue(val))
		default:
			return nil, fmt.Errorf("unknown attribute %q in %s", name, path)
		}
	}
	return sel, nil
}

func stringValue(val cty.Value) string {
	if val.Type() != cty.String || val.IsNull() {
		return ""
	}
	return val.AsString()
}

// decimalValue coerces an HCL value to a decimal, zero when it is not numeric
func decimalValue(val cty.Value) decimal.Decimal {
	if val.IsNull() {
		return decimal.Zero
	}
	switch val.Type() {
	case cty.Number:
		d, err := decimal.NewFromString(val.AsBigFloat().Text('f', -1))
		if err != nil {
			return decimal.Zero
		}
		return d
	case cty.String:
		d, err := decimal.NewFromString(val.AsString())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
