// Package seed loads catalogs from operator-authored HCL seed files.
//
// Seed files let the calculator run without a remote pricing endpoint:
//
//	catalog "SERVICE_FEE" {
//	  option "STD" {
//	    label  = "Standard placement"
//	    amount = 500000
//	  }
//	}
package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"studycost/core/types"
	"studycost/internal/errors"
)

var catalogSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "catalog", LabelNames: []string{"category"}},
	},
}

var optionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "currency"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "option", LabelNames: []string{"code"}},
	},
}

// Provider loads catalogs from a directory of .hcl seed files. Files are
// re-read on every fetch so operators can edit prices and trigger a manual
// refresh without restarting.
type Provider struct {
	dir string
}

// NewProvider creates a seed provider over a directory
func NewProvider(dir string) *Provider {
	return &Provider{dir: dir}
}

// Source implements catalog.Fetcher
func (p *Provider) Source() string {
	return "seed"
}

// Fetch parses the seed files and returns the catalog for one category.
// An unknown category yields an empty catalog.
func (p *Provider) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	catalogs, err := p.Load()
	if err != nil {
		return nil, err
	}

	if cat := catalogs.Get(category); cat != nil {
		return cat, nil
	}
	return &types.Catalog{
		Category:  category,
		Currency:  types.CurrencyIDR,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Load parses every seed file in the directory into a catalog set
func (p *Provider) Load() (types.CatalogSet, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errors.Wrap(errors.TypeProvider, "reading seed directory", err).
			WithContext("dir", p.dir)
	}

	parser := hclparse.NewParser()
	catalogs := make(types.CatalogSet)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		path := filepath.Join(p.dir, entry.Name())
		if err := p.parseFile(parser, path, catalogs); err != nil {
			return nil, err
		}
	}

	return catalogs, nil
}

func (p *Provider) parseFile(parser *hclparse.Parser, path string, catalogs types.CatalogSet) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.TypeProvider, "reading seed file", err).WithContext("file", path)
	}

	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return errors.Wrap(errors.TypeProvider, "parsing seed file", diags).WithContext("file", path)
	}

	content, _, _ := file.Body.PartialContent(catalogSchema)
	for _, block := range content.Blocks {
		category := types.Category(block.Labels[0])
		cat := catalogs.Get(category)
		if cat == nil {
			cat = &types.Catalog{
				Category:  category,
				Currency:  types.CurrencyIDR,
				FetchedAt: time.Now().UTC(),
			}
			catalogs.Put(cat)
		}
		if err := p.parseCatalogBlock(block, cat); err != nil {
			return err
		}
	}

	return nil
}

func (p *Provider) parseCatalogBlock(block *hcl.Block, cat *types.Catalog) error {
	content, _, _ := block.Body.PartialContent(optionSchema)

	if attr, ok := content.Attributes["currency"]; ok {
		if v, diags := attr.Expr.Value(nil); !diags.HasErrors() && v.Type() == cty.String {
			cat.Currency = types.Currency(v.AsString())
		}
	}

	for _, optBlock := range content.Blocks {
		option := types.PriceOption{Code: optBlock.Labels[0]}

		attrs, _ := optBlock.Body.JustAttributes()
		if attr, ok := attrs["label"]; ok {
			if v, diags := attr.Expr.Value(nil); !diags.HasErrors() && v.Type() == cty.String {
				option.Label = v.AsString()
			}
		}
		if option.Label == "" {
			option.Label = option.Code
		}

		if attr, ok := attrs["amount"]; ok {
			option.Amount = amountFromExpr(attr)
		}

		cat.Options = append(cat.Options, option)
	}

	return nil
}

// amountFromExpr evaluates a literal amount attribute, coercing anything
// unusable to zero per the normalization contract
func amountFromExpr(attr *hcl.Attribute) decimal.Decimal {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return decimal.Zero
	}

	switch v.Type() {
	case cty.Number:
		d, err := decimal.NewFromString(v.AsBigFloat().Text('f', -1))
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	case cty.String:
		d, err := decimal.NewFromString(v.AsString())
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}
