// Package export - Summary rendering tests
package export

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"studycost/core/estimate"
	"studycost/core/types"
)

func sampleResult() estimate.Result {
	sel := estimate.NewSelection()
	sel.SetTuitionPerTerm(decimal.NewFromInt(2000000))
	sel.SetTermCount(2)
	return estimate.Compute(sel, make(types.CatalogSet))
}

// TestBuildSummaryFormatsAmounts proves every line carries a formatted amount
func TestBuildSummaryFormatsAmounts(t *testing.T) {
	s := BuildSummary(sampleResult())

	if len(s.Lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d", len(s.Lines))
	}
	if s.Lines[0].Amount != "Rp 4.000.000" {
		t.Errorf("Expected formatted tuition line, got %q", s.Lines[0].Amount)
	}
	if s.Total != "Rp 4.000.000" {
		t.Errorf("Expected formatted total, got %q", s.Total)
	}
}

// TestRenderTextAlignsColumns proves the text document renders each line and
// keeps the total on the last line
func TestRenderTextAlignsColumns(t *testing.T) {
	doc := BuildSummary(sampleResult()).RenderText()

	lines := strings.Split(strings.TrimRight(doc, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("Expected 9 lines, got %d:\n%s", len(lines), doc)
	}
	if !strings.HasPrefix(lines[0], "Estimasi") {
		t.Errorf("Expected title first, got %q", lines[0])
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "Total") || !strings.HasSuffix(last, "Rp 4.000.000") {
		t.Errorf("Expected total line last, got %q", last)
	}
}
