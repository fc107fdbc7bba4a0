// Package export renders estimate summaries for the export pipeline.
// The renderer produces a deterministic document; rasterizing it to PDF is
// the downstream sink's concern.
package export

import (
	"fmt"
	"strings"
	"time"

	"studycost/core/currency"
	"studycost/core/estimate"
)

// Line is one labeled amount in the summary
type Line struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Summary is the renderable estimate document
type Summary struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Lines       []Line    `json:"lines"`
	Total       string    `json:"total"`
}

// BuildSummary converts an estimate result into a summary document
func BuildSummary(result estimate.Result) *Summary {
	return &Summary{
		Title:       "Estimasi Biaya Studi",
		GeneratedAt: time.Now().UTC(),
		Lines: []Line{
			{Label: "Biaya kuliah", Amount: currency.FormatDecimal(result.TuitionTotal)},
			{Label: "Biaya layanan", Amount: currency.FormatDecimal(result.ServiceFeeAmount)},
			{Label: "Asuransi", Amount: currency.FormatDecimal(result.InsuranceAmount)},
			{Label: "Visa", Amount: currency.FormatDecimal(result.VisaAmount)},
			{Label: "Layanan tambahan", Amount: currency.FormatDecimal(result.AddonsTotal)},
		},
		Total: currency.FormatDecimal(result.Total),
	}
}

// RenderText renders the summary as a fixed-width text document
func (s *Summary) RenderText() string {
	width := len(s.Title)
	for _, line := range s.Lines {
		if n := len(line.Label) + len(line.Amount) + 2; n > width {
			width = n
		}
	}
	if n := len("Total") + len(s.Total) + 2; n > width {
		width = n
	}

	var b strings.Builder
	b.WriteString(s.Title + "\n")
	b.WriteString(strings.Repeat("=", width) + "\n")
	for _, line := range s.Lines {
		pad := width - len(line.Label) - len(line.Amount)
		if pad < 1 {
			pad = 1
		}
		fmt.Fprintf(&b, "%s%s%s\n", line.Label, strings.Repeat(" ", pad), line.Amount)
	}
	b.WriteString(strings.Repeat("-", width) + "\n")
	pad := width - len("Total") - len(s.Total)
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(&b, "Total%s%s\n", strings.Repeat(" ", pad), s.Total)
	return b.String()
}
