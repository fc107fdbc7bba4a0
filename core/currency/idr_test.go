// Package currency - Format/Parse inverse tests
package currency

import (
	"testing"
)

// TestFormatGroupsThousands proves the Indonesian grouping convention
func TestFormatGroupsThousands(t *testing.T) {
	cases := map[int64]string{
		0:             "Rp 0",
		5:             "Rp 5",
		999:           "Rp 999",
		1000:          "Rp 1.000",
		1000000:       "Rp 1.000.000",
		5050000:       "Rp 5.050.000",
		1000000000000: "Rp 1.000.000.000.000",
	}

	for amount, want := range cases {
		if got := Format(amount); got != want {
			t.Errorf("Format(%d) = %q, want %q", amount, got, want)
		}
	}
}

// TestFormatNegativeIsDeterministic proves negatives keep their sign with
// grouping applied to the magnitude
func TestFormatNegativeIsDeterministic(t *testing.T) {
	if got := Format(-1500000); got != "-Rp 1.500.000" {
		t.Errorf("Format(-1500000) = %q, want %q", got, "-Rp 1.500.000")
	}
	if got := Parse(Format(-1500000)); got != -1500000 {
		t.Errorf("Negative round trip broke: got %d", got)
	}
}

// TestParseStripsNonDigits proves parsing ignores symbols and separators
func TestParseStripsNonDigits(t *testing.T) {
	cases := map[string]int64{
		"Rp 1.000.000": 1000000,
		"1,000,000":    1000000,
		"Rp1000":       1000,
		"  2.500 ":     2500,
		"":             0,
		"Rp ":          0,
		"abc":          0,
		"-Rp 500":      -500,
	}

	for input, want := range cases {
		if got := Parse(input); got != want {
			t.Errorf("Parse(%q) = %d, want %d", input, got, want)
		}
	}
}

// TestParseIsLeftInverseOfFormat proves Parse(Format(n)) == n across the
// UI input range up to 10^12
func TestParseIsLeftInverseOfFormat(t *testing.T) {
	samples := []int64{0, 1, 9, 10, 99, 100, 999, 1000, 1001, 54321, 999999, 1000000, 123456789, 2000000000, 999999999999, 1000000000000}
	for n := int64(1); n <= 1000000000000; n *= 10 {
		samples = append(samples, n, n+1, n-1, 7*n)
	}

	for _, n := range samples {
		if n < 0 {
			continue
		}
		if got := Parse(Format(n)); got != n {
			t.Errorf("Parse(Format(%d)) = %d, round trip broken (formatted %q)", n, got, Format(n))
		}
	}
}

// TestCanonicalNormalizesDisplayForms proves any locale-formatted string
// canonicalizes to the standard display form
func TestCanonicalNormalizesDisplayForms(t *testing.T) {
	for _, input := range []string{"1000000", "1.000.000", "1,000,000", "Rp 1.000.000", "IDR 1000000"} {
		if got := Canonical(input); got != "Rp 1.000.000" {
			t.Errorf("Canonical(%q) = %q, want %q", input, got, "Rp 1.000.000")
		}
	}
}
