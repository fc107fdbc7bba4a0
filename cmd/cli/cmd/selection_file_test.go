package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSelectionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selection.hcl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing selection file: %v", err)
	}
	return path
}

func TestLoadSelectionFile(t *testing.T) {
	path := writeSelectionFile(t, `
service_fee      = "standard"
insurance        = "basic"
visa             = "student"
addons           = ["airport_pickup", "housing"]
tuition_per_term = 25000000
term_count       = 4
exchange_rate    = 1
`)

	sel, err := loadSelectionFile(path)
	if err != nil {
		t.Fatalf("loading selection: %v", err)
	}
	if sel.ServiceFeeKey != "standard" {
		t.Errorf("service fee = %q, want standard", sel.ServiceFeeKey)
	}
	if !sel.Addons["housing"] {
		t.Error("expected the housing addon to be active")
	}
	if sel.TermCount != 4 {
		t.Errorf("term count = %d, want 4", sel.TermCount)
	}
	if got := sel.TuitionPerTerm.String(); got != "25000000" {
		t.Errorf("tuition = %s, want 25000000", got)
	}
}

func TestLoadSelectionFileRejectsUnknownAttribute(t *testing.T) {
	path := writeSelectionFile(t, `visa_fee = "student"`)

	if _, err := loadSelectionFile(path); err == nil {
		t.Error("expected an error for an unknown attribute")
	}
}

func TestLoadSelectionFileMissing(t *testing.T) {
	if _, err := loadSelectionFile(filepath.Join(t.TempDir(), "nope.hcl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
