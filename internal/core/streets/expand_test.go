package streets

import (
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
		{"drive with period", "OAK DR.", "Oak Drive"},
		{"leading space", " OAK DR.", "Oak Drive"},
		{"street suffix", "MAPLE ST", "Maple Street"},
		{"lane", "FRUITED PLAINS LN", "Fruited Plains Lane"},
		{"boulevard", "ford blvd", "Ford Boulevard"},
		{"avenue", "Edward Ave", "Edward Avenue"},
		{"directional prefix", "N MAIN ST", "North Main Street"},
		{"directional suffix", "AVENUE SW", "Avenue Southwest"},
		{"saint prefix", "ST ROSE AVE", "Saint Rose Avenue"},
		{"lone st", "ST", "Street"},
		{"no substring expansion", "DRIVEWAY STREET", "Driveway Street"},
		{"unit marker preserved", "SPECTRUM POINTE DR #320", "Spectrum Pointe Drive #320"},
		{"unknown abbreviation kept", "PZ ESPAÑA", "Pz España"},
		{"collapses spaces", "MAPLE    ST", "Maple Street"},
		{"ordinal", "3RD AVE", "3rd Avenue"},
		{"ordinal lower input", "21st st", "21st Street"},
		{"all digits", "100 RD", "100 Road"},
		{"irish prefix", "O'NEIL ST", "O'Neil Street"},
		{"possessive", "BOB'S WAY", "Bob's Way"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.input); got != tt.expected {
				t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExpand_AllTableEntries(t *testing.T) {
	for _, a := range Table {
		// Trailing token so the Saint rule does not apply.
		got := Expand("X " + strings.ToUpper(a.Short))
		want := "X " + abbreviations[a.Short]
		if got != want {
			t.Errorf("Expand(%q) = %q, want %q", "X "+a.Short, got, want)
		}
	}
}

func TestExpander_Caches(t *testing.T) {
	e, err := NewExpander(2)
	if err != nil {
		t.Fatalf("NewExpander: %v", err)
	}

	if got := e.Expand("ELM RD"); got != "Elm Road" {
		t.Errorf("first Expand = %q, want %q", got, "Elm Road")
	}
	if got := e.Expand("ELM RD"); got != "Elm Road" {
		t.Errorf("cached Expand = %q, want %q", got, "Elm Road")
	}
	if e.cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", e.cache.Len())
	}

	e.Expand("A ST")
	e.Expand("B ST")
	if e.cache.Len() != 2 {
		t.Errorf("cache len = %d, want 2 (bounded)", e.cache.Len())
	}
}

func TestExpander_NilFallsBack(t *testing.T) {
	var e *Expander
	if got := e.Expand("PINE CT"); got != "Pine Court" {
		t.Errorf("nil Expander = %q, want %q", got, "Pine Court")
	}
}
