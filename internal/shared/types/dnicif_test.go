package types

import "testing"

// TestDNICifIsValid tests identifier validation
func TestDNICifIsValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"Valid DNI", "12345678Z", true},
		{"Wrong DNI letter", "12345678A", false},
		{"Valid NIE", "X1234567L", true},
		{"Wrong NIE letter", "X1234567A", false},
		{"Valid CIF format", "B1234567C", true},
		{"Too short", "1234Z", false},
		{"Empty", "", false},
		{"Garbage", "not-a-dni", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DNICif(tt.input).IsValid(); got != tt.valid {
				t.Errorf("Expected %v for %q, got %v", tt.valid, tt.input, got)
			}
		})
	}
}

// TestParseDNICif tests normalization
func TestParseDNICif(t *testing.T) {
	d, err := ParseDNICif("  12345678z ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.String() != "12345678Z" {
		t.Errorf("Expected 12345678Z, got %s", d)
	}

	if _, err := ParseDNICif("bogus"); err == nil {
		t.Error("Expected error for invalid input")
	}
}

// TestDNICifMasked tests display masking
func TestDNICifMasked(t *testing.T) {
	if got := DNICif("12345678Z").Masked(); got != "*****678Z" {
		t.Errorf("Unexpected mask: %s", got)
	}
	if got := DNICif("12").Masked(); got != "*****" {
		t.Errorf("Unexpected mask for short value: %s", got)
	}
}
