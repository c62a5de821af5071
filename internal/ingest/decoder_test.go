package ingest

import (
	"strings"
	"testing"
)

// TestDecodeCSV tests decoding a well-formed CSV payload
func TestDecodeCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Código SC,Nombre y apellidos,Status",
		"SC001,Ana García,In progress",
		"SC002, Luis Pérez ,",
	}, "\n")

	rows, err := Decode("casos.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	if rows[0]["Código SC"] != "SC001" {
		t.Errorf("Expected SC001, got %q", rows[0]["Código SC"])
	}

	// Cells are trimmed
	if rows[1]["Nombre y apellidos"] != "Luis Pérez" {
		t.Errorf("Expected trimmed cell, got %q", rows[1]["Nombre y apellidos"])
	}

	// Missing cells resolve to empty string, never an absent key
	if v, ok := rows[1]["Status"]; !ok || v != "" {
		t.Errorf("Expected empty string for missing cell, got %q (present=%v)", v, ok)
	}
}

// TestDecodeSkipsEmptyRows tests that fully empty rows are dropped
func TestDecodeSkipsEmptyRows(t *testing.T) {
	csv := "Código SC,Status\nSC001,In progress\n,\n  ,  \nSC002,\n"

	rows, err := Decode("casos.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(rows))
	}
}

// TestDecodeErrors tests fatal decode conditions
func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"Unsupported extension", "casos.pdf", "Código SC\nSC001"},
		{"Legacy xls", "casos.xls", "Código SC\nSC001"},
		{"Empty file", "casos.csv", ""},
		{"Header only", "casos.csv", "Código SC,Status"},
		{"Only empty data rows", "casos.csv", "Código SC,Status\n,\n,"},
		{"Unreadable excel", "casos.xlsx", "this is not a zip archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.filename, []byte(tt.data)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

// TestSupportedExtension tests the pre-decode extension gate
func TestSupportedExtension(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx", ".CSV", ".XLSX"} {
		if !SupportedExtension(ext) {
			t.Errorf("Expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".pdf", ".txt", "", ".doc", ".xls"} {
		if SupportedExtension(ext) {
			t.Errorf("Expected %s to be rejected", ext)
		}
	}
}

// TestDecodeExcelRoundTrip tests that an exported workbook decodes back
func TestDecodeExcelRoundTrip(t *testing.T) {
	cases := sampleCases()

	data, err := ExportExcel(cases)
	if err != nil {
		t.Fatalf("Expected no error exporting, got %v", err)
	}

	rows, err := Decode("casos.xlsx", data)
	if err != nil {
		t.Fatalf("Expected no error decoding, got %v", err)
	}

	if len(rows) != len(cases) {
		t.Fatalf("Expected %d rows, got %d", len(cases), len(rows))
	}

	if rows[0]["Código SC"] != cases[0].CodigoSC {
		t.Errorf("Expected %s, got %q", cases[0].CodigoSC, rows[0]["Código SC"])
	}
}
