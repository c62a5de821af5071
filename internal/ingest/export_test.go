package ingest

import (
	"strings"
	"testing"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
)

func sampleCases() []domain.Case {
	return []domain.Case{
		{
			CodigoSC:            "SC001",
			DNICif:              "12345678Z",
			NombreApellidos:     "Ana García",
			CUPS:                "ES0031408000000000001JN",
			Municipio:           "Madrid",
			Provincia:           "Madrid",
			CCAA:                "Comunidad de Madrid",
			EmailContacto:       "ana@example.com",
			Status:              domain.StatusInProgress,
			FechaPrimerContacto: "2025-03-01T00:00:00Z",
		},
		{
			CodigoSC:            "SC002",
			NombreApellidos:     "Luis Pérez",
			Status:              domain.StatusRevisarGestor,
			FechaPrimerContacto: "2025-03-02T00:00:00Z",
		},
	}
}

// TestExportCSVRoundTrip tests export, decode and map back to equal cases
func TestExportCSVRoundTrip(t *testing.T) {
	cases := sampleCases()

	data, err := ExportCSV(cases)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Header row matches the canonical schema order
	firstLine := strings.SplitN(string(data), "\n", 2)[0]
	if !strings.HasPrefix(firstLine, "DNI/CIF,") || !strings.Contains(firstLine, "Código SC") {
		t.Errorf("Unexpected header row: %q", firstLine)
	}

	rows, err := Decode("export.csv", data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != len(cases) {
		t.Fatalf("Expected %d rows, got %d", len(cases), len(rows))
	}

	mapped, errs := MapRows(rows)
	if len(errs) != 0 {
		t.Fatalf("Expected no row errors, got %v", errs)
	}

	for i, c := range mapped {
		if c.CodigoSC != cases[i].CodigoSC {
			t.Errorf("Expected %s, got %s", cases[i].CodigoSC, c.CodigoSC)
		}
		if c.Status != cases[i].Status {
			t.Errorf("Expected status %s, got %s", cases[i].Status, c.Status)
		}
		if c.FechaPrimerContacto != cases[i].FechaPrimerContacto {
			t.Errorf("Expected date %s, got %s", cases[i].FechaPrimerContacto, c.FechaPrimerContacto)
		}
	}

	if mapped[0].NombreApellidos != "Ana García" {
		t.Errorf("Expected Ana García, got %s", mapped[0].NombreApellidos)
	}
}

// TestExportExcelSheet tests the workbook layout
func TestExportExcelSheet(t *testing.T) {
	data, err := ExportExcel(sampleCases())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Expected workbook bytes")
	}

	rows, err := Decode("export.xlsx", data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rows[1]["Nombre y apellidos"] != "Luis Pérez" {
		t.Errorf("Expected Luis Pérez, got %q", rows[1]["Nombre y apellidos"])
	}
}
