package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
)

const exportSheet = "Casos Rechazo"

// ExportCSV renders cases as delimited text with the canonical header row
// and column order, so an exported file imports back cleanly.
func ExportCSV(cases []domain.Case) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Headers()); err != nil {
		return nil, err
	}
	for i := range cases {
		if err := w.Write(caseRecord(&cases[i])); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportExcel renders cases as a single-sheet workbook with the canonical
// header row and column order
func ExportExcel(cases []domain.Case) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := writeSheetRow(f, 1, Headers()); err != nil {
		return nil, err
	}
	for i := range cases {
		if err := writeSheetRow(f, i+2, caseRecord(&cases[i])); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func caseRecord(c *domain.Case) []string {
	record := make([]string, len(columns))
	for i, col := range columns {
		record[i] = fieldValue(c, col.Field)
	}
	return record
}
