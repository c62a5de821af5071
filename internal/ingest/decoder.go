package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet data row keyed by the original column header.
// Missing cells resolve to an empty string, never to an absent key.
type Row map[string]string

// SupportedExtension reports whether ext names a file type the decoder
// understands. The check runs before any decode attempt. Legacy BIFF
// .xls is not OOXML and excelize cannot open it, so it is rejected here
// rather than failing later with an opaque read error.
func SupportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Decode turns a file payload into data rows using the first row as header.
// Fully empty rows are skipped. An unreadable payload, an empty workbook or
// a file with zero data rows after the header is a fatal decode error.
func Decode(filename string, data []byte) ([]Row, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtension(ext) {
		return nil, fmt.Errorf("formato de fichero no soportado: %s", ext)
	}

	var (
		records [][]string
		err     error
	)
	switch ext {
	case ".csv":
		records, err = decodeCSV(data)
	default:
		records, err = decodeExcel(data)
	}
	if err != nil {
		return nil, err
	}

	return buildRows(records)
}

func decodeCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("no se pudo leer el fichero CSV: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el fichero Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("el fichero Excel no contiene hojas")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer la hoja %q: %w", sheets[0], err)
	}
	return records, nil
}

func buildRows(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("el fichero está vacío")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	var rows []Row
	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}

		row := make(Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[h] = value
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("el fichero no contiene filas de datos")
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
