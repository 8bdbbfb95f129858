package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	zipMagic = []byte("PK\x03\x04")
	// legacy BIFF workbooks (.xls) are OLE compound files
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ErrSheetNotFound is returned when the requested sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// Sheet is the cell grid of one worksheet. Cells are nil, string, float64
// or bool.
type Sheet struct {
	Name   string
	Rows   [][]any
	Sheets []string
}

// SheetRequest describes which part of an upload to read.
type SheetRequest struct {
	Filename  string
	MediaType string
	SheetName string
}

// ReadSheet decodes an uploaded spreadsheet. Workbooks are read with
// excelize; CSV and TSV uploads are recognized by media type or file
// extension.
func ReadSheet(data []byte, req SheetRequest) (*Sheet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return readWorkbook(data, req.SheetName)
	case bytes.HasPrefix(data, oleMagic):
		return nil, fmt.Errorf("legacy .xls workbooks are not supported, save the file as .xlsx")
	case isDelimited(req):
		return ReadCSV(bytes.NewReader(data), delimiterFor(req))
	}
	return nil, fmt.Errorf("unrecognized spreadsheet content (media type %q)", req.MediaType)
}

func isDelimited(req SheetRequest) bool {
	mt := strings.ToLower(req.MediaType)
	if strings.Contains(mt, "csv") || strings.Contains(mt, "tab-separated") || strings.HasPrefix(mt, "text/plain") {
		return true
	}
	switch strings.ToLower(filepath.Ext(req.Filename)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func delimiterFor(req SheetRequest) rune {
	if strings.EqualFold(filepath.Ext(req.Filename), ".tsv") || strings.Contains(strings.ToLower(req.MediaType), "tab-separated") {
		return '\t'
	}
	return 0
}

func readWorkbook(data []byte, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	name := sheets[0]
	if sheetName != "" {
		idx, err := f.GetSheetIndex(sheetName)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheetName, strings.Join(sheets, ", "))
		}
		name = f.GetSheetName(idx)
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	sheet := &Sheet{Name: name, Sheets: sheets, Rows: make([][]any, len(raw))}
	for r, row := range raw {
		cells := make([]any, len(row))
		for c, text := range row {
			if text == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				cells[c] = text
				continue
			}
			cellType, err := f.GetCellType(name, axis)
			if err != nil {
				cells[c] = text
				continue
			}
			cells[c] = typedCell(cellType, text)
		}
		sheet.Rows[r] = cells
	}
	return sheet, nil
}

// typedCell turns a raw cell value into the Go value its cell type implies.
func typedCell(t excelize.CellType, text string) any {
	switch t {
	case excelize.CellTypeBool:
		return text == "1" || strings.EqualFold(text, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	}
	return text
}
