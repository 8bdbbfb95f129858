package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadCSV reads a delimited upload into a single sheet. A zero delimiter
// is sniffed from the first line among ',', ';' and tab. Cells that parse
// as plain numbers become float64, as they would in a workbook.
func ReadCSV(r io.Reader, delimiter rune) (*Sheet, error) {
	br := bufio.NewReader(r)
	if delimiter == 0 {
		first, _ := br.Peek(4096)
		delimiter = sniffDelimiter(string(first))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // rows may omit trailing optional columns
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	sheet := &Sheet{Name: "csv", Sheets: []string{"csv"}, Rows: make([][]any, len(allRows))}
	for i, row := range allRows {
		cells := make([]any, len(row))
		for j, item := range row {
			cells[j] = csvCell(item)
		}
		sheet.Rows[i] = cells
	}
	return sheet, nil
}

func csvCell(item string) any {
	trimmed := strings.TrimSpace(item)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return item
}

func sniffDelimiter(sample string) rune {
	line := sample
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}
