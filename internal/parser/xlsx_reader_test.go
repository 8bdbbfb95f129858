package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the named sheets of an in-memory workbook.
func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		switch {
		case i == 0 && name != "Sheet1":
			require.NoError(t, f.SetSheetName("Sheet1", name))
		case i > 0:
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadSheet_Workbook(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Log": {
			{"Timestamp", "Voltage", "Result", "Notes"},
			{44562.25, 600.5, true, "first"},
			{"2024-01-01", "601", false, nil},
		},
		"Other": {{"x"}},
	}, "Log", "Other")

	sheet, err := ReadSheet(data, SheetRequest{Filename: "session.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "Log", sheet.Name)
	assert.Equal(t, []string{"Log", "Other"}, sheet.Sheets)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Timestamp", sheet.Rows[0][0])
	assert.Equal(t, 44562.25, sheet.Rows[1][0])
	assert.Equal(t, 600.5, sheet.Rows[1][1])
	assert.Equal(t, true, sheet.Rows[1][2])
	assert.Equal(t, "first", sheet.Rows[1][3])
	assert.Equal(t, "2024-01-01", sheet.Rows[2][0])
	assert.Equal(t, "601", sheet.Rows[2][1], "text cells stay text")
	assert.Equal(t, false, sheet.Rows[2][2])

	sheet, err = ReadSheet(data, SheetRequest{Filename: "session.xlsx", SheetName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Other", sheet.Name)
}

func TestReadSheet_WorkbookDates(t *testing.T) {
	when := time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)
	data := buildWorkbook(t, map[string][][]any{
		"Sheet1": {{"Timestamp"}, {when}},
	}, "Sheet1")

	sheet, err := ReadSheet(data, SheetRequest{})
	require.NoError(t, err)
	got, ok := CoerceDate(sheet.Rows[1][0])
	require.True(t, ok)
	assert.True(t, when.Equal(got), "got %s", got)
}

func TestReadSheet_SheetNotFound(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{"Data": {{"a"}}}, "Data")
	_, err := ReadSheet(data, SheetRequest{SheetName: "Missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestReadSheet_Rejects(t *testing.T) {
	_, err := ReadSheet(nil, SheetRequest{Filename: "a.xlsx"})
	assert.ErrorContains(t, err, "empty")

	_, err = ReadSheet([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0}, SheetRequest{Filename: "old.xls"})
	assert.ErrorContains(t, err, ".xls")

	_, err = ReadSheet([]byte("PK\x03\x04garbage"), SheetRequest{Filename: "broken.xlsx"})
	assert.Error(t, err)

	_, err = ReadSheet([]byte("just text"), SheetRequest{Filename: "notes.bin"})
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	in := "Timestamp;Voltage;Notes\n2024-01-01 10:00;230.5;ok\n2024-01-01 10:01;;NaN\n"
	sheet, err := ReadCSV(strings.NewReader(in), 0)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, []any{"2024-01-01 10:00", 230.5, "ok"}, sheet.Rows[1])
	assert.Nil(t, sheet.Rows[2][1])
	assert.Equal(t, "NaN", sheet.Rows[2][2])
}

func TestReadSheet_DelimitedByNameOrType(t *testing.T) {
	sheet, err := ReadSheet([]byte("a\tb\n1\t2\n"), SheetRequest{Filename: "log.tsv"})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, sheet.Rows[1])

	sheet, err = ReadSheet([]byte("a,b\n1,2\n"), SheetRequest{MediaType: "text/csv; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, sheet.Rows[0])
}
