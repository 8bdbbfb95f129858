package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/pvtest_analyzer_go/internal/parser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// csvSession builds n rows in the standard layout. mutate may rewrite the
// voltage and current cells of row i (0-based).
func csvSession(n int, mutate func(i int, v, c *string)) []byte {
	var b strings.Builder
	b.WriteString("Timestamp,Voltage,Current,Result\n")
	start := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v, c := "600", "12"
		if mutate != nil {
			mutate(i, &v, &c)
		}
		fmt.Fprintf(&b, "%s,%s,%s,PASS\n", start.Add(time.Duration(i)*time.Minute).Format("2006-01-02 15:04:05"), v, c)
	}
	return []byte(b.String())
}

func csvOpts() Options {
	opts := DefaultOptions()
	opts.Filename = "session.csv"
	opts.SessionID = "S-1"
	return opts
}

func TestIngest_AcceptsBelowErrorRate(t *testing.T) {
	data := csvSession(100, func(i int, v, c *string) {
		if i%20 == 0 {
			*v, *c = "", ""
		}
	})

	res := NewIngestor().Ingest(data, csvOpts())
	require.True(t, res.Success, "%v", res.Errors)
	assert.Equal(t, StatusOK, res.Status)
	assert.NoError(t, res.Err())
	assert.Len(t, res.Records, 95)
	require.Len(t, res.Errors, 5)
	for _, e := range res.Errors {
		assert.Equal(t, parser.KindMissing, e.Kind)
	}
	assert.Equal(t, 2, res.Errors[0].Row, "row numbers count the header")

	md := res.Metadata
	assert.Equal(t, 100, md.TotalRows)
	assert.Equal(t, 95, md.ValidRows)
	assert.Equal(t, 5, md.InvalidRows)
	assert.Equal(t, "standard", md.DetectedFormat)
	assert.Equal(t, parser.DetectedHeaders, md.DetectionMethod)
	assert.Equal(t, "S-1", md.SessionID)
	assert.Equal(t, []string{"Timestamp", "Voltage", "Current", "Result"}, md.Headers)
	assert.InDelta(t, 0.05, res.ErrorRate(), 1e-12)

	require.NotNil(t, res.Summary)
	assert.Equal(t, 95, res.Summary.Total)
	assert.NotEmpty(t, res.BatchID)
}

func TestIngest_RejectsAboveErrorRate(t *testing.T) {
	data := csvSession(100, func(i int, v, c *string) {
		if i < 15 {
			*v = "2500"
		}
	})

	res := NewIngestor().Ingest(data, csvOpts())
	assert.False(t, res.Success)
	assert.Equal(t, StatusTooManyErrors, res.Status)
	assert.Empty(t, res.Records)
	assert.Nil(t, res.Summary)
	require.Len(t, res.Errors, 15)
	assert.Equal(t, parser.KindRange, res.Errors[0].Kind)
	assert.Len(t, res.ErrorPreview(), DefaultErrorPreviewLimit)
	assert.True(t, errors.Is(res.Err(), ErrTooManyErrors))
}

func TestIngest_ErrorRateBoundary(t *testing.T) {
	// exactly 10% is still accepted
	data := csvSession(100, func(i int, v, c *string) {
		if i < 10 {
			*v = "-5"
		}
	})
	res := NewIngestor().Ingest(data, csvOpts())
	assert.True(t, res.Success)
	assert.Len(t, res.Records, 90)

	opts := csvOpts()
	opts.ErrorRateThreshold = 0.05
	res = NewIngestor().Ingest(data, opts)
	assert.Equal(t, StatusTooManyErrors, res.Status)
}

func TestIngest_SequenceAndDerivedValues(t *testing.T) {
	data := csvSession(5, func(i int, v, c *string) {
		if i == 1 {
			*v = "9999"
		}
	})
	opts := csvOpts()
	opts.ErrorRateThreshold = 0.5

	res := NewIngestor().Ingest(data, opts)
	require.True(t, res.Success)
	require.Len(t, res.Records, 4)
	for i, rec := range res.Records {
		assert.Equal(t, i+1, rec.SequenceNumber)
		require.NotNil(t, rec.Resistance)
		require.NotNil(t, rec.Power)
		assert.Equal(t, 50.0, *rec.Resistance)
		assert.Equal(t, 7200.0, *rec.Power)
	}
	assert.Equal(t, 3, res.Errors[0].Row)
}

func TestIngest_FileLevelFailures(t *testing.T) {
	in := NewIngestor()

	res := in.Ingest(nil, csvOpts())
	assert.Equal(t, StatusUnreadable, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, parser.KindFormat, res.Errors[0].Kind)
	assert.Equal(t, "file", res.Errors[0].Column)
	assert.True(t, errors.Is(res.Err(), ErrUnreadable))

	res = in.Ingest([]byte("Foo,Bar\n1,2\n"), csvOpts())
	assert.Equal(t, StatusNoFormat, res.Status)
	assert.Equal(t, []string{"Foo", "Bar"}, res.Metadata.Headers)
	assert.True(t, errors.Is(res.Err(), ErrNoFormat))

	opts := csvOpts()
	opts.FormatName = "nonexistent"
	res = in.Ingest(csvSession(3, nil), opts)
	assert.Equal(t, StatusNoFormat, res.Status)

	opts = csvOpts()
	opts.HeaderRow = 50
	res = in.Ingest(csvSession(3, nil), opts)
	assert.Equal(t, StatusUnreadable, res.Status)
	assert.Equal(t, "header", res.Errors[0].Column)

	res = in.Ingest([]byte("Timestamp,Voltage\n"), csvOpts())
	assert.Equal(t, StatusNoValidData, res.Status)
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.Is(res.Err(), ErrNoValidData))
}

func TestIngest_SheetNotFound(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Timestamp", "Voltage"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Filename = "log.xlsx"
	opts.SheetName = "Missing"
	res := NewIngestor().Ingest(buf.Bytes(), opts)
	assert.Equal(t, StatusUnreadable, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "sheet", res.Errors[0].Column)
	assert.Contains(t, res.Errors[0].Message, "Sheet1")
}

func TestIngest_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Date Time", "U1", "I1", "Judgment"},
		{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 400.0, 8.0, "PASS"},
		{time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC), 401.0, 8.1, "FAIL"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Filename = "hioki.xlsx"
	res := NewIngestor().Ingest(buf.Bytes(), opts)
	require.True(t, res.Success, "%v", res.Errors)
	assert.Equal(t, "hioki_pw3360", res.Metadata.DetectedFormat)
	assert.Equal(t, "Sheet1", res.Metadata.Sheet)
	require.Len(t, res.Records, 2)
	assert.True(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Equal(res.Records[0].Timestamp))
	assert.Equal(t, 1, res.Summary.Passed)
	assert.Equal(t, 1, res.Summary.Failed)
}

func TestIngest_RowSelection(t *testing.T) {
	data := []byte("Timestamp,Voltage\n2024-01-01,1\n,\n2024-01-02,2\n2024-01-03,3\n")

	res := NewIngestor().Ingest(data, csvOpts())
	require.True(t, res.Success)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, 3, res.Metadata.TotalRows, "blank rows are skipped")

	opts := csvOpts()
	opts.MaxRows = 2
	res = NewIngestor().Ingest(data, opts)
	assert.Len(t, res.Records, 2)

	opts = csvOpts()
	opts.StartRow = 3
	res = NewIngestor().Ingest(data, opts)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2.0, *res.Records[0].Voltage)

	opts = csvOpts()
	opts.KeepBlankRows = true
	opts.ErrorRateThreshold = 0.5
	res = NewIngestor().Ingest(data, opts)
	assert.Equal(t, 4, res.Metadata.TotalRows)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, parser.KindMissing, res.Errors[0].Kind)
}

func TestIngest_ExplicitPositional(t *testing.T) {
	data := []byte("a,b,c,d\n2024-01-01 10:00,230,5,yes\n")
	opts := csvOpts()
	opts.FormatName = "positional"

	res := NewIngestor().Ingest(data, opts)
	require.True(t, res.Success, "%v", res.Errors)
	assert.Equal(t, parser.DetectedExplicit, res.Metadata.DetectionMethod)
	assert.Equal(t, 230.0, *res.Records[0].Voltage)
	assert.True(t, *res.Records[0].PassFail)
}

func TestIngest_Headerless(t *testing.T) {
	data := []byte("2024-01-01 10:00,230,5,yes\n2024-01-01 10:01,231,5,yes\n2024-01-01 10:02,9999,5,no\n")
	opts := csvOpts()
	opts.FormatName = "positional"
	opts.NoHeader = true
	opts.ErrorRateThreshold = 0.5

	res := NewIngestor().Ingest(data, opts)
	require.True(t, res.Success, "%v", res.Errors)
	assert.Empty(t, res.Metadata.Headers)
	assert.Equal(t, 3, res.Metadata.TotalRows, "the first row is data")
	require.Len(t, res.Records, 2)
	assert.Equal(t, 230.0, *res.Records[0].Voltage)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row, "row numbers count from the first sheet row")

	opts.StartRow = 1
	res = NewIngestor().Ingest(data, opts)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 231.0, *res.Records[0].Voltage)

	opts = csvOpts()
	opts.NoHeader = true
	res = NewIngestor().Ingest(data, opts)
	assert.Equal(t, StatusNoFormat, res.Status, "headerless sheets cannot be detected")
	assert.True(t, errors.Is(res.Err(), ErrNoFormat))
}

func TestIngest_LogsBatchSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	in := NewIngestor(WithLogger(zap.New(core)))

	res := in.Ingest(csvSession(3, nil), csvOpts())
	require.True(t, res.Success)

	entries := logs.FilterMessage("batch ingested").All()
	require.Len(t, entries, 1)
	assert.Equal(t, res.BatchID, entries[0].ContextMap()["batch_id"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["accepted"])
}

func TestIngest_ConcurrentUse(t *testing.T) {
	in := NewIngestor()
	data := csvSession(50, nil)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := in.Ingest(data, csvOpts())
			if res.Success {
				ids[i] = res.BatchID
			}
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "batch ids are unique")
		seen[id] = true
	}
}

func TestWithRegistry(t *testing.T) {
	reg := parser.NewRegistry(parser.ExcelFormat{Name: "site", Mappings: []parser.ColumnMapping{
		{Source: parser.ByName("When"), Target: parser.FieldTimestamp, Type: parser.TypeDate, Required: true},
		{Source: parser.ByName("Volts"), Target: parser.FieldVoltage, Type: parser.TypeNumber},
	}})
	in := NewIngestor(WithRegistry(reg), WithRegistry(nil), WithLogger(nil))
	assert.Same(t, reg, in.Registry())

	res := in.Ingest([]byte("When,Volts\n2024-01-01,12\n"), csvOpts())
	require.True(t, res.Success)
	assert.Equal(t, "site", res.Metadata.DetectedFormat)
}
