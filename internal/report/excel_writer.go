package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
)

const (
	measurementsSheet = "Measurements"
	summarySheet      = "Summary"
)

// WriteWorkbook writes export rows to a Measurements sheet and, when stats
// is non-nil, the channel statistics to a Summary sheet.
func WriteWorkbook(w io.Writer, rows [][]any, stats *analysis.SessionStatistics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", measurementsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(measurementsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if len(rows) > 1 {
		for col, v := range rows[1] {
			if _, ok := v.(time.Time); !ok {
				continue
			}
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return err
			}
			if err := f.SetColStyle(measurementsSheet, name, dateStyle); err != nil {
				return fmt.Errorf("failed to style column %s: %w", name, err)
			}
		}
	}

	if stats != nil {
		if err := writeSummarySheet(f, stats); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, stats *analysis.SessionStatistics) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	rows := [][]any{
		{"Total", stats.Total},
		{"Passed", stats.Passed},
		{"Failed", stats.Failed},
		{"Without verdict", stats.Untested},
		{"Pass rate (%)", nilIfNone(stats.PassRate)},
		{},
		{"Channel", "N", "Min", "Max", "Mean", "Std Dev", "Outliers"},
	}
	channels := []struct {
		name string
		cs   *analysis.ChannelStats
	}{
		{"Voltage", stats.Voltage},
		{"Current", stats.Current},
		{"Resistance", stats.Resistance},
		{"Power", stats.Power},
	}
	for _, ch := range channels {
		if ch.cs == nil {
			rows = append(rows, []any{ch.name, 0})
			continue
		}
		rows = append(rows, []any{ch.name, ch.cs.Count, ch.cs.Min, ch.cs.Max, ch.cs.Mean, ch.cs.StdDev, ch.cs.Outliers})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func nilIfNone(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
