package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
	"github.com/user/pvtest_analyzer_go/internal/parser"
)

const (
	pdfPageWidthPortrait  = 210.0 // A4
	pdfPageHeightPortrait = 297.0
	pdfMargin             = 15.0
	pdfContentWidth       = pdfPageWidthPortrait - (2 * pdfMargin)
	maxErrorRows          = 20
)

// ReportData is everything the compliance report prints.
type ReportData struct {
	SessionID   string
	Device      string
	Filename    string
	Format      string
	GeneratedAt time.Time
	Criteria    analysis.Criteria
	Verdict     analysis.ComplianceVerdict
	Stats       analysis.SessionStatistics
	ErrorSample []parser.ParseError
	TotalErrors int
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	tr          func(string) string
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		tr:          pdf.UnicodeTranslatorFromDescriptor(""),
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightPortrait - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 13)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["verdictPass"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 130, 0)
	}
	s.styles["verdictFail"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(200, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.pdf.AddPage()
		s.currentY = s.contentTopY
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	text = s.tr(text)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable draws a bordered table. highlight, when set, picks the red
// cell style per row.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string, highlight func(row int) bool) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	s.checkAddPage(s.lineHeight * 2)
	x := pdfMargin
	s.applyStyle("tableHeader")
	for i, h := range headers {
		s.pdf.SetXY(x, s.currentY)
		s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(h), "1", 0, "C", true, 0, "")
		x += widths[i]
	}
	s.currentY += s.lineHeight

	for r, row := range rows {
		s.checkAddPage(s.lineHeight)
		style := "tableCell"
		if highlight != nil && highlight(r) {
			style = "tableCellRed"
		}
		s.applyStyle(style)
		x = pdfMargin
		for i, cell := range row {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(cell), "1", 0, "C", false, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

// BuildComplianceReport renders the compliance summary as PDF into w.
func BuildComplianceReport(w io.Writer, data ReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	styler.writeParagraph("PV Disconnect Compliance Test Report", "h1", "C")
	styler.addSpacer(3)
	styler.writeParagraph(fmt.Sprintf("Session: %s    Device: %s", orDash(data.SessionID), orDash(data.Device)), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Source file: %s (format: %s)", orDash(data.Filename), orDash(data.Format)), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Standard: %s    Generated: %s", orDash(data.Criteria.Standard), generated.UTC().Format(time.RFC3339)), "normal", "L")
	styler.addSpacer(4)

	if data.Verdict.Compliant {
		styler.writeParagraph("Verdict: "+data.Verdict.Summary(), "verdictPass", "L")
	} else {
		styler.writeParagraph("Verdict: "+data.Verdict.Summary(), "verdictFail", "L")
	}
	styler.addSpacer(3)

	styler.writeParagraph("Criteria", "h2", "L")
	criteriaRows := [][]string{
		{"Pass rate", fmt.Sprintf(">= %.1f %%", data.Criteria.MinPassRate), formatPercent(data.Verdict.PassRate)},
		{"Voltage deviation", limitText(data.Criteria.RatedVoltage, data.Criteria.MaxVoltageDeviation, "V"), formatPercent(data.Verdict.VoltageDeviation)},
		{"Current deviation", limitText(data.Criteria.RatedCurrent, data.Criteria.MaxCurrentDeviation, "A"), formatPercent(data.Verdict.CurrentDeviation)},
	}
	styler.writeTable([]string{"Criterion", "Requirement", "Measured"}, []float64{0.3, 0.4, 0.3}, criteriaRows, nil)
	styler.addSpacer(5)

	styler.writeParagraph("Issues", "h2", "L")
	if len(data.Verdict.Issues) == 0 {
		styler.writeParagraph("No criteria were violated.", "normal", "L")
	} else {
		for i, issue := range data.Verdict.Issues {
			styler.writeParagraph(fmt.Sprintf("%d. %s", i+1, issue.Message), "normal", "L")
		}
	}
	styler.addSpacer(5)

	styler.writeParagraph(fmt.Sprintf("Measurements (%d total, %d pass, %d fail, %d without verdict)",
		data.Stats.Total, data.Stats.Passed, data.Stats.Failed, data.Stats.Untested), "h2", "L")
	channels := []struct {
		Name  string
		Unit  string
		Stats *analysis.ChannelStats
	}{
		{"Voltage", "V", data.Stats.Voltage},
		{"Current", "A", data.Stats.Current},
		{"Resistance", "Ohm", data.Stats.Resistance},
		{"Power", "W", data.Stats.Power},
	}
	var channelRows [][]string
	for _, ch := range channels {
		if ch.Stats == nil {
			channelRows = append(channelRows, []string{ch.Name, ch.Unit, "-", "-", "-", "-", "-"})
			continue
		}
		channelRows = append(channelRows, []string{
			ch.Name, ch.Unit,
			fmt.Sprintf("%d", ch.Stats.Count),
			fmt.Sprintf("%.3f", ch.Stats.Min),
			fmt.Sprintf("%.3f", ch.Stats.Max),
			fmt.Sprintf("%.3f", ch.Stats.Mean),
			fmt.Sprintf("%.3f", ch.Stats.StdDev),
		})
	}
	styler.writeTable([]string{"Channel", "Unit", "N", "Min", "Max", "Mean", "Std Dev"},
		[]float64{0.2, 0.1, 0.1, 0.15, 0.15, 0.15, 0.15}, channelRows, nil)
	styler.addSpacer(5)

	if data.TotalErrors > 0 {
		styler.writeParagraph(fmt.Sprintf("Import warnings (%d row errors, first %d shown)", data.TotalErrors, min(len(data.ErrorSample), maxErrorRows)), "h2", "L")
		var errRows [][]string
		for i, e := range data.ErrorSample {
			if i >= maxErrorRows {
				break
			}
			errRows = append(errRows, []string{fmt.Sprintf("%d", e.Row), e.Column, string(e.Kind), truncate(e.Message, 60)})
		}
		styler.writeTable([]string{"Row", "Column", "Kind", "Message"}, []float64{0.08, 0.2, 0.12, 0.6}, errRows, func(int) bool { return true })
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return pdf.Output(w)
}

// BuildPDFReport writes the compliance report to filepath.
func BuildPDFReport(filepath string, data ReportData) error {
	pdf, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create PDF file: %w", err)
	}
	if err := BuildComplianceReport(pdf, data); err != nil {
		pdf.Close()
		return err
	}
	return pdf.Close()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %%", *v)
}

func limitText(rated *float64, maxDeviation float64, unit string) string {
	if rated == nil {
		return "not rated"
	}
	return fmt.Sprintf("%.1f %s ± %.1f %%", *rated, unit, maxDeviation)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
