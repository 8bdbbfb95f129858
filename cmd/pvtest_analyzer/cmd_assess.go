package main

import (
	"github.com/spf13/cobra"
)

var (
	assessSession      string
	assessDevice       string
	assessFormat       string
	assessSheet        string
	assessNoHeader     bool
	assessStandard     string
	assessRatedVoltage float64
	assessRatedCurrent float64
	assessPDF          string
)

var assessCmd = &cobra.Command{
	Use:   "assess <file>",
	Short: "Import a file and assess it against a compliance standard",
	Long: `Imports the file, computes session statistics and checks pass rate and
voltage/current deviation against the selected standard. Writes a PDF
report when --pdf is given. Exits non-zero when the import is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringVar(&assessSession, "session", "", "Session ID printed on the report")
	assessCmd.Flags().StringVar(&assessDevice, "device", "", "Device under test")
	assessCmd.Flags().StringVar(&assessFormat, "format", "", "Format name; detected from headers when empty")
	assessCmd.Flags().StringVar(&assessSheet, "sheet", "", "Worksheet name; first sheet when empty")
	assessCmd.Flags().BoolVar(&assessNoHeader, "no-header", false, "Treat every row as data; requires --format")
	assessCmd.Flags().StringVar(&assessStandard, "standard", "", "Standard to assess against; overrides config")
	assessCmd.Flags().Float64Var(&assessRatedVoltage, "rated-voltage", 0, "Rated voltage in V; deviation check skipped when unset")
	assessCmd.Flags().Float64Var(&assessRatedCurrent, "rated-current", 0, "Rated current in A; deviation check skipped when unset")
	assessCmd.Flags().StringVar(&assessPDF, "pdf", "", "Write the PDF report to this path")
}

func runAssess(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if assessStandard != "" {
		app.cfg.Compliance.Standard = assessStandard
	}

	req := AssessRequest{
		ImportRequest: ImportRequest{
			Path:       args[0],
			SessionID:  assessSession,
			FormatName: assessFormat,
			SheetName:  assessSheet,
			NoHeader:   assessNoHeader,
		},
		Device:  assessDevice,
		PDFPath: assessPDF,
	}
	if flagSet(cmd, "rated-voltage") {
		v := assessRatedVoltage
		req.RatedVoltage = &v
	}
	if flagSet(cmd, "rated-current") {
		v := assessRatedCurrent
		req.RatedCurrent = &v
	}

	outcome, runErr := app.RunAssessment(req)
	if outcome != nil {
		outcome.Import.Records = nil
		outcome.Import.Errors = outcome.Import.ErrorPreview()
		if err := writeJSON(cmd.OutOrStdout(), outcome); err != nil {
			return err
		}
	}
	return runErr
}

func flagSet(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
