package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/pvtest_analyzer_go/internal/ingest"
)

var (
	importSession  string
	importFormat   string
	importSheet    string
	importNoHeader bool
	importFull     bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Validate one or more measurement files",
	Long: `Reads each file, detects its column layout and validates every row.
Prints one JSON result per file. Files are processed concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importSession, "session", "", "Session ID recorded on the result")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Format name; detected from headers when empty")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet name; first sheet when empty")
	importCmd.Flags().BoolVar(&importNoHeader, "no-header", false, "Treat every row as data; requires --format")
	importCmd.Flags().BoolVar(&importFull, "full", false, "Include accepted records in the output")
}

// importSummary is the printed form of a result; records are omitted unless
// --full is set.
type importSummary struct {
	File string `json:"file"`
	*ingest.Result
	ErrorRate float64 `json:"error_rate"`
}

func runImport(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	reqs := make([]ImportRequest, len(args))
	for i, path := range args {
		reqs[i] = ImportRequest{
			Path:       path,
			SessionID:  importSession,
			FormatName: importFormat,
			SheetName:  importSheet,
			NoHeader:   importNoHeader,
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := app.ImportFiles(ctx, reqs)
	if err != nil {
		return err
	}

	out := make([]importSummary, len(results))
	failed := 0
	for i, res := range results {
		if !res.Success {
			failed++
		}
		rate := res.ErrorRate()
		if !importFull {
			res.Records = nil
			res.Errors = res.ErrorPreview()
		}
		out[i] = importSummary{File: args[i], Result: res, ErrorRate: rate}
	}
	logger.Debug("import finished", zap.Int("files", len(args)), zap.Int("failed", failed))
	return writeJSON(cmd.OutOrStdout(), out)
}
