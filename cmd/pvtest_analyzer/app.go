package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
	"github.com/user/pvtest_analyzer_go/internal/config"
	"github.com/user/pvtest_analyzer_go/internal/ingest"
	"github.com/user/pvtest_analyzer_go/internal/report"
)

// maxParallelImports bounds concurrent file imports.
const maxParallelImports = 4

// App wires configuration, the ingestor and the report writers.
type App struct {
	cfg      *config.Config
	ingestor *ingest.Ingestor
	logger   *zap.Logger
}

// NewApp creates a new App from configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		ingestor: ingest.NewIngestor(ingest.WithRegistry(reg), ingest.WithLogger(logger)),
		logger:   logger,
	}, nil
}

func (a *App) sendStatus(message string, fields ...zap.Field) {
	a.logger.Info(message, fields...)
}

// ImportRequest names one upload and how to read it.
type ImportRequest struct {
	Path       string
	SessionID  string
	FormatName string
	SheetName  string
	NoHeader   bool
}

// ImportFile reads path from disk and ingests it.
func (a *App) ImportFile(req ImportRequest) (*ingest.Result, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", req.Path, err)
	}
	if limit := a.cfg.MaxFileSize(); limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, above the %d MB upload limit", req.Path, info.Size(), a.cfg.Ingest.MaxFileSizeMB)
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.Path, err)
	}

	opts := a.cfg.IngestOptions()
	opts.SessionID = req.SessionID
	opts.Filename = filepath.Base(req.Path)
	opts.MediaType = mime.TypeByExtension(filepath.Ext(req.Path))
	opts.FormatName = req.FormatName
	if req.SheetName != "" {
		opts.SheetName = req.SheetName
	}
	if req.NoHeader {
		opts.NoHeader = true
	}

	a.sendStatus("parsing", zap.String("file", req.Path))
	return a.ingestor.Ingest(data, opts), nil
}

// ImportFiles ingests several uploads concurrently. Results keep the order
// of reqs. Ingestions are independent; no ordering between them is implied.
func (a *App) ImportFiles(ctx context.Context, reqs []ImportRequest) ([]*ingest.Result, error) {
	results := make([]*ingest.Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelImports)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.ImportFile(req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AssessRequest is an import followed by a compliance check.
type AssessRequest struct {
	ImportRequest
	Device       string
	RatedVoltage *float64
	RatedCurrent *float64
	PDFPath      string
}

// AssessOutcome bundles the import result with the verdict.
type AssessOutcome struct {
	Import   *ingest.Result              `json:"import"`
	Criteria analysis.Criteria           `json:"criteria"`
	Verdict  *analysis.ComplianceVerdict `json:"verdict,omitempty"`
}

// RunAssessment imports a file, assesses it and optionally writes the PDF
// report.
func (a *App) RunAssessment(req AssessRequest) (*AssessOutcome, error) {
	crit, err := a.cfg.Criteria(req.RatedVoltage, req.RatedCurrent)
	if err != nil {
		return nil, err
	}

	res, err := a.ImportFile(req.ImportRequest)
	if err != nil {
		return nil, err
	}
	outcome := &AssessOutcome{Import: res, Criteria: crit}
	if !res.Success {
		a.logger.Warn("import rejected, skipping assessment",
			zap.String("status", string(res.Status)),
			zap.Int("errors", len(res.Errors)))
		return outcome, res.Err()
	}
	a.sendStatus("import complete",
		zap.Int("accepted", res.Metadata.ValidRows),
		zap.Int("row_errors", len(res.Errors)))

	verdict := analysis.Assess(*res.Summary, crit)
	outcome.Verdict = &verdict
	a.sendStatus("assessment complete",
		zap.String("standard", crit.Standard),
		zap.Bool("compliant", verdict.Compliant),
		zap.Int("issues", len(verdict.Issues)))

	if req.PDFPath != "" {
		a.sendStatus("generating PDF", zap.String("path", req.PDFPath))
		data := report.ReportData{
			SessionID:   req.SessionID,
			Device:      req.Device,
			Filename:    res.Metadata.Filename,
			Format:      res.Metadata.DetectedFormat,
			GeneratedAt: time.Now(),
			Criteria:    crit,
			Verdict:     verdict,
			Stats:       *res.Summary,
			ErrorSample: res.ErrorPreview(),
			TotalErrors: len(res.Errors),
		}
		if err := report.BuildPDFReport(req.PDFPath, data); err != nil {
			return outcome, fmt.Errorf("error generating PDF report: %w", err)
		}
	}
	return outcome, nil
}
