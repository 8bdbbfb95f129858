package ingest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
	"github.com/user/pvtest_analyzer_go/internal/parser"
)

// Ingestor turns uploaded spreadsheets into validated measurement records.
// It holds no per-call state and may be shared between goroutines; callers
// that need one import at a time per session must serialize themselves.
type Ingestor struct {
	registry *parser.Registry
	logger   *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithRegistry replaces the built-in format registry.
func WithRegistry(r *parser.Registry) Option {
	return func(in *Ingestor) {
		if r != nil {
			in.registry = r
		}
	}
}

// WithLogger sets the logger used for batch summaries.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngestor returns an Ingestor using the default registry unless
// overridden.
func NewIngestor(opts ...Option) *Ingestor {
	in := &Ingestor{
		registry: parser.DefaultRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Registry exposes the formats the ingestor detects against.
func (in *Ingestor) Registry() *parser.Registry { return in.registry }

// Ingest parses data and validates every data row. File-level problems
// abort with a single format error; row problems accumulate. A batch whose
// error count exceeds the error-rate threshold is rejected as a whole.
func (in *Ingestor) Ingest(data []byte, opts Options) *Result {
	opts = withDefaults(opts)
	res := &Result{
		BatchID:      uuid.NewString(),
		previewLimit: opts.ErrorPreviewLimit,
		Metadata: &Metadata{
			SessionID: opts.SessionID,
			Filename:  opts.Filename,
			FileSize:  len(data),
			Headers:   []string{},
		},
	}
	log := in.logger.With(
		zap.String("batch_id", res.BatchID),
		zap.String("session_id", opts.SessionID),
		zap.String("filename", opts.Filename),
	)

	sheet, err := parser.ReadSheet(data, parser.SheetRequest{
		Filename:  opts.Filename,
		MediaType: opts.MediaType,
		SheetName: opts.SheetName,
	})
	if err != nil {
		column := "file"
		if errors.Is(err, parser.ErrSheetNotFound) {
			column = "sheet"
		}
		log.Warn("upload unreadable", zap.Error(err))
		return fail(res, StatusUnreadable, column, err.Error())
	}
	res.Metadata.Sheet = sheet.Name

	var headers []string
	start := opts.StartRow
	if opts.NoHeader {
		if opts.FormatName == "" {
			log.Warn("no format for headerless sheet")
			return fail(res, StatusNoFormat, "header", "a format name is required when the sheet has no header row")
		}
	} else {
		if opts.HeaderRow >= len(sheet.Rows) {
			log.Warn("header row out of range", zap.Int("header_row", opts.HeaderRow), zap.Int("rows", len(sheet.Rows)))
			return fail(res, StatusUnreadable, "header", fmt.Sprintf("header row %d is beyond the end of sheet %q", opts.HeaderRow+1, sheet.Name))
		}
		headers = headerStrings(sheet.Rows[opts.HeaderRow])
		res.Metadata.Headers = headers
		if start <= opts.HeaderRow {
			start = opts.HeaderRow + 1
		}
	}

	format, method, err := in.resolveFormat(headers, opts.FormatName)
	if err != nil {
		log.Warn("no format", zap.Strings("headers", headers), zap.Error(err))
		return fail(res, StatusNoFormat, "header", err.Error())
	}
	res.Metadata.DetectedFormat = format.Name
	res.Metadata.DetectionMethod = method

	vopts := parser.ValidateOptions{Number: opts.Number, StrictTypes: opts.StrictTypes}

	var accepted []parser.MeasurementRecord
	var rowErrors []parser.ParseError
	seen := 0
	for i := start; i < len(sheet.Rows); i++ {
		if opts.MaxRows > 0 && seen >= opts.MaxRows {
			break
		}
		row := parser.NewRawRow(headers, sheet.Rows[i])
		if !opts.KeepBlankRows && row.IsBlank() {
			continue
		}
		seen++

		out := parser.ValidateRow(row, format, i+1, vopts)
		if out.Record == nil {
			rowErrors = append(rowErrors, out.Errors...)
			continue
		}
		rec := *out.Record
		rec.SequenceNumber = len(accepted) + 1
		rec.DeriveElectrical()
		accepted = append(accepted, rec)
	}

	res.Errors = rowErrors
	res.Metadata.TotalRows = seen
	res.Metadata.ValidRows = len(accepted)
	res.Metadata.InvalidRows = seen - len(accepted)

	if float64(len(rowErrors)) > opts.ErrorRateThreshold*float64(seen) {
		res.Status = StatusTooManyErrors
		log.Warn("batch rejected",
			zap.Int("rows", seen),
			zap.Int("errors", len(rowErrors)),
			zap.Float64("threshold", opts.ErrorRateThreshold))
		return res
	}
	if len(accepted) == 0 {
		res.Status = StatusNoValidData
		if len(res.Errors) == 0 {
			res.Errors = []parser.ParseError{{Kind: parser.KindMissing, Column: "data", Message: "the sheet contains no data rows"}}
		}
		log.Warn("no valid rows", zap.Int("rows", seen))
		return res
	}

	summary := analysis.AnalyzeSession(accepted)
	res.Success = true
	res.Status = StatusOK
	res.Records = accepted
	res.Summary = &summary
	log.Info("batch ingested",
		zap.String("format", format.Name),
		zap.String("detection", string(method)),
		zap.Int("rows", seen),
		zap.Int("accepted", len(accepted)),
		zap.Int("errors", len(rowErrors)))
	return res
}

func (in *Ingestor) resolveFormat(headers []string, name string) (parser.ExcelFormat, parser.DetectionMethod, error) {
	if name != "" {
		f, err := in.registry.Lookup(name)
		if err != nil {
			return parser.ExcelFormat{}, "", err
		}
		return f, parser.DetectedExplicit, nil
	}
	f, method, ok := in.registry.Detect(headers)
	if !ok {
		return parser.ExcelFormat{}, "", fmt.Errorf("headers do not match any known format")
	}
	return f, method, nil
}

func fail(res *Result, status Status, column, msg string) *Result {
	res.Success = false
	res.Status = status
	res.Errors = []parser.ParseError{{Kind: parser.KindFormat, Column: column, Message: msg}}
	return res
}

func withDefaults(opts Options) Options {
	if opts.ErrorRateThreshold <= 0 {
		opts.ErrorRateThreshold = DefaultErrorRateThreshold
	}
	if opts.ErrorPreviewLimit <= 0 {
		opts.ErrorPreviewLimit = DefaultErrorPreviewLimit
	}
	if opts.HeaderRow < 0 {
		opts.HeaderRow = 0
	}
	if opts.StartRow < 0 {
		opts.StartRow = 0
	}
	return opts
}

func headerStrings(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i], _ = parser.CoerceString(c, true)
	}
	return out
}
