package ingest

import (
	"errors"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
	"github.com/user/pvtest_analyzer_go/internal/parser"
)

const (
	// DefaultErrorRateThreshold rejects a batch whose error count exceeds
	// this fraction of the data rows seen.
	DefaultErrorRateThreshold = 0.10
	// DefaultErrorPreviewLimit bounds the error sample shown to users.
	DefaultErrorPreviewLimit = 10
)

// Status is the overall outcome of an ingestion.
type Status string

const (
	StatusOK            Status = "ok"
	StatusUnreadable    Status = "unreadable"
	StatusNoFormat      Status = "no_format"
	StatusTooManyErrors Status = "too_many_errors"
	StatusNoValidData   Status = "no_valid_data"
)

var (
	ErrUnreadable    = errors.New("spreadsheet could not be read")
	ErrNoFormat      = errors.New("no matching format detected")
	ErrTooManyErrors = errors.New("too many invalid rows")
	ErrNoValidData   = errors.New("no valid rows")
)

// Options control a single ingestion.
type Options struct {
	SessionID string
	Filename  string
	MediaType string
	// FormatName skips detection when set.
	FormatName string
	SheetName  string
	// HeaderRow is the 0-based index of the header row.
	HeaderRow int
	// NoHeader reads every row as data. Columns can then only be addressed
	// by index, so FormatName is required.
	NoHeader bool
	// StartRow is the 0-based index of the first data row; 0 means the row
	// after the header, or the first row when NoHeader is set.
	StartRow      int
	KeepBlankRows bool
	// MaxRows caps the number of data rows read; 0 means unlimited.
	MaxRows     int
	Number      parser.NumberFormat
	StrictTypes bool
	// ErrorRateThreshold and ErrorPreviewLimit fall back to the package
	// defaults when zero.
	ErrorRateThreshold float64
	ErrorPreviewLimit  int
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		ErrorRateThreshold: DefaultErrorRateThreshold,
		ErrorPreviewLimit:  DefaultErrorPreviewLimit,
	}
}

// Metadata describes the upload and how it was interpreted.
type Metadata struct {
	SessionID       string                 `json:"session_id,omitempty"`
	Filename        string                 `json:"filename,omitempty"`
	FileSize        int                    `json:"file_size"`
	Sheet           string                 `json:"sheet,omitempty"`
	TotalRows       int                    `json:"total_rows"`
	ValidRows       int                    `json:"valid_rows"`
	InvalidRows     int                    `json:"invalid_rows"`
	Headers         []string               `json:"headers"`
	DetectedFormat  string                 `json:"detected_format,omitempty"`
	DetectionMethod parser.DetectionMethod `json:"detection_method,omitempty"`
}

// Result is the outcome of Ingest. On any failure Records is empty.
type Result struct {
	Success  bool                        `json:"success"`
	Status   Status                      `json:"status"`
	BatchID  string                      `json:"batch_id"`
	Records  []parser.MeasurementRecord  `json:"data,omitempty"`
	Errors   []parser.ParseError         `json:"errors,omitempty"`
	Metadata *Metadata                   `json:"metadata,omitempty"`
	Summary  *analysis.SessionStatistics `json:"summary,omitempty"`

	previewLimit int
}

// ErrorRate is the number of errors per data row seen.
func (r *Result) ErrorRate() float64 {
	if r.Metadata == nil || r.Metadata.TotalRows == 0 {
		return 0
	}
	return float64(len(r.Errors)) / float64(r.Metadata.TotalRows)
}

// ErrorPreview returns the first errors up to the configured preview limit.
func (r *Result) ErrorPreview() []parser.ParseError {
	n := r.previewLimit
	if n <= 0 {
		n = DefaultErrorPreviewLimit
	}
	if len(r.Errors) <= n {
		return r.Errors
	}
	return r.Errors[:n]
}

// Err maps a failed status to its sentinel error, wrapped with the first
// parse error when there is one.
func (r *Result) Err() error {
	var sentinel error
	switch r.Status {
	case StatusOK:
		return nil
	case StatusUnreadable:
		sentinel = ErrUnreadable
	case StatusNoFormat:
		sentinel = ErrNoFormat
	case StatusTooManyErrors:
		sentinel = ErrTooManyErrors
	case StatusNoValidData:
		sentinel = ErrNoValidData
	default:
		return nil
	}
	if len(r.Errors) > 0 {
		return errors.Join(sentinel, r.Errors[0])
	}
	return sentinel
}
