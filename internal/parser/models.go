package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field names a MeasurementRecord attribute a column can be mapped onto.
type Field string

const (
	FieldTimestamp   Field = "timestamp"
	FieldVoltage     Field = "voltage"
	FieldCurrent     Field = "current"
	FieldResistance  Field = "resistance"
	FieldPower       Field = "power"
	FieldTemperature Field = "temperature"
	FieldHumidity    Field = "humidity"
	FieldPassFail    Field = "pass_fail"
	FieldNotes       Field = "notes"
)

// DataType is the declared type of a mapped column.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
)

// ErrorKind classifies a ParseError.
type ErrorKind string

const (
	KindFormat     ErrorKind = "format"     // unreadable file, missing sheet, no format, pattern mismatch
	KindValidation ErrorKind = "validation" // value outside an enumerated set
	KindMissing    ErrorKind = "missing"    // required value absent after coercion
	KindRange      ErrorKind = "range"      // numeric value outside min/max
	KindType       ErrorKind = "type"       // optional value that could not be coerced (strict mode only)
)

// MeasurementRecord is one reading captured during a device test.
// Optional quantities are nil when the sheet did not provide them.
type MeasurementRecord struct {
	Timestamp      time.Time      `json:"timestamp"`
	Voltage        *float64       `json:"voltage,omitempty"`
	Current        *float64       `json:"current,omitempty"`
	Resistance     *float64       `json:"resistance,omitempty"`
	Power          *float64       `json:"power,omitempty"`
	Temperature    *float64       `json:"temperature,omitempty"`
	Humidity       *float64       `json:"humidity,omitempty"`
	PassFail       *bool          `json:"pass_fail,omitempty"`
	SequenceNumber int            `json:"sequence_number"`
	Notes          string         `json:"notes,omitempty"`
	RawSource      map[string]any `json:"raw_source,omitempty"`
}

// HasMinimumData reports whether the record has a timestamp and at least
// one of voltage or current.
func (m *MeasurementRecord) HasMinimumData() bool {
	return !m.Timestamp.IsZero() && (m.Voltage != nil || m.Current != nil)
}

// DeriveElectrical fills resistance (V/I) and power (V*I) from voltage and
// current. Values supplied by the sheet are left untouched.
func (m *MeasurementRecord) DeriveElectrical() {
	if m.Voltage == nil || m.Current == nil {
		return
	}
	v, i := *m.Voltage, *m.Current
	if m.Resistance == nil && i != 0 {
		r := v / i
		m.Resistance = &r
	}
	if m.Power == nil {
		p := v * i
		m.Power = &p
	}
}

// ParseError describes a problem with one cell or row of an upload.
// Row is 1-based and counts sheet rows including the header.
type ParseError struct {
	Row     int       `json:"row"`
	Column  string    `json:"column"`
	Value   any       `json:"value,omitempty"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

func (e ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return e.Message
}

// Source locates a cell within a row, either by header name or by
// 0-based column index.
type Source struct {
	name    string
	index   int
	byIndex bool
}

// ByName addresses a column by its header text.
func ByName(name string) Source { return Source{name: name} }

// ByIndex addresses a column by its 0-based position.
func ByIndex(index int) Source { return Source{index: index, byIndex: true} }

func (s Source) IsIndex() bool { return s.byIndex }
func (s Source) Name() string  { return s.name }
func (s Source) Index() int    { return s.index }

func (s Source) String() string {
	if s.byIndex {
		return "#" + strconv.Itoa(s.index)
	}
	return s.name
}

// Validation holds the optional constraints of a ColumnMapping.
type Validation struct {
	Min     *float64
	Max     *float64
	Pattern *regexp.Regexp
	Enum    []string
}

// ColumnMapping binds one sheet column to a MeasurementRecord field.
type ColumnMapping struct {
	Source     Source
	Target     Field
	Type       DataType
	Required   bool
	Validation *Validation
}

// ExcelFormat is a named column layout, usually tied to an instrument export.
type ExcelFormat struct {
	Name        string
	Description string
	Mappings    []ColumnMapping
}

// RequiredNames returns the normalized header names of the required
// by-name mappings.
func (f ExcelFormat) RequiredNames() []string {
	names := make([]string, 0, len(f.Mappings))
	for _, m := range f.Mappings {
		if m.Required && !m.Source.IsIndex() {
			names = append(names, normalizeHeader(m.Source.Name()))
		}
	}
	return names
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func float64Ptr(v float64) *float64 { return &v }
