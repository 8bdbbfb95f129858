package parser

import (
	"fmt"
	"strings"
	"time"
)

// RawRow is one data row of a sheet together with the header row it is
// read against.
type RawRow struct {
	Headers []string
	Cells   []any

	normalized []string
}

// NewRawRow pairs cells with headers.
func NewRawRow(headers []string, cells []any) RawRow {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}
	return RawRow{Headers: headers, Cells: cells, normalized: norm}
}

// Cell returns the cell addressed by src. Names match a normalized header
// exactly first, then the first header containing the name.
func (r RawRow) Cell(src Source) any {
	idx := r.columnIndex(src)
	if idx < 0 || idx >= len(r.Cells) {
		return nil
	}
	return r.Cells[idx]
}

func (r RawRow) columnIndex(src Source) int {
	if src.IsIndex() {
		return src.Index()
	}
	if r.normalized == nil {
		r = NewRawRow(r.Headers, r.Cells)
	}
	name := normalizeHeader(src.Name())
	for i, h := range r.normalized {
		if h == name {
			return i
		}
	}
	return headerIndex(r.normalized, name)
}

// Source returns the original header to value mapping kept for audit.
func (r RawRow) Source() map[string]any {
	out := make(map[string]any, len(r.Cells))
	for i, v := range r.Cells {
		key := fmt.Sprintf("column_%d", i+1)
		if i < len(r.Headers) && strings.TrimSpace(r.Headers[i]) != "" {
			key = r.Headers[i]
		}
		out[key] = v
	}
	return out
}

// IsBlank reports whether every cell is empty.
func (r RawRow) IsBlank() bool {
	for _, c := range r.Cells {
		if !isBlank(c) {
			return false
		}
	}
	return true
}

// ValidateOptions tunes per-row validation.
type ValidateOptions struct {
	Number NumberFormat
	// StrictTypes reports optional cells that fail coercion as type errors
	// instead of dropping them.
	StrictTypes bool
}

// RowResult is the outcome of validating one row. Record is nil when the
// row was rejected.
type RowResult struct {
	Record *MeasurementRecord
	Errors []ParseError
}

// ValidateRow applies format to row. rowNumber is the 1-based sheet row
// used in error reports.
func ValidateRow(row RawRow, format ExcelFormat, rowNumber int, opts ValidateOptions) RowResult {
	rec := &MeasurementRecord{RawSource: row.Source()}
	var errs []ParseError

	for _, m := range format.Mappings {
		column := m.Source.String()
		raw := row.Cell(m.Source)

		if isBlank(raw) {
			if m.Required {
				errs = append(errs, ParseError{
					Row: rowNumber, Column: column, Kind: KindMissing,
					Message: fmt.Sprintf("required field %s is empty", m.Target),
				})
			}
			continue
		}

		value := Coerce(raw, m.Type, opts.Number)
		if value == nil {
			switch {
			case m.Required:
				errs = append(errs, ParseError{
					Row: rowNumber, Column: column, Value: raw, Kind: KindMissing,
					Message: fmt.Sprintf("required field %s could not be read as %s", m.Target, m.Type),
				})
			case opts.StrictTypes:
				errs = append(errs, ParseError{
					Row: rowNumber, Column: column, Value: raw, Kind: KindType,
					Message: fmt.Sprintf("value is not a valid %s", m.Type),
				})
			}
			continue
		}

		if perr, ok := checkValidation(m, value); !ok {
			perr.Row, perr.Column, perr.Value = rowNumber, column, raw
			errs = append(errs, perr)
			continue
		}

		setField(rec, m.Target, value)
	}

	if len(errs) == 0 && !rec.HasMinimumData() {
		column := "voltage/current"
		msg := "row has neither voltage nor current"
		if rec.Timestamp.IsZero() {
			column, msg = string(FieldTimestamp), "row has no timestamp"
		}
		errs = append(errs, ParseError{Row: rowNumber, Column: column, Kind: KindMissing, Message: msg})
	}

	if len(errs) > 0 {
		return RowResult{Errors: errs}
	}
	return RowResult{Record: rec}
}

func checkValidation(m ColumnMapping, value any) (ParseError, bool) {
	v := m.Validation
	if v == nil {
		return ParseError{}, true
	}
	if f, ok := value.(float64); ok {
		if v.Min != nil && f < *v.Min {
			return ParseError{Kind: KindRange, Message: fmt.Sprintf("%s %g is below minimum %g", m.Target, f, *v.Min)}, false
		}
		if v.Max != nil && f > *v.Max {
			return ParseError{Kind: KindRange, Message: fmt.Sprintf("%s %g is above maximum %g", m.Target, f, *v.Max)}, false
		}
	}
	if v.Pattern == nil && len(v.Enum) == 0 {
		return ParseError{}, true
	}
	text, _ := CoerceString(value, true)
	if v.Pattern != nil && !v.Pattern.MatchString(text) {
		return ParseError{Kind: KindFormat, Message: fmt.Sprintf("%s %q does not match %s", m.Target, text, v.Pattern)}, false
	}
	if len(v.Enum) > 0 && !inEnum(v.Enum, text) {
		return ParseError{Kind: KindValidation, Message: fmt.Sprintf("%s %q is not one of %s", m.Target, text, strings.Join(v.Enum, ", "))}, false
	}
	return ParseError{}, true
}

func inEnum(allowed []string, s string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			return true
		}
	}
	return false
}

func setField(rec *MeasurementRecord, field Field, value any) {
	switch field {
	case FieldTimestamp:
		if t, ok := value.(time.Time); ok {
			rec.Timestamp = t
		}
	case FieldVoltage:
		rec.Voltage = numberPtr(value)
	case FieldCurrent:
		rec.Current = numberPtr(value)
	case FieldResistance:
		rec.Resistance = numberPtr(value)
	case FieldPower:
		rec.Power = numberPtr(value)
	case FieldTemperature:
		rec.Temperature = numberPtr(value)
	case FieldHumidity:
		rec.Humidity = numberPtr(value)
	case FieldPassFail:
		if b, ok := value.(bool); ok {
			rec.PassFail = &b
		}
	case FieldNotes:
		if s, ok := value.(string); ok {
			if rec.Notes != "" {
				rec.Notes += "; " + s
			} else {
				rec.Notes = s
			}
		}
	}
}

func numberPtr(value any) *float64 {
	if f, ok := value.(float64); ok {
		return &f
	}
	return nil
}
