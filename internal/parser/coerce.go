package parser

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is day zero of spreadsheet serial dates. Using 1899-12-30
// rather than 1900-01-01 absorbs the 1900 leap-year bug for every date
// after February 1900.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const secondsPerDay = 86400

// dateLayouts are tried in order after ISO-8601 fails.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006 15:04:05",
	"1-2-2006",
	"2006/1/2 15:04:05",
	"2006/1/2",
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NumberFormat carries locale separators for numeric strings. A zero rune
// means no remapping.
type NumberFormat struct {
	DecimalSeparator  rune
	ThousandSeparator rune
}

// CoerceDate converts a cell into a UTC time. It accepts time.Time values,
// spreadsheet serial numbers and date strings.
func CoerceDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return CoerceDate(*t)
	case string:
		return parseDateString(t)
	}
	if f, ok := numericValue(v); ok {
		return serialToTime(f)
	}
	return time.Time{}, false
}

func serialToTime(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	ms := math.Round(serial * secondsPerDay * 1000)
	// beyond this time.Duration overflows
	if math.Abs(ms) > float64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Time{}, false
	}
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond), true
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceNumber converts a cell into a finite float64.
func CoerceNumber(v any, nf NumberFormat) (float64, bool) {
	if s, ok := v.(string); ok {
		return parseNumberString(s, nf)
	}
	f, ok := numericValue(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumberString(s string, nf NumberFormat) (float64, bool) {
	if nf.ThousandSeparator != 0 {
		s = strings.ReplaceAll(s, string(nf.ThousandSeparator), "")
	}
	if nf.DecimalSeparator != 0 && nf.DecimalSeparator != '.' {
		s = strings.ReplaceAll(s, string(nf.DecimalSeparator), ".")
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CoerceBoolean converts a cell into a pass/fail style boolean.
func CoerceBoolean(v any) (bool, bool) {
	switch b := v.(type) {
	case nil:
		return false, false
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1", "pass", "passed":
			return true, true
		case "false", "no", "n", "0", "fail", "failed":
			return false, true
		}
		return false, false
	}
	f, ok := numericValue(v)
	if !ok || math.IsNaN(f) {
		return false, false
	}
	return f != 0, true
}

// CoerceString renders a cell as text, trimming surrounding space when trim
// is set.
func CoerceString(v any, trim bool) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case bool:
		s = strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		s = t.Format(time.RFC3339)
	default:
		f, ok := numericValue(v)
		if !ok {
			return "", false
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if trim {
		s = strings.TrimSpace(s)
	}
	return s, true
}

// Coerce dispatches to the coercion for dt. The result is nil when the
// value cannot be represented as dt.
func Coerce(v any, dt DataType, nf NumberFormat) any {
	switch dt {
	case TypeDate:
		if t, ok := CoerceDate(v); ok {
			return t
		}
	case TypeNumber:
		if f, ok := CoerceNumber(v, nf); ok {
			return f
		}
	case TypeBoolean:
		if b, ok := CoerceBoolean(v); ok {
			return b
		}
	default:
		if s, ok := CoerceString(v, true); ok {
			return s
		}
	}
	return nil
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}

// isBlank reports whether a cell carries no value.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *float64:
		return t == nil
	}
	return false
}
