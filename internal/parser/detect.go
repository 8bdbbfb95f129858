package parser

import "strings"

// DetectionMethod records how a format was chosen for an upload.
type DetectionMethod string

const (
	DetectedExplicit  DetectionMethod = "explicit"
	DetectedHeaders   DetectionMethod = "headers"
	DetectedHeuristic DetectionMethod = "heuristic"
)

// Header fragments used by the heuristic fallback.
var (
	voltageHints   = []string{"volt", "vdc", "vac", "(v)", "_v", "u_dc"}
	currentHints   = []string{"curr", "amp", "idc", "iac", "(a)", "_a", "_i"}
	timestampHints = []string{"time", "date", "timestamp"}
)

// Detect picks the first registered format whose required column names
// all appear within the headers. Formats with no required by-name columns
// are only reachable by explicit name. When nothing matches, headers that
// look like a voltage/current log resolve to the generic format bound to
// the matching header names.
func (r *Registry) Detect(headers []string) (ExcelFormat, DetectionMethod, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	for _, f := range r.formats {
		required := f.RequiredNames()
		if len(required) == 0 {
			continue
		}
		if containsAll(normalized, required) {
			return f, DetectedHeaders, true
		}
	}

	if f, ok := r.inferGeneric(headers, normalized); ok {
		return f, DetectedHeuristic, true
	}
	return ExcelFormat{}, "", false
}

func containsAll(headers, names []string) bool {
	for _, name := range names {
		if headerIndex(headers, name) < 0 {
			return false
		}
	}
	return true
}

// headerIndex returns the first header containing fragment, or -1.
func headerIndex(headers []string, fragment string) int {
	for i, h := range headers {
		if strings.Contains(h, fragment) {
			return i
		}
	}
	return -1
}

func firstHinted(headers []string, hints []string) int {
	for i, h := range headers {
		for _, hint := range hints {
			if strings.Contains(h, hint) {
				return i
			}
		}
	}
	return -1
}

// inferGeneric binds the generic layout to the concrete headers that
// suggest voltage, current and a timestamp.
func (r *Registry) inferGeneric(headers, normalized []string) (ExcelFormat, bool) {
	ts := firstHinted(normalized, timestampHints)
	v := firstHinted(normalized, voltageHints)
	c := firstHinted(normalized, currentHints)
	if ts < 0 || v < 0 || c < 0 {
		return ExcelFormat{}, false
	}

	bound := map[Field]string{
		FieldTimestamp: headers[ts],
		FieldVoltage:   headers[v],
		FieldCurrent:   headers[c],
	}

	f := ExcelFormat{
		Name:        r.generic.Name,
		Description: r.generic.Description,
		Mappings:    make([]ColumnMapping, 0, len(r.generic.Mappings)),
	}
	for _, m := range r.generic.Mappings {
		if name, ok := bound[m.Target]; ok {
			m.Source = ByName(name)
		}
		f.Mappings = append(f.Mappings, m)
	}
	return f, true
}
