package parser

import "fmt"

// ExportRows lays records out in format's column order: a header row
// followed by one row per record. Index-addressed columns keep their
// position; named columns fill the remaining slots in mapping order.
// Timestamps are time.Time, quantities float64, verdicts PASS/FAIL and
// absent values nil.
func ExportRows(records []MeasurementRecord, format ExcelFormat) [][]any {
	positions, width := exportPositions(format)

	header := make([]any, width)
	for i := range header {
		header[i] = fmt.Sprintf("Column %d", i+1)
	}
	for i, m := range format.Mappings {
		if m.Source.IsIndex() {
			header[positions[i]] = string(m.Target)
		} else {
			header[positions[i]] = m.Source.Name()
		}
	}

	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, header)
	for i := range records {
		row := make([]any, width)
		for j, m := range format.Mappings {
			row[positions[j]] = exportValue(&records[i], m.Target)
		}
		rows = append(rows, row)
	}
	return rows
}

func exportPositions(format ExcelFormat) ([]int, int) {
	positions := make([]int, len(format.Mappings))
	taken := map[int]bool{}
	width := len(format.Mappings)
	for i, m := range format.Mappings {
		if m.Source.IsIndex() {
			positions[i] = m.Source.Index()
			taken[m.Source.Index()] = true
			if m.Source.Index() >= width {
				width = m.Source.Index() + 1
			}
		}
	}
	next := 0
	for i, m := range format.Mappings {
		if m.Source.IsIndex() {
			continue
		}
		for taken[next] {
			next++
		}
		positions[i] = next
		taken[next] = true
		if next >= width {
			width = next + 1
		}
	}
	return positions, width
}

func exportValue(rec *MeasurementRecord, field Field) any {
	switch field {
	case FieldTimestamp:
		if rec.Timestamp.IsZero() {
			return nil
		}
		return rec.Timestamp
	case FieldVoltage:
		return derefNumber(rec.Voltage)
	case FieldCurrent:
		return derefNumber(rec.Current)
	case FieldResistance:
		return derefNumber(rec.Resistance)
	case FieldPower:
		return derefNumber(rec.Power)
	case FieldTemperature:
		return derefNumber(rec.Temperature)
	case FieldHumidity:
		return derefNumber(rec.Humidity)
	case FieldPassFail:
		if rec.PassFail == nil {
			return nil
		}
		if *rec.PassFail {
			return "PASS"
		}
		return "FAIL"
	case FieldNotes:
		if rec.Notes == "" {
			return nil
		}
		return rec.Notes
	}
	return nil
}

func derefNumber(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// HeaderStrings renders the first export row as plain strings.
func HeaderStrings(rows [][]any) []string {
	if len(rows) == 0 {
		return nil
	}
	out := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		out[i], _ = CoerceString(v, true)
	}
	return out
}
