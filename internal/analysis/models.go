package analysis

import "fmt"

// ChannelStats summarizes one measured quantity across a session.
type ChannelStats struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Outliers int     `json:"outliers"`
}

// SessionStatistics is a projection of a measurement set. It is never a
// source of truth and must be recomputed whenever the set changes.
type SessionStatistics struct {
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Untested   int           `json:"untested"`
	PassRate   *float64      `json:"pass_rate"`
	Voltage    *ChannelStats `json:"voltage,omitempty"`
	Current    *ChannelStats `json:"current,omitempty"`
	Resistance *ChannelStats `json:"resistance,omitempty"`
	Power      *ChannelStats `json:"power,omitempty"`
}

// Criteria are the thresholds a session is assessed against. Rated values
// are optional; deviations are percentages.
type Criteria struct {
	Standard            string   `json:"standard,omitempty"`
	MinPassRate         float64  `json:"min_pass_rate"`
	RatedVoltage        *float64 `json:"rated_voltage,omitempty"`
	RatedCurrent        *float64 `json:"rated_current,omitempty"`
	MaxVoltageDeviation float64  `json:"max_voltage_deviation"`
	MaxCurrentDeviation float64  `json:"max_current_deviation"`
}

// Issue is one failed criterion.
type Issue struct {
	Criterion string  `json:"criterion"`
	Actual    float64 `json:"actual"`
	Limit     float64 `json:"limit"`
	Message   string  `json:"message"`
}

func (i Issue) String() string { return i.Message }

// ComplianceVerdict is the outcome of Assess. Nil numeric fields mean the
// input needed to compute them was absent.
type ComplianceVerdict struct {
	Standard         string   `json:"standard,omitempty"`
	Compliant        bool     `json:"compliant"`
	PassRate         *float64 `json:"pass_rate"`
	VoltageDeviation *float64 `json:"voltage_deviation"`
	CurrentDeviation *float64 `json:"current_deviation"`
	Issues           []Issue  `json:"issues"`
}

// Summary is a one-line description of the verdict.
func (v ComplianceVerdict) Summary() string {
	if v.Compliant {
		return "COMPLIANT"
	}
	return fmt.Sprintf("NON-COMPLIANT (%d issue(s))", len(v.Issues))
}

func ptr(v float64) *float64 { return &v }
