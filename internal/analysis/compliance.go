package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// standardPresets holds the default thresholds for the testing standards
// the lab reports against.
var standardPresets = map[string]Criteria{
	"IEC 60947-3":     {Standard: "IEC 60947-3", MinPassRate: 95, MaxVoltageDeviation: 10, MaxCurrentDeviation: 10},
	"UL 98B":          {Standard: "UL 98B", MinPassRate: 100, MaxVoltageDeviation: 5, MaxCurrentDeviation: 5},
	"IEC 60364-7-712": {Standard: "IEC 60364-7-712", MinPassRate: 95, MaxVoltageDeviation: 15, MaxCurrentDeviation: 15},
}

// Standards lists the names of the known standard presets.
func Standards() []string {
	names := make([]string, 0, len(standardPresets))
	for name := range standardPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CriteriaForStandard returns the preset thresholds for a named standard
// with the device ratings filled in.
func CriteriaForStandard(name string, ratedVoltage, ratedCurrent *float64) (Criteria, error) {
	for key, c := range standardPresets {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			c.RatedVoltage = ratedVoltage
			c.RatedCurrent = ratedCurrent
			return c, nil
		}
	}
	return Criteria{}, fmt.Errorf("unknown testing standard %q (known: %s)", name, strings.Join(Standards(), ", "))
}

// Assess checks session statistics against criteria. Each criterion is
// evaluated independently: a value that cannot be computed stays nil and
// does not prevent the others from being checked.
func Assess(stats SessionStatistics, c Criteria) ComplianceVerdict {
	v := ComplianceVerdict{Standard: c.Standard, Issues: []Issue{}}

	if stats.PassRate != nil {
		v.PassRate = ptr(*stats.PassRate)
		if *stats.PassRate < c.MinPassRate {
			v.Issues = append(v.Issues, Issue{
				Criterion: "pass_rate",
				Actual:    *stats.PassRate,
				Limit:     c.MinPassRate,
				Message:   fmt.Sprintf("pass rate %.1f%% is below the required %.1f%%", *stats.PassRate, c.MinPassRate),
			})
		}
	}

	v.VoltageDeviation = checkDeviation(&v, "voltage", stats.Voltage, c.RatedVoltage, c.MaxVoltageDeviation)
	v.CurrentDeviation = checkDeviation(&v, "current", stats.Current, c.RatedCurrent, c.MaxCurrentDeviation)

	v.Compliant = len(v.Issues) == 0
	return v
}

func checkDeviation(v *ComplianceVerdict, channel string, cs *ChannelStats, rated *float64, maxDeviation float64) *float64 {
	if rated == nil || cs == nil {
		return nil
	}
	d, ok := Deviation(cs.Mean, *rated)
	if !ok {
		return nil
	}
	if math.Abs(d) > maxDeviation {
		v.Issues = append(v.Issues, Issue{
			Criterion: channel + "_deviation",
			Actual:    d,
			Limit:     maxDeviation,
			Message: fmt.Sprintf("mean %s %.3f deviates %+.2f%% from rated %.3f (limit ±%.2f%%)",
				channel, cs.Mean, d, *rated, maxDeviation),
		})
	}
	return ptr(d)
}
