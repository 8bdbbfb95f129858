package analysis

import (
	"github.com/user/pvtest_analyzer_go/internal/parser"
)

// AnalyzeSession computes SessionStatistics for a measurement set. Pass
// rate counts only records that carry a verdict.
func AnalyzeSession(records []parser.MeasurementRecord) SessionStatistics {
	s := SessionStatistics{Total: len(records)}

	var voltages, currents, resistances, powers []float64
	for _, r := range records {
		switch {
		case r.PassFail == nil:
			s.Untested++
		case *r.PassFail:
			s.Passed++
		default:
			s.Failed++
		}
		if r.Voltage != nil {
			voltages = append(voltages, *r.Voltage)
		}
		if r.Current != nil {
			currents = append(currents, *r.Current)
		}
		if r.Resistance != nil {
			resistances = append(resistances, *r.Resistance)
		}
		if r.Power != nil {
			powers = append(powers, *r.Power)
		}
	}

	if rate, ok := PassRate(s.Passed, s.Passed+s.Failed); ok {
		s.PassRate = ptr(rate)
	}
	s.Voltage = channelStats(voltages)
	s.Current = channelStats(currents)
	s.Resistance = channelStats(resistances)
	s.Power = channelStats(powers)
	return s
}

// channelStats returns nil when the channel has no finite values.
func channelStats(data []float64) *ChannelStats {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return nil
	}
	cs := &ChannelStats{Count: len(xs)}
	cs.Min, _ = Min(xs)
	cs.Max, _ = Max(xs)
	cs.Mean, _ = Mean(xs)
	cs.StdDev, _ = StdDev(xs)
	if rep, ok := DetectOutliers(xs); ok {
		cs.Outliers = len(rep.Outliers)
	}
	return cs
}
