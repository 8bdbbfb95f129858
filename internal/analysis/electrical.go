package analysis

import "math"

// Resistance is V/I in ohms; undefined for zero current.
func Resistance(voltage, current float64) (float64, bool) {
	if !isFinite(voltage) || !isFinite(current) || current == 0 {
		return 0, false
	}
	return voltage / current, true
}

// Power is V*I in watts.
func Power(voltage, current float64) (float64, bool) {
	if !isFinite(voltage) || !isFinite(current) {
		return 0, false
	}
	return voltage * current, true
}

// ACPowerResult breaks an AC load into its power components.
type ACPowerResult struct {
	Apparent    float64 `json:"apparent_va"`
	Real        float64 `json:"real_w"`
	Reactive    float64 `json:"reactive_var"`
	PowerFactor float64 `json:"power_factor"`
}

// ACPower derives apparent, real and reactive power from RMS voltage,
// RMS current and the phase angle in degrees.
func ACPower(voltage, current, phaseDegrees float64) (ACPowerResult, bool) {
	if !isFinite(voltage) || !isFinite(current) || !isFinite(phaseDegrees) {
		return ACPowerResult{}, false
	}
	rad := degreesToRadians(phaseDegrees)
	apparent := voltage * current
	return ACPowerResult{
		Apparent:    apparent,
		Real:        apparent * math.Cos(rad),
		Reactive:    apparent * math.Sin(rad),
		PowerFactor: math.Cos(rad),
	}, true
}

// PowerFactor is cos(phase) for a phase angle in degrees.
func PowerFactor(phaseDegrees float64) (float64, bool) {
	if !isFinite(phaseDegrees) {
		return 0, false
	}
	return math.Cos(degreesToRadians(phaseDegrees)), true
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
