package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// GenericFormatName is the layout returned when no registered format
// matches but the headers look like a voltage/current log.
const GenericFormatName = "generic"

// Registry is an ordered catalog of known formats. Detection walks the
// formats in registration order and the first match wins.
type Registry struct {
	formats []ExcelFormat
	generic ExcelFormat
}

// NewRegistry returns a registry holding formats in the given order.
func NewRegistry(formats ...ExcelFormat) *Registry {
	r := &Registry{generic: genericFormat()}
	for _, f := range formats {
		r.Register(f)
	}
	return r
}

// DefaultRegistry returns a registry with the built-in instrument layouts.
func DefaultRegistry() *Registry {
	return NewRegistry(BuiltinFormats()...)
}

// Register appends f. A format registered under an existing name replaces
// it in place.
func (r *Registry) Register(f ExcelFormat) {
	for i, existing := range r.formats {
		if strings.EqualFold(existing.Name, f.Name) {
			r.formats[i] = f
			return
		}
	}
	r.formats = append(r.formats, f)
}

// Lookup finds a format by case-insensitive name. The generic fallback
// format is reachable by name too.
func (r *Registry) Lookup(name string) (ExcelFormat, error) {
	for _, f := range r.formats {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	if strings.EqualFold(name, GenericFormatName) {
		return r.generic, nil
	}
	return ExcelFormat{}, fmt.Errorf("unknown format %q", name)
}

// Formats returns the registered formats in detection order.
func (r *Registry) Formats() []ExcelFormat {
	out := make([]ExcelFormat, len(r.formats))
	copy(out, r.formats)
	return out
}

func between(min, max float64) *Validation {
	return &Validation{Min: float64Ptr(min), Max: float64Ptr(max)}
}

// BuiltinFormats lists the instrument layouts shipped with the analyzer,
// in detection order.
func BuiltinFormats() []ExcelFormat {
	return []ExcelFormat{
		{
			Name:        "fluke_1738",
			Description: "Fluke 1738 power logger export",
			Mappings: []ColumnMapping{
				{Source: ByName("Start Date"), Target: FieldTimestamp, Type: TypeDate, Required: true},
				{Source: ByName("Vrms AVG"), Target: FieldVoltage, Type: TypeNumber, Required: true, Validation: between(0, 2000)},
				{Source: ByName("Arms AVG"), Target: FieldCurrent, Type: TypeNumber, Validation: between(-200, 200)},
				{Source: ByName("P AVG"), Target: FieldPower, Type: TypeNumber},
				{Source: ByName("Temperature"), Target: FieldTemperature, Type: TypeNumber, Validation: between(-40, 125)},
				{Source: ByName("Event"), Target: FieldNotes, Type: TypeString, Validation: &Validation{Enum: []string{"normal", "dip", "swell", "interruption", "transient"}}},
			},
		},
		{
			Name:        "hioki_pw3360",
			Description: "Hioki PW3360 clamp-on power logger",
			Mappings: []ColumnMapping{
				{Source: ByName("Date Time"), Target: FieldTimestamp, Type: TypeDate, Required: true},
				{Source: ByName("U1"), Target: FieldVoltage, Type: TypeNumber, Required: true, Validation: between(0, 2000)},
				{Source: ByName("I1"), Target: FieldCurrent, Type: TypeNumber, Required: true, Validation: between(-200, 200)},
				{Source: ByName("P1"), Target: FieldPower, Type: TypeNumber},
				{Source: ByName("Judgment"), Target: FieldPassFail, Type: TypeBoolean},
			},
		},
		{
			Name:        "iv_curve_tracer",
			Description: "PV I-V curve tracer summary sheet",
			Mappings: []ColumnMapping{
				{Source: ByName("Measured At"), Target: FieldTimestamp, Type: TypeDate, Required: true},
				{Source: ByName("Voc"), Target: FieldVoltage, Type: TypeNumber, Required: true, Validation: between(0, 2000)},
				{Source: ByName("Isc"), Target: FieldCurrent, Type: TypeNumber, Required: true, Validation: between(0, 100)},
				{Source: ByName("Pmax"), Target: FieldPower, Type: TypeNumber},
				{Source: ByName("Irradiance"), Target: FieldNotes, Type: TypeString, Validation: &Validation{Pattern: MustPattern(`^\d+(\.\d+)?$`)}},
				{Source: ByName("Module Temp"), Target: FieldTemperature, Type: TypeNumber, Validation: between(-40, 125)},
			},
		},
		{
			Name:        "standard",
			Description: "Application measurement template",
			Mappings: []ColumnMapping{
				{Source: ByName("Timestamp"), Target: FieldTimestamp, Type: TypeDate, Required: true},
				{Source: ByName("Voltage"), Target: FieldVoltage, Type: TypeNumber, Validation: between(0, 2000)},
				{Source: ByName("Current"), Target: FieldCurrent, Type: TypeNumber, Validation: between(-200, 200)},
				{Source: ByName("Resistance"), Target: FieldResistance, Type: TypeNumber, Validation: &Validation{Min: float64Ptr(0)}},
				{Source: ByName("Power"), Target: FieldPower, Type: TypeNumber},
				{Source: ByName("Temperature"), Target: FieldTemperature, Type: TypeNumber, Validation: between(-40, 125)},
				{Source: ByName("Humidity"), Target: FieldHumidity, Type: TypeNumber, Validation: between(0, 100)},
				{Source: ByName("Result"), Target: FieldPassFail, Type: TypeBoolean},
				{Source: ByName("Notes"), Target: FieldNotes, Type: TypeString},
			},
		},
		{
			Name:        "positional",
			Description: "Headerless timestamp, voltage, current, result columns",
			Mappings: []ColumnMapping{
				{Source: ByIndex(0), Target: FieldTimestamp, Type: TypeDate, Required: true},
				{Source: ByIndex(1), Target: FieldVoltage, Type: TypeNumber, Validation: between(0, 2000)},
				{Source: ByIndex(2), Target: FieldCurrent, Type: TypeNumber, Validation: between(-200, 200)},
				{Source: ByIndex(3), Target: FieldPassFail, Type: TypeBoolean},
			},
		},
	}
}

// genericFormat resolves columns by header fragments so that loosely
// named voltage/current logs can still be read.
func genericFormat() ExcelFormat {
	return ExcelFormat{
		Name:        GenericFormatName,
		Description: "Heuristic voltage/current/time layout",
		Mappings: []ColumnMapping{
			{Source: ByName("time"), Target: FieldTimestamp, Type: TypeDate, Required: true},
			{Source: ByName("volt"), Target: FieldVoltage, Type: TypeNumber},
			{Source: ByName("curr"), Target: FieldCurrent, Type: TypeNumber},
			{Source: ByName("temp"), Target: FieldTemperature, Type: TypeNumber},
			{Source: ByName("humid"), Target: FieldHumidity, Type: TypeNumber, Validation: between(0, 100)},
			{Source: ByName("pass"), Target: FieldPassFail, Type: TypeBoolean},
		},
	}
}

// MustPattern compiles a validation pattern for statically declared formats.
func MustPattern(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}
