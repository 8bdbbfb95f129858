package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/user/pvtest_analyzer_go/internal/parser"
)

// FormatConfig declares a site-specific column layout.
type FormatConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig maps one column; set either Column (header text) or Index.
type ColumnConfig struct {
	Column   string   `yaml:"column,omitempty"`
	Index    *int     `yaml:"index,omitempty"`
	Field    string   `yaml:"field"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required,omitempty"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	Enum     []string `yaml:"enum,omitempty"`
}

var knownFields = map[parser.Field]bool{
	parser.FieldTimestamp: true, parser.FieldVoltage: true, parser.FieldCurrent: true,
	parser.FieldResistance: true, parser.FieldPower: true, parser.FieldTemperature: true,
	parser.FieldHumidity: true, parser.FieldPassFail: true, parser.FieldNotes: true,
}

var knownTypes = map[parser.DataType]bool{
	parser.TypeString: true, parser.TypeNumber: true, parser.TypeBoolean: true, parser.TypeDate: true,
}

// CustomFormats converts the configured layouts into parser formats.
func (c *Config) CustomFormats() ([]parser.ExcelFormat, error) {
	out := make([]parser.ExcelFormat, 0, len(c.Formats))
	for i, fc := range c.Formats {
		f, err := fc.toFormat()
		if err != nil {
			return nil, fmt.Errorf("formats[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (fc FormatConfig) toFormat() (parser.ExcelFormat, error) {
	if strings.TrimSpace(fc.Name) == "" {
		return parser.ExcelFormat{}, fmt.Errorf("format name is required")
	}
	if len(fc.Columns) == 0 {
		return parser.ExcelFormat{}, fmt.Errorf("format %q has no columns", fc.Name)
	}
	f := parser.ExcelFormat{Name: fc.Name, Description: fc.Description}
	for j, col := range fc.Columns {
		m, err := col.toMapping()
		if err != nil {
			return parser.ExcelFormat{}, fmt.Errorf("format %q column %d: %w", fc.Name, j, err)
		}
		f.Mappings = append(f.Mappings, m)
	}
	return f, nil
}

func (col ColumnConfig) toMapping() (parser.ColumnMapping, error) {
	var m parser.ColumnMapping
	switch {
	case col.Column != "" && col.Index != nil:
		return m, fmt.Errorf("set either column or index, not both")
	case col.Index != nil:
		if *col.Index < 0 {
			return m, fmt.Errorf("index must be >= 0")
		}
		m.Source = parser.ByIndex(*col.Index)
	case col.Column != "":
		m.Source = parser.ByName(col.Column)
	default:
		return m, fmt.Errorf("column or index is required")
	}

	m.Target = parser.Field(strings.ToLower(col.Field))
	if !knownFields[m.Target] {
		return m, fmt.Errorf("unknown field %q", col.Field)
	}
	m.Type = parser.DataType(strings.ToLower(col.Type))
	if m.Type == "" {
		m.Type = parser.TypeString
	}
	if !knownTypes[m.Type] {
		return m, fmt.Errorf("unknown type %q", col.Type)
	}
	m.Required = col.Required

	if col.Min != nil || col.Max != nil || col.Pattern != "" || len(col.Enum) > 0 {
		v := &parser.Validation{Min: col.Min, Max: col.Max, Enum: col.Enum}
		if col.Pattern != "" {
			re, err := regexp.Compile(col.Pattern)
			if err != nil {
				return m, fmt.Errorf("invalid pattern: %w", err)
			}
			v.Pattern = re
		}
		m.Validation = v
	}
	return m, nil
}
