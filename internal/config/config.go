package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
	"github.com/user/pvtest_analyzer_go/internal/ingest"
	"github.com/user/pvtest_analyzer_go/internal/parser"
)

// Config holds all analyzer configuration.
type Config struct {
	Ingest     IngestConfig     `yaml:"ingest"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Formats    []FormatConfig   `yaml:"formats"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// IngestConfig holds the defaults applied to every upload.
type IngestConfig struct {
	MaxFileSizeMB      int     `yaml:"max_file_size_mb"`
	SheetName          string  `yaml:"sheet_name"`
	HeaderRow          int     `yaml:"header_row"`
	NoHeader           bool    `yaml:"no_header"`
	MaxRows            int     `yaml:"max_rows"`
	KeepBlankRows      bool    `yaml:"keep_blank_rows"`
	StrictTypes        bool    `yaml:"strict_types"`
	DecimalSeparator   string  `yaml:"decimal_separator"`
	ThousandSeparator  string  `yaml:"thousand_separator"`
	ErrorRateThreshold float64 `yaml:"error_rate_threshold"`
	ErrorPreviewLimit  int     `yaml:"error_preview_limit"`
}

// ComplianceConfig selects the standard and overrides its thresholds.
type ComplianceConfig struct {
	Standard            string   `yaml:"standard"`
	MinPassRate         *float64 `yaml:"min_pass_rate"`
	MaxVoltageDeviation *float64 `yaml:"max_voltage_deviation"`
	MaxCurrentDeviation *float64 `yaml:"max_current_deviation"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			MaxFileSizeMB:      20,
			ErrorRateThreshold: ingest.DefaultErrorRateThreshold,
			ErrorPreviewLimit:  ingest.DefaultErrorPreviewLimit,
		},
		Compliance: ComplianceConfig{
			Standard: "IEC 60947-3",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("PVTEST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("PVTEST_MAX_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ingest.MaxRows = n
		}
	}
	if v := os.Getenv("PVTEST_ERROR_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ingest.ErrorRateThreshold = f
		}
	}
	if std := os.Getenv("PVTEST_STANDARD"); std != "" {
		c.Compliance.Standard = std
	}
}

// Validate checks value ranges and that custom formats compile.
func (c *Config) Validate() error {
	if c.Ingest.HeaderRow < 0 {
		return fmt.Errorf("ingest.header_row must be >= 0")
	}
	if c.Ingest.MaxFileSizeMB < 0 {
		return fmt.Errorf("ingest.max_file_size_mb must be >= 0")
	}
	if c.Ingest.MaxRows < 0 {
		return fmt.Errorf("ingest.max_rows must be >= 0")
	}
	if c.Ingest.ErrorRateThreshold <= 0 || c.Ingest.ErrorRateThreshold > 1 {
		return fmt.Errorf("ingest.error_rate_threshold must be within (0, 1]")
	}
	for _, sep := range []string{c.Ingest.DecimalSeparator, c.Ingest.ThousandSeparator} {
		if len([]rune(sep)) > 1 {
			return fmt.Errorf("separators must be a single character, got %q", sep)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	if _, err := c.CustomFormats(); err != nil {
		return err
	}
	return nil
}

// IngestOptions converts the ingest defaults into options for one upload.
func (c *Config) IngestOptions() ingest.Options {
	opts := ingest.DefaultOptions()
	opts.SheetName = c.Ingest.SheetName
	opts.HeaderRow = c.Ingest.HeaderRow
	opts.NoHeader = c.Ingest.NoHeader
	opts.MaxRows = c.Ingest.MaxRows
	opts.KeepBlankRows = c.Ingest.KeepBlankRows
	opts.StrictTypes = c.Ingest.StrictTypes
	opts.Number = parser.NumberFormat{
		DecimalSeparator:  firstRune(c.Ingest.DecimalSeparator),
		ThousandSeparator: firstRune(c.Ingest.ThousandSeparator),
	}
	opts.ErrorRateThreshold = c.Ingest.ErrorRateThreshold
	if c.Ingest.ErrorPreviewLimit > 0 {
		opts.ErrorPreviewLimit = c.Ingest.ErrorPreviewLimit
	}
	return opts
}

// Criteria resolves the configured standard and applies overrides and the
// device ratings.
func (c *Config) Criteria(ratedVoltage, ratedCurrent *float64) (analysis.Criteria, error) {
	crit, err := analysis.CriteriaForStandard(c.Compliance.Standard, ratedVoltage, ratedCurrent)
	if err != nil {
		return analysis.Criteria{}, err
	}
	if c.Compliance.MinPassRate != nil {
		crit.MinPassRate = *c.Compliance.MinPassRate
	}
	if c.Compliance.MaxVoltageDeviation != nil {
		crit.MaxVoltageDeviation = *c.Compliance.MaxVoltageDeviation
	}
	if c.Compliance.MaxCurrentDeviation != nil {
		crit.MaxCurrentDeviation = *c.Compliance.MaxCurrentDeviation
	}
	return crit, nil
}

// Registry returns the format registry: custom formats first, then the
// built-in layouts they do not shadow.
func (c *Config) Registry() (*parser.Registry, error) {
	custom, err := c.CustomFormats()
	if err != nil {
		return nil, err
	}
	reg := parser.NewRegistry(custom...)
	for _, f := range parser.BuiltinFormats() {
		if _, err := reg.Lookup(f.Name); err == nil {
			continue
		}
		reg.Register(f)
	}
	return reg, nil
}

// MaxFileSize is the upload limit in bytes; 0 means unlimited.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Ingest.MaxFileSizeMB) << 20
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
