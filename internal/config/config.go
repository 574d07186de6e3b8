// Package config provides configuration for the epcgen command.
// Settings come from environment variables (a .env file is loaded first by
// main) with sensible defaults, and are validated up front so a bad setting
// fails the run before any input is read. Column mappings live in a separate
// mapping file, see Mapping.
package config

// Config holds all run configuration.
type Config struct {
	Logging LoggingConfig
	Input   InputConfig
	Build   BuildConfig
	Output  OutputConfig
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// InputConfig describes how spreadsheet exports are read.
type InputConfig struct {
	// MappingFile holds column labels and default values (default: config.json)
	MappingFile string `env:"EPCGEN_MAPPING_FILE" default:"config.json"`

	// Encoding is the character encoding of the CSV files (default: utf-8)
	Encoding string `env:"EPCGEN_INPUT_ENCODING" default:"utf-8"`

	// Columns are extra key=label overrides, comma-separated
	Columns []string `env:"EPCGEN_COLUMNS"`

	// Defaults are extra key=value overrides, comma-separated
	Defaults []string `env:"EPCGEN_DEFAULTS"`
}

// BuildConfig tunes how contexts are built.
type BuildConfig struct {
	// EventTimePolicy picks a merged event's time: earliest or latest
	EventTimePolicy string `env:"EPCGEN_EVENT_TIME_POLICY" default:"earliest"`

	// Grouping groups "to" rows by purchase order: equality, year, month or week
	Grouping string `env:"EPCGEN_GROUPING" default:"equality"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	// Format is xml, template or json (default: xml)
	Format string `env:"EPCGEN_OUTPUT_FORMAT" envAlt:"EPCGEN_FORMAT" default:"xml"`

	// IndentJSON pretty-prints json output (default: true)
	IndentJSON bool `env:"EPCGEN_JSON_INDENT" default:"true"`

	// MetricsFile receives the run's counters in Prometheus text format.
	// Empty disables the export.
	MetricsFile string `env:"EPCGEN_METRICS_FILE"`
}

// Output formats.
const (
	FormatXML      = "xml"
	FormatTemplate = "template"
	FormatJSON     = "json"
)
