package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/JonMunkholm/epcgen/internal/core"
	"github.com/JonMunkholm/epcgen/internal/csvio"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Primary env var, then alternate, then default
		value := os.Getenv(envName)
		if value == "" {
			value = os.Getenv(field.Tag.Get("envAlt"))
		}
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(strings.TrimSpace(value))

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if _, err := csvio.Encoding(c.Input.Encoding); err != nil {
		errs = append(errs, fmt.Sprintf("EPCGEN_INPUT_ENCODING: %v", err))
	}

	if _, err := core.ParseTimePolicy(c.Build.EventTimePolicy); err != nil {
		errs = append(errs, fmt.Sprintf("EPCGEN_EVENT_TIME_POLICY: %v", err))
	}
	if _, err := core.ParseGrouping(c.Build.Grouping); err != nil {
		errs = append(errs, fmt.Sprintf("EPCGEN_GROUPING: %v", err))
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatXML, FormatTemplate, FormatJSON:
	default:
		errs = append(errs, fmt.Sprintf("EPCGEN_OUTPUT_FORMAT (%q) must be one of: xml, template, json", c.Output.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// TimePolicy returns the parsed event time policy. Invalid values, which
// Validate rejects, read as the default.
func (c *Config) TimePolicy() core.TimePolicy {
	p, _ := core.ParseTimePolicy(c.Build.EventTimePolicy)
	return p
}

// Grouping returns the parsed grouping function.
func (c *Config) Grouping() core.Grouping {
	g, _ := core.ParseGrouping(c.Build.Grouping)
	return g
}

// String returns a one-line representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format)
	fmt.Fprintf(&b, "Input: {MappingFile: %q, Encoding: %q, Columns: %d, Defaults: %d}, ",
		c.Input.MappingFile, c.Input.Encoding, len(c.Input.Columns), len(c.Input.Defaults))
	fmt.Fprintf(&b, "Build: {EventTimePolicy: %q, Grouping: %q}, ", c.Build.EventTimePolicy, c.Build.Grouping)
	fmt.Fprintf(&b, "Output: {Format: %q, MetricsFile: %q}", c.Output.Format, c.Output.MetricsFile)
	b.WriteString("}")
	return b.String()
}
