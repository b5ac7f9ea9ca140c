package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/RosterImport/internal/core"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if a value cannot be parsed or validation fails.
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

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			value = defaultVal
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

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks settings every command depends on.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	errs = append(errs, c.Database.poolErrors()...)
	errs = append(errs, c.Roster.shapeErrors()...)

	if strings.TrimSpace(c.Store.Table) == "" {
		errs = append(errs, "STORE_TABLE must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	return joinErrors(errs)
}

// RequireURL checks the settings needed to open a store connection.
func (d DatabaseConfig) RequireURL() error {
	errs := d.poolErrors()
	if strings.TrimSpace(d.URL) == "" {
		errs = append([]string{"DATABASE_URL is required"}, errs...)
	}
	return joinErrors(errs)
}

func (d DatabaseConfig) poolErrors() []string {
	var errs []string
	if d.MaxConns < d.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			d.MaxConns, d.MinConns))
	}
	if d.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	return errs
}

// Validate checks that the batch can be read and mapped: a file and section
// are present and the column layout is usable.
func (r RosterConfig) Validate() error {
	var errs []string
	if strings.TrimSpace(r.File) == "" {
		errs = append(errs, "ROSTER_FILE is required")
	}
	if strings.TrimSpace(r.SectionID) == "" {
		errs = append(errs, "ROSTER_SECTION_ID is required")
	}
	errs = append(errs, r.shapeErrors()...)
	return joinErrors(errs)
}

// shapeErrors checks the fields that have defaults.
func (r RosterConfig) shapeErrors() []string {
	var errs []string
	if r.HeaderRows < 0 {
		errs = append(errs, fmt.Sprintf("ROSTER_HEADER_ROWS (%d) must be non-negative", r.HeaderRows))
	}
	if err := r.Columns().Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("ROSTER_COL_*: %v", err))
	}
	if _, ok := core.ParseMalformedPolicy(r.MalformedPolicy); !ok {
		errs = append(errs, fmt.Sprintf("ROSTER_MALFORMED_POLICY (%q) must be one of: skip, abort", r.MalformedPolicy))
	}
	return errs
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	url := "[UNSET]"
	if c.Database.URL != "" {
		url = "[MASKED]"
	}
	b.WriteString(fmt.Sprintf("Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		url, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Roster: {File: %q, Sheet: %q, SectionID: %q, HeaderRows: %d, Columns: %d/%d/%d, Policy: %q, UnwrapExcelText: %t}, ",
		c.Roster.File, c.Roster.Sheet, c.Roster.SectionID, c.Roster.HeaderRows,
		c.Roster.ColEnrollment, c.Roster.ColRFID, c.Roster.ColName, c.Roster.MalformedPolicy,
		c.Roster.UnwrapExcelText))
	b.WriteString(fmt.Sprintf("Store: {Table: %q}, ", c.Store.Table))
	b.WriteString(fmt.Sprintf("Artifact: {Out: %q}, ", c.Artifact.Out))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
