// Package config provides centralized configuration management for rosterimport.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"time"

	"github.com/JonMunkholm/RosterImport/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables; command-line
// flags override individual values after loading.
type Config struct {
	Database DatabaseConfig
	Roster   RosterConfig
	Store    StoreConfig
	Artifact ArtifactConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	// Only commands that touch the store require it; see RequireURL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RosterConfig describes one roster batch: where it is and how to read it.
type RosterConfig struct {
	// File is the roster spreadsheet (.xlsx, .xlsm or .csv)
	File string `env:"ROSTER_FILE"`

	// Sheet is the workbook sheet to read (default: first sheet)
	Sheet string `env:"ROSTER_SHEET"`

	// SectionID is attached to every student of the batch
	SectionID string `env:"ROSTER_SECTION_ID"`

	// HeaderRows is the number of leading rows to ignore (default: 1)
	HeaderRows int `env:"ROSTER_HEADER_ROWS" default:"1"`

	// Column positions are 0-based.
	ColEnrollment int `env:"ROSTER_COL_ENROLLMENT" default:"1"`
	ColRFID       int `env:"ROSTER_COL_RFID" default:"2"`
	ColName       int `env:"ROSTER_COL_NAME" default:"5"`

	// MalformedPolicy is skip or abort (default: skip)
	MalformedPolicy string `env:"ROSTER_MALFORMED_POLICY" default:"skip"`

	// UnwrapExcelText strips an exact ="..." wrapper from RFID and
	// enrollment cells (default: false)
	UnwrapExcelText bool `env:"ROSTER_UNWRAP_EXCEL_TEXT" default:"false"`
}

// StoreConfig holds settings for the student store.
type StoreConfig struct {
	// Table is the students table, optionally schema-qualified (default: students)
	Table string `env:"STORE_TABLE" default:"students"`
}

// ArtifactConfig holds settings for the offline SQL artifact.
type ArtifactConfig struct {
	// Out is where export writes the script (default: import_students.sql)
	Out string `env:"ARTIFACT_OUT" default:"import_students.sql"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Columns returns the configured column mapping.
func (r RosterConfig) Columns() core.ColumnMapping {
	return core.ColumnMapping{
		EnrollmentNo: r.ColEnrollment,
		RFIDUID:      r.ColRFID,
		Name:         r.ColName,
	}
}

// MapperConfig returns the core mapper settings for this batch.
func (r RosterConfig) MapperConfig() core.MapperConfig {
	return core.MapperConfig{
		Columns:         r.Columns(),
		SectionID:       r.SectionID,
		HeaderRows:      r.HeaderRows,
		UnwrapExcelText: r.UnwrapExcelText,
	}
}

// Policy returns the malformed-row policy, defaulting to skip when unparseable.
// Validate reports unparseable values.
func (r RosterConfig) Policy() core.MalformedPolicy {
	p, ok := core.ParseMalformedPolicy(r.MalformedPolicy)
	if !ok {
		return core.PolicySkip
	}
	return p
}
