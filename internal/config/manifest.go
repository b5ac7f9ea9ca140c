package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists several roster batches for the batch command.
//
//	batches:
//	  - file: mca_2024.xlsx
//	    sheet: MCA
//	    section_id: 6f1c...
//	    columns: {enrollment: 1, rfid: 2, name: 5}
//
// Fields left out of a batch fall back to the environment roster settings.
type Manifest struct {
	Batches []ManifestBatch `yaml:"batches"`
}

// ManifestBatch is one entry of a Manifest. Pointer fields are optional.
type ManifestBatch struct {
	File            string           `yaml:"file"`
	Sheet           string           `yaml:"sheet"`
	SectionID       string           `yaml:"section_id"`
	HeaderRows      *int             `yaml:"header_rows"`
	Columns         *ManifestColumns `yaml:"columns"`
	MalformedPolicy string           `yaml:"malformed_policy"`
	UnwrapExcelText *bool            `yaml:"unwrap_excel_text"`
}

// ManifestColumns overrides column positions for one batch.
type ManifestColumns struct {
	Enrollment int `yaml:"enrollment"`
	RFID       int `yaml:"rfid"`
	Name       int `yaml:"name"`
}

// LoadManifest reads and parses a YAML manifest. Relative batch file paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Batches) == 0 {
		return nil, errors.New("manifest has no batches")
	}

	dir := filepath.Dir(path)
	for i := range m.Batches {
		f := m.Batches[i].File
		if f != "" && !filepath.IsAbs(f) {
			m.Batches[i].File = filepath.Join(dir, f)
		}
	}
	return &m, nil
}

// Rosters merges each batch over base and validates the result.
// All invalid batches are reported together.
func (m *Manifest) Rosters(base RosterConfig) ([]RosterConfig, error) {
	out := make([]RosterConfig, 0, len(m.Batches))
	var errs []error

	for i, b := range m.Batches {
		r := base
		r.File = b.File
		r.Sheet = b.Sheet
		if b.SectionID != "" {
			r.SectionID = b.SectionID
		}
		if b.HeaderRows != nil {
			r.HeaderRows = *b.HeaderRows
		}
		if b.Columns != nil {
			r.ColEnrollment = b.Columns.Enrollment
			r.ColRFID = b.Columns.RFID
			r.ColName = b.Columns.Name
		}
		if b.MalformedPolicy != "" {
			r.MalformedPolicy = b.MalformedPolicy
		}
		if b.UnwrapExcelText != nil {
			r.UnwrapExcelText = *b.UnwrapExcelText
		}

		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("batch %d (%s): %w", i+1, b.File, err))
			continue
		}
		out = append(out, r)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
