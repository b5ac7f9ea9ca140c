// Package source reads roster tables from spreadsheet files.
//
// Supported formats are Excel workbooks (.xlsx, .xlsm) and CSV. Every reader
// returns rows as ordered slices of cell strings; interpretation of the cells
// is left to core.Mapper.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrSheetNotFound is returned when a named sheet is absent from the workbook.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrEmptyWorkbook is returned for a workbook without sheets.
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
)

// Format identifies a source file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// SourceError is a failure to open or read the roster file.
// It is fatal: no record is produced from a table that failed to read.
type SourceError struct {
	Path string
	Op   string // "open", "read" or "detect"
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Table is the content of one sheet.
type Table struct {
	Path  string
	Sheet string // Sheet name; the file's base name for CSV
	Rows  [][]string
}

// DetectFormat returns the format implied by path's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", &SourceError{
			Path: path,
			Op:   "detect",
			Err:  fmt.Errorf("%w %q", ErrUnsupportedFormat, filepath.Ext(path)),
		}
	}
}

// Read loads one table from path. For workbooks, an empty sheet selects the
// first sheet. CSV files have a single table and ignore sheet.
func Read(path, sheet string) (Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Table{}, err
	}

	switch format {
	case FormatXLSX:
		return ReadXLSX(path, sheet)
	default:
		return ReadCSV(path)
	}
}

// baseName returns the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
