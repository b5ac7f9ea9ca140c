package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the named sheet, or the first sheet when sheet is empty.
// Cells are returned unformatted so numeric card numbers keep every digit.
func ReadXLSX(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, &SourceError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	name, err := resolveSheet(f, sheet)
	if err != nil {
		return Table{}, &SourceError{Path: path, Op: "open", Err: err}
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, &SourceError{Path: path, Op: "read", Err: err}
	}

	return Table{Path: path, Sheet: name, Rows: rows}, nil
}

// resolveSheet returns the sheet to read, checking that a named sheet exists.
func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptyWorkbook
	}
	if sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == sheet {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q (have %q)", ErrSheetNotFound, sheet, sheets)
}
