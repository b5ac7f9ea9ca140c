package core

// convert.go turns raw spreadsheet cells into record values.
//
// Cells are trimmed and nothing else: record fields equal the trimmed source
// cells, because they are the de-duplication keys. Excel's ="..." text wrapper
// (used to keep leading zeros in CSV exports) is only removed when the mapper
// is configured to do so.

import (
	"strings"
)

// CleanCell trims surrounding whitespace. unicode.IsSpace covers the
// non-breaking spaces Excel exports pad cells with.
func CleanCell(s string) string {
	return strings.TrimSpace(s)
}

// UnwrapExcelText returns the text inside an exact ="..." wrapper.
// Any other value, including a bare leading "=", is returned unchanged.
func UnwrapExcelText(s string) string {
	if len(s) < 3 || !strings.HasPrefix(s, `="`) || !strings.HasSuffix(s, `"`) {
		return s
	}
	inner := s[2 : len(s)-1]
	if strings.Contains(inner, `"`) {
		return s
	}
	return inner
}

// CellAt returns the cleaned cell at pos, or "" when the row is too short.
// Spreadsheet readers drop trailing empty cells, so short rows are normal.
func CellAt(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// IsEmptyRow reports whether every cell in row is blank.
func IsEmptyRow(row []string) bool {
	for _, v := range row {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}
