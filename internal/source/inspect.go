package source

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/xuri/excelize/v2"
)

// SheetSummary describes one sheet of a workbook.
type SheetSummary struct {
	Name    string
	Rows    int
	Columns int      // Widest row
	Header  []string // First row, cleaned
}

// Workbook is the diagnostic summary printed by the inspect command.
type Workbook struct {
	Path   string
	Format Format
	Sheets []SheetSummary
}

// Inspect lists every sheet in path with its size and header row.
func Inspect(path string) (Workbook, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Workbook{}, err
	}

	wb := Workbook{Path: path, Format: format}

	if format == FormatCSV {
		t, err := ReadCSV(path)
		if err != nil {
			return Workbook{}, err
		}
		wb.Sheets = []SheetSummary{summarize(t.Sheet, t.Rows)}
		return wb, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Workbook{}, &SourceError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return Workbook{}, &SourceError{Path: path, Op: "read", Err: fmt.Errorf("sheet %q: %w", name, err)}
		}
		wb.Sheets = append(wb.Sheets, summarize(name, rows))
	}
	return wb, nil
}

func summarize(name string, rows [][]string) SheetSummary {
	s := SheetSummary{Name: name, Rows: len(rows)}
	for _, r := range rows {
		if len(r) > s.Columns {
			s.Columns = len(r)
		}
	}
	if len(rows) > 0 {
		s.Header = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			s.Header[i] = core.CleanCell(h)
		}
	}
	return s
}

// HeaderIndex maps lowercased header names to column positions.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row.
// When a header repeats, the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(core.CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// ValueCount is one entry of a column tally.
type ValueCount struct {
	Value string
	Count int
}

// CountValues tallies the cleaned values of the column whose header matches
// column (case-insensitive). Blank cells are counted under "". The first row
// is the header. Results are sorted by count descending, then value.
func CountValues(rows [][]string, column string) ([]ValueCount, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("count %q: table is empty", column)
	}

	pos, ok := MakeHeaderIndex(rows[0])[strings.ToLower(strings.TrimSpace(column))]
	if !ok {
		return nil, fmt.Errorf("count %q: column not in header %q", column, rows[0])
	}

	counts := make(map[string]int)
	for _, r := range rows[1:] {
		if core.IsEmptyRow(r) {
			continue
		}
		counts[core.CellAt(r, pos)]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}
