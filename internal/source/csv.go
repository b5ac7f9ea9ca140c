package source

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
)

// ReadCSV reads a whole CSV file as a single table.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, &SourceError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	counter := &countingReader{r: f}
	rows, err := ParseCSV(counter)
	if err != nil {
		return Table{}, &SourceError{Path: path, Op: "read", Err: err}
	}
	slog.Debug("csv parsed", "path", path, "bytes", counter.n, "rows", len(rows))

	return Table{Path: path, Sheet: baseName(path), Rows: rows}, nil
}

// ParseCSV parses CSV from r. It strips a leading BOM, replaces invalid UTF-8
// with U+FFFD, tolerates stray quotes and allows ragged rows.
func ParseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(newCleanReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}
