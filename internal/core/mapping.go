package core

// mapping.go turns roster rows into StudentRecords.
//
// Every data row yields exactly one RowResult: either an Ok record or a
// MalformedRow describing which required fields were missing. The mapper never
// discards a row silently; the caller decides what a malformed row means.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MalformedRow describes a data row that could not become a StudentRecord.
type MalformedRow struct {
	RowIndex int      // Position in the source table (header is 0)
	Line     int      // 1-indexed spreadsheet line for operators
	Reason   string   // Human-readable explanation
	Missing  []string // Required fields that were empty
	Data     []string // Raw row as read
}

func (m MalformedRow) Error() string {
	return fmt.Sprintf("line %d: %s", m.Line, m.Reason)
}

// RowResult is the outcome of mapping one data row.
// Exactly one of Record and Err is set.
type RowResult struct {
	RowIndex int
	Record   *StudentRecord
	Err      *MalformedRow
}

// OK reports whether the row produced a record.
func (r RowResult) OK() bool {
	return r.Record != nil
}

// Blank reports whether the row was malformed only because it had no content.
func (r RowResult) Blank() bool {
	return r.Err != nil && r.Err.Reason == reasonBlankRow
}

const reasonBlankRow = "blank row"

// MapperConfig configures a Mapper. SectionID is applied to every record in the batch.
type MapperConfig struct {
	Columns    ColumnMapping
	SectionID  string
	HeaderRows int

	// UnwrapExcelText strips an exact ="..." wrapper from identifier cells.
	UnwrapExcelText bool
}

// Mapper maps roster rows to student records using a fixed column mapping.
type Mapper struct {
	columns    ColumnMapping
	sectionID  string
	headerRows int
	unwrap     bool
	validate   *validator.Validate
}

// newRecordValidator returns a validator that names fields by their JSON tags,
// so reasons match the artifact format.
func newRecordValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// checkRecord returns the MalformedRow for an invalid record, or nil.
func checkRecord(v *validator.Validate, rowIndex int, rec StudentRecord, data []string) *MalformedRow {
	err := v.Struct(rec)
	if err == nil {
		return nil
	}
	missing := missingFields(err)
	return &MalformedRow{
		RowIndex: rowIndex,
		Line:     rowIndex + 1,
		Reason:   "missing required field(s): " + strings.Join(missing, ", "),
		Missing:  missing,
		Data:     data,
	}
}

// NewMapper validates cfg and returns a ready Mapper.
func NewMapper(cfg MapperConfig) (*Mapper, error) {
	if err := cfg.Columns.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.SectionID) == "" {
		return nil, errors.New("section id is required")
	}
	if cfg.HeaderRows < 0 {
		return nil, fmt.Errorf("header rows must be non-negative, got %d", cfg.HeaderRows)
	}

	return &Mapper{
		columns:    cfg.Columns,
		sectionID:  strings.TrimSpace(cfg.SectionID),
		headerRows: cfg.HeaderRows,
		unwrap:     cfg.UnwrapExcelText,
		validate:   newRecordValidator(),
	}, nil
}

// Validate checks that column positions are non-negative and distinct.
func (c ColumnMapping) Validate() error {
	cols := map[string]int{
		"enrollment": c.EnrollmentNo,
		"rfid":       c.RFIDUID,
		"name":       c.Name,
	}

	var errs []string
	seen := make(map[int]string, len(cols))
	for _, field := range []string{"enrollment", "rfid", "name"} {
		pos := cols[field]
		if pos < 0 {
			errs = append(errs, fmt.Sprintf("%s column must be non-negative, got %d", field, pos))
			continue
		}
		if other, dup := seen[pos]; dup {
			errs = append(errs, fmt.Sprintf("%s and %s share column %d", other, field, pos))
			continue
		}
		seen[pos] = field
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMapping, strings.Join(errs, "; "))
	}
	return nil
}

// MapRows maps every data row in rows, skipping the configured header rows.
// Results preserve source order.
func (m *Mapper) MapRows(rows [][]string) []RowResult {
	if len(rows) <= m.headerRows {
		return nil
	}

	results := make([]RowResult, 0, len(rows)-m.headerRows)
	for i := m.headerRows; i < len(rows); i++ {
		results = append(results, m.MapRow(i, rows[i]))
	}
	return results
}

// MapRow maps a single row. rowIndex is the row's position in the source table.
func (m *Mapper) MapRow(rowIndex int, row []string) RowResult {
	rec := StudentRecord{
		Name:         CellAt(row, m.columns.Name),
		RFIDUID:      m.identifierAt(row, m.columns.RFIDUID),
		EnrollmentNo: m.identifierAt(row, m.columns.EnrollmentNo),
		SectionID:    m.sectionID,
	}

	if IsEmptyRow(row) {
		return RowResult{RowIndex: rowIndex, Err: &MalformedRow{
			RowIndex: rowIndex,
			Line:     rowIndex + 1,
			Reason:   reasonBlankRow,
			Data:     row,
		}}
	}

	if bad := checkRecord(m.validate, rowIndex, rec, row); bad != nil {
		return RowResult{RowIndex: rowIndex, Err: bad}
	}

	return RowResult{RowIndex: rowIndex, Record: &rec}
}

func (m *Mapper) identifierAt(row []string, pos int) string {
	v := CellAt(row, pos)
	if m.unwrap {
		v = CleanCell(UnwrapExcelText(v))
	}
	return v
}

// missingFields extracts field names from validator errors in struct order.
func missingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// Records returns the mapped records from results, in order.
func Records(results []RowResult) []StudentRecord {
	out := make([]StudentRecord, 0, len(results))
	for _, r := range results {
		if r.Record != nil {
			out = append(out, *r.Record)
		}
	}
	return out
}

// Malformed returns the malformed rows from results, ignoring blank rows.
func Malformed(results []RowResult) []MalformedRow {
	var out []MalformedRow
	for _, r := range results {
		if r.Err != nil && !r.Blank() {
			out = append(out, *r.Err)
		}
	}
	return out
}
