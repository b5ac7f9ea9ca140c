// Package core provides the roster import logic.
//
// The package has no CLI, spreadsheet or database dependencies. It can be
// driven by the rosterimport command, by tests, or by any other frontend.
//
// # Flow
//
// A roster import runs in two steps:
//
//  1. [Mapper.MapRows] turns raw spreadsheet rows into [RowResult] values.
//     Each data row becomes either a [StudentRecord] or a [MalformedRow].
//  2. [Importer.Run] walks the results in order. A record is skipped when it
//     shares an RFID UID or enrollment number with a record accepted earlier
//     in the run or with a student already in the [Store]. Otherwise it is
//     inserted.
//
// # Mapping
//
// Columns are chosen by position through [ColumnMapping], never by header
// text. Cells are only trimmed ([CleanCell]), so a record's fields equal the
// trimmed source cells. [MapperConfig.UnwrapExcelText] additionally strips an
// exact ="..." wrapper from the RFID UID and enrollment number:
//
//	m, _ := core.NewMapper(core.MapperConfig{
//	    Columns:    core.ColumnMapping{EnrollmentNo: 1, RFIDUID: 2, Name: 5},
//	    SectionID:  "sec-mca-1",
//	    HeaderRows: 1,
//	})
//	results := m.MapRows(rows)
//
// # Failures
//
// Malformed rows are governed by [MalformedPolicy]. A store failure stops the
// run with a [*StoreError] and the partial [ImportReport]; earlier inserts
// are not rolled back. [MapError] turns any of these into an operator message
// with a support code (listed in error_messages.go).
package core
