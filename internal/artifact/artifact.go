// Package artifact renders and parses the offline import script.
//
// The script is plain PostgreSQL. It carries the roster as a JSON array inside
// a dollar-quoted literal and inserts each student only when no existing row
// shares its RFID UID or enrollment number. Records are processed one at a
// time in source order, so duplicates inside the array are skipped as well.
package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/RosterImport/internal/core"
)

// DataTag delimits the embedded JSON array.
const DataTag = "$roster$"

// BodyTag delimits the DO block that contains the data literal.
const BodyTag = "$do$"

// dataMarker is the single substitution point in scriptTemplate.
const dataMarker = "{{STUDENTS_JSON}}"

var (
	// ErrTagInValue is returned when a record value would terminate the data
	// literal or the DO body around it.
	ErrTagInValue = errors.New("value contains a script delimiter (" + DataTag + " or " + BodyTag + ")")

	// ErrNoData is returned by Parse when the input has no embedded roster.
	ErrNoData = errors.New("no embedded roster found")
)

const scriptTemplate = `-- Roster import script generated by rosterimport.
-- Run with: psql "$DATABASE_URL" -f <this file>
-- Safe to re-run: students whose RFID UID or enrollment number already exist are skipped.
DO ` + BodyTag + `
DECLARE
  r        record;
  inserted integer := 0;
  skipped  integer := 0;
BEGIN
  FOR r IN
    SELECT *
    FROM jsonb_to_recordset(` + DataTag + `
` + dataMarker + `
` + DataTag + `::jsonb) AS t(name text, "rfidUid" text, "enrollmentNo" text, "sectionId" text)
  LOOP
    IF EXISTS (
      SELECT 1 FROM students s
      WHERE s.rfid_uid = r."rfidUid" OR s.enrollment_no = r."enrollmentNo"
    ) THEN
      skipped := skipped + 1;
      RAISE NOTICE 'skipped % (%): already exists', r."enrollmentNo", r.name;
    ELSE
      INSERT INTO students (name, rfid_uid, enrollment_no, section_id)
      VALUES (r.name, r."rfidUid", r."enrollmentNo", r."sectionId");
      inserted := inserted + 1;
    END IF;
  END LOOP;

  RAISE NOTICE 'roster import complete: % inserted, % skipped', inserted, skipped;
END
` + BodyTag + `;
`

// Render returns the script for records, preserving their order.
// An empty batch renders a script with an empty array.
func Render(records []core.StudentRecord) ([]byte, error) {
	if records == nil {
		records = []core.StudentRecord{}
	}

	for i, r := range records {
		for _, v := range []string{r.Name, r.RFIDUID, r.EnrollmentNo, r.SectionID} {
			if strings.Contains(v, DataTag) || strings.Contains(v, BodyTag) {
				return nil, fmt.Errorf("record %d (enrollment %q): %w", i, r.EnrollmentNo, ErrTagInValue)
			}
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}

	return []byte(strings.Replace(scriptTemplate, dataMarker, string(data), 1)), nil
}

// Write renders records to w.
func Write(w io.Writer, records []core.StudentRecord) error {
	script, err := Render(records)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(script); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return bw.Flush()
}

// Parse recovers the records embedded in a script produced by Render.
func Parse(r io.Reader) ([]core.StudentRecord, error) {
	script, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	tag := []byte(DataTag)
	start := bytes.Index(script, tag)
	if start < 0 {
		return nil, ErrNoData
	}
	start += len(tag)
	end := bytes.Index(script[start:], tag)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated %s literal", ErrNoData, DataTag)
	}

	var records []core.StudentRecord
	if err := json.Unmarshal(script[start:start+end], &records); err != nil {
		return nil, fmt.Errorf("decode embedded roster: %w", err)
	}
	return records, nil
}
