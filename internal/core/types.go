package core

import (
	"context"
	"time"
)

// StudentRecord is the unit of import: one roster row mapped to a student.
type StudentRecord struct {
	Name         string `json:"name" validate:"required"`
	RFIDUID      string `json:"rfidUid" validate:"required"`
	EnrollmentNo string `json:"enrollmentNo" validate:"required"`
	SectionID    string `json:"sectionId" validate:"required"` // Opaque reference owned by the store
}

// PersistedStudent is a student as held by the external store.
type PersistedStudent struct {
	ID string
	StudentRecord
	CreatedAt time.Time
}

// Store is the external store adapter consumed by the importer.
// Both operations block and may fail with a connectivity or constraint error.
type Store interface {
	// FindExisting returns any student whose RFID UID equals rfidUID OR whose
	// enrollment number equals enrollmentNo. Returns nil, nil when none exists.
	FindExisting(ctx context.Context, rfidUID, enrollmentNo string) (*PersistedStudent, error)

	// Insert persists rec and returns it with the store-assigned identifier.
	Insert(ctx context.Context, rec StudentRecord) (PersistedStudent, error)
}

// ColumnMapping holds 0-based column positions for the required fields.
// It is configuration, not schema inference: header text is never consulted.
type ColumnMapping struct {
	EnrollmentNo int
	RFIDUID      int
	Name         int
}

// OutcomeKind classifies what happened to a single roster row.
type OutcomeKind string

const (
	OutcomeInserted       OutcomeKind = "inserted"
	OutcomeWouldInsert    OutcomeKind = "would_insert"
	OutcomeExisting       OutcomeKind = "skipped_existing"
	OutcomeBatchDuplicate OutcomeKind = "skipped_batch_duplicate"
	OutcomeMalformed      OutcomeKind = "malformed"
)

// Outcome is the per-row report emitted by the importer.
type Outcome struct {
	RowIndex int
	Kind     OutcomeKind
	Record   StudentRecord
	ID       string // Store id of the inserted or matching student
	Reason   string // Non-empty for skips and malformed rows
}

// Skipped reports whether the row was not inserted because it is a duplicate.
func (o Outcome) Skipped() bool {
	return o.Kind == OutcomeExisting || o.Kind == OutcomeBatchDuplicate
}

// Reporter receives each outcome as soon as it is decided.
type Reporter func(Outcome)

// ImportReport summarizes one importer run.
type ImportReport struct {
	RunID     string
	Total     int
	Inserted  int // Includes would-be inserts on dry runs
	Skipped   int
	Malformed int
	DryRun    bool
	Outcomes  []Outcome
	Duration  time.Duration
}

// MalformedPolicy decides what the importer does with malformed rows.
type MalformedPolicy string

const (
	// PolicySkip reports malformed rows and continues.
	PolicySkip MalformedPolicy = "skip"
	// PolicyAbort stops the run at the first malformed row.
	PolicyAbort MalformedPolicy = "abort"
)

// ParseMalformedPolicy converts a configuration string to a MalformedPolicy.
func ParseMalformedPolicy(s string) (MalformedPolicy, bool) {
	switch MalformedPolicy(s) {
	case PolicySkip, "":
		return PolicySkip, true
	case PolicyAbort:
		return PolicyAbort, true
	default:
		return "", false
	}
}
