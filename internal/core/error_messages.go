package core

// Error codes
//
// Fatal import errors are mapped to operator-friendly messages with codes so a
// failed run can be diagnosed from its last log line.
//
// Source errors (SRC001-SRC099):
//
//	SRC001 - File not found: The roster file does not exist
//	         Action: Check ROSTER_FILE or --file
//	SRC002 - Unsupported format: Only .xlsx, .xlsm and .csv are read
//	         Action: Save the roster as .xlsx or .csv
//	SRC003 - Sheet not found: The named sheet is not in the workbook
//	         Action: Run `rosterimport inspect` to list sheets
//
// Row errors (ROW001-ROW099):
//
//	ROW001 - Malformed row: A data row is missing name, RFID UID or enrollment number
//	         Action: Fix the row or run with ROSTER_MALFORMED_POLICY=skip
//
// Store errors (DB001-DB099):
//
//	DB001 - Unique violation: A student with this RFID UID or enrollment number already exists
//	DB002 - Foreign key: The section id does not exist in the store
//	DB003 - Connection refused: Unable to reach the database
//	DB004 - Connection reset: Database connection was interrupted
//	DB005 - Timeout: The store did not answer in time
//
// ERR000 is the fallback when no specific pattern matches.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConstraint marks a store rejection caused by a uniqueness or reference constraint.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidMapping marks an unusable column mapping.
	ErrInvalidMapping = errors.New("invalid column mapping")
)

// StoreError is a query or insert failure that aborted the remaining batch.
// Inserts that happened before it are not rolled back.
type StoreError struct {
	Op       string // "query" or "insert"
	RowIndex int
	Record   StudentRecord
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed at row %d (enrollment %q): %v",
		e.Op, e.RowIndex, e.Record.EnrollmentNo, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// UserMessage provides operator-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgMalformed = UserMessage{
		Message: "A roster row is missing a required field",
		Action:  "Fix the row or run with ROSTER_MALFORMED_POLICY=skip",
		Code:    "ROW001",
	}
	msgUnique = UserMessage{
		Message: "A student with this RFID UID or enrollment number already exists",
		Action:  "Re-run the import; existing students are skipped",
		Code:    "DB001",
	}
	msgForeignKey = UserMessage{
		Message: "The section id does not exist in the store",
		Action:  "Check ROSTER_SECTION_ID",
		Code:    "DB002",
	}
)

// errorPatterns maps technical error text (case-insensitive) to messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The roster file does not exist",
			Action:  "Check ROSTER_FILE or --file",
			Code:    "SRC001",
		},
	},
	{
		pattern: "unsupported source format",
		msg: UserMessage{
			Message: "The roster file format is not supported",
			Action:  "Save the roster as .xlsx or .csv",
			Code:    "SRC002",
		},
	},
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "The named sheet is not in the workbook",
			Action:  "Run `rosterimport inspect` to list sheets",
			Code:    "SRC003",
		},
	},
	{pattern: "violates unique", msg: msgUnique},
	{pattern: "duplicate key", msg: msgUnique},
	{pattern: "violates foreign key", msg: msgForeignKey},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and that the database is running",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Re-run the import; inserted students are skipped",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The store did not answer in time",
			Action:  "Re-run the import; inserted students are skipped",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The store did not answer in time",
			Action:  "Re-run the import; inserted students are skipped",
			Code:    "DB005",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the technical error",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-friendly message.
// Typed errors are checked first; otherwise known patterns are matched
// against the error text.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var mr MalformedRow
	if errors.As(err, &mr) {
		return msgMalformed
	}

	errStr := strings.ToLower(err.Error())
	if errors.Is(err, ErrConstraint) {
		if strings.Contains(errStr, "foreign key") {
			return msgForeignKey
		}
		return msgUnique
	}

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator message.
// The technical error stays available through Unwrap for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
