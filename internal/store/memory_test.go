package store

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/google/uuid"
)

var _ core.Store = (*Memory)(nil)
var _ core.Store = (*Postgres)(nil)

func TestMemory_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := core.StudentRecord{Name: "Asha", RFIDUID: "A1", EnrollmentNo: "E100", SectionID: "sec-1"}
	saved, err := m.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := uuid.Parse(saved.ID); err != nil {
		t.Errorf("Insert() id = %q, want UUID: %v", saved.ID, err)
	}
	if saved.StudentRecord != rec {
		t.Errorf("Insert() record = %+v, want %+v", saved.StudentRecord, rec)
	}

	tests := []struct {
		name       string
		rfid       string
		enrollment string
		wantFound  bool
	}{
		{name: "by rfid", rfid: "A1", enrollment: "X", wantFound: true},
		{name: "by enrollment", rfid: "X", enrollment: "E100", wantFound: true},
		{name: "neither", rfid: "A2", enrollment: "E101", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.FindExisting(ctx, tt.rfid, tt.enrollment)
			if err != nil {
				t.Fatalf("FindExisting() error = %v", err)
			}
			if (got != nil) != tt.wantFound {
				t.Fatalf("FindExisting() = %+v, wantFound %v", got, tt.wantFound)
			}
			if got != nil && got.ID != saved.ID {
				t.Errorf("FindExisting() id = %q, want %q", got.ID, saved.ID)
			}
		})
	}
}

func TestMemory_InsertRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(core.PersistedStudent{ID: "s1", StudentRecord: core.StudentRecord{RFIDUID: "A1", EnrollmentNo: "E100"}})

	_, err := m.Insert(ctx, core.StudentRecord{Name: "B", RFIDUID: "A2", EnrollmentNo: "E100"})
	if !errors.Is(err, core.ErrConstraint) {
		t.Errorf("Insert() error = %v, want ErrConstraint", err)
	}
	if n := len(m.All()); n != 1 {
		t.Errorf("len(All()) = %d, want 1", n)
	}
}

func TestMemory_WithImporter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	im, err := core.NewImporter(m, core.ImporterConfig{})
	if err != nil {
		t.Fatalf("NewImporter() error = %v", err)
	}

	batch := []core.StudentRecord{
		{Name: "Asha", RFIDUID: "A1", EnrollmentNo: "E100", SectionID: "s"},
		{Name: "Ravi", RFIDUID: "A2", EnrollmentNo: "E101", SectionID: "s"},
	}
	first, err := im.ImportRecords(ctx, batch)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	second, err := im.ImportRecords(ctx, batch)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}

	if first.Inserted != 2 || second.Inserted != 0 || second.Skipped != 2 {
		t.Errorf("runs = (%d inserted), (%d inserted, %d skipped), want (2), (0, 2)",
			first.Inserted, second.Inserted, second.Skipped)
	}
}
