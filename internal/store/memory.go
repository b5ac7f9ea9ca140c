package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/google/uuid"
)

// Memory is an in-process store. It backs dry runs without a database and tests.
// Like the Postgres table, it rejects a second student with the same RFID UID
// or enrollment number.
type Memory struct {
	mu       sync.Mutex
	students []core.PersistedStudent
	now      func() time.Time
}

// NewMemory returns a store holding seed.
func NewMemory(seed ...core.PersistedStudent) *Memory {
	m := &Memory{now: time.Now}
	m.students = append(m.students, seed...)
	return m
}

// FindExisting implements core.Store.
func (m *Memory) FindExisting(_ context.Context, rfidUID, enrollmentNo string) (*core.PersistedStudent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.students {
		s := m.students[i]
		if s.RFIDUID == rfidUID || s.EnrollmentNo == enrollmentNo {
			return &s, nil
		}
	}
	return nil, nil
}

// Insert implements core.Store.
func (m *Memory) Insert(_ context.Context, rec core.StudentRecord) (core.PersistedStudent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.students {
		if s.RFIDUID == rec.RFIDUID {
			return core.PersistedStudent{}, fmt.Errorf("%w: rfid_uid %q already exists", core.ErrConstraint, rec.RFIDUID)
		}
		if s.EnrollmentNo == rec.EnrollmentNo {
			return core.PersistedStudent{}, fmt.Errorf("%w: enrollment_no %q already exists", core.ErrConstraint, rec.EnrollmentNo)
		}
	}

	s := core.PersistedStudent{
		ID:            uuid.NewString(),
		StudentRecord: rec,
		CreatedAt:     m.now(),
	}
	m.students = append(m.students, s)
	return s, nil
}

// All returns the stored students in insertion order.
func (m *Memory) All() []core.PersistedStudent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.PersistedStudent, len(m.students))
	copy(out, m.students)
	return out
}
