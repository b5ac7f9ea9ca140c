package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/RosterImport/internal/config"
	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow returns a fixed scan result.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

// recordingQuerier captures the last statement and answers with row.
type recordingQuerier struct {
	sql  string
	args []any
	row  fakeRow
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return q.row
}

func TestQuoteTable(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "students", want: `"students"`},
		{input: " public.students ", want: `"public"."students"`},
		{input: `odd"name`, want: `"odd""name"`},
		{input: `students"; DROP TABLE students; --`, want: `"students""; DROP TABLE students; --"`},
		{input: "", wantErr: true},
		{input: "a.b.c", wantErr: true},
		{input: "public.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := quoteTable(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("quoteTable(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("quoteTable(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPostgres_FindExistingQuery(t *testing.T) {
	q := &recordingQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	p, err := NewPostgres(q, "roster.students")
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}

	got, err := p.FindExisting(context.Background(), "A1", "E100")
	if err != nil {
		t.Fatalf("FindExisting() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindExisting() = %+v, want nil on no rows", got)
	}

	wantSQL := `SELECT id::text, name, rfid_uid, enrollment_no, section_id, created_at FROM "roster"."students" WHERE (rfid_uid = $1 OR enrollment_no = $2) LIMIT 1`
	if q.sql != wantSQL {
		t.Errorf("sql = %q, want %q", q.sql, wantSQL)
	}
	if diff := cmp.Diff([]any{"A1", "E100"}, q.args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgres_Insert(t *testing.T) {
	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	q := &recordingQuerier{row: fakeRow{values: []any{"uuid-1", "Asha", "A1", "E100", "sec-1", created}}}
	p, err := NewPostgres(q, "students")
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}

	rec := core.StudentRecord{Name: "Asha", RFIDUID: "A1", EnrollmentNo: "E100", SectionID: "sec-1"}
	got, err := p.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	want := core.PersistedStudent{ID: "uuid-1", StudentRecord: rec, CreatedAt: created}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Insert() mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(q.sql, `INSERT INTO "students" (name,rfid_uid,enrollment_no,section_id) VALUES ($1,$2,$3,$4) RETURNING`) {
		t.Errorf("sql = %q, want INSERT ... RETURNING", q.sql)
	}
}

func TestPostgres_ErrorClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantConstraint bool
	}{
		{
			name:           "unique violation",
			err:            &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint", ConstraintName: "students_rfid_uid_key"},
			wantConstraint: true,
		},
		{
			name:           "foreign key violation",
			err:            &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint", ConstraintName: "students_section_id_fkey"},
			wantConstraint: true,
		},
		{
			name:           "other database error",
			err:            &pgconn.PgError{Code: "42P01", Message: `relation "students" does not exist`},
			wantConstraint: false,
		},
		{
			name:           "connectivity",
			err:            errors.New("dial tcp: connection refused"),
			wantConstraint: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &recordingQuerier{row: fakeRow{err: tt.err}}
			p, err := NewPostgres(q, "students")
			if err != nil {
				t.Fatalf("NewPostgres() error = %v", err)
			}

			_, err = p.Insert(context.Background(), core.StudentRecord{Name: "A", RFIDUID: "A1", EnrollmentNo: "E1"})
			if err == nil {
				t.Fatal("Insert() error = nil, want error")
			}
			if got := errors.Is(err, core.ErrConstraint); got != tt.wantConstraint {
				t.Errorf("errors.Is(err, ErrConstraint) = %v, want %v (err = %v)", got, tt.wantConstraint, err)
			}
		})
	}
}

// TestPostgres_Integration runs the importer against a real database.
// Set TEST_DATABASE_URL to enable it.
func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2, MaxConnLifetime: time.Minute, MaxConnIdleTime: time.Minute})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pool.Close()

	// Temp tables live on one connection, so pin it for the whole test.
	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer conn.Release()

	const table = "rosterimport_test_students"
	_, err = conn.Exec(ctx, `
		CREATE TEMP TABLE `+table+` (
			id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name          text NOT NULL,
			rfid_uid      text NOT NULL UNIQUE,
			enrollment_no text NOT NULL UNIQUE,
			section_id    text NOT NULL,
			created_at    timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer tx.Rollback(ctx)

	p, err := NewPostgres(tx, table)
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}
	im, err := core.NewImporter(p, core.ImporterConfig{})
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
	if first.Inserted != 2 || second.Inserted != 0 {
		t.Errorf("inserted = %d then %d, want 2 then 0", first.Inserted, second.Inserted)
	}

	_, err = p.Insert(ctx, core.StudentRecord{Name: "Dup", RFIDUID: "A1", EnrollmentNo: "E999", SectionID: "s"})
	if !errors.Is(err, core.ErrConstraint) {
		t.Errorf("duplicate Insert() error = %v, want ErrConstraint", err)
	}
}
