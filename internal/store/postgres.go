// Package store provides core.Store implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/RosterImport/internal/config"
	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/JonMunkholm/RosterImport/internal/logging"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes surfaced as core.ErrConstraint.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Querier is the subset of pgxpool.Pool used by Postgres.
// pgx.Tx satisfies it too.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores students in a PostgreSQL table with columns
// id, name, rfid_uid, enrollment_no, section_id and created_at.
type Postgres struct {
	db    Querier
	table string
	sb    squirrel.StatementBuilderType
}

// NewPostgres returns a store writing to table, which may be schema-qualified.
func NewPostgres(db Querier, table string) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("postgres store: nil querier")
	}
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &Postgres{
		db:    db,
		table: quoted,
		sb:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("postgres store: table name is empty")
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("postgres store: table name %q has too many parts", name)
	}
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("postgres store: table name %q has an empty part", name)
		}
		parts[i] = quoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// quoteIdentifier wraps an identifier in double quotes, escaping embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var studentColumns = []string{"id::text", "name", "rfid_uid", "enrollment_no", "section_id", "created_at"}

// FindExisting returns the first student matching either identifier.
func (p *Postgres) FindExisting(ctx context.Context, rfidUID, enrollmentNo string) (*core.PersistedStudent, error) {
	sql, args, err := p.sb.Select(studentColumns...).
		From(p.table).
		Where(squirrel.Or{
			squirrel.Eq{"rfid_uid": rfidUID},
			squirrel.Eq{"enrollment_no": enrollmentNo},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	s, err := scanStudent(p.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find student: %w", classify(err))
	}
	return &s, nil
}

// Insert adds rec and returns it with the generated id and timestamp.
func (p *Postgres) Insert(ctx context.Context, rec core.StudentRecord) (core.PersistedStudent, error) {
	sql, args, err := p.sb.Insert(p.table).
		Columns("name", "rfid_uid", "enrollment_no", "section_id").
		Values(rec.Name, rec.RFIDUID, rec.EnrollmentNo, rec.SectionID).
		Suffix("RETURNING " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return core.PersistedStudent{}, fmt.Errorf("build insert: %w", err)
	}

	s, err := scanStudent(p.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return core.PersistedStudent{}, fmt.Errorf("insert student: %w", classify(err))
	}

	logging.FromContext(ctx).Debug("student inserted",
		"id", s.ID,
		"enrollment_no", s.EnrollmentNo,
	)
	return s, nil
}

func scanStudent(row pgx.Row) (core.PersistedStudent, error) {
	var s core.PersistedStudent
	err := row.Scan(&s.ID, &s.Name, &s.RFIDUID, &s.EnrollmentNo, &s.SectionID, &s.CreatedAt)
	return s, err
}

// classify marks constraint violations with core.ErrConstraint.
// Other errors, including connectivity failures, are returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return fmt.Errorf("%w: %s (%s)", core.ErrConstraint, pgErr.Message, pgErr.ConstraintName)
		}
	}
	return err
}

// Connect opens and pings a connection pool sized by cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger := logging.FromContext(ctx)
	if u, err := url.Parse(cfg.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		logger.Info("connected to database")
	}
	return pool, nil
}
