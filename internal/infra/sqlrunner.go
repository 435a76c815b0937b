package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLExecutor is satisfied by *pgxpool.Pool, pgx.Tx and *SQLRunner.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

var markerRegexp = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)

// slowStatement is the duration above which a statement is logged at warn
// level. Row-lock waits show up here before they hit lock_timeout.
const slowStatement = 250 * time.Millisecond

// SQLRunner executes sqlinline statements. The leading marker line is
// stripped before the statement reaches PostgreSQL and used as the "sql" log
// field instead.
type SQLRunner struct {
	db     SQLExecutor
	logger zerolog.Logger
}

func NewSQLRunner(db SQLExecutor, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{db: db, logger: logger}
}

// With returns a runner bound to db (usually a pgx.Tx) that shares the logger.
func (r *SQLRunner) With(db SQLExecutor) *SQLRunner {
	return &SQLRunner{db: db, logger: r.logger}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, body, err := extractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := time.Now()
	tag, err := r.db.Exec(ctx, body, args...)
	r.done(marker, "exec", start, err).Int64("rows", tag.RowsAffected()).Send()
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, body, err := extractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return scanLogger{
		row:    r.db.QueryRow(ctx, body, args...),
		runner: r,
		marker: marker,
		start:  time.Now(),
	}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, body, err := extractMarker(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := r.db.Query(ctx, body, args...)
	r.done(marker, "query", start, err).Send()
	return rows, err
}

// done picks the log level from the outcome: error, slow, or routine debug.
func (r *SQLRunner) done(marker, op string, start time.Time, err error) *zerolog.Event {
	elapsed := time.Since(start)
	var ev *zerolog.Event
	switch {
	case err != nil && !IsNoRows(err):
		ev = r.logger.Error().Err(err)
	case elapsed >= slowStatement:
		ev = r.logger.Warn()
	default:
		ev = r.logger.Debug()
	}
	return ev.Str("sql", marker).Str("op", op).Dur("elapsed", elapsed)
}

// IsNoRows reports whether err is pgx's empty-result error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

type scanLogger struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (s scanLogger) Scan(dest ...any) error {
	err := s.row.Scan(dest...)
	s.runner.done(s.marker, "query_row", s.start, err).Send()
	return err
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(...any) error { return e.err }

// extractMarker splits a sqlinline constant into its marker and the statement
// text that follows it.
func extractMarker(query string) (marker, body string, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", "", errors.New("sql: empty statement")
	}
	first, rest, _ := strings.Cut(query, "\n")
	m := markerRegexp.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", "", errors.New("sql: statement has no --sql <uuid> marker")
	}
	return m[1], rest, nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
