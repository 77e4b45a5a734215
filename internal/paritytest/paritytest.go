// Package paritytest runs end-to-end scenarios against both our
// in-process engine and a live Postgres container booted by pkg/fixgres,
// asserting the two agree on observable outcomes (row counts, success vs.
// failure). There is no framed wire codec in this build, so "against our
// engine" means driving internal/session.Engine directly rather than
// dialing a real connection into it.
package paritytest

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/tolledo/database/internal/session"
	"github.com/tolledo/database/pkg/pgwire"
)

// Driver selects which real-Postgres database/sql driver a reference
// connection should use. Both pgx and lib/pq paths are kept alive so the
// harness can run the same scenario through either one.
type Driver string

const (
	DriverPgx   Driver = "pgx"
	DriverLibPQ Driver = "postgres"
)

// Open dials a real Postgres instance with the requested driver, e.g. the
// one pkg/fixgres.ConnString points at.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("paritytest: open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("paritytest: ping %s: %w", driver, err)
	}
	return db, nil
}

// collectingSender gathers every event/error Execute produces.
type collectingSender struct {
	events []pgwire.QueryEvent
	errs   []*pgwire.QueryError
}

func (s *collectingSender) Send(event pgwire.QueryEvent, err *pgwire.QueryError) error {
	s.events = append(s.events, event)
	s.errs = append(s.errs, err)
	return nil
}

func (s *collectingSender) Flush() error { return nil }

// Result is one statement's outcome against either side of the parity
// comparison: a row/record count on success, or an error category.
type Result struct {
	RowCount int
	ErrKind  string // "" on success
}

// RunAgainstEngine executes sql through e's simple query flow and reports
// the record count of whichever terminal event fired, or the first error.
func RunAgainstEngine(e *session.Engine, sql string) Result {
	sender := &collectingSender{}
	e.Execute(pgwire.QueryCommand{SQL: sql}, sender)
	for _, err := range sender.errs {
		if err != nil {
			return Result{ErrKind: err.Kind.String()}
		}
	}
	for _, event := range sender.events {
		switch event.Kind {
		case pgwire.EventRecordsSelected, pgwire.EventRecordsInserted,
			pgwire.EventRecordsUpdated, pgwire.EventRecordsDeleted:
			return Result{RowCount: event.RecordCount}
		}
	}
	return Result{}
}

// RunAgainstPostgres executes sql against a real Postgres connection and
// reports the affected/returned row count, or an error.
func RunAgainstPostgres(ctx context.Context, db *sql.DB, query string) (Result, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{RowCount: n}, nil
}

// Exec runs a non-SELECT statement against a real Postgres connection and
// reports the number of rows affected.
func Exec(ctx context.Context, db *sql.DB, stmt string) (Result, error) {
	res, err := db.ExecContext(ctx, stmt)
	if err != nil {
		return Result{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, err
	}
	return Result{RowCount: int(n)}, nil
}
