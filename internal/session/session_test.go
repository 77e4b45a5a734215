package session

import (
	"strings"
	"testing"

	"github.com/tolledo/database/internal/catalog"
	"github.com/tolledo/database/internal/storage/memory"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

type recordingSender struct {
	events []pgwire.QueryEvent
	errs   []*pgwire.QueryError
}

func (s *recordingSender) Send(event pgwire.QueryEvent, err *pgwire.QueryError) error {
	s.events = append(s.events, event)
	s.errs = append(s.errs, err)
	return nil
}

func (s *recordingSender) Flush() error { return nil }

func (s *recordingSender) lastErr() *pgwire.QueryError {
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[len(s.errs)-1]
}

func (s *recordingSender) lastEvent() pgwire.QueryEvent {
	return s.events[len(s.events)-1]
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dd, err := catalog.New(memory.NewCatalog(), nil)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return NewEngine(dd, nil)
}

func query(t *testing.T, e *Engine, sql string) *recordingSender {
	t.Helper()
	sender := &recordingSender{}
	if err := e.Execute(pgwire.QueryCommand{SQL: sql}, sender); err != nil {
		t.Fatalf("Execute(%q): %v", sql, err)
	}
	return sender
}

// TestCreateDropSchemaIdempotency runs create/create/drop/drop for the
// same schema name and checks each step's event or error.
func TestCreateDropSchemaIdempotency(t *testing.T) {
	e := newTestEngine(t)

	sender := query(t, e, "CREATE SCHEMA s")
	if sender.events[0].Kind != pgwire.EventSchemaCreated {
		t.Fatalf("first create: %+v", sender.events[0])
	}

	sender = query(t, e, "CREATE SCHEMA s")
	if err := sender.errs[0]; err == nil || err.Kind != pgwire.ErrSchemaAlreadyExists {
		t.Fatalf("second create: %v, want schema_already_exists", err)
	}

	sender = query(t, e, "DROP SCHEMA s")
	if sender.events[0].Kind != pgwire.EventSchemaDropped {
		t.Fatalf("first drop: %+v", sender.events[0])
	}

	sender = query(t, e, "DROP SCHEMA s")
	if err := sender.errs[0]; err == nil || err.Kind != pgwire.ErrSchemaDoesNotExist {
		t.Fatalf("second drop: %v, want schema_does_not_exist", err)
	}
}

// TestInsertAndSelect inserts twice into a one-column table and expects
// both rows back, in insertion order, with the right terminal count.
func TestInsertAndSelect(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c bool)")
	query(t, e, "INSERT INTO s.t VALUES (true)")
	query(t, e, "INSERT INTO s.t VALUES (true)")

	sender := query(t, e, "SELECT * FROM s.t")
	var rows int
	for _, ev := range sender.events {
		if ev.Kind == pgwire.EventRow {
			rows++
			if !ev.Row[0].B {
				t.Errorf("row value = %v, want true", ev.Row[0].B)
			}
		}
	}
	if rows != 2 {
		t.Fatalf("got %d rows, want 2", rows)
	}
	final := sender.lastEvent()
	if final.Kind != pgwire.EventRecordsSelected || final.RecordCount != 2 {
		t.Fatalf("final event = %+v", final)
	}
}

// TestUpdateSpecificKey updates one row by a keyed predicate and checks
// the other row is untouched.
func TestUpdateSpecificKey(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c integer)")
	query(t, e, "INSERT INTO s.t VALUES (1)")
	query(t, e, "INSERT INTO s.t VALUES (2)")

	sender := query(t, e, "UPDATE s.t SET c = 4 WHERE c = 2")
	last := sender.lastEvent()
	if last.Kind != pgwire.EventRecordsUpdated || last.RecordCount != 1 {
		t.Fatalf("update event = %+v", last)
	}

	sender = query(t, e, "SELECT * FROM s.t")
	var got []int64
	for _, ev := range sender.events {
		if ev.Kind == pgwire.EventRow {
			got = append(got, ev.Row[0].I)
		}
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Fatalf("got %v, want [1 4]", got)
	}
}

// TestDeleteByKey deletes one row by a keyed predicate and checks the
// other row survives.
func TestDeleteByKey(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c integer)")
	query(t, e, "INSERT INTO s.t VALUES (1)")
	query(t, e, "INSERT INTO s.t VALUES (2)")

	sender := query(t, e, "DELETE FROM s.t WHERE c = 2")
	last := sender.lastEvent()
	if last.Kind != pgwire.EventRecordsDeleted || last.RecordCount != 1 {
		t.Fatalf("delete event = %+v", last)
	}

	sender = query(t, e, "SELECT * FROM s.t")
	var got []int64
	for _, ev := range sender.events {
		if ev.Kind == pgwire.EventRow {
			got = append(got, ev.Row[0].I)
		}
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

// TestAnalyzerRejectsBadNames checks the one-part and three-part naming
// failures surface through the simple query flow. A four-or-more-part
// name never reaches the analyzer: the PostgreSQL grammar itself rejects
// it ("improper qualified name") as a syntax error.
func TestAnalyzerRejectsBadNames(t *testing.T) {
	e := newTestEngine(t)

	sender := query(t, e, "CREATE TABLE only_one_part (c bool)")
	err := sender.errs[0]
	if err == nil || err.Kind != pgwire.ErrTableNamingError {
		t.Fatalf("err = %v, want table_naming_error", err)
	}
	if err.Args[0] != "Unsupported table name 'only_one_part'. All table names must be qualified" {
		t.Errorf("message = %q", err.Args[0])
	}

	sender = query(t, e, "CREATE TABLE a.b.c (c bool)")
	err = sender.errs[0]
	if err == nil || err.Kind != pgwire.ErrTableNamingError {
		t.Fatalf("err = %v, want table_naming_error", err)
	}
	if !strings.Contains(err.Args[0], "a.b.c") {
		t.Errorf("message %q should echo the full dotted name", err.Args[0])
	}
}

func TestDropTableAndIfExists(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c bool)")

	sender := query(t, e, "DROP TABLE s.t")
	if sender.events[0].Kind != pgwire.EventTableDropped {
		t.Fatalf("drop: %+v", sender.events[0])
	}

	sender = query(t, e, "DROP TABLE s.t")
	if err := sender.errs[0]; err == nil || err.Kind != pgwire.ErrTableDoesNotExist {
		t.Fatalf("second drop: %v, want table_does_not_exist", err)
	}

	sender = query(t, e, "DROP TABLE IF EXISTS s.t")
	if err := sender.errs[0]; err != nil {
		t.Fatalf("drop if exists: %v", err)
	}
	if sender.events[0].Kind != pgwire.EventTableDropped {
		t.Fatalf("drop if exists: %+v", sender.events[0])
	}

	sender = query(t, e, "DROP SCHEMA IF EXISTS nowhere")
	if err := sender.errs[0]; err != nil {
		t.Fatalf("drop schema if exists: %v", err)
	}
}

func TestQueryCompleteAlwaysFollowsExecute(t *testing.T) {
	e := newTestEngine(t)
	sender := query(t, e, "CREATE SCHEMA s")
	last := sender.lastEvent()
	if last.Kind != pgwire.EventQueryComplete {
		t.Fatalf("last event = %+v, want EventQueryComplete trailing event", last)
	}
}

// TestExtendedQueryFlow exercises Parse/Bind/Describe/Execute end to end,
// including parameter substitution for a placeholder the planner could
// not otherwise coerce at Parse time.
func TestExtendedQueryFlow(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c integer)")
	query(t, e, "INSERT INTO s.t VALUES (1)")
	query(t, e, "INSERT INTO s.t VALUES (2)")

	sender := &recordingSender{}
	parseCmd := pgwire.ParseCommand{
		StatementName: "stmt1",
		SQL:           "SELECT * FROM s.t WHERE c = $1",
		ParamTypes:    []sqltype.SqlType{sqltype.Integer},
	}
	if err := e.Execute(parseCmd, sender); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sender.lastEvent().Kind != pgwire.EventParseComplete {
		t.Fatalf("Parse result = %+v", sender.lastEvent())
	}

	bindCmd := pgwire.BindCommand{
		PortalName:    "portal1",
		StatementName: "stmt1",
		RawParams:     [][]byte{[]byte("2")},
	}
	sender = &recordingSender{}
	if err := e.Execute(bindCmd, sender); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if sender.lastEvent().Kind != pgwire.EventBindComplete {
		t.Fatalf("Bind result = %+v", sender.lastEvent())
	}

	sender = &recordingSender{}
	if err := e.Execute(pgwire.ExecuteCommand{PortalName: "portal1"}, sender); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var rowVals []int64
	for _, ev := range sender.events {
		if ev.Kind == pgwire.EventRow {
			rowVals = append(rowVals, ev.Row[0].I)
		}
	}
	if len(rowVals) != 1 || rowVals[0] != 2 {
		t.Fatalf("rowVals = %v, want [2]", rowVals)
	}
	if sender.lastEvent().Kind != pgwire.EventQueryComplete {
		t.Fatalf("last event = %+v, want EventQueryComplete", sender.lastEvent())
	}
}

func TestBindParamCountMismatchIsProtocolViolation(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c integer)")

	sender := &recordingSender{}
	e.Execute(pgwire.ParseCommand{
		StatementName: "stmt1",
		SQL:           "SELECT * FROM s.t WHERE c = $1",
		ParamTypes:    []sqltype.SqlType{sqltype.Integer},
	}, sender)

	sender = &recordingSender{}
	e.Execute(pgwire.BindCommand{
		PortalName:    "p",
		StatementName: "stmt1",
		RawParams:     [][]byte{[]byte("1"), []byte("2")},
	}, sender)
	if err := sender.lastErr(); err == nil || err.Kind != pgwire.ErrProtocolViolation {
		t.Fatalf("err = %v, want protocol_violation", err)
	}
}

// TestParsePadsInsertParamTypes parses an INSERT with placeholders but no
// declared parameter types; Bind must still decode each placeholder
// against the table's column types.
func TestParsePadsInsertParamTypes(t *testing.T) {
	e := newTestEngine(t)
	query(t, e, "CREATE SCHEMA s")
	query(t, e, "CREATE TABLE s.t (c integer)")

	sender := &recordingSender{}
	if err := e.Execute(pgwire.ParseCommand{
		StatementName: "ins",
		SQL:           "INSERT INTO s.t VALUES ($1)",
	}, sender); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sender.lastEvent().Kind != pgwire.EventParseComplete {
		t.Fatalf("Parse result = %+v", sender.lastEvent())
	}

	sender = &recordingSender{}
	if err := e.Execute(pgwire.BindCommand{
		PortalName:    "p",
		StatementName: "ins",
		RawParams:     [][]byte{[]byte("7")},
	}, sender); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if sender.lastEvent().Kind != pgwire.EventBindComplete {
		t.Fatalf("Bind result = %+v", sender.lastEvent())
	}

	sender = &recordingSender{}
	if err := e.Execute(pgwire.ExecuteCommand{PortalName: "p"}, sender); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var inserted bool
	for _, ev := range sender.events {
		if ev.Kind == pgwire.EventRecordsInserted && ev.RecordCount == 1 {
			inserted = true
		}
	}
	if !inserted {
		t.Fatalf("events = %+v, want RecordsInserted(1)", sender.events)
	}
}

func TestBindUnknownStatement(t *testing.T) {
	e := newTestEngine(t)
	sender := &recordingSender{}
	e.Execute(pgwire.BindCommand{PortalName: "p", StatementName: "missing"}, sender)
	if err := sender.lastErr(); err == nil || err.Kind != pgwire.ErrPreparedStatementDoesNotExist {
		t.Fatalf("err = %v, want prepared_statement_does_not_exist", err)
	}
}

func TestExecuteUnknownPortal(t *testing.T) {
	e := newTestEngine(t)
	sender := &recordingSender{}
	e.Execute(pgwire.ExecuteCommand{PortalName: "missing"}, sender)
	if sender.errs[0] == nil || sender.errs[0].Kind != pgwire.ErrPortalDoesNotExist {
		t.Fatalf("err = %v, want portal_does_not_exist", sender.errs[0])
	}
	if sender.lastEvent().Kind != pgwire.EventQueryComplete {
		t.Fatalf("last event = %+v, want trailing EventQueryComplete even on error", sender.lastEvent())
	}
}

func TestTerminate(t *testing.T) {
	e := newTestEngine(t)
	sender := &recordingSender{}
	if err := e.Execute(pgwire.TerminateCommand{}, sender); err != ErrTerminated {
		t.Fatalf("err = %v, want ErrTerminated", err)
	}
}
