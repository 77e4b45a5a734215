// Package session dispatches pgwire.Command values against the analyzer,
// planner, and executor, and holds the per-connection prepared-statement
// and portal state the extended-query flow (Parse/Bind/Describe/Execute)
// needs across messages. Execute and the simple Query flow both send
// their own result event(s) and then an unconditional trailing
// QueryComplete.
package session

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tolledo/database/internal/analyzer"
	"github.com/tolledo/database/internal/catalog"
	"github.com/tolledo/database/internal/executor"
	"github.com/tolledo/database/internal/planner"
	"github.com/tolledo/database/internal/sqlast"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// ErrTerminated is returned by Execute when the client sends Terminate;
// the caller (the wire-level connection loop, out of scope here) is
// expected to close the connection on seeing it.
var ErrTerminated = errors.New("session: terminated")

// Engine holds one client connection's prepared-statement/portal state
// over the shared catalog and executor.
type Engine struct {
	ID   uuid.UUID
	dd   *catalog.DataDefinition
	exec *executor.Executor
	log  *zap.Logger

	preparedStatements map[string]*PreparedStatement
	portals            map[string]*Portal
}

// NewEngine builds a fresh per-connection Engine over the shared catalog.
// Every Engine gets a random ID so its log lines can be correlated back to
// one client connection.
func NewEngine(dd *catalog.DataDefinition, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	return &Engine{
		ID:                 id,
		dd:                 dd,
		exec:               executor.New(dd, logger.With(zap.String("session_id", id.String()))),
		log:                logger,
		preparedStatements: make(map[string]*PreparedStatement),
		portals:            make(map[string]*Portal),
	}
}

// Execute dispatches cmd, driving the pipeline and writing every event it
// produces to sender. It returns ErrTerminated on a TerminateCommand and
// otherwise only a non-nil error for a failure in sender itself (I/O), not
// for a query-level failure, which is reported through sender as a
// QueryError instead.
func (e *Engine) Execute(cmd pgwire.Command, sender pgwire.Sender) error {
	switch c := cmd.(type) {
	case pgwire.ParseCommand:
		return e.execParse(c, sender)
	case pgwire.BindCommand:
		return e.execBind(c, sender)
	case pgwire.DescribeStatementCommand:
		return e.execDescribeStatement(c, sender)
	case pgwire.ExecuteCommand:
		return e.execExecute(c, sender)
	case pgwire.FlushCommand:
		return sender.Flush()
	case pgwire.QueryCommand:
		return e.execQuery(c, sender)
	case pgwire.ContinueCommand:
		return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventQueryComplete}, nil)
	case pgwire.TerminateCommand:
		return ErrTerminated
	default:
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported("unrecognized command"))
	}
}

// execParse analyzes (but deliberately does not plan) the last statement
// in a multi-statement Parse body. Planning is deferred to Bind/Execute:
// planInsert/planUpdate/planDelete/planSelect coerce literal AST nodes
// eagerly, and a statement containing an unbound $N placeholder is not
// yet literal-shaped at Parse time.
func (e *Engine) execParse(cmd pgwire.ParseCommand, sender pgwire.Sender) error {
	stmts, err := sqlast.Parse(cmd.SQL)
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, pgwire.SyntaxError(err.Error()))
	}
	stmt := stmts[len(stmts)-1]

	desc, qerr := analyzer.Analyze(stmt, e.dd)
	if qerr != nil {
		return sender.Send(pgwire.QueryEvent{}, qerr)
	}

	description, qerr := describeColumns(desc)
	if qerr != nil {
		return sender.Send(pgwire.QueryEvent{}, qerr)
	}

	e.preparedStatements[cmd.StatementName] = &PreparedStatement{
		Stmt:        stmt,
		ParamTypes:  padParamTypes(cmd.ParamTypes, desc),
		Description: description,
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventParseComplete}, nil)
}

// padParamTypes extends the client-declared parameter types for an INSERT
// to the full column-type list of the target table, so a Parse that names
// fewer types than the table has columns still binds and decodes every
// placeholder against its column's declared type.
func padParamTypes(declared []sqltype.SqlType, desc analyzer.Description) []sqltype.SqlType {
	ins, ok := desc.(analyzer.InsertDescription)
	if !ok || len(declared) >= len(ins.SqlTypes) {
		return declared
	}
	padded := make([]sqltype.SqlType, len(ins.SqlTypes))
	copy(padded, declared)
	copy(padded[len(declared):], ins.SqlTypes[len(declared):])
	return padded
}

// describeColumns reports the result row shape of a Description, non-nil
// only for SELECT.
func describeColumns(desc analyzer.Description) ([]pgwire.ColumnDescription, *pgwire.QueryError) {
	sel, ok := desc.(analyzer.SelectDescription)
	if !ok {
		return nil, nil
	}
	cols := make([]pgwire.ColumnDescription, len(sel.Columns))
	for i, c := range sel.Columns {
		pgType, err := pgwire.ProjectPgType(c.Type)
		if err != nil {
			return nil, pgwire.FeatureNotSupported(err.Error())
		}
		cols[i] = pgwire.ColumnDescription{Name: c.Name, Type: pgType}
	}
	return cols, nil
}

func (e *Engine) execBind(cmd pgwire.BindCommand, sender pgwire.Sender) error {
	ps, ok := e.preparedStatements[cmd.StatementName]
	if !ok {
		return sender.Send(pgwire.QueryEvent{}, pgwire.PreparedStatementDoesNotExist(cmd.StatementName))
	}
	if len(cmd.RawParams) != len(ps.ParamTypes) {
		return sender.Send(pgwire.QueryEvent{}, pgwire.ProtocolViolation(
			"bind message supplies a different number of parameters than the prepared statement requires"))
	}

	paramFormats, err := padFormats(cmd.ParamFormats, len(cmd.RawParams))
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, err.(*pgwire.QueryError))
	}

	params := make([]sqltype.Datum, len(cmd.RawParams))
	for i, raw := range cmd.RawParams {
		pgType, perr := pgwire.ProjectPgType(ps.ParamTypes[i])
		if perr != nil {
			return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(perr.Error()))
		}
		value, derr := pgType.Decode(paramFormats[i], raw)
		if derr != nil {
			return sender.Send(pgwire.QueryEvent{}, pgwire.InvalidParameterValue(derr.Error()))
		}
		params[i] = value.ToDatum(ps.ParamTypes[i])
	}

	resultFormats, err := padFormats(cmd.ResultFormats, len(ps.Description))
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, err.(*pgwire.QueryError))
	}

	boundNode, _ := bindParams(ps.Stmt.Node, params).(map[string]any)
	e.portals[cmd.PortalName] = &Portal{
		StatementName: cmd.StatementName,
		Stmt:          sqlast.Statement{Tag: ps.Stmt.Tag, Node: boundNode},
		ResultFormats: resultFormats,
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventBindComplete}, nil)
}

func (e *Engine) execDescribeStatement(cmd pgwire.DescribeStatementCommand, sender pgwire.Sender) error {
	ps, ok := e.preparedStatements[cmd.StatementName]
	if !ok {
		return sender.Send(pgwire.QueryEvent{}, pgwire.PreparedStatementDoesNotExist(cmd.StatementName))
	}

	paramTypes := make([]pgwire.PgType, len(ps.ParamTypes))
	for i, t := range ps.ParamTypes {
		pgType, err := pgwire.ProjectPgType(t)
		if err != nil {
			return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
		}
		paramTypes[i] = pgType
	}
	if err := sender.Send(pgwire.QueryEvent{Kind: pgwire.EventStatementParameters, ParamTypes: paramTypes}, nil); err != nil {
		return err
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventStatementDescription, Description: ps.Description}, nil)
}

// execExecute re-analyzes and re-plans the portal's bound statement (the
// catalog may have changed shape since Bind) and executes it, then
// unconditionally sends a trailing QueryComplete after whatever the main
// branch already emitted, including after an error. cmd.MaxRows is not
// consulted: the portal always runs to completion and every row is sent.
func (e *Engine) execExecute(cmd pgwire.ExecuteCommand, sender pgwire.Sender) error {
	portal, ok := e.portals[cmd.PortalName]
	if !ok {
		if err := sender.Send(pgwire.QueryEvent{}, pgwire.PortalDoesNotExist(cmd.PortalName)); err != nil {
			return err
		}
		return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventQueryComplete}, nil)
	}

	if err := e.planAndRun(portal.Stmt, sender); err != nil {
		return err
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventQueryComplete}, nil)
}

// execQuery implements the simple query flow: parse, take the last
// statement, analyze, plan, and execute it immediately with no prepared
// statement or portal involved, then unconditionally send a trailing
// QueryComplete.
func (e *Engine) execQuery(cmd pgwire.QueryCommand, sender pgwire.Sender) error {
	stmts, err := sqlast.Parse(cmd.SQL)
	if err != nil {
		if sendErr := sender.Send(pgwire.QueryEvent{}, pgwire.SyntaxError(err.Error())); sendErr != nil {
			return sendErr
		}
		return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventQueryComplete}, nil)
	}
	stmt := stmts[len(stmts)-1]

	if err := e.planAndRun(stmt, sender); err != nil {
		return err
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventQueryComplete}, nil)
}

func (e *Engine) planAndRun(stmt sqlast.Statement, sender pgwire.Sender) error {
	desc, qerr := analyzer.Analyze(stmt, e.dd)
	if qerr != nil {
		return sender.Send(pgwire.QueryEvent{}, qerr)
	}
	plan, qerr := planner.Plan(desc, e.dd)
	if qerr != nil {
		return sender.Send(pgwire.QueryEvent{}, qerr)
	}
	return e.exec.Execute(plan, sender)
}
