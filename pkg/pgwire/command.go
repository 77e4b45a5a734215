// Package pgwire defines the external wire-protocol contract the session
// layer consumes: Command sources, the Sender event sink, and the closed
// QueryEvent/QueryError taxonomies. The framed byte codec itself is out of
// scope — these are the structured shapes a hypothetical frontend/backend
// codec would produce and consume.
package pgwire

import "github.com/tolledo/database/pkg/sqltype"

// Command is the tagged union of session-level client requests. Concrete
// types implement it as a marker; the session dispatches with a type
// switch.
type Command interface {
	isCommand()
}

// ParseCommand corresponds to the extended-query Parse message: parse and
// analyze one statement under a prepared-statement name. It is not planned
// at Parse time; planning happens when the bound portal is executed.
type ParseCommand struct {
	StatementName string
	SQL           string
	ParamTypes    []sqltype.SqlType
}

// BindCommand corresponds to Bind: attach concrete parameter values and
// result formats to a named statement, producing a named portal.
type BindCommand struct {
	PortalName    string
	StatementName string
	ParamFormats  []PostgreSqlFormat
	RawParams     [][]byte // nil element means SQL NULL
	ResultFormats []PostgreSqlFormat
}

// DescribeStatementCommand corresponds to Describe(Statement): request the
// parameter types and result shape of a prepared statement.
type DescribeStatementCommand struct {
	StatementName string
}

// ExecuteCommand corresponds to Execute: run a bound portal. MaxRows is
// accepted for protocol completeness but currently ignored (see
// internal/session).
type ExecuteCommand struct {
	PortalName string
	MaxRows    int32
}

// FlushCommand corresponds to Flush: flush any buffered output without
// ending the current transaction.
type FlushCommand struct{}

// QueryCommand corresponds to the simple query flow: parse the SQL, then
// plan and execute its last statement immediately without storing a
// prepared statement. Earlier statements in the same SQL are not executed.
type QueryCommand struct {
	SQL string
}

// ContinueCommand names a portal to resume (not produced by the simple
// flow; present for protocol completeness). The session never suspends a
// portal and answers it with a bare QueryComplete.
type ContinueCommand struct {
	PortalName string
}

// TerminateCommand signals the session to release all state and close.
type TerminateCommand struct{}

func (ParseCommand) isCommand()             {}
func (BindCommand) isCommand()              {}
func (DescribeStatementCommand) isCommand() {}
func (ExecuteCommand) isCommand()           {}
func (FlushCommand) isCommand()             {}
func (QueryCommand) isCommand()             {}
func (ContinueCommand) isCommand()          {}
func (TerminateCommand) isCommand()         {}

// PostgreSqlFormat is the PG wire parameter/result format code.
type PostgreSqlFormat uint8

const (
	FormatText PostgreSqlFormat = iota
	FormatBinary
)

// Sender is the session's output sink: every command produces zero or
// more events followed by exactly one terminal event or error.
type Sender interface {
	Send(event QueryEvent, err *QueryError) error
	Flush() error
}
