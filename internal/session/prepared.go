package session

import (
	"github.com/tolledo/database/internal/sqlast"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// PreparedStatement is a parsed statement retained under a client-chosen
// name: the raw AST to re-analyze/re-plan at Bind/Execute time, the
// parameter types Bind will type-check and decode against, and (for
// SELECT) the result row shape Describe reports.
type PreparedStatement struct {
	Stmt        sqlast.Statement
	ParamTypes  []sqltype.SqlType
	Description []pgwire.ColumnDescription
}

// Portal is a prepared statement bound to concrete parameter values: the
// AST with every ParamRef placeholder substituted by a literal, ready to
// re-analyze and plan at Execute time.
type Portal struct {
	StatementName string
	Stmt          sqlast.Statement
	ResultFormats []pgwire.PostgreSqlFormat
}
