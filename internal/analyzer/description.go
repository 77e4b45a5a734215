// Package analyzer resolves object names against the catalog, validates
// column types, and lowers a raw parsed statement into a typed
// Description, the shape the planner consumes next.
package analyzer

import "github.com/tolledo/database/pkg/sqltype"

// Description is the closed set of typed statement shapes the analyzer
// can produce.
type Description interface {
	isDescription()
}

type CreateSchemaDescription struct {
	Name        string
	IfNotExists bool
}

type DropSchemaDescription struct {
	Names     []string
	MissingOk bool
	Cascade   bool
}

// QualifiedTable is one schema.table pair from a DROP TABLE target list.
type QualifiedTable struct {
	SchemaName string
	TableName  string
}

// ColumnDef is one DDL column declaration: the declared name and resolved
// SqlType.
type ColumnDef struct {
	Name string
	Type sqltype.SqlType
}

type CreateTableDescription struct {
	SchemaName  string
	TableName   string
	Columns     []ColumnDef
	IfNotExists bool
}

type DropTableDescription struct {
	Tables    []QualifiedTable
	MissingOk bool
	Cascade   bool
}

// InsertDescription carries the resolved table identity, its column types,
// and the VALUES rows as raw AST nodes — the literals are not coerced here
// but by the planner using SqlTypes.
type InsertDescription struct {
	SchemaName string
	TableName  string
	SchemaID   uint64
	TableID    uint64
	SqlTypes   []sqltype.SqlType
	ValueRows  [][]any // one []any of raw pg_query value-expr nodes per row
}

// Assignment is one "col = expr" pair from an UPDATE's SET clause.
type Assignment struct {
	ColumnName string
	RawValue   map[string]any
}

// Predicate is the single "col = literal" equality filter this analyzer
// supports for UPDATE/DELETE/SELECT WHERE clauses; the pipeline does no
// filtering beyond simple projection and selection.
type Predicate struct {
	ColumnName string
	RawValue   map[string]any
}

type UpdateDescription struct {
	SchemaName  string
	TableName   string
	SchemaID    uint64
	TableID     uint64
	Columns     []ColumnDef
	Assignments []Assignment
	Predicate   *Predicate
}

type DeleteDescription struct {
	SchemaName string
	TableName  string
	SchemaID   uint64
	TableID    uint64
	Predicate  *Predicate
}

// SelectDescription names the projected columns: in ordinal order for a
// bare "SELECT *", otherwise in the order of the select list.
type SelectDescription struct {
	SchemaName string
	TableName  string
	SchemaID   uint64
	TableID    uint64
	Columns    []ColumnDef
	Predicate  *Predicate
}

// NotProcessedDescription is the passthrough shape for session-level
// statements such as SET, distinguishing SET (IsSet, answered with
// VariableSet) from anything else that reaches this fallback (answered
// with QueryComplete).
type NotProcessedDescription struct {
	SQL   string
	IsSet bool
}

func (CreateSchemaDescription) isDescription() {}
func (DropSchemaDescription) isDescription()   {}
func (CreateTableDescription) isDescription()  {}
func (DropTableDescription) isDescription()    {}
func (InsertDescription) isDescription()       {}
func (UpdateDescription) isDescription()       {}
func (DeleteDescription) isDescription()       {}
func (SelectDescription) isDescription()       {}
func (NotProcessedDescription) isDescription() {}
