// Package planner turns an analyzer.Description into a closed Plan union
// ready for direct execution: DML and SELECT plans carry the resolved table
// id (DDL plans carry names), every literal has been coerced to its target
// sqltype.Datum, and the CREATE already-exists and missing-schema checks
// against the live catalog state have been applied; DROP targets are
// checked by the executor.
package planner

import "github.com/tolledo/database/pkg/sqltype"

// Plan is the closed set of directly-executable operations.
type Plan interface {
	isPlan()
}

type CreateSchemaPlan struct {
	Name string
}

type DropSchemasPlan struct {
	Names     []string
	MissingOk bool
	Cascade   bool
}

// TableRef names one resolved schema.table drop target.
type TableRef struct {
	SchemaName string
	TableName  string
}

type TableColumn struct {
	Name string
	Type sqltype.SqlType
}

type CreateTablePlan struct {
	SchemaName  string
	TableName   string
	Columns     []TableColumn
	IfNotExists bool
}

type DropTablesPlan struct {
	Tables    []TableRef
	MissingOk bool
	Cascade   bool
}

type InsertPlan struct {
	SchemaName string
	TableName  string
	TableID    uint64
	Rows       [][]sqltype.Datum
}

// ColumnAssignment is one resolved "col = value" pair for an UPDATE plan.
type ColumnAssignment struct {
	ColumnName string
	Ordinal    int
	Value      sqltype.Datum
}

// KeyPredicate is the single equality filter this pipeline supports,
// resolved to a concrete Datum; nil means an unfiltered full-table scan.
type KeyPredicate struct {
	ColumnName string
	Ordinal    int
	Value      sqltype.Datum
}

type UpdatePlan struct {
	SchemaName  string
	TableName   string
	TableID     uint64
	Assignments []ColumnAssignment
	Predicate   *KeyPredicate
}

type DeletePlan struct {
	SchemaName string
	TableName  string
	TableID    uint64
	Predicate  *KeyPredicate
}

type SelectPlan struct {
	SchemaName string
	TableName  string
	TableID    uint64
	Columns    []TableColumn
	Predicate  *KeyPredicate
}

// NotProcessedPlan passes a session-level statement (e.g. SET) through to
// the executor, which emits EventVariableSet or EventQueryComplete
// depending on IsSet.
type NotProcessedPlan struct {
	SQL   string
	IsSet bool
}

func (CreateSchemaPlan) isPlan() {}
func (DropSchemasPlan) isPlan()  {}
func (CreateTablePlan) isPlan()  {}
func (DropTablesPlan) isPlan()   {}
func (InsertPlan) isPlan()       {}
func (UpdatePlan) isPlan()       {}
func (DeletePlan) isPlan()       {}
func (SelectPlan) isPlan()       {}
func (NotProcessedPlan) isPlan() {}
