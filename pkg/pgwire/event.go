package pgwire

// QueryEventKind tags the closed set of terminal and intermediate events
// the executor and session layer can emit.
type QueryEventKind uint8

const (
	EventSchemaCreated QueryEventKind = iota
	EventSchemaDropped
	EventTableCreated
	EventTableDropped
	EventRecordsInserted
	EventRecordsUpdated
	EventRecordsDeleted
	EventRowDescription
	EventRow
	EventRecordsSelected
	EventVariableSet
	EventQueryComplete
	EventParseComplete
	EventBindComplete
	EventStatementParameters
	EventStatementDescription
)

// QueryEvent is a single structured response unit sent on a Sender.
// Only the fields relevant to Kind are populated.
type QueryEvent struct {
	Kind QueryEventKind

	// EventRecordsInserted / EventRecordsUpdated / EventRecordsDeleted /
	// EventRecordsSelected.
	RecordCount int

	// EventRowDescription.
	Columns []ColumnDescription

	// EventRow.
	Row []PostgreSqlValue

	// EventStatementParameters.
	ParamTypes []PgType

	// EventStatementDescription: nil for statements with no result shape
	// (e.g. INSERT), non-nil column list for SELECT.
	Description []ColumnDescription
}

// ColumnDescription is one projected column's wire-relevant shape.
type ColumnDescription struct {
	Name string
	Type PgType
}
