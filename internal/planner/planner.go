package planner

import (
	"github.com/tolledo/database/internal/analyzer"
	"github.com/tolledo/database/internal/catalog"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// Plan lowers desc into a directly-executable Plan, checking
// already-exists preconditions the analyzer doesn't, and coercing every
// literal value against its resolved target type.
func Plan(desc analyzer.Description, dd *catalog.DataDefinition) (Plan, *pgwire.QueryError) {
	switch d := desc.(type) {
	case analyzer.CreateSchemaDescription:
		return planCreateSchema(d, dd)
	case analyzer.DropSchemaDescription:
		return DropSchemasPlan{Names: d.Names, MissingOk: d.MissingOk, Cascade: d.Cascade}, nil
	case analyzer.CreateTableDescription:
		return planCreateTable(d, dd)
	case analyzer.DropTableDescription:
		tables := make([]TableRef, len(d.Tables))
		for i, qt := range d.Tables {
			tables[i] = TableRef{SchemaName: qt.SchemaName, TableName: qt.TableName}
		}
		return DropTablesPlan{Tables: tables, MissingOk: d.MissingOk, Cascade: d.Cascade}, nil
	case analyzer.InsertDescription:
		return planInsert(d)
	case analyzer.UpdateDescription:
		return planUpdate(d)
	case analyzer.DeleteDescription:
		return planDelete(d)
	case analyzer.SelectDescription:
		return planSelect(d)
	case analyzer.NotProcessedDescription:
		return NotProcessedPlan{SQL: d.SQL, IsSet: d.IsSet}, nil
	default:
		return nil, pgwire.FeatureNotSupported("unrecognized statement")
	}
}

func planCreateSchema(d analyzer.CreateSchemaDescription, dd *catalog.DataDefinition) (Plan, *pgwire.QueryError) {
	if _, exists := dd.SchemaExists(d.Name); exists && !d.IfNotExists {
		return nil, pgwire.SchemaAlreadyExists(d.Name)
	}
	return CreateSchemaPlan{Name: d.Name}, nil
}

func planCreateTable(d analyzer.CreateTableDescription, dd *catalog.DataDefinition) (Plan, *pgwire.QueryError) {
	_, _, found, err := dd.TableExists(d.SchemaName, d.TableName)
	if err != nil {
		if _, ok := err.(*catalog.NotFoundError); ok {
			return nil, pgwire.SchemaDoesNotExist(d.SchemaName)
		}
		return nil, pgwire.FeatureNotSupported(err.Error())
	}
	if found && !d.IfNotExists {
		return nil, pgwire.TableAlreadyExists(d.SchemaName + "." + d.TableName)
	}
	columns := make([]TableColumn, len(d.Columns))
	for i, c := range d.Columns {
		columns[i] = TableColumn{Name: c.Name, Type: c.Type}
	}
	return CreateTablePlan{
		SchemaName:  d.SchemaName,
		TableName:   d.TableName,
		Columns:     columns,
		IfNotExists: d.IfNotExists,
	}, nil
}

func planInsert(d analyzer.InsertDescription) (Plan, *pgwire.QueryError) {
	rows := make([][]sqltype.Datum, 0, len(d.ValueRows))
	for _, rawRow := range d.ValueRows {
		if len(rawRow) != len(d.SqlTypes) {
			return nil, pgwire.InvalidParameterValue("INSERT column count does not match table")
		}
		row := make([]sqltype.Datum, len(rawRow))
		for i, rawVal := range rawRow {
			valNode, _ := rawVal.(map[string]any)
			datum, qerr := extractLiteral(valNode, d.SqlTypes[i])
			if qerr != nil {
				return nil, qerr
			}
			row[i] = datum
		}
		rows = append(rows, row)
	}
	return InsertPlan{SchemaName: d.SchemaName, TableName: d.TableName, TableID: d.TableID, Rows: rows}, nil
}

func planUpdate(d analyzer.UpdateDescription) (Plan, *pgwire.QueryError) {
	ordinals := make(map[string]int, len(d.Columns))
	types := make(map[string]sqltype.SqlType, len(d.Columns))
	for i, c := range d.Columns {
		ordinals[c.Name] = i
		types[c.Name] = c.Type
	}

	assignments := make([]ColumnAssignment, 0, len(d.Assignments))
	for _, a := range d.Assignments {
		datum, qerr := extractLiteral(a.RawValue, types[a.ColumnName])
		if qerr != nil {
			return nil, qerr
		}
		assignments = append(assignments, ColumnAssignment{
			ColumnName: a.ColumnName,
			Ordinal:    ordinals[a.ColumnName],
			Value:      datum,
		})
	}

	predicate, qerr := resolvePredicate(d.Predicate, ordinals, types)
	if qerr != nil {
		return nil, qerr
	}

	return UpdatePlan{
		SchemaName:  d.SchemaName,
		TableName:   d.TableName,
		TableID:     d.TableID,
		Assignments: assignments,
		Predicate:   predicate,
	}, nil
}

func planDelete(d analyzer.DeleteDescription) (Plan, *pgwire.QueryError) {
	predicate, qerr := resolveUntypedPredicate(d.Predicate)
	if qerr != nil {
		return nil, qerr
	}
	return DeletePlan{SchemaName: d.SchemaName, TableName: d.TableName, TableID: d.TableID, Predicate: predicate}, nil
}

func planSelect(d analyzer.SelectDescription) (Plan, *pgwire.QueryError) {
	predicate, qerr := resolveUntypedPredicate(d.Predicate)
	if qerr != nil {
		return nil, qerr
	}
	columns := make([]TableColumn, len(d.Columns))
	for i, c := range d.Columns {
		columns[i] = TableColumn{Name: c.Name, Type: c.Type}
	}
	return SelectPlan{SchemaName: d.SchemaName, TableName: d.TableName, TableID: d.TableID, Columns: columns, Predicate: predicate}, nil
}

// resolvePredicate coerces a predicate's literal against the named
// column's declared type, for statements (UPDATE) that already have an
// ordinal/type map in hand.
func resolvePredicate(p *analyzer.Predicate, ordinals map[string]int, types map[string]sqltype.SqlType) (*KeyPredicate, *pgwire.QueryError) {
	if p == nil {
		return nil, nil
	}
	ord, ok := ordinals[p.ColumnName]
	if !ok {
		return nil, pgwire.ColumnDoesNotExist(p.ColumnName)
	}
	datum, qerr := extractLiteral(p.RawValue, types[p.ColumnName])
	if qerr != nil {
		return nil, qerr
	}
	return &KeyPredicate{ColumnName: p.ColumnName, Ordinal: ord, Value: datum}, nil
}

// resolveUntypedPredicate is used by DELETE/SELECT, which don't otherwise
// need a full ordinal/type map; the literal is coerced against the
// GeneralType its own literal shape implies (string/bool/number), since the
// executor compares it with the stored column by GeneralType value, not by
// strict column type.
func resolveUntypedPredicate(p *analyzer.Predicate) (*KeyPredicate, *pgwire.QueryError) {
	if p == nil {
		return nil, nil
	}
	datum, qerr := extractUntypedLiteral(p.RawValue)
	if qerr != nil {
		return nil, qerr
	}
	return &KeyPredicate{ColumnName: p.ColumnName, Value: datum}, nil
}
