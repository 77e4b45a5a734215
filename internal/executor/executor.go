// Package executor dispatches a planner.Plan, drives the catalog/storage
// layer, and emits the resulting pgwire.QueryEvent(s) on a session's
// Sender. Storage errors are logged and reported through the Sender, not
// panicked; the session stays open.
package executor

import (
	"go.uber.org/zap"

	"github.com/tolledo/database/internal/catalog"
	"github.com/tolledo/database/internal/logutil"
	"github.com/tolledo/database/internal/planner"
	"github.com/tolledo/database/internal/storage"
	"github.com/tolledo/database/pkg/binary"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// Executor drives the shared catalog on behalf of one session at a time;
// the catalog itself is the only state shared across concurrent sessions.
type Executor struct {
	dd     *catalog.DataDefinition
	logger *zap.Logger
}

// New builds an Executor over the shared catalog/storage handle.
func New(dd *catalog.DataDefinition, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{dd: dd, logger: logger}
}

// Execute dispatches plan, driving storage and emitting the event(s) each
// operation calls for on sender. A storage I/O error is logged and
// reported as a generic execution error without aborting the session.
func (e *Executor) Execute(plan planner.Plan, sender pgwire.Sender) error {
	switch p := plan.(type) {
	case planner.CreateSchemaPlan:
		return e.execCreateSchema(p, sender)
	case planner.DropSchemasPlan:
		return e.execDropSchemas(p, sender)
	case planner.CreateTablePlan:
		return e.execCreateTable(p, sender)
	case planner.DropTablesPlan:
		return e.execDropTables(p, sender)
	case planner.InsertPlan:
		return e.execInsert(p, sender)
	case planner.UpdatePlan:
		return e.execUpdate(p, sender)
	case planner.DeletePlan:
		return e.execDelete(p, sender)
	case planner.SelectPlan:
		return e.execSelect(p, sender)
	case planner.NotProcessedPlan:
		return e.execNotProcessed(p, sender)
	default:
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported("unrecognized plan"))
	}
}

func (e *Executor) execCreateSchema(p planner.CreateSchemaPlan, sender pgwire.Sender) error {
	if _, _, err := e.dd.CreateSchema(p.Name); err != nil {
		e.logger.Error("create schema failed", zap.String("schema", p.Name), zap.Error(err))
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventSchemaCreated}, nil)
}

// execDropSchemas drops every named schema, stopping at the first missing
// one unless IF EXISTS was given; one terminal event covers the whole
// target list.
func (e *Executor) execDropSchemas(p planner.DropSchemasPlan, sender pgwire.Sender) error {
	for _, name := range p.Names {
		if err := e.dd.DropSchema(name); err != nil {
			if isNotFound(err) {
				if p.MissingOk {
					continue
				}
				return sender.Send(pgwire.QueryEvent{}, pgwire.SchemaDoesNotExist(name))
			}
			e.logger.Error("drop schema failed", zap.String("schema", name), zap.Error(err))
			return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
		}
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventSchemaDropped}, nil)
}

func (e *Executor) execCreateTable(p planner.CreateTablePlan, sender pgwire.Sender) error {
	cols := make([]catalog.ColumnDefinition, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = catalog.NewColumnDefinition(c.Name, c.Type)
	}
	if _, _, _, err := e.dd.CreateTable(p.SchemaName, p.TableName, cols); err != nil {
		if nf, ok := err.(*catalog.NotFoundError); ok && nf.Kind == catalog.NotFoundSchema {
			return sender.Send(pgwire.QueryEvent{}, pgwire.SchemaDoesNotExist(p.SchemaName))
		}
		e.logger.Error("create table failed",
			logutil.Values(zap.String("schema", p.SchemaName), zap.String("table", p.TableName)), zap.Error(err))
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventTableCreated}, nil)
}

func (e *Executor) execDropTables(p planner.DropTablesPlan, sender pgwire.Sender) error {
	for _, ref := range p.Tables {
		if err := e.dd.DropTable(ref.SchemaName, ref.TableName); err != nil {
			if nf, ok := err.(*catalog.NotFoundError); ok {
				if p.MissingOk {
					continue
				}
				if nf.Kind == catalog.NotFoundSchema {
					return sender.Send(pgwire.QueryEvent{}, pgwire.SchemaDoesNotExist(ref.SchemaName))
				}
				return sender.Send(pgwire.QueryEvent{}, pgwire.TableDoesNotExist(ref.SchemaName+"."+ref.TableName))
			}
			e.logger.Error("drop table failed",
				zap.String("schema", ref.SchemaName), zap.String("table", ref.TableName), zap.Error(err))
			return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
		}
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventTableDropped}, nil)
}

func (e *Executor) execInsert(p planner.InsertPlan, sender pgwire.Sender) error {
	table, err := e.dd.Table(p.SchemaName, p.TableName)
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, e.tableLookupError(err, p.SchemaName, p.TableName))
	}
	values := make([]binary.Binary, len(p.Rows))
	for i, row := range p.Rows {
		values[i] = binary.Pack(row)
	}
	n, err := table.Insert(values)
	if err != nil {
		e.logger.Error("insert failed", zap.String("table", p.TableName), zap.Error(err))
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventRecordsInserted, RecordCount: n}, nil)
}

func (e *Executor) execUpdate(p planner.UpdatePlan, sender pgwire.Sender) error {
	table, err := e.dd.Table(p.SchemaName, p.TableName)
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, e.tableLookupError(err, p.SchemaName, p.TableName))
	}

	rows := table.Select().Collect()
	var pairs []storage.Row
	for _, row := range rows {
		cells, err := binary.Unpack(row.Value)
		if err != nil {
			e.logger.Error("update: corrupt row", zap.String("table", p.TableName), zap.Error(err))
			continue
		}
		if p.Predicate != nil {
			if p.Predicate.Ordinal >= len(cells) || !datumEqual(cells[p.Predicate.Ordinal], p.Predicate.Value) {
				continue
			}
		}
		for _, a := range p.Assignments {
			if a.Ordinal < len(cells) {
				cells[a.Ordinal] = a.Value
			}
		}
		pairs = append(pairs, storage.Row{Key: row.Key, Value: binary.Pack(cells)})
	}

	n, err := table.Update(pairs)
	if err != nil {
		e.logger.Error("update failed", zap.String("table", p.TableName), zap.Error(err))
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventRecordsUpdated, RecordCount: n}, nil)
}

// execDelete collects every key matching p.Predicate (or every key, if
// nil) via a full scan, then deletes the collected set in one call. A
// collected key not present at delete time would be a defect, not a
// user-facing error: the monotonic record-id scheme and the snapshot the
// scan was taken from guarantee it still exists.
func (e *Executor) execDelete(p planner.DeletePlan, sender pgwire.Sender) error {
	table, err := e.dd.Table(p.SchemaName, p.TableName)
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, e.tableLookupError(err, p.SchemaName, p.TableName))
	}
	ordinal := -1
	if p.Predicate != nil {
		ordinal, err = e.columnOrdinal(p.SchemaName, p.TableName, p.Predicate.ColumnName)
		if err != nil {
			return sender.Send(pgwire.QueryEvent{}, pgwire.ColumnDoesNotExist(p.Predicate.ColumnName))
		}
	}

	rows := table.Select().Collect()
	var keys []binary.Binary
	for _, row := range rows {
		if p.Predicate == nil {
			keys = append(keys, row.Key)
			continue
		}
		cells, err := binary.Unpack(row.Value)
		if err != nil {
			e.logger.Error("delete: corrupt row", zap.String("table", p.TableName), zap.Error(err))
			continue
		}
		if ordinal < len(cells) && datumEqual(cells[ordinal], p.Predicate.Value) {
			keys = append(keys, row.Key)
		}
	}

	n, err := table.Delete(keys)
	if err != nil {
		e.logger.Error("delete failed", zap.String("table", p.TableName), zap.Error(err))
		return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventRecordsDeleted, RecordCount: n}, nil)
}

func (e *Executor) execSelect(p planner.SelectPlan, sender pgwire.Sender) error {
	table, err := e.dd.Table(p.SchemaName, p.TableName)
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, e.tableLookupError(err, p.SchemaName, p.TableName))
	}
	desc, err := e.dd.TableDesc(p.SchemaName, p.TableName)
	if err != nil {
		return sender.Send(pgwire.QueryEvent{}, e.tableLookupError(err, p.SchemaName, p.TableName))
	}

	fullIndex := make(map[string]int, len(desc.Columns))
	for i, c := range desc.Columns {
		fullIndex[c.Name] = i
	}
	predOrdinal := -1
	if p.Predicate != nil {
		if idx, ok := fullIndex[p.Predicate.ColumnName]; ok {
			predOrdinal = idx
		} else {
			return sender.Send(pgwire.QueryEvent{}, pgwire.ColumnDoesNotExist(p.Predicate.ColumnName))
		}
	}

	cols := make([]pgwire.ColumnDescription, len(p.Columns))
	projIndex := make([]int, len(p.Columns))
	for i, c := range p.Columns {
		pgType, err := pgwire.ProjectPgType(c.Type)
		if err != nil {
			return sender.Send(pgwire.QueryEvent{}, pgwire.FeatureNotSupported(err.Error()))
		}
		cols[i] = pgwire.ColumnDescription{Name: c.Name, Type: pgType}
		projIndex[i] = fullIndex[c.Name]
	}
	if err := sender.Send(pgwire.QueryEvent{Kind: pgwire.EventRowDescription, Columns: cols}, nil); err != nil {
		return err
	}

	rows := table.Select().Collect()
	count := 0
	for _, row := range rows {
		cells, err := binary.Unpack(row.Value)
		if err != nil {
			e.logger.Error("select: corrupt row", zap.String("table", p.TableName), zap.Error(err))
			continue
		}
		if p.Predicate != nil && (predOrdinal >= len(cells) || !datumEqual(cells[predOrdinal], p.Predicate.Value)) {
			continue
		}
		projected := make([]pgwire.PostgreSqlValue, len(projIndex))
		for i, idx := range projIndex {
			projected[i] = pgwire.FromDatum(cells[idx])
		}
		if err := sender.Send(pgwire.QueryEvent{Kind: pgwire.EventRow, Row: projected}, nil); err != nil {
			return err
		}
		count++
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventRecordsSelected, RecordCount: count}, nil)
}

func (e *Executor) execNotProcessed(p planner.NotProcessedPlan, sender pgwire.Sender) error {
	if p.IsSet {
		return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventVariableSet}, nil)
	}
	return sender.Send(pgwire.QueryEvent{Kind: pgwire.EventQueryComplete}, nil)
}

func (e *Executor) columnOrdinal(schemaName, tableName, columnName string) (int, error) {
	desc, err := e.dd.TableDesc(schemaName, tableName)
	if err != nil {
		return 0, err
	}
	for i, c := range desc.Columns {
		if c.Name == columnName {
			return i, nil
		}
	}
	return 0, pgwire.ColumnDoesNotExist(columnName)
}

func (e *Executor) tableLookupError(err error, schemaName, tableName string) *pgwire.QueryError {
	if nf, ok := err.(*catalog.NotFoundError); ok {
		if nf.Kind == catalog.NotFoundSchema {
			return pgwire.SchemaDoesNotExist(schemaName)
		}
		return pgwire.TableDoesNotExist(schemaName + "." + tableName)
	}
	e.logger.Error("table lookup failed", zap.String("schema", schemaName), zap.String("table", tableName), zap.Error(err))
	return pgwire.FeatureNotSupported(err.Error())
}

func isNotFound(err error) bool {
	_, ok := err.(*catalog.NotFoundError)
	return ok
}

// datumEqual implements the single equality comparison the key-based
// predicate pipeline needs, comparing operands by GeneralType the same
// way internal/eval's typing table classifies them; richer relational
// operators are out of scope (Non-goals: optimization beyond simple
// projection/selection).
func datumEqual(a, b sqltype.Datum) bool {
	if a.General() != b.General() {
		return false
	}
	switch a.General() {
	case sqltype.GeneralBool:
		av, _ := a.Bool()
		bv, _ := b.Bool()
		return av == bv
	case sqltype.GeneralString:
		as, _ := a.String()
		bs, _ := b.String()
		return as == bs
	default:
		an, _ := a.Number()
		bn, _ := b.Number()
		return an.Equal(bn)
	}
}
