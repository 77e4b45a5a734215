// Package catalog maintains the bidirectional name↔id lookup for schemas,
// tables, and columns on top of a storage.Catalog back-end. Identifiers
// are assigned monotonically, never reused while live, and reload
// unchanged from a durable back-end's system keyspace after a restart.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/tolledo/database/internal/storage"
	"github.com/tolledo/database/pkg/sqltype"
)

// NotFoundKind distinguishes a missing schema from a missing table or
// column inside an existing schema, so callers can map each absence to
// the right user-facing error without string matching.
type NotFoundKind uint8

const (
	NotFoundSchema NotFoundKind = iota
	NotFoundObject
)

// NotFoundError is the catalog layer's closed absence signal.
type NotFoundError struct {
	Kind NotFoundKind
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Kind == NotFoundSchema {
		return fmt.Sprintf("catalog: schema %q does not exist", e.Name)
	}
	return fmt.Sprintf("catalog: object %q does not exist", e.Name)
}

// ColumnDefinition is a single typed column: name, type, and the ordinal
// assigned monotonically and never reused within the table's lifetime.
type ColumnDefinition struct {
	Name    string         `json:"name"`
	SqlType columnTypeJSON `json:"sql_type"`
	Ordinal uint64         `json:"ordinal"`
}

// columnTypeJSON is the persisted wire shape for a sqltype.SqlType, since
// SqlType itself carries unexported fields.
type columnTypeJSON struct {
	TypeID uint8  `json:"type_id"`
	Chars  uint64 `json:"chars,omitempty"`
}

func toColumnTypeJSON(t sqltype.SqlType) columnTypeJSON {
	chars, _ := t.CharsLen()
	return columnTypeJSON{TypeID: t.TypeID(), Chars: chars}
}

func (c columnTypeJSON) sqlType() sqltype.SqlType {
	t, err := sqltype.FromTypeID(c.TypeID, c.Chars)
	if err != nil {
		// Only reachable if persisted metadata is corrupted; the catalog
		// never writes an unknown type id.
		panic(err)
	}
	return t
}

// TableDesc is the full typed description of a table, ordinal-ordered.
type TableDesc struct {
	SchemaID uint64
	TableID  uint64
	Name     string
	Columns  []ColumnDefinition
}

type tableEntry struct {
	id          uint64
	columns     []ColumnDefinition
	nextOrdinal uint64
}

type schemaEntry struct {
	id     uint64
	tables map[string]*tableEntry
}

// DataDefinition is the catalog: one process-wide instance shared across
// sessions, backed by a storage.Catalog for the row-bearing side and,
// where the back-end offers it, a storage.MetadataStore for durable
// name↔id bookkeeping.
type DataDefinition struct {
	mu      sync.RWMutex
	storage storage.Catalog
	meta    storage.MetadataStore // nil for back-ends that don't persist

	schemas map[string]*schemaEntry

	nextSchemaID uint64
	nextTableID  uint64

	logger *zap.Logger
}

// New wraps an already-open storage.Catalog (in-memory or disk) and
// reloads any persisted metadata the back-end already holds.
func New(store storage.Catalog, logger *zap.Logger) (*DataDefinition, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dd := &DataDefinition{
		storage: store,
		schemas: make(map[string]*schemaEntry),
		logger:  logger,
	}
	if meta, ok := store.(storage.MetadataStore); ok {
		dd.meta = meta
		if err := dd.reload(); err != nil {
			return nil, fmt.Errorf("catalog: reload metadata: %w", err)
		}
	}
	return dd, nil
}

const (
	schemaKeyPrefix = "schema:"
	tableKeyPrefix  = "table:"
)

type persistedSchema struct {
	ID uint64 `json:"id"`
}

type persistedTable struct {
	ID      uint64             `json:"id"`
	Columns []ColumnDefinition `json:"columns"`
}

func (dd *DataDefinition) reload() error {
	err := dd.meta.IterateSystemPrefix([]byte(schemaKeyPrefix), func(key, value []byte) bool {
		name := string(key[len(schemaKeyPrefix):])
		var ps persistedSchema
		if jsonErr := json.Unmarshal(value, &ps); jsonErr != nil {
			dd.logger.Warn("catalog: corrupt persisted schema, skipping", zap.String("schema", name), zap.Error(jsonErr))
			return true
		}
		dd.schemas[name] = &schemaEntry{id: ps.ID, tables: make(map[string]*tableEntry)}
		if ps.ID >= dd.nextSchemaID {
			dd.nextSchemaID = ps.ID + 1
		}
		return true
	})
	if err != nil {
		return err
	}

	return dd.meta.IterateSystemPrefix([]byte(tableKeyPrefix), func(key, value []byte) bool {
		rest := string(key[len(tableKeyPrefix):])
		schemaName, tableName, ok := splitQualified(rest)
		if !ok {
			return true
		}
		se, ok := dd.schemas[schemaName]
		if !ok {
			return true
		}
		var pt persistedTable
		if jsonErr := json.Unmarshal(value, &pt); jsonErr != nil {
			dd.logger.Warn("catalog: corrupt persisted table, skipping", zap.String("table", rest), zap.Error(jsonErr))
			return true
		}
		maxOrdinal := uint64(0)
		for _, c := range pt.Columns {
			if c.Ordinal+1 > maxOrdinal {
				maxOrdinal = c.Ordinal + 1
			}
		}
		se.tables[tableName] = &tableEntry{id: pt.ID, columns: pt.Columns, nextOrdinal: maxOrdinal}
		if pt.ID >= dd.nextTableID {
			dd.nextTableID = pt.ID + 1
		}
		return true
	})
}

func splitQualified(s string) (schema, table string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func (dd *DataDefinition) persistSchema(name string, e *schemaEntry) {
	if dd.meta == nil {
		return
	}
	buf, _ := json.Marshal(persistedSchema{ID: e.id})
	if err := dd.meta.PutSystem([]byte(schemaKeyPrefix+name), buf); err != nil {
		dd.logger.Warn("catalog: failed to persist schema metadata", zap.String("schema", name), zap.Error(err))
	}
}

func (dd *DataDefinition) persistTable(schemaName, tableName string, e *tableEntry) {
	if dd.meta == nil {
		return
	}
	buf, _ := json.Marshal(persistedTable{ID: e.id, Columns: e.columns})
	key := []byte(tableKeyPrefix + schemaName + "." + tableName)
	if err := dd.meta.PutSystem(key, buf); err != nil {
		dd.logger.Warn("catalog: failed to persist table metadata", zap.String("table", tableName), zap.Error(err))
	}
}

// CreateSchema creates schema_name if absent. Returns the assigned id and
// whether it was newly created (false means it already existed).
func (dd *DataDefinition) CreateSchema(schemaName string) (schemaID uint64, created bool, err error) {
	dd.mu.Lock()
	defer dd.mu.Unlock()

	if existing, ok := dd.schemas[schemaName]; ok {
		return existing.id, false, nil
	}

	if err := dd.storage.CreateSchema(schemaName); err != nil {
		return 0, false, fmt.Errorf("catalog: create schema %q: %w", schemaName, err)
	}
	id := dd.nextSchemaID
	dd.nextSchemaID++
	entry := &schemaEntry{id: id, tables: make(map[string]*tableEntry)}
	dd.schemas[schemaName] = entry
	dd.persistSchema(schemaName, entry)
	return id, true, nil
}

// DropSchema removes schema_name and all its tables. Returns NotFoundError
// if absent.
func (dd *DataDefinition) DropSchema(schemaName string) error {
	dd.mu.Lock()
	defer dd.mu.Unlock()

	entry, ok := dd.schemas[schemaName]
	if !ok {
		return &NotFoundError{Kind: NotFoundSchema, Name: schemaName}
	}
	if err := dd.storage.DropSchema(schemaName); err != nil {
		return fmt.Errorf("catalog: drop schema %q: %w", schemaName, err)
	}
	delete(dd.schemas, schemaName)
	if dd.meta != nil {
		_ = dd.meta.DeleteSystem([]byte(schemaKeyPrefix + schemaName))
		for tableName := range entry.tables {
			_ = dd.meta.DeleteSystem([]byte(tableKeyPrefix + schemaName + "." + tableName))
		}
	}
	return nil
}

// SchemaExists returns the schema's id and whether it exists.
func (dd *DataDefinition) SchemaExists(schemaName string) (uint64, bool) {
	dd.mu.RLock()
	defer dd.mu.RUnlock()
	e, ok := dd.schemas[schemaName]
	if !ok {
		return 0, false
	}
	return e.id, true
}

// CreateTable creates tableName in schemaName with the given columns,
// assigning monotonic ordinals in order. Returns the assigned ids and
// whether the table was newly created. Returns NotFoundError{Schema} if
// the schema is absent.
func (dd *DataDefinition) CreateTable(schemaName, tableName string, columns []ColumnDefinition) (schemaID, tableID uint64, created bool, err error) {
	dd.mu.Lock()
	defer dd.mu.Unlock()

	se, ok := dd.schemas[schemaName]
	if !ok {
		return 0, 0, false, &NotFoundError{Kind: NotFoundSchema, Name: schemaName}
	}
	if existing, ok := se.tables[tableName]; ok {
		return se.id, existing.id, false, nil
	}

	storageSchema, err := dd.storage.Schema(schemaName)
	if err != nil {
		return 0, 0, false, fmt.Errorf("catalog: resolve schema %q: %w", schemaName, err)
	}
	if err := storageSchema.CreateTable(tableName); err != nil {
		return 0, 0, false, fmt.Errorf("catalog: create table %q: %w", tableName, err)
	}

	id := dd.nextTableID
	dd.nextTableID++
	cols := make([]ColumnDefinition, len(columns))
	for i, c := range columns {
		cols[i] = ColumnDefinition{Name: c.Name, SqlType: c.SqlType, Ordinal: uint64(i)}
	}
	entry := &tableEntry{id: id, columns: cols, nextOrdinal: uint64(len(cols))}
	se.tables[tableName] = entry
	dd.persistTable(schemaName, tableName, entry)
	return se.id, id, true, nil
}

// DropTable removes tableName from schemaName. Returns NotFoundError with
// Kind Schema or Object depending on which level was missing.
func (dd *DataDefinition) DropTable(schemaName, tableName string) error {
	dd.mu.Lock()
	defer dd.mu.Unlock()

	se, ok := dd.schemas[schemaName]
	if !ok {
		return &NotFoundError{Kind: NotFoundSchema, Name: schemaName}
	}
	if _, ok := se.tables[tableName]; !ok {
		return &NotFoundError{Kind: NotFoundObject, Name: tableName}
	}
	storageSchema, err := dd.storage.Schema(schemaName)
	if err != nil {
		return fmt.Errorf("catalog: resolve schema %q: %w", schemaName, err)
	}
	if err := storageSchema.DropTable(tableName); err != nil {
		return fmt.Errorf("catalog: drop table %q: %w", tableName, err)
	}
	delete(se.tables, tableName)
	if dd.meta != nil {
		_ = dd.meta.DeleteSystem([]byte(tableKeyPrefix + schemaName + "." + tableName))
	}
	return nil
}

// TableExists returns the schema and table ids and whether the table
// exists; the schema-level NotFoundError is returned if the schema itself
// is absent.
func (dd *DataDefinition) TableExists(schemaName, tableName string) (schemaID, tableID uint64, found bool, err error) {
	dd.mu.RLock()
	defer dd.mu.RUnlock()
	se, ok := dd.schemas[schemaName]
	if !ok {
		return 0, 0, false, &NotFoundError{Kind: NotFoundSchema, Name: schemaName}
	}
	te, ok := se.tables[tableName]
	if !ok {
		return se.id, 0, false, nil
	}
	return se.id, te.id, true, nil
}

// TableColumns returns the ordinal-ordered column definitions for an
// existing table.
func (dd *DataDefinition) TableColumns(schemaName, tableName string) ([]ColumnDefinition, error) {
	desc, err := dd.TableDesc(schemaName, tableName)
	if err != nil {
		return nil, err
	}
	return desc.Columns, nil
}

// TableDesc returns the full typed description of an existing table.
func (dd *DataDefinition) TableDesc(schemaName, tableName string) (*TableDesc, error) {
	dd.mu.RLock()
	defer dd.mu.RUnlock()
	se, ok := dd.schemas[schemaName]
	if !ok {
		return nil, &NotFoundError{Kind: NotFoundSchema, Name: schemaName}
	}
	te, ok := se.tables[tableName]
	if !ok {
		return nil, &NotFoundError{Kind: NotFoundObject, Name: tableName}
	}
	cols := make([]ColumnDefinition, len(te.columns))
	copy(cols, te.columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })
	return &TableDesc{SchemaID: se.id, TableID: te.id, Name: tableName, Columns: cols}, nil
}

// Table resolves the storage-level row handle for an existing table, for
// the executor to drive DML/SELECT against.
func (dd *DataDefinition) Table(schemaName, tableName string) (storage.Table, error) {
	dd.mu.RLock()
	se, ok := dd.schemas[schemaName]
	if !ok {
		dd.mu.RUnlock()
		return nil, &NotFoundError{Kind: NotFoundSchema, Name: schemaName}
	}
	if _, ok := se.tables[tableName]; !ok {
		dd.mu.RUnlock()
		return nil, &NotFoundError{Kind: NotFoundObject, Name: tableName}
	}
	dd.mu.RUnlock()

	storageSchema, err := dd.storage.Schema(schemaName)
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve schema %q: %w", schemaName, err)
	}
	return storageSchema.Table(tableName)
}

// Type exposes the un-exported JSON column-type wrapper's decoded
// SqlType, for callers outside this package that only hold a
// ColumnDefinition.
func (c ColumnDefinition) Type() sqltype.SqlType { return c.SqlType.sqlType() }

// NewColumnDefinition constructs a ColumnDefinition from a plain SqlType,
// the shape callers outside this package build before calling CreateTable.
func NewColumnDefinition(name string, t sqltype.SqlType) ColumnDefinition {
	return ColumnDefinition{Name: name, SqlType: toColumnTypeJSON(t)}
}
