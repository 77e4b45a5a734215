// Package memory is the volatile storage back-end: an ordered map guarded
// by a reader/writer lock for records, atomic counters for identifiers,
// and a lock-guarded map for the schema/table namespace.
package memory

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tolledo/database/internal/storage"
	"github.com/tolledo/database/pkg/binary"
)

// Table is the volatile per-table handle: an RWMutex-guarded map of
// packed key to packed value, plus atomic record-id/column-ordinal
// counters. Go's map has no ordered iteration, so Table keeps a
// separately maintained sorted key index, updated under the same lock
// as the records it indexes.
type Table struct {
	mu         sync.RWMutex
	records    map[string]binary.Binary
	order      []string // sorted keys, kept in sync with records
	recordID   atomic.Uint64
	columnOrds atomic.Uint64
}

func NewTable() *Table {
	return &Table{records: make(map[string]binary.Binary)}
}

func (t *Table) Select() *storage.Cursor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]storage.Row, 0, len(t.order))
	for _, k := range t.order {
		rows = append(rows, storage.Row{Key: binary.Binary(k), Value: t.records[k]})
	}
	return storage.NewCursor(rows)
}

func (t *Table) Insert(values []binary.Binary) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, value := range values {
		id := t.recordID.Add(1) - 1
		key := string(binary.PackRecordID(id))
		if _, exists := t.records[key]; exists {
			// Monotonic counters guarantee this never happens; a panic
			// here would indicate corrupted internal state.
			panic("memory: record-id collision")
		}
		t.records[key] = value
		t.insertSorted(key)
	}
	return len(values), nil
}

func (t *Table) Update(pairs []storage.Row) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, p := range pairs {
		key := string(p.Key)
		if _, exists := t.records[key]; !exists {
			continue
		}
		t.records[key] = p.Value
		count++
	}
	return count, nil
}

func (t *Table) Delete(keys []binary.Binary) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	toDelete := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		toDelete[string(k)] = struct{}{}
	}
	count := 0
	newOrder := t.order[:0:0]
	for _, k := range t.order {
		if _, found := toDelete[k]; found {
			delete(t.records, k)
			count++
			continue
		}
		newOrder = append(newOrder, k)
	}
	t.order = newOrder
	return count, nil
}

func (t *Table) NextColumnOrd() uint64 {
	return t.columnOrds.Add(1) - 1
}

func (t *Table) insertSorted(key string) {
	i := sort.SearchStrings(t.order, key)
	t.order = append(t.order, "")
	copy(t.order[i+1:], t.order[i:])
	t.order[i] = key
}

// Schema is the volatile per-schema table namespace.
type Schema struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewSchema() *Schema {
	return &Schema{tables: make(map[string]*Table)}
}

func (s *Schema) CreateTable(tableName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[tableName]; exists {
		return storage.ErrAlreadyExists
	}
	s.tables[tableName] = NewTable()
	return nil
}

func (s *Schema) DropTable(tableName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[tableName]; !exists {
		return storage.ErrNotFound
	}
	delete(s.tables, tableName)
	return nil
}

func (s *Schema) Table(tableName string) (storage.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, exists := s.tables[tableName]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return t, nil
}

// Catalog is the volatile top-level schema namespace.
type Catalog struct {
	mu      sync.RWMutex
	schemas map[string]*Schema

	sysMu sync.RWMutex
	sys   map[string][]byte
}

func NewCatalog() *Catalog {
	return &Catalog{
		schemas: make(map[string]*Schema),
		sys:     make(map[string][]byte),
	}
}

// PutSystem, GetSystem, DeleteSystem, and IterateSystemPrefix implement
// storage.MetadataStore with a plain guarded map; there is nothing to
// persist in the volatile back-end, so this is just bookkeeping shared
// with internal/catalog's name↔id tables for the lifetime of the process.
func (c *Catalog) PutSystem(key, value []byte) error {
	c.sysMu.Lock()
	defer c.sysMu.Unlock()
	c.sys[string(key)] = append([]byte(nil), value...)
	return nil
}

func (c *Catalog) GetSystem(key []byte) ([]byte, bool, error) {
	c.sysMu.RLock()
	defer c.sysMu.RUnlock()
	v, ok := c.sys[string(key)]
	return v, ok, nil
}

func (c *Catalog) DeleteSystem(key []byte) error {
	c.sysMu.Lock()
	defer c.sysMu.Unlock()
	delete(c.sys, string(key))
	return nil
}

func (c *Catalog) IterateSystemPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	c.sysMu.RLock()
	keys := make([]string, 0, len(c.sys))
	for k := range c.sys {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	type kv struct {
		k string
		v []byte
	}
	snapshot := make([]kv, 0, len(keys))
	for _, k := range keys {
		snapshot = append(snapshot, kv{k: k, v: c.sys[k]})
	}
	c.sysMu.RUnlock()

	for _, e := range snapshot {
		if !fn([]byte(e.k), e.v) {
			break
		}
	}
	return nil
}

func (c *Catalog) CreateSchema(schemaName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.schemas[schemaName]; exists {
		return storage.ErrAlreadyExists
	}
	c.schemas[schemaName] = NewSchema()
	return nil
}

func (c *Catalog) DropSchema(schemaName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.schemas[schemaName]; !exists {
		return storage.ErrNotFound
	}
	delete(c.schemas, schemaName)
	return nil
}

func (c *Catalog) Schema(schemaName string) (storage.Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, exists := c.schemas[schemaName]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return s, nil
}
