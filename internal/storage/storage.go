// Package storage defines the capability interfaces shared by the two
// interchangeable back-ends (internal/storage/memory, internal/storage/disk):
// a two-level schema → table namespace of ordered key/value stores with
// insert/update/delete/scan and monotonic record-id generation.
//
// Lookups resolve one level at a time: Catalog.Schema returns ErrNotFound
// for a missing schema, Schema.Table returns ErrNotFound for a missing
// table inside an existing schema, so the two absences stay structurally
// distinguishable all the way up to the user-facing error taxonomy.
package storage

import (
	"errors"

	"github.com/tolledo/database/pkg/binary"
)

// ErrNotFound is returned by Catalog.Schema and Schema.Table when the
// requested name is absent.
var ErrNotFound = errors.New("storage: not found")

// ErrAlreadyExists is returned by CreateSchema/CreateTable when the name
// is already taken, so callers that need a created/existed signal can
// recover it with errors.Is(err, ErrAlreadyExists) without losing Go's
// normal error idiom.
var ErrAlreadyExists = errors.New("storage: already exists")

// Row is a single (key, value) pair as stored and scanned.
type Row struct {
	Key   binary.Binary
	Value binary.Binary
}

// Cursor is a finite, forward-only snapshot sequence of Rows, ordered by
// key. Concurrent mutations after the cursor is created are not visible
// to it.
type Cursor struct {
	rows []Row
	pos  int
}

func NewCursor(rows []Row) *Cursor { return &Cursor{rows: rows} }

// Next returns the next row and true, or a zero Row and false once
// exhausted.
func (c *Cursor) Next() (Row, bool) {
	if c == nil || c.pos >= len(c.rows) {
		return Row{}, false
	}
	r := c.rows[c.pos]
	c.pos++
	return r, true
}

// Collect drains the remainder of the cursor into a slice; mainly useful
// in tests and the executor's full-table scan for DELETE.
func (c *Cursor) Collect() []Row {
	if c == nil {
		return nil
	}
	out := make([]Row, 0, len(c.rows)-c.pos)
	for {
		r, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}

// Table is the per-table storage contract.
type Table interface {
	// Select returns a point-in-time cursor over all rows in key order.
	Select() *Cursor
	// Insert allocates the next record-id for each value, packs it as the
	// key, and stores the pair. Returns the count inserted.
	Insert(values []binary.Binary) (int, error)
	// Update replaces the value for each already-present key. Every key
	// must already exist; returns the count updated.
	Update(pairs []Row) (int, error)
	// Delete removes each present key; returns the count removed.
	Delete(keys []binary.Binary) (int, error)
	// NextColumnOrd monotonically allocates a column ordinal.
	NextColumnOrd() uint64
}

// Schema is the per-schema table namespace contract.
type Schema interface {
	// CreateTable creates table_name if absent. Returns ErrAlreadyExists
	// if it was already present.
	CreateTable(tableName string) error
	// DropTable removes table_name. Returns ErrNotFound if absent.
	DropTable(tableName string) error
	// Table looks up a table handle. Returns ErrNotFound if absent.
	Table(tableName string) (Table, error)
}

// Catalog is the top-level schema namespace contract.
type Catalog interface {
	// CreateSchema creates schema_name if absent. Returns ErrAlreadyExists
	// if it was already present.
	CreateSchema(schemaName string) error
	// DropSchema removes schema_name and everything it contains. Returns
	// ErrNotFound if absent.
	DropSchema(schemaName string) error
	// Schema looks up a schema handle. Returns ErrNotFound if absent.
	Schema(schemaName string) (Schema, error)
}

// MetadataStore is an optional capability a Catalog back-end may offer: a
// flat, reserved key range for the catalog layer's own name↔id bookkeeping
// (internal/catalog), so a durable back-end can reconstruct identical ids
// after a restart. The in-memory back-end implements it with a plain
// guarded map; the disk back-end implements it with the reserved "system"
// bbolt bucket.
type MetadataStore interface {
	PutSystem(key, value []byte) error
	GetSystem(key []byte) (value []byte, found bool, err error)
	DeleteSystem(key []byte) error
	IterateSystemPrefix(prefix []byte, fn func(key, value []byte) bool) error
}
