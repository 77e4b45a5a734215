// Package disk is the durable storage back-end: each table maps to a
// keyed bucket in an embedded ordered key-value store (go.etcd.io/bbolt),
// nested under its schema's bucket, with the table's counters kept under
// reserved keys inside it; a reserved "system" bucket holds the catalog
// layer's own name↔id bookkeeping. Opening the same
// path again re-reads that metadata and reconstructs identical handles.
package disk

import (
	"bytes"
	stdbinary "encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/tolledo/database/internal/storage"
	"github.com/tolledo/database/pkg/binary"
)

const (
	systemBucket    = "system"
	schemaBucketFmt = "schema/%s"
	tableBucketFmt  = "table/%s"
)

var (
	recordIDCounterKey  = []byte("__meta_record_id__")
	columnOrdCounterKey = []byte("__meta_col_ord__")
)

// Catalog is the durable top-level schema namespace, opened from a single
// bbolt file.
type Catalog struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the durable catalog rooted at path and
// ensures the reserved system bucket exists.
func Open(path string) (*Catalog, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(systemBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("disk: init system bucket: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close flushes and releases the underlying file. Metadata mutations are
// fsynced by bbolt on every committed write transaction, so Close needs no
// extra flush.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) CreateSchema(schemaName string) error {
	name := []byte(fmt.Sprintf(schemaBucketFmt, schemaName))
	return c.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(name) != nil {
			return storage.ErrAlreadyExists
		}
		_, err := tx.CreateBucket(name)
		return err
	})
}

func (c *Catalog) DropSchema(schemaName string) error {
	name := []byte(fmt.Sprintf(schemaBucketFmt, schemaName))
	return c.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(name) == nil {
			return storage.ErrNotFound
		}
		return tx.DeleteBucket(name)
	})
}

func (c *Catalog) Schema(schemaName string) (storage.Schema, error) {
	name := []byte(fmt.Sprintf(schemaBucketFmt, schemaName))
	var exists bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(name) != nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &Schema{db: c.db, bucketName: name}, nil
}

func (c *Catalog) PutSystem(key, value []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(systemBucket)).Put(key, value)
	})
}

func (c *Catalog) GetSystem(key []byte) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(systemBucket)).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (c *Catalog) DeleteSystem(key []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(systemBucket)).Delete(key)
	})
}

func (c *Catalog) IterateSystemPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	return c.db.View(func(tx *bbolt.Tx) error {
		cur := tx.Bucket([]byte(systemBucket)).Cursor()
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			keyCopy := append([]byte(nil), k...)
			valCopy := append([]byte(nil), v...)
			if !fn(keyCopy, valCopy) {
				break
			}
		}
		return nil
	})
}

// Schema is the durable per-schema table namespace: a single bbolt bucket
// holding one nested bucket per table.
type Schema struct {
	db         *bbolt.DB
	bucketName []byte
}

func (s *Schema) CreateTable(tableName string) error {
	name := []byte(fmt.Sprintf(tableBucketFmt, tableName))
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketName)
		if b.Bucket(name) != nil {
			return storage.ErrAlreadyExists
		}
		_, err := b.CreateBucket(name)
		return err
	})
}

func (s *Schema) DropTable(tableName string) error {
	name := []byte(fmt.Sprintf(tableBucketFmt, tableName))
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketName)
		if b.Bucket(name) == nil {
			return storage.ErrNotFound
		}
		return b.DeleteBucket(name)
	})
}

func (s *Schema) Table(tableName string) (storage.Table, error) {
	name := []byte(fmt.Sprintf(tableBucketFmt, tableName))
	var exists bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(s.bucketName).Bucket(name) != nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &Table{db: s.db, schemaBucketName: s.bucketName, tableBucketName: name}, nil
}

// Table is the durable per-table record store: a bbolt bucket nested
// inside its schema's bucket, record keys mapped directly to packed
// values, plus two reserved metadata keys holding the monotonic counters.
type Table struct {
	db               *bbolt.DB
	schemaBucketName []byte
	tableBucketName  []byte
}

func (t *Table) bucket(tx *bbolt.Tx) *bbolt.Bucket {
	return tx.Bucket(t.schemaBucketName).Bucket(t.tableBucketName)
}

func (t *Table) Select() *storage.Cursor {
	var rows []storage.Row
	_ = t.db.View(func(tx *bbolt.Tx) error {
		b := t.bucket(tx)
		cur := b.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			if isMetaKey(k) {
				continue
			}
			rows = append(rows, storage.Row{
				Key:   append(binary.Binary(nil), k...),
				Value: append(binary.Binary(nil), v...),
			})
		}
		return nil
	})
	return storage.NewCursor(rows)
}

func (t *Table) Insert(values []binary.Binary) (int, error) {
	err := t.db.Update(func(tx *bbolt.Tx) error {
		b := t.bucket(tx)
		next := counterValue(b, recordIDCounterKey)
		for _, value := range values {
			key := binary.PackRecordID(next)
			if err := b.Put(key, value); err != nil {
				return err
			}
			next++
		}
		return setCounter(b, recordIDCounterKey, next)
	})
	if err != nil {
		return 0, err
	}
	return len(values), nil
}

func (t *Table) Update(pairs []storage.Row) (int, error) {
	count := 0
	err := t.db.Update(func(tx *bbolt.Tx) error {
		b := t.bucket(tx)
		for _, p := range pairs {
			if b.Get(p.Key) == nil {
				continue
			}
			if err := b.Put(p.Key, p.Value); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (t *Table) Delete(keys []binary.Binary) (int, error) {
	count := 0
	err := t.db.Update(func(tx *bbolt.Tx) error {
		b := t.bucket(tx)
		for _, k := range keys {
			if b.Get(k) == nil {
				continue
			}
			if err := b.Delete(k); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (t *Table) NextColumnOrd() uint64 {
	var ord uint64
	_ = t.db.Update(func(tx *bbolt.Tx) error {
		b := t.bucket(tx)
		ord = counterValue(b, columnOrdCounterKey)
		return setCounter(b, columnOrdCounterKey, ord+1)
	})
	return ord
}

func isMetaKey(k []byte) bool {
	return bytes.Equal(k, recordIDCounterKey) || bytes.Equal(k, columnOrdCounterKey)
}

func counterValue(b *bbolt.Bucket, key []byte) uint64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return stdbinary.BigEndian.Uint64(v)
}

func setCounter(b *bbolt.Bucket, key []byte, value uint64) error {
	buf := make([]byte, 8)
	stdbinary.BigEndian.PutUint64(buf, value)
	return b.Put(key, buf)
}
