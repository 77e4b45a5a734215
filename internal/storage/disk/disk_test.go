package disk

import (
	"path/filepath"
	"testing"

	"github.com/tolledo/database/internal/storage"
	"github.com/tolledo/database/pkg/binary"
	"github.com/tolledo/database/pkg/sqltype"
)

func openTemp(t *testing.T) (*Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat, path
}

func TestCreateSchemaTableInsertSelect(t *testing.T) {
	cat, _ := openTemp(t)
	if err := cat.CreateSchema("s"); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	schema, err := cat.Schema("s")
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if err := schema.CreateTable("t"); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	table, err := schema.Table("t")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}

	row := binary.Pack([]sqltype.Datum{sqltype.FromBool(true)})
	if _, err := table.Insert([]binary.Binary{row, row}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows := table.Select().Collect()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for i, r := range rows {
		if string(r.Key) != string(binary.PackRecordID(uint64(i))) {
			t.Errorf("row %d key mismatch", i)
		}
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := cat.CreateSchema("s"); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	schema, _ := cat.Schema("s")
	schema.CreateTable("t")
	table, _ := schema.Table("t")
	row := binary.Pack([]sqltype.Datum{sqltype.FromBool(true)})
	table.Insert([]binary.Binary{row})
	if err := cat.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	defer reopened.Close()

	schema, err = reopened.Schema("s")
	if err != nil {
		t.Fatalf("Schema after reopen: %v", err)
	}
	table, err = schema.Table("t")
	if err != nil {
		t.Fatalf("Table after reopen: %v", err)
	}
	rows := table.Select().Collect()
	if len(rows) != 1 {
		t.Fatalf("got %d rows after reopen, want 1", len(rows))
	}
	cells, err := binary.Unpack(rows[0].Value)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	b, _ := cells[0].Bool()
	if !b {
		t.Error("reopened row value should still be true")
	}
}

func TestDropSchemaNotFound(t *testing.T) {
	cat, _ := openTemp(t)
	if err := cat.DropSchema("missing"); err != storage.ErrNotFound {
		t.Errorf("DropSchema(missing) = %v, want ErrNotFound", err)
	}
}

func TestCreateSchemaAlreadyExists(t *testing.T) {
	cat, _ := openTemp(t)
	cat.CreateSchema("s")
	if err := cat.CreateSchema("s"); err != storage.ErrAlreadyExists {
		t.Errorf("CreateSchema(dup) = %v, want ErrAlreadyExists", err)
	}
}

func TestSystemMetadataCRUD(t *testing.T) {
	cat, _ := openTemp(t)
	if err := cat.PutSystem([]byte("schema:s"), []byte(`{"id":0}`)); err != nil {
		t.Fatalf("PutSystem: %v", err)
	}
	v, found, err := cat.GetSystem([]byte("schema:s"))
	if err != nil || !found {
		t.Fatalf("GetSystem: %v found=%v", err, found)
	}
	if string(v) != `{"id":0}` {
		t.Errorf("GetSystem value = %s", v)
	}
	var seen []string
	cat.IterateSystemPrefix([]byte("schema:"), func(key, value []byte) bool {
		seen = append(seen, string(key))
		return true
	})
	if len(seen) != 1 || seen[0] != "schema:s" {
		t.Errorf("IterateSystemPrefix = %v", seen)
	}
	if err := cat.DeleteSystem([]byte("schema:s")); err != nil {
		t.Fatalf("DeleteSystem: %v", err)
	}
	if _, found, _ := cat.GetSystem([]byte("schema:s")); found {
		t.Error("key should be gone after DeleteSystem")
	}
}
