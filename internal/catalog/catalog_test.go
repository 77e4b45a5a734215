package catalog

import (
	"testing"

	"github.com/tolledo/database/internal/storage/memory"
	"github.com/tolledo/database/pkg/sqltype"
)

func newTestDD(t *testing.T) *DataDefinition {
	t.Helper()
	dd, err := New(memory.NewCatalog(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return dd
}

func TestCreateDropRecreateSchemaEmpties(t *testing.T) {
	dd := newTestDD(t)
	if _, _, err := dd.CreateSchema("s"); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	if _, _, _, err := dd.CreateTable("s", "t", []ColumnDefinition{NewColumnDefinition("c", sqltype.Bool)}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := dd.DropSchema("s"); err != nil {
		t.Fatalf("DropSchema: %v", err)
	}
	if _, _, err := dd.CreateSchema("s"); err != nil {
		t.Fatalf("re-CreateSchema: %v", err)
	}
	if _, _, found, err := dd.TableExists("s", "t"); err != nil || found {
		t.Errorf("table t should not survive drop+recreate: found=%v err=%v", found, err)
	}
}

func TestCreateSchemaIdempotentReturnsSameID(t *testing.T) {
	dd := newTestDD(t)
	id1, created1, err := dd.CreateSchema("s")
	if err != nil || !created1 {
		t.Fatalf("first CreateSchema: id=%d created=%v err=%v", id1, created1, err)
	}
	id2, created2, err := dd.CreateSchema("s")
	if err != nil {
		t.Fatalf("second CreateSchema: %v", err)
	}
	if created2 {
		t.Error("second CreateSchema should report created=false")
	}
	if id1 != id2 {
		t.Errorf("schema id changed across idempotent create: %d != %d", id1, id2)
	}
}

func TestCreateTableNoSchemaReturnsNotFoundSchema(t *testing.T) {
	dd := newTestDD(t)
	_, _, _, err := dd.CreateTable("missing", "t", nil)
	nf, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Kind != NotFoundSchema {
		t.Errorf("Kind = %v, want NotFoundSchema", nf.Kind)
	}
}

func TestDropTableMissingObjectKind(t *testing.T) {
	dd := newTestDD(t)
	dd.CreateSchema("s")
	err := dd.DropTable("s", "missing")
	nf, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Kind != NotFoundObject {
		t.Errorf("Kind = %v, want NotFoundObject", nf.Kind)
	}
}

func TestTableDescOrdinalOrder(t *testing.T) {
	dd := newTestDD(t)
	dd.CreateSchema("s")
	cols := []ColumnDefinition{
		NewColumnDefinition("a", sqltype.Integer),
		NewColumnDefinition("b", sqltype.VarChar(10)),
	}
	dd.CreateTable("s", "t", cols)

	desc, err := dd.TableDesc("s", "t")
	if err != nil {
		t.Fatalf("TableDesc: %v", err)
	}
	if len(desc.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(desc.Columns))
	}
	if desc.Columns[0].Name != "a" || desc.Columns[1].Name != "b" {
		t.Errorf("columns out of order: %+v", desc.Columns)
	}
	if !desc.Columns[0].Type().Equal(sqltype.Integer) {
		t.Errorf("column a type = %v, want Integer", desc.Columns[0].Type())
	}
}

func TestReloadFromPersistedMetadata(t *testing.T) {
	store := memory.NewCatalog()
	dd, err := New(store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dd.CreateSchema("s")
	dd.CreateTable("s", "t", []ColumnDefinition{NewColumnDefinition("c", sqltype.Bool)})

	dd2, err := New(store, nil)
	if err != nil {
		t.Fatalf("re-New: %v", err)
	}
	if _, ok := dd2.SchemaExists("s"); !ok {
		t.Error("reloaded DataDefinition should know about schema s")
	}
	desc, err := dd2.TableDesc("s", "t")
	if err != nil {
		t.Fatalf("TableDesc after reload: %v", err)
	}
	if len(desc.Columns) != 1 || desc.Columns[0].Name != "c" {
		t.Errorf("reloaded columns = %+v", desc.Columns)
	}
}
