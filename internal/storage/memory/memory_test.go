package memory

import (
	"testing"

	faker "github.com/go-faker/faker/v4"

	"github.com/tolledo/database/internal/storage"
	"github.com/tolledo/database/pkg/binary"
	"github.com/tolledo/database/pkg/sqltype"
)

func packRow(v sqltype.Datum) binary.Binary {
	return binary.Pack([]sqltype.Datum{v})
}

func TestInsertSelectOrder(t *testing.T) {
	table := NewTable()
	vals := []binary.Binary{
		packRow(sqltype.FromInt32(1)),
		packRow(sqltype.FromInt32(2)),
		packRow(sqltype.FromInt32(3)),
	}
	if _, err := table.Insert(vals); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rows := table.Select().Collect()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, row := range rows {
		wantKey := binary.PackRecordID(uint64(i))
		if string(row.Key) != string(wantKey) {
			t.Errorf("row %d key mismatch", i)
		}
		cells, err := binary.Unpack(row.Value)
		if err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		n, _ := cells[0].Number()
		if n.IntPart() != int64(i+1) {
			t.Errorf("row %d value = %v, want %d", i, n, i+1)
		}
	}
}

func TestRecordIDMonotonicAcrossDelete(t *testing.T) {
	table := NewTable()
	vals := []binary.Binary{packRow(sqltype.FromInt32(1)), packRow(sqltype.FromInt32(2))}
	table.Insert(vals)

	rows := table.Select().Collect()
	table.Delete([]binary.Binary{rows[0].Key})

	table.Insert([]binary.Binary{packRow(sqltype.FromInt32(3))})
	rows = table.Select().Collect()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	newKey := rows[len(rows)-1].Key
	if string(newKey) == string(binary.PackRecordID(0)) {
		t.Error("record-id 0 was reused after delete")
	}
	if string(newKey) != string(binary.PackRecordID(2)) {
		t.Errorf("new key = %v, want record-id 2", newKey)
	}
}

func TestUpdateByKey(t *testing.T) {
	table := NewTable()
	table.Insert([]binary.Binary{packRow(sqltype.FromInt32(1)), packRow(sqltype.FromInt32(2))})
	rows := table.Select().Collect()

	n, err := table.Update([]storage.Row{{Key: rows[1].Key, Value: packRow(sqltype.FromInt32(4))}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 1 {
		t.Fatalf("Update returned %d, want 1", n)
	}

	rows = table.Select().Collect()
	cells, _ := binary.Unpack(rows[1].Value)
	got, _ := cells[0].Number()
	if got.IntPart() != 4 {
		t.Errorf("updated value = %v, want 4", got)
	}
}

func TestDeleteByKey(t *testing.T) {
	table := NewTable()
	table.Insert([]binary.Binary{packRow(sqltype.FromInt32(1)), packRow(sqltype.FromInt32(2))})
	rows := table.Select().Collect()

	n, err := table.Delete([]binary.Binary{rows[1].Key})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("Delete returned %d, want 1", n)
	}
	rows = table.Select().Collect()
	if len(rows) != 1 {
		t.Fatalf("got %d rows after delete, want 1", len(rows))
	}
}

func TestCreateDropRecreateSchema(t *testing.T) {
	cat := NewCatalog()
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
	if err := cat.DropSchema("s"); err != nil {
		t.Fatalf("DropSchema: %v", err)
	}
	if err := cat.CreateSchema("s"); err != nil {
		t.Fatalf("re-CreateSchema: %v", err)
	}
	schema, err = cat.Schema("s")
	if err != nil {
		t.Fatalf("Schema after recreate: %v", err)
	}
	if _, err := schema.Table("t"); err == nil {
		t.Error("table t should not survive schema drop+recreate")
	}
}

// TestInsertSelectRandomFixtures round-trips faker-generated string rows,
// checking that record-id ordering holds regardless of payload content.
func TestInsertSelectRandomFixtures(t *testing.T) {
	table := NewTable()
	const n = 25
	want := make([]string, n)
	rows := make([]binary.Binary, n)
	for i := 0; i < n; i++ {
		want[i] = faker.Word()
		rows[i] = packRow(sqltype.FromString(want[i]))
	}
	if _, err := table.Insert(rows); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got := table.Select().Collect()
	if len(got) != n {
		t.Fatalf("got %d rows, want %d", len(got), n)
	}
	for i, row := range got {
		cells, err := binary.Unpack(row.Value)
		if err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		s, _ := cells[0].String()
		if s != want[i] {
			t.Errorf("row %d = %q, want %q", i, s, want[i])
		}
	}
}
