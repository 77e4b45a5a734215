package sqlast

import "testing"

func TestParseSimpleSelect(t *testing.T) {
	stmts, err := Parse("SELECT * FROM s.t")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	if stmts[0].Tag != "SelectStmt" {
		t.Errorf("Tag = %q, want SelectStmt", stmts[0].Tag)
	}
}

func TestParseMultipleStatements(t *testing.T) {
	stmts, err := Parse("CREATE SCHEMA s; CREATE TABLE s.t (c bool)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(stmts))
	}
	if stmts[0].Tag != "CreateSchemaStmt" {
		t.Errorf("stmts[0].Tag = %q, want CreateSchemaStmt", stmts[0].Tag)
	}
	if stmts[1].Tag != "CreateStmt" {
		t.Errorf("stmts[1].Tag = %q, want CreateStmt", stmts[1].Tag)
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse("SELECT FROM FROM"); err == nil {
		t.Fatal("expected a syntax error")
	}
}

func TestResolveTableNameViaAnalyzer(t *testing.T) {
	stmts, err := Parse("SELECT * FROM s.t")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fromClause := ListAt(stmts[0].Node, "fromClause")
	if len(fromClause) != 1 {
		t.Fatalf("fromClause len = %d, want 1", len(fromClause))
	}
	rangeVar, _ := fromClause[0].(map[string]any)
	relation := Fields(rangeVar, "RangeVar")
	schema, _ := StringAt(relation, "schemaname")
	table, _ := StringAt(relation, "relname")
	if schema != "s" || table != "t" {
		t.Errorf("resolved (%q, %q), want (s, t)", schema, table)
	}
}

func TestHasStar(t *testing.T) {
	stmts, err := Parse("SELECT * FROM s.t")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	targets := ListAt(stmts[0].Node, "targetList")
	target, _ := targets[0].(map[string]any)
	resTarget := Fields(target, "ResTarget")
	colRef := Fields(Fields(resTarget, "val"), "ColumnRef")
	if !HasStar(ListAt(colRef, "fields")) {
		t.Error("expected a star column reference")
	}
}

func TestNameParts(t *testing.T) {
	stmts, err := Parse("SELECT c FROM s.t")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	targets := ListAt(stmts[0].Node, "targetList")
	target, _ := targets[0].(map[string]any)
	resTarget := Fields(target, "ResTarget")
	colRef := Fields(Fields(resTarget, "val"), "ColumnRef")
	parts := NameParts(ListAt(colRef, "fields"))
	if len(parts) != 1 || parts[0] != "c" {
		t.Errorf("NameParts = %v, want [c]", parts)
	}
}
