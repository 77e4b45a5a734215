// Package sqlast wraps pg_query_go's real PostgreSQL grammar parser and
// exposes the typed helpers the analyzer needs to walk its JSON AST:
// plain map[string]any descent, "String" node unwrapping, and name-list
// extraction shared by every DDL/DML statement shape.
package sqlast

import (
	"encoding/json"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Statement is one parsed top-level statement's raw JSON AST node, e.g.
// the value under "CreateStmt", "InsertStmt", "SelectStmt"...
type Statement struct {
	// Tag is the single key of the raw stmt node ("CreateStmt",
	// "InsertStmt", "SelectStmt", "DropStmt", "VariableSetStmt", ...).
	Tag  string
	Node map[string]any
}

// Parse runs the real grammar parser over sql and returns one Statement
// per top-level statement it contains.
func Parse(sql string) ([]Statement, error) {
	raw, err := pg_query.ParseToJSON(sql)
	if err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("sqlast: invalid json ast: %w", err)
	}

	stmtsAny, _ := tree["stmts"].([]any)
	out := make([]Statement, 0, len(stmtsAny))
	for _, s := range stmtsAny {
		wrapper, ok := s.(map[string]any)["stmt"].(map[string]any)
		if !ok {
			continue
		}
		for tag, node := range wrapper {
			nodeMap, _ := node.(map[string]any)
			out = append(out, Statement{Tag: tag, Node: nodeMap})
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("syntax error: no statements")
	}
	return out, nil
}

// Fields returns a nested map at key from n, or nil if absent/wrong shape.
func Fields(n map[string]any, key string) map[string]any {
	m, _ := n[key].(map[string]any)
	return m
}

// ListAt returns a []any at key from n, or nil.
func ListAt(n map[string]any, key string) []any {
	l, _ := n[key].([]any)
	return l
}

// StringAt returns the string at key from n, and whether it was present.
func StringAt(n map[string]any, key string) (string, bool) {
	s, ok := n[key].(string)
	return s, ok
}

// UnwrapString pulls the scalar out of a pg_query "String" AST node,
// handling both the "sval" (v6) and "str" (older grammars) field names.
func UnwrapString(node map[string]any) (string, bool) {
	s, ok := node["String"].(map[string]any)
	if !ok {
		return "", false
	}
	if v, ok := s["sval"].(string); ok {
		return v, true
	}
	if v, ok := s["str"].(string); ok {
		return v, true
	}
	return "", false
}

// NameParts walks a "names"/"fields"-shaped list of String nodes (used by
// both ObjectName.Names and ColumnRef.Fields) and returns the plain
// component strings in order, skipping anything that isn't a String node
// (e.g. an A_Star marker).
func NameParts(list []any) []string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := UnwrapString(m); ok {
			parts = append(parts, v)
		}
	}
	return parts
}

// HasStar reports whether list (a ColumnRef.Fields list) contains an
// A_Star marker, i.e. the column reference is "table.*" or "*".
func HasStar(list []any) bool {
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if _, ok := m["A_Star"]; ok {
				return true
			}
		}
	}
	return false
}
