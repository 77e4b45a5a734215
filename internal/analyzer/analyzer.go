package analyzer

import (
	"strings"

	"github.com/tolledo/database/internal/catalog"
	"github.com/tolledo/database/internal/sqlast"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// Analyze lowers one parsed statement into a Description, resolving every
// name it references against dd. The pg_query_go AST shapes walked here
// (RangeVar.{catalogname,schemaname,relname}, CreateStmt.tableElts wrapping
// ColumnDef, DropStmt.objects, InsertStmt/UpdateStmt/DeleteStmt/SelectStmt's
// relation+targetList+whereClause) follow libpg_query's published grammar.
func Analyze(stmt sqlast.Statement, dd *catalog.DataDefinition) (Description, *pgwire.QueryError) {
	switch stmt.Tag {
	case "CreateSchemaStmt":
		return analyzeCreateSchema(stmt.Node)
	case "DropStmt":
		return analyzeDrop(stmt.Node)
	case "CreateStmt":
		return analyzeCreateTable(stmt.Node, dd)
	case "InsertStmt":
		return analyzeInsert(stmt.Node, dd)
	case "UpdateStmt":
		return analyzeUpdate(stmt.Node, dd)
	case "DeleteStmt":
		return analyzeDelete(stmt.Node, dd)
	case "SelectStmt":
		return analyzeSelect(stmt.Node, dd)
	case "VariableSetStmt":
		return NotProcessedDescription{IsSet: true}, nil
	default:
		return NotProcessedDescription{}, nil
	}
}

// resolveTableName splits a RangeVar into its schema and table components,
// enforcing the exactly-two-part qualification rule: a bare name (no
// schemaname) or an over-qualified one (catalogname present) both fail
// with table_naming_error.
func resolveTableName(relation map[string]any) (schema, table string, qerr *pgwire.QueryError) {
	relname, _ := sqlast.StringAt(relation, "relname")
	schemaname, hasSchema := sqlast.StringAt(relation, "schemaname")
	catalogname, hasCatalog := sqlast.StringAt(relation, "catalogname")

	if hasCatalog && catalogname != "" {
		return "", "", pgwire.TableNamingError(
			"Unable to process table name '" + catalogname + "." + schemaname + "." + relname + "'. Only qualified schema.table names are supported")
	}
	if !hasSchema || schemaname == "" {
		return "", "", pgwire.TableNamingError(
			"Unsupported table name '" + relname + "'. All table names must be qualified")
	}
	return schemaname, relname, nil
}

func analyzeCreateSchema(node map[string]any) (Description, *pgwire.QueryError) {
	name, _ := sqlast.StringAt(node, "schemaname")
	ifNotExists, _ := node["ifNotExists"].(bool)
	return CreateSchemaDescription{Name: name, IfNotExists: ifNotExists}, nil
}

// analyzeDrop handles DROP SCHEMA and DROP TABLE; removeType distinguishes
// them ("OBJECT_SCHEMA" vs "OBJECT_TABLE"), and each entry in objects is
// either a bare String node (DROP SCHEMA) or a List of String nodes
// (DROP TABLE's dotted qualified_name). Both forms accept multiple
// comma-separated targets in one statement.
func analyzeDrop(node map[string]any) (Description, *pgwire.QueryError) {
	removeType, _ := sqlast.StringAt(node, "removeType")
	objects := sqlast.ListAt(node, "objects")
	if len(objects) == 0 {
		return nil, pgwire.SyntaxError("DROP requires at least one object")
	}
	missingOk, _ := node["missingOk"].(bool)
	behavior, _ := sqlast.StringAt(node, "behavior")
	cascade := behavior == "DROP_CASCADE"

	switch removeType {
	case "OBJECT_SCHEMA":
		names := make([]string, 0, len(objects))
		for _, raw := range objects {
			obj, _ := raw.(map[string]any)
			name, ok := sqlast.UnwrapString(obj)
			if !ok {
				return nil, pgwire.SyntaxError("malformed DROP SCHEMA target")
			}
			names = append(names, name)
		}
		return DropSchemaDescription{Names: names, MissingOk: missingOk, Cascade: cascade}, nil
	default:
		tables := make([]QualifiedTable, 0, len(objects))
		for _, raw := range objects {
			obj, _ := raw.(map[string]any)
			parts := objectNameParts(obj)
			if len(parts) != 2 {
				return nil, pgwire.TableNamingError(
					"Unsupported table name '" + strings.Join(parts, ".") + "'. All table names must be qualified")
			}
			tables = append(tables, QualifiedTable{SchemaName: parts[0], TableName: parts[1]})
		}
		return DropTableDescription{Tables: tables, MissingOk: missingOk, Cascade: cascade}, nil
	}
}

// objectNameParts reads one DropStmt.objects entry, which pg_query
// represents as a "List" of String nodes for a dotted qualified_name, or a
// lone String node for a single-component name.
func objectNameParts(node map[string]any) []string {
	if list := sqlast.Fields(node, "List"); list != nil {
		return sqlast.NameParts(sqlast.ListAt(list, "items"))
	}
	if name, ok := sqlast.UnwrapString(node); ok {
		return []string{name}
	}
	return nil
}

func analyzeCreateTable(node map[string]any, dd *catalog.DataDefinition) (Description, *pgwire.QueryError) {
	relation := sqlast.Fields(node, "relation")
	schemaName, tableName, qerr := resolveTableName(relation)
	if qerr != nil {
		return nil, qerr
	}
	if _, ok := dd.SchemaExists(schemaName); !ok {
		return nil, pgwire.SchemaDoesNotExist(schemaName)
	}

	ifNotExists, _ := node["ifNotExists"].(bool)

	seen := make(map[string]bool)
	var columns []ColumnDef
	for _, raw := range sqlast.ListAt(node, "tableElts") {
		elt, _ := raw.(map[string]any)
		colDef := sqlast.Fields(elt, "ColumnDef")
		if colDef == nil {
			continue
		}
		colName, _ := sqlast.StringAt(colDef, "colname")
		if seen[colName] {
			return nil, pgwire.DuplicateColumn(colName)
		}
		seen[colName] = true

		sqlType, qerr := resolveColumnType(colDef)
		if qerr != nil {
			return nil, qerr
		}
		columns = append(columns, ColumnDef{Name: colName, Type: sqlType})
	}

	return CreateTableDescription{
		SchemaName:  schemaName,
		TableName:   tableName,
		Columns:     columns,
		IfNotExists: ifNotExists,
	}, nil
}

// resolveColumnType reads a ColumnDef's TypeName node: Names is the
// dotted/possibly-pg_catalog-qualified type name (last component is the
// bare type keyword); Typmods carries any declared length argument.
func resolveColumnType(colDef map[string]any) (sqltype.SqlType, *pgwire.QueryError) {
	typeName := sqlast.Fields(colDef, "typeName")
	if typeName == nil {
		return sqltype.SqlType{}, pgwire.TypeIsNotSupported("<missing>")
	}
	names := sqlast.NameParts(sqlast.ListAt(typeName, "names"))
	if len(names) == 0 {
		return sqltype.SqlType{}, pgwire.TypeIsNotSupported("<missing>")
	}
	raw := strings.ToLower(names[len(names)-1])

	var length uint64
	for _, m := range sqlast.ListAt(typeName, "typmods") {
		if mm, ok := m.(map[string]any); ok {
			if aConst := sqlast.Fields(mm, "A_Const"); aConst != nil {
				if ival := sqlast.Fields(aConst, "ival"); ival != nil {
					if n, ok := ival["ival"].(float64); ok {
						length = uint64(n)
					}
				}
			}
		}
	}

	t, ok := sqltype.FromParsedDataType(raw, length)
	if !ok {
		return sqltype.SqlType{}, pgwire.TypeIsNotSupported(raw)
	}
	if t.TypeID() == sqltype.Real.TypeID() || t.TypeID() == sqltype.DoublePrecision.TypeID() {
		return sqltype.SqlType{}, pgwire.FeatureNotSupported("real/double precision wire projection")
	}
	return t, nil
}

func analyzeInsert(node map[string]any, dd *catalog.DataDefinition) (Description, *pgwire.QueryError) {
	relation := sqlast.Fields(node, "relation")
	schemaName, tableName, qerr := resolveTableName(relation)
	if qerr != nil {
		return nil, qerr
	}
	desc, err := dd.TableDesc(schemaName, tableName)
	if err != nil {
		return nil, notFoundToQueryError(err, schemaName, tableName)
	}

	sqlTypes := make([]sqltype.SqlType, len(desc.Columns))
	for i, c := range desc.Columns {
		sqlTypes[i] = c.Type()
	}

	var rows [][]any
	selectStmt := sqlast.Fields(node, "selectStmt")
	if inner := sqlast.Fields(selectStmt, "SelectStmt"); inner != nil {
		for _, rawRow := range sqlast.ListAt(inner, "valuesLists") {
			rowList, _ := rawRow.(map[string]any)
			items := sqlast.ListAt(sqlast.Fields(rowList, "List"), "items")
			rows = append(rows, items)
		}
	}

	return InsertDescription{
		SchemaName: schemaName,
		TableName:  tableName,
		SchemaID:   desc.SchemaID,
		TableID:    desc.TableID,
		SqlTypes:   sqlTypes,
		ValueRows:  rows,
	}, nil
}

func analyzeUpdate(node map[string]any, dd *catalog.DataDefinition) (Description, *pgwire.QueryError) {
	relation := sqlast.Fields(node, "relation")
	schemaName, tableName, qerr := resolveTableName(relation)
	if qerr != nil {
		return nil, qerr
	}
	desc, err := dd.TableDesc(schemaName, tableName)
	if err != nil {
		return nil, notFoundToQueryError(err, schemaName, tableName)
	}

	colSet := make(map[string]bool, len(desc.Columns))
	for _, c := range desc.Columns {
		colSet[c.Name] = true
	}

	var assignments []Assignment
	for _, raw := range sqlast.ListAt(node, "targetList") {
		target, _ := raw.(map[string]any)
		resTarget := sqlast.Fields(target, "ResTarget")
		if resTarget == nil {
			continue
		}
		colName, _ := sqlast.StringAt(resTarget, "name")
		if !colSet[colName] {
			return nil, pgwire.ColumnDoesNotExist(colName)
		}
		assignments = append(assignments, Assignment{
			ColumnName: colName,
			RawValue:   sqlast.Fields(resTarget, "val"),
		})
	}

	columns := make([]ColumnDef, len(desc.Columns))
	for i, c := range desc.Columns {
		columns[i] = ColumnDef{Name: c.Name, Type: c.Type()}
	}

	return UpdateDescription{
		SchemaName:  schemaName,
		TableName:   tableName,
		SchemaID:    desc.SchemaID,
		TableID:     desc.TableID,
		Columns:     columns,
		Assignments: assignments,
		Predicate:   resolveWherePredicate(node),
	}, nil
}

func analyzeDelete(node map[string]any, dd *catalog.DataDefinition) (Description, *pgwire.QueryError) {
	relation := sqlast.Fields(node, "relation")
	schemaName, tableName, qerr := resolveTableName(relation)
	if qerr != nil {
		return nil, qerr
	}
	desc, err := dd.TableDesc(schemaName, tableName)
	if err != nil {
		return nil, notFoundToQueryError(err, schemaName, tableName)
	}
	return DeleteDescription{
		SchemaName: schemaName,
		TableName:  tableName,
		SchemaID:   desc.SchemaID,
		TableID:    desc.TableID,
		Predicate:  resolveWherePredicate(node),
	}, nil
}

func analyzeSelect(node map[string]any, dd *catalog.DataDefinition) (Description, *pgwire.QueryError) {
	fromClause := sqlast.ListAt(node, "fromClause")
	if len(fromClause) != 1 {
		return nil, pgwire.FeatureNotSupported("SELECT over more than one table")
	}
	rangeVar, _ := fromClause[0].(map[string]any)
	relation := sqlast.Fields(rangeVar, "RangeVar")
	schemaName, tableName, qerr := resolveTableName(relation)
	if qerr != nil {
		return nil, qerr
	}
	desc, err := dd.TableDesc(schemaName, tableName)
	if err != nil {
		return nil, notFoundToQueryError(err, schemaName, tableName)
	}

	allColumns := make([]ColumnDef, len(desc.Columns))
	for i, c := range desc.Columns {
		allColumns[i] = ColumnDef{Name: c.Name, Type: c.Type()}
	}

	targets := sqlast.ListAt(node, "targetList")
	projected := allColumns
	if !isSelectStar(targets) {
		byName := make(map[string]ColumnDef, len(allColumns))
		for _, c := range allColumns {
			byName[c.Name] = c
		}
		projected = nil
		for _, raw := range targets {
			target, _ := raw.(map[string]any)
			resTarget := sqlast.Fields(target, "ResTarget")
			if resTarget == nil {
				continue
			}
			colRef := sqlast.Fields(resTarget, "val")
			colRef = sqlast.Fields(colRef, "ColumnRef")
			fields := sqlast.ListAt(colRef, "fields")
			parts := sqlast.NameParts(fields)
			if len(parts) == 0 {
				continue
			}
			name := parts[len(parts)-1]
			col, ok := byName[name]
			if !ok {
				return nil, pgwire.ColumnDoesNotExist(name)
			}
			projected = append(projected, col)
		}
	}

	return SelectDescription{
		SchemaName: schemaName,
		TableName:  tableName,
		SchemaID:   desc.SchemaID,
		TableID:    desc.TableID,
		Columns:    projected,
		Predicate:  resolveWherePredicate(node),
	}, nil
}

func isSelectStar(targets []any) bool {
	if len(targets) != 1 {
		return false
	}
	target, _ := targets[0].(map[string]any)
	resTarget := sqlast.Fields(target, "ResTarget")
	colRef := sqlast.Fields(sqlast.Fields(resTarget, "val"), "ColumnRef")
	return sqlast.HasStar(sqlast.ListAt(colRef, "fields"))
}

// resolveWherePredicate supports the single "column = literal" equality
// filter the executor applies while scanning every row of the table.
// Anything else shaped is ignored rather than rejected, leaving a full
// table scan with no filtering applied.
func resolveWherePredicate(node map[string]any) *Predicate {
	where := sqlast.Fields(node, "whereClause")
	aExpr := sqlast.Fields(where, "A_Expr")
	if aExpr == nil {
		return nil
	}
	kind, _ := sqlast.StringAt(aExpr, "kind")
	if kind != "AEXPR_OP" {
		return nil
	}
	names := sqlast.NameParts(sqlast.ListAt(aExpr, "name"))
	if len(names) != 1 || names[0] != "=" {
		return nil
	}
	lexpr := sqlast.Fields(aExpr, "lexpr")
	colRef := sqlast.Fields(lexpr, "ColumnRef")
	parts := sqlast.NameParts(sqlast.ListAt(colRef, "fields"))
	if len(parts) == 0 {
		return nil
	}
	rexpr := sqlast.Fields(aExpr, "rexpr")
	return &Predicate{ColumnName: parts[len(parts)-1], RawValue: rexpr}
}

// notFoundToQueryError maps a catalog.NotFoundError to the wire taxonomy,
// distinguishing a missing schema (schema_does_not_exist) from a missing
// table within an existing one (table_does_not_exist).
func notFoundToQueryError(err error, schemaName, tableName string) *pgwire.QueryError {
	var nf *catalog.NotFoundError
	if e, ok := err.(*catalog.NotFoundError); ok {
		nf = e
	}
	if nf == nil {
		return pgwire.FeatureNotSupported(err.Error())
	}
	if nf.Kind == catalog.NotFoundSchema {
		return pgwire.SchemaDoesNotExist(schemaName)
	}
	return pgwire.TableDoesNotExist(schemaName + "." + tableName)
}
