package session

import (
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// bindParams walks node (a raw pg_query AST subtree) replacing every
// ParamRef node with a synthesized A_Const node carrying the corresponding
// bound value. node is descended generically since a ParamRef can appear
// anywhere a value-expression can (INSERT's valuesLists, an UPDATE
// assignment, a WHERE clause).
func bindParams(node any, params []sqltype.Datum) any {
	switch n := node.(type) {
	case map[string]any:
		if paramRef, ok := n["ParamRef"].(map[string]any); ok {
			number, _ := paramRef["number"].(float64)
			idx := int(number) - 1
			if idx < 0 || idx >= len(params) {
				return n
			}
			return buildAConst(params[idx])
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = bindParams(v, params)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = bindParams(v, params)
		}
		return out
	default:
		return node
	}
}

// buildAConst synthesizes the A_Const-shaped node extractLiteral/
// extractUntypedLiteral (internal/planner) already know how to read, so
// bound parameters reach the planner in exactly the literal shape a
// hand-written query literal would.
func buildAConst(d sqltype.Datum) map[string]any {
	if d.IsNull() {
		return map[string]any{"A_Const": map[string]any{"isnull": true}}
	}
	switch d.General() {
	case sqltype.GeneralBool:
		b, _ := d.Bool()
		return map[string]any{"A_Const": map[string]any{
			"boolval": map[string]any{"boolval": b},
		}}
	case sqltype.GeneralString:
		s, _ := d.String()
		return map[string]any{"A_Const": map[string]any{
			"sval": map[string]any{"sval": s},
		}}
	default:
		n, _ := d.Number()
		return map[string]any{"A_Const": map[string]any{
			"fval": map[string]any{"fval": n.String()},
		}}
	}
}

// padFormats applies PostgreSQL's Bind format-code padding rule: zero
// format codes means every value is text, one means every value shares
// that one format, and any other count must equal n exactly.
func padFormats(formats []pgwire.PostgreSqlFormat, n int) ([]pgwire.PostgreSqlFormat, error) {
	switch len(formats) {
	case 0:
		out := make([]pgwire.PostgreSqlFormat, n)
		for i := range out {
			out[i] = pgwire.FormatText
		}
		return out, nil
	case 1:
		out := make([]pgwire.PostgreSqlFormat, n)
		for i := range out {
			out[i] = formats[0]
		}
		return out, nil
	case n:
		return formats, nil
	default:
		return nil, pgwire.ProtocolViolation("format code count does not match parameter count")
	}
}
