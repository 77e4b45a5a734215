package planner

import (
	"strconv"

	"github.com/tolledo/database/internal/sqlast"
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// extractLiteral reads a pg_query value-expression node — an A_Const, or a
// unary-minus A_Expr wrapping a numeric A_Const — and coerces it to target.
// Placeholders (ParamRef) are expected to have already been substituted
// with literal A_Const nodes by the session's ParamBinder pass before a
// statement ever reaches the planner, so this is the only literal shape
// the planner needs to handle.
func extractLiteral(node map[string]any, target sqltype.SqlType) (sqltype.Datum, *pgwire.QueryError) {
	negative := false
	aConst := sqlast.Fields(node, "A_Const")
	if aConst == nil {
		if expr := sqlast.Fields(node, "A_Expr"); expr != nil {
			names := sqlast.NameParts(sqlast.ListAt(expr, "name"))
			if len(names) == 1 && names[0] == "-" && expr["lexpr"] == nil {
				negative = true
				if rexpr, ok := expr["rexpr"].(map[string]any); ok {
					aConst = sqlast.Fields(rexpr, "A_Const")
				}
			}
		}
	}
	if aConst == nil {
		return sqltype.Datum{}, pgwire.FeatureNotSupported("unsupported literal expression")
	}
	if isnull, _ := aConst["isnull"].(bool); isnull {
		return sqltype.Null(), nil
	}

	switch target.General() {
	case sqltype.GeneralBool:
		if bval := sqlast.Fields(aConst, "boolval"); bval != nil {
			b, _ := bval["boolval"].(bool)
			return sqltype.FromBool(b), nil
		}
		return sqltype.Datum{}, pgwire.InvalidParameterValue("expected boolean literal")
	case sqltype.GeneralString:
		if sval := sqlast.Fields(aConst, "sval"); sval != nil {
			s, _ := sval["sval"].(string)
			return sqltype.FromString(s), nil
		}
		return sqltype.Datum{}, pgwire.InvalidParameterValue("expected string literal")
	default:
		return extractNumber(aConst, target, negative)
	}
}

// extractUntypedLiteral coerces a literal node using the GeneralType its
// own shape implies, for predicate contexts (DELETE/SELECT WHERE) that
// have no single declared target column type in hand at the call site.
func extractUntypedLiteral(node map[string]any) (sqltype.Datum, *pgwire.QueryError) {
	aConst := sqlast.Fields(node, "A_Const")
	negative := false
	if aConst == nil {
		if expr := sqlast.Fields(node, "A_Expr"); expr != nil {
			names := sqlast.NameParts(sqlast.ListAt(expr, "name"))
			if len(names) == 1 && names[0] == "-" && expr["lexpr"] == nil {
				negative = true
				if rexpr, ok := expr["rexpr"].(map[string]any); ok {
					aConst = sqlast.Fields(rexpr, "A_Const")
				}
			}
		}
	}
	if aConst == nil {
		return sqltype.Datum{}, pgwire.FeatureNotSupported("unsupported literal expression")
	}
	if isnull, _ := aConst["isnull"].(bool); isnull {
		return sqltype.Null(), nil
	}
	if bval := sqlast.Fields(aConst, "boolval"); bval != nil {
		b, _ := bval["boolval"].(bool)
		return sqltype.FromBool(b), nil
	}
	if sval := sqlast.Fields(aConst, "sval"); sval != nil {
		s, _ := sval["sval"].(string)
		return sqltype.FromString(s), nil
	}
	if ival := sqlast.Fields(aConst, "ival"); ival != nil {
		n, _ := ival["ival"].(float64)
		v := int64(n)
		if negative {
			v = -v
		}
		return sqltype.FromInt64(v), nil
	}
	if fval := sqlast.Fields(aConst, "fval"); fval != nil {
		s, _ := fval["fval"].(string)
		if negative && len(s) > 0 && s[0] != '-' {
			s = "-" + s
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return sqltype.Datum{}, pgwire.InvalidParameterValue("not a number: " + s)
		}
		return sqltype.FromFloat64(f), nil
	}
	return sqltype.Datum{}, pgwire.InvalidParameterValue("expected a literal value")
}

func extractNumber(aConst map[string]any, target sqltype.SqlType, negative bool) (sqltype.Datum, *pgwire.QueryError) {
	var raw string
	if ival := sqlast.Fields(aConst, "ival"); ival != nil {
		n, _ := ival["ival"].(float64)
		raw = strconv.FormatInt(int64(n), 10)
	} else if fval := sqlast.Fields(aConst, "fval"); fval != nil {
		s, _ := fval["fval"].(string)
		raw = s
	} else {
		return sqltype.Datum{}, pgwire.InvalidParameterValue("expected numeric literal")
	}
	if negative && len(raw) > 0 && raw[0] != '-' {
		raw = "-" + raw
	}

	switch {
	case target.IsInteger():
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sqltype.Datum{}, pgwire.InvalidParameterValue("not an integer: " + raw)
		}
		switch target.TypeID() {
		case sqltype.SmallInt.TypeID():
			return sqltype.FromInt16(int16(n)), nil
		case sqltype.Integer.TypeID():
			return sqltype.FromInt32(int32(n)), nil
		default:
			return sqltype.FromInt64(n), nil
		}
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sqltype.Datum{}, pgwire.InvalidParameterValue("not a number: " + raw)
		}
		return sqltype.FromFloat64(f), nil
	}
}
