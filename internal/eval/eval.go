// Package eval reduces a ScalarOp expression tree against a row of
// sqltype.Datum values into a single Datum, enforcing the binary-operator
// typing table: arithmetic over numbers, concatenation over strings,
// bitwise operators over fraction-free numbers, comparison over matching
// general types.
package eval

import (
	"github.com/tolledo/database/pkg/pgwire"
	"github.com/tolledo/database/pkg/sqltype"
)

// BinaryOperator is the closed set of supported binary operators.
type BinaryOperator string

const (
	OpAdd        BinaryOperator = "+"
	OpSub        BinaryOperator = "-"
	OpMul        BinaryOperator = "*"
	OpDiv        BinaryOperator = "/"
	OpMod        BinaryOperator = "%"
	OpConcat     BinaryOperator = "||"
	OpBitwiseAnd BinaryOperator = "&"
	OpBitwiseOr  BinaryOperator = "|"
	OpEq         BinaryOperator = "="
	OpNotEq      BinaryOperator = "<>"
	OpLess       BinaryOperator = "<"
	OpLessEq     BinaryOperator = "<="
	OpGreater    BinaryOperator = ">"
	OpGreaterEq  BinaryOperator = ">="
)

// ScalarOp is a node in the expression tree: a column reference, a
// literal value, or a binary operator application over two sub-trees.
type ScalarOp interface {
	isScalarOp()
}

// Column references a row cell by its unqualified name.
type Column struct {
	Name string
}

// Value is a literal, already-typed scalar.
type Value struct {
	Datum sqltype.Datum
}

// Binary applies a BinaryOperator to two reduced operands.
type Binary struct {
	Op  BinaryOperator
	Lhs ScalarOp
	Rhs ScalarOp
}

func (Column) isScalarOp() {}
func (Value) isScalarOp()  {}
func (Binary) isScalarOp() {}

// Row is the evaluation context: the current row's cells plus the
// unqualified column name → ordinal mapping used to resolve Column nodes.
type Row struct {
	Cells   []sqltype.Datum
	Columns map[string]int
}

// Eval reduces op against row, returning the resulting Datum or the
// pgwire.QueryError the typing table rejects it with.
func Eval(op ScalarOp, row Row) (sqltype.Datum, *pgwire.QueryError) {
	switch n := op.(type) {
	case Column:
		idx, ok := row.Columns[n.Name]
		if !ok || idx >= len(row.Cells) {
			return sqltype.Datum{}, pgwire.ColumnDoesNotExist(n.Name)
		}
		return row.Cells[idx], nil
	case Value:
		return n.Datum, nil
	case Binary:
		lhs, err := Eval(n.Lhs, row)
		if err != nil {
			return sqltype.Datum{}, err
		}
		rhs, err := Eval(n.Rhs, row)
		if err != nil {
			return sqltype.Datum{}, err
		}
		return evalBinary(n.Op, lhs, rhs)
	default:
		return sqltype.Datum{}, pgwire.FeatureNotSupported("unknown scalar op")
	}
}

func evalBinary(op BinaryOperator, lhs, rhs sqltype.Datum) (sqltype.Datum, *pgwire.QueryError) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return evalArithmetic(op, lhs, rhs)
	case OpConcat:
		return evalConcat(lhs, rhs)
	case OpBitwiseAnd, OpBitwiseOr:
		return evalBitwise(op, lhs, rhs)
	case OpEq, OpNotEq, OpLess, OpLessEq, OpGreater, OpGreaterEq:
		return evalComparison(op, lhs, rhs)
	default:
		return sqltype.Datum{}, pgwire.FeatureNotSupported(string(op))
	}
}

func evalArithmetic(op BinaryOperator, lhs, rhs sqltype.Datum) (sqltype.Datum, *pgwire.QueryError) {
	if lhs.General() != sqltype.GeneralNumber || rhs.General() != sqltype.GeneralNumber {
		return sqltype.Datum{}, pgwire.UndefinedFunction(string(op), generalLabel(lhs), generalLabel(rhs))
	}
	l, _ := lhs.Number()
	r, _ := rhs.Number()
	switch op {
	case OpAdd:
		return sqltype.FromNumber(l.Add(r)), nil
	case OpSub:
		return sqltype.FromNumber(l.Sub(r)), nil
	case OpMul:
		return sqltype.FromNumber(l.Mul(r)), nil
	case OpDiv:
		if r.IsZero() {
			return sqltype.Datum{}, pgwire.InvalidParameterValue("division by zero")
		}
		return sqltype.FromNumber(l.Div(r)), nil
	case OpMod:
		if r.IsZero() {
			return sqltype.Datum{}, pgwire.InvalidParameterValue("division by zero")
		}
		return sqltype.FromNumber(l.Mod(r)), nil
	}
	panic("unreachable")
}

func evalConcat(lhs, rhs sqltype.Datum) (sqltype.Datum, *pgwire.QueryError) {
	if lhs.General() != sqltype.GeneralString || rhs.General() != sqltype.GeneralString {
		return sqltype.Datum{}, pgwire.UndefinedFunction(string(OpConcat), generalLabel(lhs), generalLabel(rhs))
	}
	l, _ := lhs.String()
	r, _ := rhs.String()
	return sqltype.FromString(l + r), nil
}

func evalBitwise(op BinaryOperator, lhs, rhs sqltype.Datum) (sqltype.Datum, *pgwire.QueryError) {
	if lhs.General() != sqltype.GeneralNumber || rhs.General() != sqltype.GeneralNumber {
		return sqltype.Datum{}, pgwire.UndefinedFunction(string(op), bitwiseLabel(lhs), bitwiseLabel(rhs))
	}
	if lhs.HasFractionalPart() || rhs.HasFractionalPart() {
		return sqltype.Datum{}, pgwire.UndefinedFunction(string(op), bitwiseLabel(lhs), bitwiseLabel(rhs))
	}
	l, _ := lhs.Number()
	r, _ := rhs.Number()
	li := l.IntPart()
	ri := r.IntPart()
	switch op {
	case OpBitwiseAnd:
		return sqltype.FromInt64(li & ri), nil
	case OpBitwiseOr:
		return sqltype.FromInt64(li | ri), nil
	}
	panic("unreachable")
}

func evalComparison(op BinaryOperator, lhs, rhs sqltype.Datum) (sqltype.Datum, *pgwire.QueryError) {
	if lhs.General() != rhs.General() {
		return sqltype.Datum{}, pgwire.UndefinedFunction(string(op), generalLabel(lhs), generalLabel(rhs))
	}
	var cmp int
	switch lhs.General() {
	case sqltype.GeneralNumber:
		l, _ := lhs.Number()
		r, _ := rhs.Number()
		cmp = l.Cmp(r)
	case sqltype.GeneralString:
		l, _ := lhs.String()
		r, _ := rhs.String()
		switch {
		case l < r:
			cmp = -1
		case l > r:
			cmp = 1
		}
	case sqltype.GeneralBool:
		l, _ := lhs.Bool()
		r, _ := rhs.Bool()
		cmp = boolCmp(l, r)
	}
	return sqltype.FromBool(compareResult(op, cmp)), nil
}

func boolCmp(l, r bool) int {
	if l == r {
		return 0
	}
	if !l && r {
		return -1
	}
	return 1
}

func compareResult(op BinaryOperator, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNotEq:
		return cmp != 0
	case OpLess:
		return cmp < 0
	case OpLessEq:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEq:
		return cmp >= 0
	}
	return false
}

// generalLabel renders the operand type name for non-bitwise typing
// errors: the plain GeneralType spelling.
func generalLabel(d sqltype.Datum) string {
	return d.General().String()
}

// bitwiseLabel renders the operand type name for bitwise typing errors:
// "FLOAT" for a Number operand with a fractional part, the general
// spelling otherwise (including for non-Number operands, which fail the
// same check one level up).
func bitwiseLabel(d sqltype.Datum) string {
	if d.General() == sqltype.GeneralNumber && d.HasFractionalPart() {
		return "FLOAT"
	}
	return d.General().String()
}
