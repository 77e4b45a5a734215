package pgwire

import "fmt"

// QueryErrorKind is the closed user-facing error taxonomy, unchanged in
// name from the taxonomy the analyzer/planner/executor/session raise.
type QueryErrorKind uint8

const (
	ErrSchemaDoesNotExist QueryErrorKind = iota
	ErrSchemaAlreadyExists
	ErrTableDoesNotExist
	ErrTableAlreadyExists
	ErrColumnDoesNotExist
	ErrDuplicateColumn
	ErrTypeIsNotSupported
	ErrUndefinedFunction
	ErrSyntaxError
	ErrFeatureNotSupported
	ErrProtocolViolation
	ErrInvalidParameterValue
	ErrPreparedStatementDoesNotExist
	ErrPortalDoesNotExist
	ErrTableNamingError
)

// QueryError is the wire-facing error shape: a closed kind plus the
// message arguments needed to render it, kept structured rather than
// pre-formatted so a caller can localize or format independently.
type QueryError struct {
	Kind QueryErrorKind
	Args []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s(%v)", e.Kind, e.Args)
}

func (k QueryErrorKind) String() string {
	switch k {
	case ErrSchemaDoesNotExist:
		return "schema_does_not_exist"
	case ErrSchemaAlreadyExists:
		return "schema_already_exists"
	case ErrTableDoesNotExist:
		return "table_does_not_exist"
	case ErrTableAlreadyExists:
		return "table_already_exists"
	case ErrColumnDoesNotExist:
		return "column_does_not_exist"
	case ErrDuplicateColumn:
		return "duplicate_column"
	case ErrTypeIsNotSupported:
		return "type_is_not_supported"
	case ErrUndefinedFunction:
		return "undefined_function"
	case ErrSyntaxError:
		return "syntax_error"
	case ErrFeatureNotSupported:
		return "feature_not_supported"
	case ErrProtocolViolation:
		return "protocol_violation"
	case ErrInvalidParameterValue:
		return "invalid_parameter_value"
	case ErrPreparedStatementDoesNotExist:
		return "prepared_statement_does_not_exist"
	case ErrPortalDoesNotExist:
		return "portal_does_not_exist"
	case ErrTableNamingError:
		return "table_naming_error"
	default:
		return "unknown_error"
	}
}

func SchemaDoesNotExist(name string) *QueryError {
	return &QueryError{Kind: ErrSchemaDoesNotExist, Args: []string{name}}
}

func SchemaAlreadyExists(name string) *QueryError {
	return &QueryError{Kind: ErrSchemaAlreadyExists, Args: []string{name}}
}

func TableDoesNotExist(qualifiedName string) *QueryError {
	return &QueryError{Kind: ErrTableDoesNotExist, Args: []string{qualifiedName}}
}

func TableAlreadyExists(qualifiedName string) *QueryError {
	return &QueryError{Kind: ErrTableAlreadyExists, Args: []string{qualifiedName}}
}

func ColumnDoesNotExist(name string) *QueryError {
	return &QueryError{Kind: ErrColumnDoesNotExist, Args: []string{name}}
}

func DuplicateColumn(name string) *QueryError {
	return &QueryError{Kind: ErrDuplicateColumn, Args: []string{name}}
}

func TypeIsNotSupported(rawName string) *QueryError {
	return &QueryError{Kind: ErrTypeIsNotSupported, Args: []string{rawName}}
}

// UndefinedFunction renders the exact "op(lhs_general, rhs_general)"
// message shape from the typing table tests.
func UndefinedFunction(op string, lhs, rhs string) *QueryError {
	return &QueryError{Kind: ErrUndefinedFunction, Args: []string{op, lhs, rhs}}
}

func SyntaxError(inner string) *QueryError {
	return &QueryError{Kind: ErrSyntaxError, Args: []string{inner}}
}

func FeatureNotSupported(description string) *QueryError {
	return &QueryError{Kind: ErrFeatureNotSupported, Args: []string{description}}
}

func ProtocolViolation(message string) *QueryError {
	return &QueryError{Kind: ErrProtocolViolation, Args: []string{message}}
}

func InvalidParameterValue(message string) *QueryError {
	return &QueryError{Kind: ErrInvalidParameterValue, Args: []string{message}}
}

func PreparedStatementDoesNotExist(name string) *QueryError {
	return &QueryError{Kind: ErrPreparedStatementDoesNotExist, Args: []string{name}}
}

func PortalDoesNotExist(name string) *QueryError {
	return &QueryError{Kind: ErrPortalDoesNotExist, Args: []string{name}}
}

func TableNamingError(message string) *QueryError {
	return &QueryError{Kind: ErrTableNamingError, Args: []string{message}}
}
