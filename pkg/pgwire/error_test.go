package pgwire

import "testing"

func TestQueryErrorKindStrings(t *testing.T) {
	cases := map[*QueryError]string{
		SchemaDoesNotExist("s"):             "schema_does_not_exist",
		SchemaAlreadyExists("s"):            "schema_already_exists",
		TableDoesNotExist("s.t"):            "table_does_not_exist",
		TableAlreadyExists("s.t"):           "table_already_exists",
		ColumnDoesNotExist("c"):             "column_does_not_exist",
		DuplicateColumn("c"):                "duplicate_column",
		TypeIsNotSupported("jsonb"):         "type_is_not_supported",
		SyntaxError("bad"):                  "syntax_error",
		FeatureNotSupported("x"):            "feature_not_supported",
		ProtocolViolation("x"):              "protocol_violation",
		InvalidParameterValue("x"):          "invalid_parameter_value",
		PreparedStatementDoesNotExist("s1"): "prepared_statement_does_not_exist",
		PortalDoesNotExist("p1"):            "portal_does_not_exist",
		TableNamingError("bad name"):        "table_naming_error",
	}
	for err, want := range cases {
		if got := err.Kind.String(); got != want {
			t.Errorf("Kind.String() = %q, want %q", got, want)
		}
	}
}

func TestUndefinedFunctionArgs(t *testing.T) {
	err := UndefinedFunction("+", "STRING", "STRING")
	if err.Kind != ErrUndefinedFunction {
		t.Fatalf("Kind = %v, want ErrUndefinedFunction", err.Kind)
	}
	want := []string{"+", "STRING", "STRING"}
	if len(err.Args) != len(want) {
		t.Fatalf("Args = %v, want %v", err.Args, want)
	}
	for i := range want {
		if err.Args[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, err.Args[i], want[i])
		}
	}
}
