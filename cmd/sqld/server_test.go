package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestServerRunSimpleQueryFlow(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(strings.Join([]string{
		"CREATE SCHEMA s",
		"CREATE TABLE s.t (c integer)",
		"INSERT INTO s.t VALUES (1)",
		"SELECT * FROM s.t",
	}, "\n") + "\n")

	srv, err := NewServer(WithIO(in, &out))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"CREATE SCHEMA", "CREATE TABLE", "INSERT 1", "1", "SELECT 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q does not contain %q", got, want)
		}
	}
}

func TestServerSurfacesQueryErrors(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("CREATE TABLE only_one_part (c bool)\n")

	srv, err := NewServer(WithIO(in, &out))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "ERROR") {
		t.Errorf("output %q should contain an ERROR line", out.String())
	}
}
