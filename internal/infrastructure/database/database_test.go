package database

import "testing"

func TestPqQuoteIdentifier(t *testing.T) {
	tests := map[string]string{
		"photos":     `"photos"`,
		`we"ird`:     `"we""ird"`,
		"with space": `"with space"`,
	}
	for in, want := range tests {
		if got := pqQuoteIdentifier(in); got != want {
			t.Errorf("pqQuoteIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConnectRequiresDSN(t *testing.T) {
	if _, err := Connect(Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestEnsureDatabaseExistsSkipsNonURLDSN(t *testing.T) {
	if err := ensureDatabaseExists("host=localhost user=photo dbname=photos"); err != nil {
		t.Fatalf("expected key=value DSN to be skipped, got %v", err)
	}
	if err := ensureDatabaseExists("postgres://localhost:5432/postgres"); err != nil {
		t.Fatalf("expected postgres database to be skipped, got %v", err)
	}
}
