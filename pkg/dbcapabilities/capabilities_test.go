package dbcapabilities

import (
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected DatabaseID
		ok       bool
	}{
		{name: "canonical id", input: "postgres", expected: PostgreSQL, ok: true},
		{name: "mixed case id", input: "Cassandra", expected: Cassandra, ok: true},
		{name: "upper case id", input: "MYSQL", expected: MySQL, ok: true},
		{name: "alias", input: "postgresql", expected: PostgreSQL, ok: true},
		{name: "short alias", input: "pg", expected: PostgreSQL, ok: true},
		{name: "cql alias", input: "CQL", expected: Cassandra, ok: true},
		{name: "mariadb maps to mysql", input: "mariadb", expected: MySQL, ok: true},
		{name: "surrounding whitespace", input: "  postgres  ", expected: PostgreSQL, ok: true},
		{name: "unknown", input: "oracle", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseID(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseID(%q) ok = %t, want %t", tt.input, ok, tt.ok)
			}
			if ok && id != tt.expected {
				t.Errorf("ParseID(%q) = %s, want %s", tt.input, id, tt.expected)
			}
		})
	}
}

func TestIsSystemDatabase(t *testing.T) {
	tests := []struct {
		name     string
		id       DatabaseID
		database string
		expected bool
	}{
		{name: "cassandra system keyspace", id: Cassandra, database: "system", expected: true},
		{name: "cassandra system prefix", id: Cassandra, database: "system_backup_v2", expected: true},
		{name: "cassandra case insensitive", id: Cassandra, database: "SYSTEM_AUTH", expected: true},
		{name: "cassandra user keyspace", id: Cassandra, database: "app", expected: false},
		{name: "postgres template", id: PostgreSQL, database: "template0", expected: true},
		{name: "postgres user database", id: PostgreSQL, database: "app", expected: false},
		{name: "mysql performance schema", id: MySQL, database: "performance_schema", expected: true},
		{name: "mysql user schema", id: MySQL, database: "shop", expected: false},
		{name: "unknown id never matches", id: DatabaseID("oracle"), database: "system", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSystemDatabase(tt.id, tt.database); got != tt.expected {
				t.Errorf("IsSystemDatabase(%s, %q) = %t, want %t", tt.id, tt.database, got, tt.expected)
			}
		})
	}
}

func TestGetByName(t *testing.T) {
	cap, ok := GetByName("PostgreSQL")
	if !ok {
		t.Fatalf("expected capability for product name lookup")
	}
	if cap.ID != PostgreSQL {
		t.Errorf("expected %s, got %s", PostgreSQL, cap.ID)
	}
	if cap.DefaultPort != 5432 {
		t.Errorf("expected default port 5432, got %d", cap.DefaultPort)
	}

	if _, ok := GetByName("not-a-database"); ok {
		t.Errorf("expected lookup miss for unknown name")
	}
}
