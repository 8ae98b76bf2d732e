package dbopen

import (
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenMemory_Pragmas(t *testing.T) {
	// WHAT: OpenMemory yields a usable database with foreign keys on.
	// WHY: Every store test builds on this helper.
	db := OpenMemory(t)
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma query: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpen_WithSchema(t *testing.T) {
	// WHAT: Queued schema SQL runs at open time.
	db := OpenMemory(t, WithSchema(`CREATE TABLE probe (id TEXT PRIMARY KEY)`))
	if _, err := db.Exec(`INSERT INTO probe (id) VALUES ('x')`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}
}
